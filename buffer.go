// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Buffer is a mutable sequence of bytes backed by a circular doubly-linked
// list of pooled segments. It is simultaneously a Source (bytes can be read
// out of it) and a Sink (bytes can be written into it), and the zero value
// is a valid, empty Buffer.
//
// A Buffer is not safe for concurrent use by multiple goroutines without
// external synchronization.
type Buffer struct {
	head *segment // nil when empty; head.prev is the tail
	size int64
}

// NewBuffer returns a new, empty Buffer. The zero value works too; this
// constructor exists for parity with the rest of the package's New*
// functions.
func NewBuffer() *Buffer { return &Buffer{} }

// Len reports the number of bytes currently buffered.
func (b *Buffer) Len() int64 { return b.size }

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool { return b.size == 0 }

// Clear discards all buffered bytes, recycling every segment it owns
// outright and releasing shared ones for the GC to reclaim.
func (b *Buffer) Clear() {
	if b.head == nil {
		return
	}
	s := b.head
	for {
		next := s.next
		s.prev, s.next = nil, nil
		if !s.shared {
			recycleSegment(s)
		}
		if next == s || next == b.head {
			break
		}
		s = next
	}
	b.head = nil
	b.size = 0
}

// writableTail returns the segment new bytes should be appended to,
// allocating and linking a fresh one if the buffer is empty or its current
// tail has no trailing free space.
func (b *Buffer) writableTail() *segment {
	if b.head == nil {
		s := takeSegment()
		s.prev, s.next = s, s
		b.head = s
		return s
	}
	tail := b.head.prev
	if tail.owner && tail.limit < segmentSize {
		return tail
	}
	s := takeSegment()
	tail.push(s)
	return s
}

// appendBytes copies p into the buffer's tail segments, allocating new
// segments as needed. It never fails.
func (b *Buffer) appendBytes(p []byte) {
	for len(p) > 0 {
		tail := b.writableTail()
		n := copy(tail.data[tail.limit:], p)
		tail.limit += int32(n)
		b.size += int64(n)
		p = p[n:]
	}
}

func (b *Buffer) writeByteRaw(c byte) {
	tail := b.writableTail()
	tail.data[tail.limit] = c
	tail.limit++
	b.size++
}

// dropHeadIfExhausted unlinks and recycles the head segment once its
// readable range is empty.
func (b *Buffer) dropHeadIfExhausted() {
	s := b.head
	if s.pos != s.limit {
		return
	}
	b.head = s.pop()
	if !s.shared {
		recycleSegment(s)
	}
}

// byteAt returns the byte at the given logical offset without consuming
// it. It panics if pos is out of range; callers must bounds-check first.
func (b *Buffer) byteAt(pos int64) byte {
	if pos < 0 || pos >= b.size {
		panic("segbuf: byteAt: index out of range")
	}
	s := b.head
	offset := int64(0)
	for {
		segLen := int64(s.len())
		if pos < offset+segLen {
			return s.data[int64(s.pos)+pos-offset]
		}
		offset += segLen
		s = s.next
	}
}

// segmentsSnapshot returns the readable byte range of every segment
// currently held, in logical order, without copying. The result is only
// valid until the buffer is next mutated.
func (b *Buffer) segmentsSnapshot() [][]byte {
	if b.head == nil {
		return nil
	}
	var out [][]byte
	s := b.head
	for {
		if n := s.len(); n > 0 {
			out = append(out, s.data[s.pos:s.limit])
		}
		s = s.next
		if s == b.head {
			break
		}
	}
	return out
}

// snapshotSegments marks every segment currently held as shared and
// returns a detached copy of each, suitable for building a segmented
// ByteString or a Clone. The originals remain attached to b and keep
// their owner flag, so b may still append past its own tail's limit.
func (b *Buffer) snapshotSegments() []*segment {
	if b.head == nil {
		return nil
	}
	segs := make([]*segment, 0, 4)
	s := b.head
	for {
		segs = append(segs, s.sharedCopy())
		s = s.next
		if s == b.head {
			break
		}
	}
	return segs
}

// Clone returns an independent Buffer with the same bytes in the same
// order. The clone shares backing arrays with b, so no bytes are copied.
// Writes to the clone allocate fresh segments, and writes to b only append
// past the shared range, so neither buffer sees the other's writes.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{size: b.size}
	segs := b.snapshotSegments()
	if len(segs) == 0 {
		return clone
	}
	n := len(segs)
	for i, s := range segs {
		s.prev = segs[(i-1+n)%n]
		s.next = segs[(i+1)%n]
	}
	clone.head = segs[0]
	return clone
}

// Snapshot returns an immutable ByteString holding a copy-on-write view of
// the buffer's current contents. It does not consume the buffer.
func (b *Buffer) Snapshot() ByteString {
	if b.size == 0 {
		return ByteString{}
	}
	return newSegmentedByteString(b.snapshotSegments(), b.size)
}

// NetBuffers returns a net.Buffers view of b's currently readable
// segments, in logical order, without copying segment data. Passing the
// result to a net.Buffers.WriteTo against a *net.TCPConn lets the kernel
// perform a single vectored writev instead of one syscall per segment.
//
// The returned Buffers aliases b's segment memory: it must be written
// before b is next mutated (Read, Write, Clone, Snapshot), and the
// caller must not retain it past that point.
func (b *Buffer) NetBuffers() Buffers {
	segs := b.segmentsSnapshot()
	if len(segs) == 0 {
		return nil
	}
	out := make(Buffers, len(segs))
	for i, s := range segs {
		out[i] = s
	}
	return out
}

// Write appends byteCount bytes consumed from the front of src into b.
// Whole segments are moved by relinking pointers rather than copying
// where possible; only the boundary bytes of a partial segment are
// copied or memcopied into an existing tail.
func (b *Buffer) Write(src *Buffer, byteCount int64) error {
	if src == b {
		return errors.Wrap(ErrIllegalArgument, "write: source and destination are the same buffer")
	}
	if byteCount < 0 || byteCount > src.size {
		return errors.Wrap(ErrIllegalArgument, "write: byteCount out of range")
	}
	for byteCount > 0 {
		if byteCount < int64(src.head.len()) {
			var tail *segment
			if b.head != nil {
				tail = b.head.prev
			}
			if tail != nil && byteCount <= int64(tail.spaceForAppend()) {
				tail.writeFrom(src.head, int32(byteCount))
				b.size += byteCount
				src.size -= byteCount
				byteCount = 0
				continue
			}
			src.head = src.head.split(int32(byteCount))
		}

		segmentToMove := src.head
		movedByteCount := int64(segmentToMove.len())
		src.head = segmentToMove.pop()
		if b.head == nil {
			segmentToMove.prev, segmentToMove.next = segmentToMove, segmentToMove
			b.head = segmentToMove
		} else {
			tail := b.head.prev
			tail.push(segmentToMove)
			segmentToMove.compact()
		}
		b.size += movedByteCount
		src.size -= movedByteCount
		byteCount -= movedByteCount
	}
	return nil
}

// Read moves up to byteCount bytes from the front of b into sink. It
// returns the number of bytes actually moved, or an end-of-input error if
// b is empty.
func (b *Buffer) Read(sink *Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, errors.Wrap(ErrIllegalArgument, "read: byteCount < 0")
	}
	if b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	if byteCount > b.size {
		byteCount = b.size
	}
	if err := sink.Write(b, byteCount); err != nil {
		return 0, err
	}
	return byteCount, nil
}

// WriteTo drains the buffer into w until empty or w returns an error.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for b.size > 0 {
		s := b.head
		n, err := w.Write(s.data[s.pos:s.limit])
		if n > 0 {
			total += int64(n)
			b.size -= int64(n)
			s.pos += int32(n)
			b.dropHeadIfExhausted()
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom appends bytes read from r until r returns io.EOF.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		tail := b.writableTail()
		n, err := r.Read(tail.data[tail.limit:segmentSize])
		if n > 0 {
			tail.limit += int32(n)
			b.size += int64(n)
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close is a no-op: a Buffer owns no external resource. It exists so
// Buffer satisfies the Source and Sink contracts.
func (b *Buffer) Close() error { return nil }

// Flush is a no-op for the same reason as Close.
func (b *Buffer) Flush() error { return nil }

// Timeout always returns a Timeout with no deadline: a Buffer's
// operations are pure memory manipulation and never block.
func (b *Buffer) Timeout() *Timeout { return noTimeout }

// WriteBytes appends a copy of p to the buffer.
func (b *Buffer) WriteBytes(p []byte) (int, error) {
	b.appendBytes(p)
	return len(p), nil
}

// WriteByte appends a single byte, satisfying io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.writeByteRaw(c)
	return nil
}

// ReadByte removes and returns the first byte, satisfying io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	if b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	s := b.head
	c := s.data[s.pos]
	s.pos++
	b.size--
	b.dropHeadIfExhausted()
	return c, nil
}

// ReadBytes copies up to len(p) bytes into p, removing them from the
// buffer, and returns the number of bytes copied.
func (b *Buffer) ReadBytes(p []byte) (int, error) {
	if len(p) > 0 && b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	n := 0
	for n < len(p) && b.size > 0 {
		s := b.head
		c := copy(p[n:], s.data[s.pos:s.limit])
		s.pos += int32(c)
		b.size -= int64(c)
		n += c
		b.dropHeadIfExhausted()
	}
	return n, nil
}

// readExact fills p entirely or fails with an end-of-input error without
// consuming any bytes.
func (b *Buffer) readExact(p []byte) error {
	if int64(len(p)) > b.size {
		return errors.WithStack(ErrEndOfInput)
	}
	_, err := b.ReadBytes(p)
	return err
}

// Skip discards byteCount bytes from the front of the buffer without
// copying them anywhere.
func (b *Buffer) Skip(byteCount int64) error {
	if byteCount < 0 || byteCount > b.size {
		return errors.Wrap(ErrIllegalArgument, "skip: byteCount out of range")
	}
	for byteCount > 0 {
		s := b.head
		n := int64(s.len())
		if n > byteCount {
			s.pos += int32(byteCount)
			b.size -= byteCount
			byteCount = 0
		} else {
			b.size -= n
			byteCount -= n
			b.head = s.pop()
			if !s.shared {
				recycleSegment(s)
			}
		}
	}
	return nil
}

// truncate discards bytes from the tail until only newSize bytes remain.
func (b *Buffer) truncate(newSize int64) error {
	if newSize < 0 || newSize > b.size {
		return errors.Wrap(ErrIllegalArgument, "truncate: newSize out of range")
	}
	drop := b.size - newSize
	for drop > 0 {
		tail := b.head.prev
		n := int64(tail.len())
		if n > drop {
			tail.limit -= int32(drop)
			b.size -= drop
			drop = 0
		} else {
			b.size -= n
			drop -= n
			wasHead := tail == b.head
			tail.pop()
			if !tail.shared {
				recycleSegment(tail)
			}
			if wasHead {
				b.head = nil
			}
		}
	}
	return nil
}

// ReadByteString removes and returns exactly byteCount bytes as a flat
// ByteString.
func (b *Buffer) ReadByteString(byteCount int64) (ByteString, error) {
	if byteCount < 0 || byteCount > b.size {
		return ByteString{}, errors.Wrap(ErrIllegalArgument, "readByteString: byteCount out of range")
	}
	buf := make([]byte, byteCount)
	if _, err := b.ReadBytes(buf); err != nil {
		return ByteString{}, err
	}
	return ByteString{flat: buf}, nil
}

// Fixed-width big-endian and little-endian integers.

func (b *Buffer) ReadShort() (int16, error) {
	var buf [2]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(buf[:])), nil
}

func (b *Buffer) ReadShortLe() (int16, error) {
	var buf [2]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(buf[:])), nil
}

func (b *Buffer) WriteShort(v int16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	b.appendBytes(buf[:])
	return nil
}

func (b *Buffer) WriteShortLe(v int16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	b.appendBytes(buf[:])
	return nil
}

func (b *Buffer) ReadInt() (int32, error) {
	var buf [4]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func (b *Buffer) ReadIntLe() (int32, error) {
	var buf [4]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (b *Buffer) WriteInt(v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	b.appendBytes(buf[:])
	return nil
}

func (b *Buffer) WriteIntLe(v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	b.appendBytes(buf[:])
	return nil
}

func (b *Buffer) ReadLong() (int64, error) {
	var buf [8]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func (b *Buffer) ReadLongLe() (int64, error) {
	var buf [8]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func (b *Buffer) WriteLong(v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	b.appendBytes(buf[:])
	return nil
}

func (b *Buffer) WriteLongLe(v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	b.appendBytes(buf[:])
	return nil
}

// minInt64Div10 and maxOverflowDigit bound the last safe multiply-add step
// of ReadDecimalLong: accumulating in negative space (acc = acc*10 - digit)
// lets -9223372036854775808 round-trip without overflowing int64, since
// its magnitude has no positive int64 representation.
const minInt64Div10 = math.MinInt64 / 10
const maxOverflowDigit = 8

// ReadDecimalLong parses an optionally-signed run of ASCII decimal digits
// from the front of the buffer and consumes the bytes that formed the
// token. On overflow it also consumes the digit that overflowed; when no
// digit follows the optional '-', it fails with a number-format error
// having consumed only that '-'.
func (b *Buffer) ReadDecimalLong() (int64, error) {
	if b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	var i int64
	negative := false
	if b.byteAt(0) == '-' {
		negative = true
		i = 1
	}
	var acc int64
	seenDigit := false
	for i < b.size {
		c := b.byteAt(i)
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if acc < minInt64Div10 || (acc == minInt64Div10 && d > maxOverflowDigit) {
			i++
			_ = b.Skip(i)
			return 0, errors.Wrap(ErrNumberFormat, "readDecimalLong: number too large")
		}
		acc = acc*10 - d
		seenDigit = true
		i++
	}
	if !seenDigit {
		_ = b.Skip(i)
		return 0, errors.Wrap(ErrNumberFormat, "readDecimalLong: expected a digit")
	}
	if !negative && acc == math.MinInt64 {
		_ = b.Skip(i)
		return 0, errors.Wrap(ErrNumberFormat, "readDecimalLong: number too large")
	}
	_ = b.Skip(i)
	if negative {
		return acc, nil
	}
	return -acc, nil
}

// WriteDecimalLong writes v as an ASCII decimal string.
func (b *Buffer) WriteDecimalLong(v int64) error {
	var tmp [20]byte
	b.appendBytes(strconv.AppendInt(tmp[:0], v, 10))
	return nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ReadHexadecimalUnsignedLong parses a run of ASCII hex digits from the
// front of the buffer as an unsigned 64-bit integer. A run whose value
// does not fit in 64 bits fails with a number-format error and consumes
// nothing.
func (b *Buffer) ReadHexadecimalUnsignedLong() (uint64, error) {
	if b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	var acc uint64
	var i int64
	for i < b.size {
		d, ok := hexDigit(b.byteAt(i))
		if !ok {
			break
		}
		if acc>>60 != 0 {
			return 0, errors.Wrap(ErrNumberFormat, "readHexadecimalUnsignedLong: number too large")
		}
		acc = acc<<4 | uint64(d)
		i++
	}
	if i == 0 {
		return 0, errors.Wrap(ErrNumberFormat, "readHexadecimalUnsignedLong: expected a hex digit")
	}
	_ = b.Skip(i)
	return acc, nil
}

// WriteHexadecimalUnsignedLong writes v as lowercase ASCII hex with no
// leading zeros (other than a lone "0" for the zero value).
func (b *Buffer) WriteHexadecimalUnsignedLong(v uint64) error {
	var tmp [16]byte
	b.appendBytes(strconv.AppendUint(tmp[:0], v, 16))
	return nil
}

// WriteString appends s as UTF-8. Malformed byte sequences, lone
// surrogates, and overlong encodings in s are each replaced with a
// literal '?' (0x3F) byte.
func (b *Buffer) WriteString(s string) (int, error) {
	if utf8.ValidString(s) {
		n, _ := b.WriteBytes([]byte(s))
		return n, nil
	}
	n := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			b.writeByteRaw(c)
			i++
			n++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.writeByteRaw('?')
			i++
			n++
			continue
		}
		_ = b.WriteUTF8CodePoint(r)
		i += size
		n++
	}
	return n, nil
}

// WriteUTF8CodePoint appends the UTF-8 encoding of r. Lone surrogate code
// points (U+D800-U+DFFF) and values outside the Unicode range are each
// replaced with a literal '?' (0x3F) byte, matching WriteString.
func (b *Buffer) WriteUTF8CodePoint(r rune) error {
	switch {
	case r < 0:
		b.writeByteRaw('?')
	case r < 0x80:
		b.writeByteRaw(byte(r))
	case r < 0x800:
		b.writeByteRaw(byte(0xC0 | (r >> 6)))
		b.writeByteRaw(byte(0x80 | (r & 0x3F)))
	case r >= 0xD800 && r <= 0xDFFF:
		b.writeByteRaw('?')
	case r < 0x10000:
		b.writeByteRaw(byte(0xE0 | (r >> 12)))
		b.writeByteRaw(byte(0x80 | ((r >> 6) & 0x3F)))
		b.writeByteRaw(byte(0x80 | (r & 0x3F)))
	case r <= 0x10FFFF:
		b.writeByteRaw(byte(0xF0 | (r >> 18)))
		b.writeByteRaw(byte(0x80 | ((r >> 12) & 0x3F)))
		b.writeByteRaw(byte(0x80 | ((r >> 6) & 0x3F)))
		b.writeByteRaw(byte(0x80 | (r & 0x3F)))
	default:
		b.writeByteRaw('?')
	}
	return nil
}

// ReadUTF8CodePoint decodes and consumes one UTF-8 code point from the
// front of the buffer. Malformed or overlong sequences and lone
// surrogates decode as U+FFFD and consume exactly one byte.
func (b *Buffer) ReadUTF8CodePoint() (rune, error) {
	if b.size == 0 {
		return 0, errors.WithStack(ErrEndOfInput)
	}
	var tmp [4]byte
	n := int64(len(tmp))
	if b.size < n {
		n = b.size
	}
	for i := int64(0); i < n; i++ {
		tmp[i] = b.byteAt(i)
	}
	r, size := utf8.DecodeRune(tmp[:n])
	if r == utf8.RuneError && size <= 1 {
		_ = b.Skip(1)
		return utf8.RuneError, nil
	}
	_ = b.Skip(int64(size))
	return r, nil
}

// ReadUTF8 decodes the entire remaining buffer as UTF-8.
func (b *Buffer) ReadUTF8() (string, error) {
	return b.ReadUTF8N(b.size)
}

// ReadUTF8N decodes exactly byteCount bytes as UTF-8. Malformed sequences
// are replaced with U+FFFD, the Unicode replacement character.
func (b *Buffer) ReadUTF8N(byteCount int64) (string, error) {
	if byteCount < 0 || byteCount > b.size {
		return "", errors.Wrap(ErrIllegalArgument, "readUtf8: byteCount out of range")
	}
	raw := make([]byte, byteCount)
	if _, err := b.ReadBytes(raw); err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		sb.WriteRune(r)
		raw = raw[size:]
	}
	return sb.String(), nil
}

// ReadUTF8Line reads and consumes one line of UTF-8 text, dropping the
// terminating "\n" or "\r\n". ok is false only when the buffer was already
// empty; a final line with no terminator is still returned with ok true.
func (b *Buffer) ReadUTF8Line() (line string, ok bool, err error) {
	idx := b.IndexOf('\n', 0, b.size)
	if idx == -1 {
		if b.size == 0 {
			return "", false, nil
		}
		s, err := b.ReadUTF8N(b.size)
		return s, true, err
	}
	lineEnd := idx
	if lineEnd > 0 && b.byteAt(lineEnd-1) == '\r' {
		lineEnd--
	}
	s, err := b.ReadUTF8N(lineEnd)
	if err != nil {
		return "", false, err
	}
	if err := b.Skip(idx - lineEnd + 1); err != nil {
		return "", false, err
	}
	return s, true, nil
}

// ReadUTF8LineStrict reads and consumes one line of UTF-8 text, failing
// with an end-of-input error if no "\n" is found. An optional limit caps
// how far ahead the search may look before failing the same way.
func (b *Buffer) ReadUTF8LineStrict(limit ...int64) (string, error) {
	lim := int64(-1)
	if len(limit) > 0 {
		lim = limit[0]
	}
	searchLimit := b.size
	if lim >= 0 && lim < searchLimit {
		searchLimit = lim
	}
	idx := b.IndexOf('\n', 0, searchLimit)
	if idx == -1 {
		return "", errors.WithStack(ErrEndOfInput)
	}
	lineEnd := idx
	if lineEnd > 0 && b.byteAt(lineEnd-1) == '\r' {
		lineEnd--
	}
	s, err := b.ReadUTF8N(lineEnd)
	if err != nil {
		return "", err
	}
	return s, b.Skip(idx - lineEnd + 1)
}

// IndexOf returns the first offset in [fromIndex, toIndex) holding target,
// or -1 if it does not occur in that range.
func (b *Buffer) IndexOf(target byte, fromIndex, toIndex int64) int64 {
	if fromIndex < 0 {
		fromIndex = 0
	}
	if toIndex > b.size {
		toIndex = b.size
	}
	if fromIndex >= toIndex || b.head == nil {
		return -1
	}
	s := b.head
	offset := int64(0)
	for offset+int64(s.len()) <= fromIndex {
		offset += int64(s.len())
		s = s.next
	}
	for offset < toIndex {
		segLen := int64(s.len())
		start := int64(s.pos)
		if offset < fromIndex {
			start += fromIndex - offset
		}
		end := int64(s.limit)
		if offset+segLen > toIndex {
			end = int64(s.pos) + (toIndex - offset)
		}
		for i := start; i < end; i++ {
			if s.data[i] == target {
				return offset + (i - int64(s.pos))
			}
		}
		offset += segLen
		s = s.next
	}
	return -1
}

// IndexOfByteString returns the first offset at or after fromIndex where
// target occurs in full, or -1 if it does not occur.
func (b *Buffer) IndexOfByteString(target ByteString, fromIndex int64) int64 {
	n := target.Len()
	if n == 0 {
		return fromIndex
	}
	first := target.byteAt(0)
	limit := b.size - n
	for from := fromIndex; from <= limit; {
		idx := b.IndexOf(first, from, limit+1)
		if idx == -1 {
			return -1
		}
		match := true
		for i := int64(1); i < n; i++ {
			if b.byteAt(idx+i) != target.byteAt(i) {
				match = false
				break
			}
		}
		if match {
			return idx
		}
		from = idx + 1
	}
	return -1
}

// IndexOfElement returns the first offset at or after fromIndex holding
// any one of the bytes in targets, or -1 if none occur.
func (b *Buffer) IndexOfElement(targets ByteString, fromIndex int64) int64 {
	if fromIndex < 0 {
		fromIndex = 0
	}
	if b.head == nil || fromIndex >= b.size {
		return -1
	}
	if targets.Len() == 2 {
		ia := b.IndexOf(targets.byteAt(0), fromIndex, b.size)
		ib := b.IndexOf(targets.byteAt(1), fromIndex, b.size)
		if ia == -1 {
			return ib
		}
		if ib == -1 || ia < ib {
			return ia
		}
		return ib
	}
	s := b.head
	offset := int64(0)
	for offset+int64(s.len()) <= fromIndex {
		offset += int64(s.len())
		s = s.next
	}
	for offset < b.size {
		start := int64(s.pos)
		if offset < fromIndex {
			start += fromIndex - offset
		}
		for i := start; i < int64(s.limit); i++ {
			if targets.containsByte(s.data[i]) {
				return offset + (i - int64(s.pos))
			}
		}
		offset += int64(s.len())
		s = s.next
	}
	return -1
}

// UnsafeCursor exposes direct, unsynchronized access to a Buffer's
// segment data for callers implementing their own scanning loops without
// per-byte call overhead. A cursor starts detached; Next or Seek must be
// called before Data is valid.
//
// ExpandBuffer only writes past the limit of a writable tail segment, a
// range that no ByteString or Buffer clone sharing that segment can see,
// so no copy-on-write step is needed there.
type UnsafeCursor struct {
	buf *Buffer
	seg *segment
	// offset is the logical buffer offset of Data[0], -1 before the first
	// Next/Seek call, and the buffer's size once past the last segment.
	offset int64
	// Data is the currently positioned segment's readable range. It is
	// nil when the cursor is detached or past the last segment.
	Data []byte
}

// ReadUnsafe returns a detached cursor over b.
func (b *Buffer) ReadUnsafe() *UnsafeCursor {
	return &UnsafeCursor{buf: b, offset: -1}
}

// Next advances the cursor to the next segment (the first, if detached)
// and returns the number of bytes now available via Data, or -1 if the
// buffer holds no more segments.
func (c *UnsafeCursor) Next() int64 {
	if c.offset == -1 && c.seg == nil {
		if c.buf.head == nil {
			return -1
		}
		c.seg = c.buf.head
		c.offset = 0
	} else {
		if c.seg == nil {
			return -1
		}
		c.offset += int64(len(c.Data))
		c.seg = c.seg.next
		if c.seg == c.buf.head {
			c.seg = nil
			c.Data = nil
			return -1
		}
	}
	c.Data = c.seg.data[c.seg.pos:c.seg.limit]
	return int64(len(c.Data))
}

// Seek moves the cursor to the segment containing logical offset pos and
// returns how many bytes of that segment, starting at pos, are available
// via Data. It panics if pos is out of range.
func (c *UnsafeCursor) Seek(pos int64) int64 {
	if pos < 0 || pos > c.buf.size {
		panic("segbuf: UnsafeCursor.Seek: index out of range")
	}
	if pos == c.buf.size {
		c.seg = nil
		c.Data = nil
		c.offset = c.buf.size
		return -1
	}
	s := c.buf.head
	offset := int64(0)
	for offset+int64(s.len()) <= pos {
		offset += int64(s.len())
		s = s.next
	}
	c.seg = s
	c.offset = pos
	c.Data = s.data[int64(s.pos)+(pos-offset) : s.limit]
	return int64(len(c.Data))
}

// ResizeBuffer changes the buffer's total size to newSize, truncating or
// zero-extending the tail, and detaches the cursor.
func (c *UnsafeCursor) ResizeBuffer(newSize int64) error {
	if newSize < 0 {
		return errors.Wrap(ErrIllegalArgument, "resizeBuffer: newSize < 0")
	}
	c.seg = nil
	c.Data = nil
	c.offset = -1
	if newSize == c.buf.size {
		return nil
	}
	if newSize < c.buf.size {
		return c.buf.truncate(newSize)
	}
	growth := newSize - c.buf.size
	zero := make([]byte, segmentSize)
	for growth > 0 {
		n := growth
		if n > int64(len(zero)) {
			n = int64(len(zero))
		}
		c.buf.appendBytes(zero[:n])
		growth -= n
	}
	return nil
}

// ExpandBuffer grows the buffer by at least minByteCount bytes (and up to
// one full extra segment), positions the cursor over the newly added
// range, and returns its logical starting offset.
func (c *UnsafeCursor) ExpandBuffer(minByteCount int64) int64 {
	if minByteCount <= 0 || minByteCount > segmentSize {
		panic("segbuf: UnsafeCursor.ExpandBuffer: minByteCount out of range")
	}
	startOffset := c.buf.size
	tail := c.buf.writableTail()
	if int64(segmentSize-tail.limit) < minByteCount {
		tail = tail.push(takeSegment())
	}
	avail := int64(segmentSize - tail.limit)
	grow := minByteCount
	if grow < avail {
		grow = avail
	}
	tail.limit += int32(grow)
	c.buf.size += grow
	c.seg = tail
	c.offset = startOffset
	c.Data = tail.data[int64(tail.limit)-grow : tail.limit]
	return startOffset
}

// Close detaches the cursor. UnsafeCursor holds no resource of its own;
// Close exists so callers can defer it unconditionally.
func (c *UnsafeCursor) Close() error {
	c.seg = nil
	c.Data = nil
	c.offset = -1
	return nil
}

// Select consumes and returns the index of the first Options candidate
// that is a prefix of the buffer's current contents, or -1 without
// consuming anything if none match.
func (b *Buffer) Select(o *Options) int {
	node := o.root
	var consumed int64
	for {
		if node.optionIndex >= 0 {
			_ = b.Skip(consumed)
			return node.optionIndex
		}
		if consumed >= b.size {
			return -1
		}
		child, ok := node.children[b.byteAt(consumed)]
		if !ok {
			return -1
		}
		consumed++
		node = child
	}
}
