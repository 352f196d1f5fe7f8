// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "github.com/pkg/errors"

// BufferedSource wraps a Source with an internal Buffer, letting callers
// peek ahead and request a minimum number of buffered bytes without
// consuming them.
type BufferedSource interface {
	Source

	// Require blocks, reading from the underlying Source as needed, until
	// at least byteCount bytes are buffered, or fails with an
	// end-of-input error.
	Require(byteCount int64) error
	// Request is like Require but returns false instead of failing when
	// the underlying source is exhausted before byteCount bytes arrive.
	Request(byteCount int64) (bool, error)
	// Exhausted reports whether the underlying source has no more bytes,
	// buffering at least one byte if necessary to find out.
	Exhausted() (bool, error)
	// Peek returns a copy of the first byteCount buffered bytes without
	// consuming them, reading from the underlying source first if fewer
	// are buffered. It fails with an end-of-input error if the source
	// runs out before byteCount bytes arrive.
	Peek(byteCount int64) (ByteString, error)
	// Buffer exposes the underlying buffer for direct manipulation.
	Buffer() *Buffer
}

type realBufferedSource struct {
	source Source
	buf    *Buffer
	closed bool
}

// NewBufferedSource wraps source with a buffering layer.
func NewBufferedSource(source Source) BufferedSource {
	return &realBufferedSource{source: source, buf: NewBuffer()}
}

func (r *realBufferedSource) Buffer() *Buffer { return r.buf }

func (r *realBufferedSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, errors.Wrap(ErrIllegalArgument, "read: byteCount < 0")
	}
	if r.buf.Len() == 0 {
		if r.closed {
			return 0, errors.WithStack(ErrEndOfInput)
		}
		if _, err := r.source.Read(r.buf, segmentSize); err != nil {
			return 0, err
		}
	}
	n := byteCount
	if n > r.buf.Len() {
		n = r.buf.Len()
	}
	return r.buf.Read(sink, n)
}

func (r *realBufferedSource) Close() error {
	r.closed = true
	return r.source.Close()
}

func (r *realBufferedSource) Timeout() *Timeout { return r.source.Timeout() }

func (r *realBufferedSource) Require(byteCount int64) error {
	ok, err := r.Request(byteCount)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithStack(ErrEndOfInput)
	}
	return nil
}

func (r *realBufferedSource) Request(byteCount int64) (bool, error) {
	if byteCount < 0 {
		return false, errors.Wrap(ErrIllegalArgument, "request: byteCount < 0")
	}
	for r.buf.Len() < byteCount {
		if r.closed {
			return false, nil
		}
		_, err := r.source.Read(r.buf, segmentSize)
		if err != nil {
			if errors.Is(err, ErrEndOfInput) {
				r.closed = true
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func (r *realBufferedSource) Exhausted() (bool, error) {
	ok, err := r.Request(1)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (r *realBufferedSource) Peek(byteCount int64) (ByteString, error) {
	if err := r.Require(byteCount); err != nil {
		return ByteString{}, err
	}
	snap := r.buf.Snapshot()
	return snap.Substring(0, byteCount)
}

// BufferedSink wraps a Sink with an internal Buffer, batching small writes
// into full segments before they are flushed downstream.
type BufferedSink interface {
	Sink

	// Buffer exposes the underlying buffer for direct manipulation.
	Buffer() *Buffer
	// EmitCompleteSegments pushes every full segment currently buffered
	// downstream, keeping only a partial tail segment in memory.
	EmitCompleteSegments() error
}

type realBufferedSink struct {
	sink   Sink
	buf    *Buffer
	closed bool
}

// NewBufferedSink wraps sink with a buffering layer.
func NewBufferedSink(sink Sink) BufferedSink {
	return &realBufferedSink{sink: sink, buf: NewBuffer()}
}

func (r *realBufferedSink) Buffer() *Buffer { return r.buf }

func (r *realBufferedSink) Write(src *Buffer, byteCount int64) error {
	if err := r.buf.Write(src, byteCount); err != nil {
		return err
	}
	return r.EmitCompleteSegments()
}

// EmitCompleteSegments flushes every segment except a partial tail,
// mirroring the teacher's segment-aligned emission strategy so downstream
// writes land on whole pooled segments whenever possible.
func (r *realBufferedSink) EmitCompleteSegments() error {
	completeBytes := r.completeByteCount()
	if completeBytes == 0 {
		return nil
	}
	return r.sink.Write(r.buf, completeBytes)
}

func (r *realBufferedSink) completeByteCount() int64 {
	if r.buf.head == nil {
		return 0
	}
	total := r.buf.Len()
	tail := r.buf.head.prev
	if tail.owner && tail.limit < segmentSize {
		total -= int64(tail.len())
	}
	return total
}

func (r *realBufferedSink) Flush() error {
	if r.closed {
		return nil
	}
	if err := r.sink.Write(r.buf, r.buf.Len()); err != nil {
		return err
	}
	return r.sink.Flush()
}

func (r *realBufferedSink) Close() error {
	if r.closed {
		return nil
	}
	err := r.Flush()
	r.closed = true
	if cerr := r.sink.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *realBufferedSink) Timeout() *Timeout { return r.sink.Timeout() }
