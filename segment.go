// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

// segmentSize is the canonical fixed capacity of every segment's backing
// array. Not part of the public API: callers must not depend on it.
const segmentSize = 8192

// shareMinimum is the smallest split size for which split() shares the
// source array instead of copying. Splits shorter than this threshold copy,
// since the fixed cost of a second live reference to a mostly-empty array
// outweighs the copy.
const shareMinimum = 1024

// segment is a fixed-capacity byte range with position, limit, and
// ownership/sharing flags. It is a node in a circular doubly-linked list
// when attached to a Buffer, and a node in a singly-linked intrusive list
// (via next) when sitting in the segment pool.
type segment struct {
	data []byte // always len(data) == segmentSize

	pos   int32 // inclusive start of the readable range
	limit int32 // exclusive end of the readable range

	shared bool // another segment or ByteString references data
	owner  bool // this segment may append bytes beyond limit

	prev, next *segment // circular doubly-linked list in a Buffer
}

func newSegment() *segment {
	return &segment{data: make([]byte, segmentSize), owner: true}
}

// sharedCopy returns a new segment that shares this segment's backing
// array. Both are marked shared. The original stays the owner and may
// still append past its limit; the copy is not an owner and cannot append.
// Neither may be recycled.
func (s *segment) sharedCopy() *segment {
	s.shared = true
	return &segment{data: s.data, pos: s.pos, limit: s.limit, shared: true, owner: false}
}

// unsharedCopy returns a new segment with a private copy of this
// segment's readable bytes, suitable for writing.
func (s *segment) unsharedCopy() *segment {
	cp := newSegment()
	n := copy(cp.data, s.data[s.pos:s.limit])
	cp.limit = int32(n)
	return cp
}

func (s *segment) len() int32 { return s.limit - s.pos }
func (s *segment) writableSpace() int32 {
	if !s.owner {
		return 0
	}
	return segmentSize - s.limit
}

// spaceForAppend returns how many more bytes s can absorb without
// allocating a new segment. A shared array can only grow into its
// trailing free space, since its leading pos bytes are still visible
// through the share and must not be shifted. A non-shared owner may also
// reclaim its leading pos bytes by shifting content down.
func (s *segment) spaceForAppend() int32 {
	if !s.owner {
		return 0
	}
	space := segmentSize - s.limit
	if !s.shared {
		space += s.pos
	}
	return space
}

// pop detaches this segment from its circular list and returns the
// successor, or nil if the list is now empty.
func (s *segment) pop() *segment {
	var result *segment
	if s.next != s {
		result = s.next
	}
	s.prev.next = s.next
	s.next.prev = s.prev
	s.next = nil
	s.prev = nil
	return result
}

// push inserts next after s in the circular list and returns next.
func (s *segment) push(next *segment) *segment {
	next.prev = s
	next.next = s.next
	s.next.prev = next
	s.next = next
	return next
}

// split splits the head of a circular list (s) into a prefix of
// writeBytes bytes and a suffix, returning the prefix segment. The
// original segment s becomes the suffix: its pos is advanced by
// writeBytes and it keeps its place in the list. The prefix is spliced in
// before s.
//
// If writeBytes >= shareMinimum, the prefix shares s's backing array
// (zero-copy); otherwise a fresh pooled segment is taken and writeBytes
// bytes are copied into it.
func (s *segment) split(writeBytes int32) *segment {
	if writeBytes <= 0 || writeBytes > s.len() {
		panic("segbuf: split: writeBytes out of range")
	}

	var prefix *segment
	if writeBytes >= shareMinimum {
		prefix = s.sharedCopy()
		prefix.limit = prefix.pos + writeBytes
	} else {
		prefix = takeSegment()
		copy(prefix.data, s.data[s.pos:s.pos+writeBytes])
		prefix.limit = writeBytes
	}

	s.pos += writeBytes
	s.prev.push(prefix)
	return prefix
}

// compact attempts to coalesce s into its predecessor when both are
// writable owners and the combined content fits one segment. On success
// it memcopies s's bytes into the predecessor, unlinks s, recycles it
// unless it is shared, and returns true.
func (s *segment) compact() bool {
	if s.prev == s {
		return false
	}
	prev := s.prev
	if !prev.owner || !s.owner {
		return false
	}
	byteCount := s.len()
	// A shared predecessor cannot reclaim its own leading pos bytes: that
	// range is still visible through the share. Only its trailing free
	// capacity is available to absorb s.
	available := segmentSize - prev.limit
	if !prev.shared {
		available += prev.pos
	}
	if byteCount > available {
		return false
	}
	prev.writeFrom(s, byteCount)
	s.pop()
	if !s.shared {
		recycleSegment(s)
	}
	return true
}

// writeFrom copies byteCount bytes from src's readable head into s, which
// must be a writable owner. If s's own readable bytes don't already begin
// at offset 0 and there isn't room to append in place, the existing bytes
// are shifted down first.
func (s *segment) writeFrom(src *segment, byteCount int32) {
	if !s.owner {
		panic("segbuf: writeFrom: segment is not writable")
	}
	if s.limit+byteCount > segmentSize {
		// Shift existing content down to reclaim leading space.
		n := s.limit - s.pos
		copy(s.data[0:n], s.data[s.pos:s.limit])
		s.pos = 0
		s.limit = n
	}
	copy(s.data[s.limit:s.limit+byteCount], src.data[src.pos:src.pos+byteCount])
	s.limit += byteCount
	src.pos += byteCount
}
