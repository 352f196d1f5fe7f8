// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hash provides streaming hash Sinks and Sources: a pass-through
// wrapper that updates a running hash.Hash alongside forwarding bytes to
// a delegate, for callers that need a digest of data in flight rather
// than a digest of a ByteString already fully buffered.
package hash

import (
	"hash"

	"code.hybscloud.com/segbuf"
	"golang.org/x/crypto/blake2b"
)

// HashingSink writes through to a delegate Sink while feeding every
// written byte into an embedded hash.Hash.
type HashingSink struct {
	delegate segbuf.Sink
	h        hash.Hash
}

// NewHashingSink wraps delegate with h, which should be freshly
// constructed (e.g. sha256.New()).
func NewHashingSink(delegate segbuf.Sink, h hash.Hash) *HashingSink {
	return &HashingSink{delegate: delegate, h: h}
}

// NewBlake2b256Sink wraps delegate with a BLAKE2b-256 running hash.
func NewBlake2b256Sink(delegate segbuf.Sink) (*HashingSink, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	return NewHashingSink(delegate, h), nil
}

func (s *HashingSink) Write(src *segbuf.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.Len() {
		return segbuf.ErrIllegalArgument
	}
	p := make([]byte, byteCount)
	if _, err := src.ReadBytes(p); err != nil {
		return err
	}
	s.h.Write(p)
	forward := segbuf.NewBuffer()
	forward.WriteBytes(p)
	return s.delegate.Write(forward, int64(len(p)))
}

func (s *HashingSink) Flush() error { return s.delegate.Flush() }
func (s *HashingSink) Close() error { return s.delegate.Close() }
func (s *HashingSink) Timeout() *segbuf.Timeout { return s.delegate.Timeout() }

// Sum returns the current digest without resetting the running hash.
func (s *HashingSink) Sum() segbuf.ByteString { return segbuf.NewByteString(s.h.Sum(nil)) }

// HashingSource reads through from a delegate Source while feeding every
// byte returned into an embedded hash.Hash.
type HashingSource struct {
	delegate segbuf.Source
	h        hash.Hash
}

// NewHashingSource wraps delegate with h.
func NewHashingSource(delegate segbuf.Source, h hash.Hash) *HashingSource {
	return &HashingSource{delegate: delegate, h: h}
}

func (s *HashingSource) Read(sink *segbuf.Buffer, byteCount int64) (int64, error) {
	staging := segbuf.NewBuffer()
	n, err := s.delegate.Read(staging, byteCount)
	if n > 0 {
		p := make([]byte, n)
		if _, rerr := staging.ReadBytes(p); rerr == nil {
			s.h.Write(p)
			sink.WriteBytes(p)
		}
	}
	return n, err
}

func (s *HashingSource) Close() error { return s.delegate.Close() }
func (s *HashingSource) Timeout() *segbuf.Timeout { return s.delegate.Timeout() }

// Sum returns the current digest without resetting the running hash.
func (s *HashingSource) Sum() segbuf.ByteString { return segbuf.NewByteString(s.h.Sum(nil)) }
