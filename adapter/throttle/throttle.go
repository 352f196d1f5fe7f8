// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package throttle rate-limits Sink and Source traffic using
// golang.org/x/time/rate, for callers copying through a segbuf Pipe that
// must not exceed a configured bytes-per-second budget.
package throttle

import (
	"context"

	"code.hybscloud.com/segbuf"
	"golang.org/x/time/rate"
)

// Sink wraps a delegate Sink, blocking each Write until the configured
// rate.Limiter admits that many bytes.
type Sink struct {
	delegate segbuf.Sink
	limiter  *rate.Limiter
}

// NewSink wraps delegate with a token-bucket limiter allowing
// bytesPerSecond sustained throughput and a burst of the same size.
func NewSink(delegate segbuf.Sink, bytesPerSecond int) *Sink {
	return &Sink{delegate: delegate, limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)}
}

func (s *Sink) Write(src *segbuf.Buffer, byteCount int64) error {
	for byteCount > 0 {
		chunk := int(byteCount)
		if burst := s.limiter.Burst(); chunk > burst {
			chunk = burst
		}
		if err := s.limiter.WaitN(context.Background(), chunk); err != nil {
			return err
		}
		if err := s.delegate.Write(src, int64(chunk)); err != nil {
			return err
		}
		byteCount -= int64(chunk)
	}
	return nil
}

func (s *Sink) Flush() error { return s.delegate.Flush() }
func (s *Sink) Close() error { return s.delegate.Close() }
func (s *Sink) Timeout() *segbuf.Timeout { return s.delegate.Timeout() }

// Source wraps a delegate Source, blocking each Read until the configured
// rate.Limiter admits that many bytes.
type Source struct {
	delegate segbuf.Source
	limiter  *rate.Limiter
}

// NewSource wraps delegate with a token-bucket limiter allowing
// bytesPerSecond sustained throughput and a burst of the same size.
func NewSource(delegate segbuf.Source, bytesPerSecond int) *Source {
	return &Source{delegate: delegate, limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)}
}

func (s *Source) Read(sink *segbuf.Buffer, byteCount int64) (int64, error) {
	if burst := int64(s.limiter.Burst()); byteCount > burst {
		byteCount = burst
	}
	if err := s.limiter.WaitN(context.Background(), int(byteCount)); err != nil {
		return 0, err
	}
	return s.delegate.Read(sink, byteCount)
}

func (s *Source) Close() error { return s.delegate.Close() }
func (s *Source) Timeout() *segbuf.Timeout { return s.delegate.Timeout() }
