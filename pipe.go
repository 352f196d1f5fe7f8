// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync"

	"github.com/pkg/errors"
)

// Pipe is a bounded in-memory channel between a Source and a Sink backed
// by a single shared Buffer. Writes past maxBufferSize block until a
// reader drains the pipe, and a read on an empty, still-open pipe blocks
// until a writer adds bytes or either end is closed.
//
// The source and sink halves carry independent Timeouts, since a reader
// and a writer on the same pipe are typically different goroutines with
// different deadlines.
type Pipe struct {
	maxBufferSize int64

	mu   sync.Mutex
	cond *sync.Cond
	buf  *Buffer

	sinkClosed   bool
	sourceClosed bool
	foldedSink   Sink // set by Fold; once non-nil, writes go straight through
	canceled     bool

	sourceTimeout *Timeout
	sinkTimeout   *Timeout
}

// NewPipe returns a Pipe that blocks writers once maxBufferSize bytes are
// buffered and unread.
func NewPipe(maxBufferSize int64) *Pipe {
	p := &Pipe{
		maxBufferSize: maxBufferSize,
		buf:           NewBuffer(),
		sourceTimeout: NewTimeout(),
		sinkTimeout:   NewTimeout(),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Source returns the read half of the pipe.
func (p *Pipe) Source() Source { return pipeSource{p} }

// Sink returns the write half of the pipe.
func (p *Pipe) Sink() Sink { return pipeSink{p} }

// Cancel unblocks any pending Read or Write with an error and marks both
// halves closed. Use it to abandon a pipe a consumer has given up on.
func (p *Pipe) Cancel() {
	p.mu.Lock()
	p.canceled = true
	p.sinkClosed = true
	p.sourceClosed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Fold redirects the pipe's remaining and future bytes straight into
// sink, bypassing the internal buffer once it has been drained. Further
// writes to the pipe's Sink go directly to sink without blocking on
// maxBufferSize. It is an error to call Fold more than once.
func (p *Pipe) Fold(sink Sink) error {
	p.mu.Lock()
	if p.foldedSink != nil {
		p.mu.Unlock()
		return errors.Wrap(ErrIllegalState, "fold: already folded")
	}
	buffered := NewBuffer()
	if err := buffered.Write(p.buf, p.buf.Len()); err != nil {
		p.mu.Unlock()
		return err
	}
	p.foldedSink = sink
	p.sourceClosed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	if buffered.Len() > 0 {
		if err := sink.Write(buffered, buffered.Len()); err != nil {
			return err
		}
	}
	return nil
}

type pipeSource struct{ p *Pipe }

func (s pipeSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	p := s.p
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.canceled {
			return 0, errors.WithStack(ErrClosed)
		}
		if p.sourceClosed {
			return 0, errors.Wrap(ErrClosed, "read: source is closed")
		}
		if p.buf.Len() > 0 {
			n := byteCount
			if n > p.buf.Len() {
				n = p.buf.Len()
			}
			if err := sink.Write(p.buf, n); err != nil {
				return 0, err
			}
			p.cond.Broadcast()
			return n, nil
		}
		if p.sinkClosed {
			return 0, errors.WithStack(ErrEndOfInput)
		}
		if err := p.sourceTimeout.WaitUntilNotified(p.cond); err != nil {
			return 0, err
		}
	}
}

func (s pipeSource) Close() error {
	p := s.p
	p.mu.Lock()
	p.sourceClosed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

func (s pipeSource) Timeout() *Timeout { return s.p.sourceTimeout }

type pipeSink struct{ p *Pipe }

func (s pipeSink) Write(src *Buffer, byteCount int64) error {
	p := s.p
	p.mu.Lock()
	if p.foldedSink != nil {
		folded := p.foldedSink
		p.mu.Unlock()
		return folded.Write(src, byteCount)
	}
	defer p.mu.Unlock()

	for byteCount > 0 {
		if p.canceled {
			return errors.WithStack(ErrClosed)
		}
		if p.sourceClosed {
			return errors.Wrap(ErrIllegalState, "write: source is closed")
		}
		if p.foldedSink != nil {
			folded := p.foldedSink
			p.mu.Unlock()
			err := folded.Write(src, byteCount)
			p.mu.Lock()
			return err
		}
		if p.buf.Len() >= p.maxBufferSize {
			if err := p.sinkTimeout.WaitUntilNotified(p.cond); err != nil {
				return err
			}
			continue
		}
		n := byteCount
		if room := p.maxBufferSize - p.buf.Len(); n > room {
			n = room
		}
		if err := p.buf.Write(src, n); err != nil {
			return err
		}
		byteCount -= n
		p.cond.Broadcast()
	}
	return nil
}

func (s pipeSink) Flush() error { return nil }

func (s pipeSink) Close() error {
	p := s.p
	p.mu.Lock()
	p.sinkClosed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

func (s pipeSink) Timeout() *Timeout { return s.p.sinkTimeout }
