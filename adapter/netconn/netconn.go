// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package netconn adapts a net.Conn into a segbuf Sink and Source. Writes
// use Buffer.NetBuffers so a multi-segment write reaches the kernel as a
// single vectored writev against a *net.TCPConn instead of one syscall
// per segment.
package netconn

import (
	"net"
	"time"

	"code.hybscloud.com/segbuf"
	"github.com/pkg/errors"
)

// connDeadline resolves a Timeout's absolute deadline and/or per-operation
// duration into a single time.Time suitable for net.Conn's
// SetReadDeadline/SetWriteDeadline, which only accept absolute points in
// time. The zero Time (no deadline) is returned when neither is set.
func connDeadline(t *segbuf.Timeout) time.Time {
	var d time.Time
	if t.HasDeadline() {
		d = t.DeadlineTime()
	}
	if dur := t.TimeoutDuration(); dur > 0 {
		byDuration := time.Now().Add(dur)
		if d.IsZero() || byDuration.Before(d) {
			d = byDuration
		}
	}
	return d
}

// Sink adapts a net.Conn into a segbuf.Sink.
type Sink struct {
	conn    net.Conn
	timeout *segbuf.Timeout
}

// NewSink wraps conn. Callers retain ownership of closing conn via the
// returned Sink's Close.
func NewSink(conn net.Conn) *Sink { return &Sink{conn: conn, timeout: segbuf.NewTimeout()} }

func (s *Sink) Write(src *segbuf.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.Len() {
		return errors.Wrap(segbuf.ErrIllegalArgument, "netconn: write byteCount out of range")
	}
	if d := connDeadline(s.timeout); !d.IsZero() {
		_ = s.conn.SetWriteDeadline(d)
	}

	staging := segbuf.NewBuffer()
	if _, err := src.Read(staging, byteCount); err != nil {
		return err
	}
	bufs := staging.NetBuffers()
	if _, err := bufs.WriteTo(s.conn); err != nil {
		return errors.Wrap(segbuf.ErrIOFailure, err.Error())
	}
	return nil
}

func (s *Sink) Flush() error { return nil }
func (s *Sink) Close() error { return s.conn.Close() }
func (s *Sink) Timeout() *segbuf.Timeout { return s.timeout }

// Source adapts a net.Conn into a segbuf.Source.
type Source struct {
	conn    net.Conn
	timeout *segbuf.Timeout
}

// NewSource wraps conn.
func NewSource(conn net.Conn) *Source { return &Source{conn: conn, timeout: segbuf.NewTimeout()} }

func (s *Source) Read(sink *segbuf.Buffer, byteCount int64) (int64, error) {
	if byteCount <= 0 {
		return 0, errors.Wrap(segbuf.ErrIllegalArgument, "netconn: read byteCount <= 0")
	}
	if d := connDeadline(s.timeout); !d.IsZero() {
		_ = s.conn.SetReadDeadline(d)
	}

	p := make([]byte, byteCount)
	n, err := s.conn.Read(p)
	if n > 0 {
		sink.WriteBytes(p[:n])
	}
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return int64(n), errors.Wrap(segbuf.ErrClosed, err.Error())
		}
		return int64(n), errors.Wrap(segbuf.ErrIOFailure, err.Error())
	}
	if n == 0 {
		return 0, errors.WithStack(segbuf.ErrEndOfInput)
	}
	return int64(n), nil
}

func (s *Source) Close() error { return s.conn.Close() }
func (s *Source) Timeout() *segbuf.Timeout { return s.timeout }
