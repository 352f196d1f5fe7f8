// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package file adapts os.File into segbuf Sources and Sinks, and
// provides a temp-file Sink that spills a buffered write to disk under a
// collision-resistant uuid-suffixed name.
package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"code.hybscloud.com/segbuf"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Sink adapts an *os.File into a segbuf.Sink.
type Sink struct {
	f       *os.File
	timeout *segbuf.Timeout
}

// NewSink wraps f. Callers retain ownership of closing f via the
// returned Sink's Close.
func NewSink(f *os.File) *Sink { return &Sink{f: f, timeout: segbuf.NewTimeout()} }

func (s *Sink) Write(src *segbuf.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.Len() {
		return errors.Wrap(segbuf.ErrIllegalArgument, "file: write byteCount out of range")
	}
	p := make([]byte, byteCount)
	if _, err := src.ReadBytes(p); err != nil {
		return err
	}
	_, err := s.f.Write(p)
	if err != nil {
		return errors.Wrap(segbuf.ErrIOFailure, err.Error())
	}
	return nil
}

func (s *Sink) Flush() error { return s.f.Sync() }
func (s *Sink) Close() error { return s.f.Close() }
func (s *Sink) Timeout() *segbuf.Timeout { return s.timeout }

// Source adapts an *os.File into a segbuf.Source.
type Source struct {
	f       *os.File
	timeout *segbuf.Timeout
}

// NewSource wraps f.
func NewSource(f *os.File) *Source { return &Source{f: f, timeout: segbuf.NewTimeout()} }

func (s *Source) Read(sink *segbuf.Buffer, byteCount int64) (int64, error) {
	p := make([]byte, byteCount)
	n, err := s.f.Read(p)
	if n > 0 {
		sink.WriteBytes(p[:n])
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return 0, errors.WithStack(segbuf.ErrEndOfInput)
			}
			return int64(n), nil
		}
		return int64(n), errors.Wrap(segbuf.ErrIOFailure, err.Error())
	}
	return int64(n), nil
}

func (s *Source) Close() error { return s.f.Close() }
func (s *Source) Timeout() *segbuf.Timeout { return s.timeout }

// CreateSpillSink creates a new file under dir named prefix followed by a
// random uuid, and returns a Sink writing to it along with the path,
// so concurrent flush-to-disk callers never collide on a shared name.
func CreateSpillSink(dir, prefix string) (*Sink, string, error) {
	name := filepath.Join(dir, fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, "", errors.Wrap(segbuf.ErrIOFailure, err.Error())
	}
	return NewSink(f), name, nil
}
