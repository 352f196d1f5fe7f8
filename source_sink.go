// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"io"

	"github.com/pkg/errors"
)

// Source is anything bytes can be read from into a Buffer, modeled after
// Buffer's own Read method: Read, Close, and a Timeout governing how long
// a blocking implementation may take.
type Source interface {
	// Read moves up to byteCount bytes from the source into sink and
	// returns how many were moved. It returns an end-of-input error once
	// the source is exhausted.
	Read(sink *Buffer, byteCount int64) (int64, error)
	// Close releases any resource the source holds.
	Close() error
	// Timeout returns the Timeout governing this source's blocking
	// operations.
	Timeout() *Timeout
}

// Sink is anything bytes can be written to from a Buffer, modeled after
// Buffer's own Write method.
type Sink interface {
	// Write consumes byteCount bytes from the front of src.
	Write(src *Buffer, byteCount int64) error
	// Flush pushes any buffered bytes to their destination.
	Flush() error
	// Close flushes and releases any resource the sink holds.
	Close() error
	// Timeout returns the Timeout governing this sink's blocking
	// operations.
	Timeout() *Timeout
}

// readerSource adapts an io.Reader into a Source, staging raw reads
// through a pooled scratch buffer before copying into the destination
// Buffer's own segments.
type readerSource struct {
	r       io.Reader
	closer  io.Closer
	timeout *Timeout
}

// SourceFromReader adapts r into a Source. If r implements io.Closer,
// Close delegates to it.
func SourceFromReader(r io.Reader) Source {
	c, _ := r.(io.Closer)
	return &readerSource{r: r, closer: c, timeout: NewTimeout()}
}

func (s *readerSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, errors.Wrap(ErrIllegalArgument, "read: byteCount < 0")
	}
	if byteCount == 0 {
		return 0, nil
	}
	if err := s.timeout.ThrowIfReached(); err != nil {
		return 0, err
	}

	idx, err := scratchPool.Get()
	if err != nil {
		return 0, errors.Wrap(ErrIOFailure, err.Error())
	}
	defer func() { _ = scratchPool.Put(idx) }()
	scratch := scratchPool.Value(idx)

	limit := byteCount
	if limit > segmentSize {
		limit = segmentSize
	}
	n, rerr := s.r.Read(scratch[:limit])
	if n > 0 {
		sink.appendBytes(scratch[:n])
	}
	if rerr == io.EOF {
		if n == 0 {
			return 0, errors.WithStack(ErrEndOfInput)
		}
		return int64(n), nil
	}
	if rerr != nil {
		return int64(n), errors.Wrap(ErrIOFailure, rerr.Error())
	}
	return int64(n), nil
}

func (s *readerSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *readerSource) Timeout() *Timeout { return s.timeout }

// writerSink adapts an io.Writer into a Sink.
type writerSink struct {
	w       io.Writer
	flusher interface{ Flush() error }
	closer  io.Closer
	timeout *Timeout
}

// SinkFromWriter adapts w into a Sink. If w implements Flush() error or
// io.Closer, Flush and Close delegate to them respectively.
func SinkFromWriter(w io.Writer) Sink {
	f, _ := w.(interface{ Flush() error })
	c, _ := w.(io.Closer)
	return &writerSink{w: w, flusher: f, closer: c, timeout: NewTimeout()}
}

func (s *writerSink) Write(src *Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.size {
		return errors.Wrap(ErrIllegalArgument, "write: byteCount out of range")
	}
	for byteCount > 0 {
		if err := s.timeout.ThrowIfReached(); err != nil {
			return err
		}
		seg := src.head
		n := int64(seg.len())
		if n > byteCount {
			n = byteCount
		}
		written, err := s.w.Write(seg.data[seg.pos : int64(seg.pos)+n])
		if written > 0 {
			seg.pos += int32(written)
			src.size -= int64(written)
			byteCount -= int64(written)
			src.dropHeadIfExhausted()
		}
		if err != nil {
			return errors.Wrap(ErrIOFailure, err.Error())
		}
	}
	return nil
}

func (s *writerSink) Flush() error {
	if s.flusher != nil {
		return s.flusher.Flush()
	}
	return nil
}

func (s *writerSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *writerSink) Timeout() *Timeout { return s.timeout }

// scratchPool backs readerSource's raw-read staging area. Its capacity is
// intentionally modest: it is drained back to the pool before Read
// returns, so no concurrent caller holds more than one entry at a time
// per blocked read.
var scratchPool = NewScratchBufferPool(64)

// sinkWriter adapts a Sink into an io.Writer, staging each Write's input
// through a temporary Buffer. Adapter packages that wrap a stdlib
// io.Writer-shaped codec (flate.Writer, gzip.Writer) around a Sink use
// this to bridge the two worlds.
type sinkWriter struct{ sink Sink }

// NewWriterFromSink returns an io.Writer that forwards every Write call
// to sink.
func NewWriterFromSink(sink Sink) io.Writer { return &sinkWriter{sink: sink} }

func (w *sinkWriter) Write(p []byte) (int, error) {
	buf := NewBuffer()
	buf.appendBytes(p)
	if err := w.sink.Write(buf, buf.Len()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// sourceReader adapts a Source into an io.Reader.
type sourceReader struct {
	source Source
	buf    *Buffer
}

// NewReaderFromSource returns an io.Reader that pulls from source.
func NewReaderFromSource(source Source) io.Reader {
	return &sourceReader{source: source, buf: NewBuffer()}
}

func (r *sourceReader) Read(p []byte) (int, error) {
	if r.buf.Len() == 0 {
		if _, err := r.source.Read(r.buf, int64(len(p))); err != nil {
			if errors.Is(err, ErrEndOfInput) {
				return 0, io.EOF
			}
			return 0, err
		}
	}
	return r.buf.ReadBytes(p)
}

// sinkFromWriteCloser adapts an io.WriteCloser (e.g. a flate.Writer) back
// into a Sink, the mirror image of NewWriterFromSink.
type sinkFromWriteCloser struct {
	wc io.WriteCloser
}

// SinkFromWriteCloser wraps wc as a Sink whose Close also closes wc,
// flushing any codec trailer (e.g. a deflate end-of-stream marker).
func SinkFromWriteCloser(wc io.WriteCloser) Sink {
	return &sinkFromWriteCloser{wc: wc}
}

func (s *sinkFromWriteCloser) Write(src *Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.size {
		return errors.Wrap(ErrIllegalArgument, "write: byteCount out of range")
	}
	p := make([]byte, byteCount)
	if _, err := src.ReadBytes(p); err != nil {
		return err
	}
	_, err := s.wc.Write(p)
	return err
}

func (s *sinkFromWriteCloser) Flush() error { return nil }
func (s *sinkFromWriteCloser) Close() error { return s.wc.Close() }
func (s *sinkFromWriteCloser) Timeout() *Timeout { return noTimeout }

// sourceFromReadCloser adapts an io.ReadCloser (e.g. a flate.Reader) back
// into a Source.
type sourceFromReadCloser struct {
	rc io.ReadCloser
}

// SourceFromReadCloser wraps rc as a Source whose Close also closes rc.
func SourceFromReadCloser(rc io.ReadCloser) Source {
	return &sourceFromReadCloser{rc: rc}
}

func (s *sourceFromReadCloser) Read(sink *Buffer, byteCount int64) (int64, error) {
	if byteCount <= 0 {
		return 0, errors.Wrap(ErrIllegalArgument, "read: byteCount <= 0")
	}
	limit := byteCount
	if limit > segmentSize {
		limit = segmentSize
	}
	p := make([]byte, limit)
	n, err := s.rc.Read(p)
	if n > 0 {
		sink.appendBytes(p[:n])
	}
	if err == io.EOF {
		if n == 0 {
			return 0, errors.WithStack(ErrEndOfInput)
		}
		return int64(n), nil
	}
	if err != nil {
		return int64(n), errors.Wrap(ErrIOFailure, err.Error())
	}
	return int64(n), nil
}

func (s *sourceFromReadCloser) Close() error { return s.rc.Close() }
func (s *sourceFromReadCloser) Timeout() *Timeout { return noTimeout }
