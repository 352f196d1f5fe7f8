// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package deflate wraps klauspost/compress's flate and gzip codecs as
// segbuf Sinks and Sources, so callers compress and decompress straight
// against Buffer instead of linearizing into a []byte first.
package deflate

import (
	"code.hybscloud.com/segbuf"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// CompressSink returns a Sink that deflates everything written to it
// before forwarding to sink, at the given flate level (flate.BestSpeed
// through flate.BestCompression, or flate.DefaultCompression).
func CompressSink(sink segbuf.Sink, level int) (segbuf.Sink, error) {
	fw, err := flate.NewWriter(segbuf.NewWriterFromSink(sink), level)
	if err != nil {
		return nil, errors.Wrap(err, "deflate: new flate writer")
	}
	return segbuf.SinkFromWriteCloser(fw), nil
}

// DecompressSource returns a Source that inflates bytes read from
// source.
func DecompressSource(source segbuf.Source) segbuf.Source {
	r := flate.NewReader(segbuf.NewReaderFromSource(source))
	return segbuf.SourceFromReadCloser(r)
}

// GzipCompressSink is CompressSink's gzip-container equivalent, useful
// when the destination is expected to be a standalone .gz file rather
// than a raw deflate stream.
func GzipCompressSink(sink segbuf.Sink, level int) (segbuf.Sink, error) {
	gw, err := gzip.NewWriterLevel(segbuf.NewWriterFromSink(sink), level)
	if err != nil {
		return nil, errors.Wrap(err, "deflate: new gzip writer")
	}
	return segbuf.SinkFromWriteCloser(gw), nil
}

// GzipDecompressSource is DecompressSource's gzip-container equivalent.
func GzipDecompressSource(source segbuf.Source) (segbuf.Source, error) {
	gr, err := gzip.NewReader(segbuf.NewReaderFromSource(source))
	if err != nil {
		return nil, errors.Wrap(err, "deflate: new gzip reader")
	}
	return segbuf.SourceFromReadCloser(gr), nil
}

