// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "github.com/pkg/errors"

// Sentinel errors for the error taxonomy. Call sites wrap these with
// errors.Wrap/Wrapf for context; errors.Is still matches through the wrap.
var (
	// ErrEndOfInput is returned when a source is exhausted before the
	// caller's required byte count is satisfied (Require, fixed-size
	// reads such as ReadInt).
	ErrEndOfInput = errors.New("segbuf: end of input")

	// ErrIOFailure wraps a failure reported by an underlying file,
	// socket, or pipe resource.
	ErrIOFailure = errors.New("segbuf: io failure")

	// ErrInterruptedIO is returned when a blocking operation is aborted
	// by thread interruption or by Timeout.ThrowIfReached detecting an
	// expired deadline.
	ErrInterruptedIO = errors.New("segbuf: interrupted io")

	// ErrSocketTimeout is the socket-flavored variant of ErrInterruptedIO,
	// used by socket-backed AsyncTimeout wrappers.
	ErrSocketTimeout = errors.New("segbuf: socket timeout")

	// ErrNumberFormat is returned by the decimal/hex integer parsers on
	// malformed input or overflow.
	ErrNumberFormat = errors.New("segbuf: number format")

	// ErrIllegalState is returned when the current state forbids an
	// operation: a second Pipe.Fold, or a write to a Pipe whose source is
	// closed. Closed BufferedSources and BufferedSinks, unbalanced
	// AsyncTimeout Enter/Exit, and a detached UnsafeCursor do not return it.
	ErrIllegalState = errors.New("segbuf: illegal state")

	// ErrIllegalArgument is returned for out-of-range offsets/counts,
	// nil/empty arguments where forbidden, or duplicate/empty Options
	// alternatives.
	ErrIllegalArgument = errors.New("segbuf: illegal argument")

	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("segbuf: closed")
)
