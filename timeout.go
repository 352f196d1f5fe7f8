// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Timeout describes how long a blocking Source or Sink operation is
// allowed to run before it gives up, either as a deadline (an absolute
// point in time) or as a duration measured from when the operation
// started. Both may be set at once; the one that elapses first applies.
//
// The zero value has neither set and never times out.
type Timeout struct {
	hasDeadline  bool
	deadline     time.Time
	timeoutNanos int64
}

// noTimeout is shared by operations that can never block, such as Buffer.
var noTimeout = &Timeout{}

// NewTimeout returns a Timeout with no deadline and no duration.
func NewTimeout() *Timeout { return &Timeout{} }

// Deadline sets an absolute point in time after which the operation
// should fail, replacing any previous deadline.
func (t *Timeout) Deadline(d time.Time) *Timeout {
	t.hasDeadline = true
	t.deadline = d
	return t
}

// ClearDeadline removes any deadline previously set.
func (t *Timeout) ClearDeadline() *Timeout {
	t.hasDeadline = false
	t.deadline = time.Time{}
	return t
}

// HasDeadline reports whether a deadline is set.
func (t *Timeout) HasDeadline() bool { return t.hasDeadline }

// DeadlineTime returns the configured deadline. Only meaningful when
// HasDeadline reports true.
func (t *Timeout) DeadlineTime() time.Time { return t.deadline }

// SetTimeout sets the maximum duration of a single operation. Zero means
// no duration limit.
func (t *Timeout) SetTimeout(d time.Duration) *Timeout {
	t.timeoutNanos = int64(d)
	return t
}

// TimeoutDuration returns the configured duration limit.
func (t *Timeout) TimeoutDuration() time.Duration { return time.Duration(t.timeoutNanos) }

// ThrowIfReached returns a socket-timeout error if the deadline has
// already passed.
func (t *Timeout) ThrowIfReached() error {
	if t.hasDeadline && !time.Now().Before(t.deadline) {
		return errors.WithStack(ErrSocketTimeout)
	}
	return nil
}

// remaining returns how long is left before this Timeout elapses, or -1
// if neither a deadline nor a duration is set.
func (t *Timeout) remaining() time.Duration {
	d := time.Duration(-1)
	if t.timeoutNanos > 0 {
		d = time.Duration(t.timeoutNanos)
	}
	if t.hasDeadline {
		left := time.Until(t.deadline)
		if d < 0 || left < d {
			d = left
		}
	}
	return d
}

// WaitUntilNotified blocks on cond, which must already be locked by the
// caller, until either cond is signaled or this Timeout elapses. On
// timeout it returns a socket-timeout error; cond's lock is held again
// when it returns, matching sync.Cond.Wait's contract.
func (t *Timeout) WaitUntilNotified(cond *sync.Cond) error {
	if err := t.ThrowIfReached(); err != nil {
		return err
	}
	remaining := t.remaining()
	if remaining < 0 {
		cond.Wait()
		return nil
	}
	if remaining <= 0 {
		return errors.WithStack(ErrSocketTimeout)
	}

	timedOut := false
	timer := time.AfterFunc(remaining, func() {
		cond.L.Lock()
		timedOut = true
		cond.L.Unlock()
		cond.Broadcast()
	})
	defer timer.Stop()

	cond.Wait()
	if timedOut {
		return errors.WithStack(ErrSocketTimeout)
	}
	return nil
}
