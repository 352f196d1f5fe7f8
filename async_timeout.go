// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"container/heap"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// idleWatchdogTimeout is how long the shared watchdog goroutine keeps
// running with no timeouts enqueued before it exits. A new Enter call
// restarts it.
const idleWatchdogTimeout = 60 * time.Second

// asyncWriteChunk is the largest slice of a single Write call an
// AsyncTimeout-wrapped Sink will hand to the underlying sink in one call,
// so a watchdog firing mid-write can still unblock promptly. It is a
// multiple of segmentSize, so chunk boundaries land on segment edges when
// the source buffer holds only full segments; chunks are cut by byte
// count, not by the source buffer's segment layout.
const asyncWriteChunk = 8 * segmentSize

// AsyncTimeout is a Timeout that can additionally cancel an in-progress
// blocking operation from a background watchdog goroutine once its
// deadline elapses, rather than only reporting the deadline has passed
// the next time it is checked. Enter arms the watchdog; Exit disarms it
// and reports whether it fired.
type AsyncTimeout struct {
	*Timeout

	mu       sync.Mutex
	at       time.Time // absolute deadline once armed; zero means disarmed
	index    int        // heap index, maintained by container/heap
	timedOut bool

	// onTimeout is invoked from the watchdog goroutine when this
	// AsyncTimeout's deadline elapses while armed. Typical use closes the
	// underlying connection so the blocked Read/Write call returns.
	onTimeout func()
}

// NewAsyncTimeout returns an AsyncTimeout that calls onTimeout from the
// shared watchdog goroutine whenever an Enter/Exit pair's deadline
// elapses before Exit is called. onTimeout may be nil.
func NewAsyncTimeout(onTimeout func()) *AsyncTimeout {
	return &AsyncTimeout{Timeout: NewTimeout(), onTimeout: onTimeout, index: -1}
}

// Enter arms the watchdog for one operation using this AsyncTimeout's
// configured deadline and duration.
func (a *AsyncTimeout) Enter() {
	d := a.remaining()
	a.mu.Lock()
	a.timedOut = false
	if d < 0 {
		a.at = time.Time{}
	} else {
		a.at = time.Now().Add(d)
	}
	armed := !a.at.IsZero()
	a.mu.Unlock()
	if armed {
		watchdog.add(a)
	}
}

// Exit disarms the watchdog and reports whether this operation's deadline
// had already elapsed.
func (a *AsyncTimeout) Exit() bool {
	watchdog.remove(a)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timedOut
}

// fire is invoked by the watchdog goroutine when a's deadline elapses.
func (a *AsyncTimeout) fire() {
	a.mu.Lock()
	a.timedOut = true
	cb := a.onTimeout
	a.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// deadlineAt returns a's armed absolute deadline; the zero Time means
// disarmed. Used only by the watchdog's heap ordering.
func (a *AsyncTimeout) deadlineAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.at
}

// Sink wraps sink so every Write call is chunked to at most
// asyncWriteChunk bytes and each chunk runs under Enter/Exit, letting a
// slow downstream sink be abandoned mid-write once the deadline passes.
func (a *AsyncTimeout) Sink(sink Sink) Sink {
	return &asyncTimeoutSink{timeout: a, sink: sink}
}

// Source wraps source the same way Sink wraps a Sink.
func (a *AsyncTimeout) Source(source Source) Source {
	return &asyncTimeoutSource{timeout: a, source: source}
}

type asyncTimeoutSink struct {
	timeout *AsyncTimeout
	sink    Sink
}

func (s *asyncTimeoutSink) Write(src *Buffer, byteCount int64) error {
	for byteCount > 0 {
		chunk := byteCount
		if chunk > asyncWriteChunk {
			chunk = asyncWriteChunk
		}
		s.timeout.Enter()
		err := s.sink.Write(src, chunk)
		timedOut := s.timeout.Exit()
		if timedOut {
			return errors.WithStack(ErrSocketTimeout)
		}
		if err != nil {
			return err
		}
		byteCount -= chunk
	}
	return nil
}

func (s *asyncTimeoutSink) Flush() error {
	s.timeout.Enter()
	err := s.sink.Flush()
	if s.timeout.Exit() {
		return errors.WithStack(ErrSocketTimeout)
	}
	return err
}

func (s *asyncTimeoutSink) Close() error { return s.sink.Close() }
func (s *asyncTimeoutSink) Timeout() *Timeout { return s.timeout.Timeout }

type asyncTimeoutSource struct {
	timeout *AsyncTimeout
	source  Source
}

func (s *asyncTimeoutSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	s.timeout.Enter()
	n, err := s.source.Read(sink, byteCount)
	if s.timeout.Exit() {
		return n, errors.WithStack(ErrSocketTimeout)
	}
	return n, err
}

func (s *asyncTimeoutSource) Close() error { return s.source.Close() }
func (s *asyncTimeoutSource) Timeout() *Timeout { return s.timeout.Timeout }

// timeoutHeap is a container/heap min-heap of armed *AsyncTimeout ordered
// by deadline, guarded by watchdog.mu.
type timeoutHeap []*AsyncTimeout

func (h timeoutHeap) Len() int            { return len(h) }
func (h timeoutHeap) Less(i, j int) bool  { return h[i].deadlineAt().Before(h[j].deadlineAt()) }
func (h timeoutHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timeoutHeap) Push(x interface{}) {
	a := x.(*AsyncTimeout)
	a.index = len(*h)
	*h = append(*h, a)
}
func (h *timeoutHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// asyncWatchdog is the process-wide background goroutine that fires armed
// AsyncTimeouts as their deadlines elapse. It starts lazily on the first
// Enter call and exits after idleWatchdogTimeout with nothing armed,
// restarting on demand.
type asyncWatchdog struct {
	mu      sync.Mutex
	cond    *sync.Cond
	heap    timeoutHeap
	running bool
}

var watchdog = newAsyncWatchdog()

func newAsyncWatchdog() *asyncWatchdog {
	w := &asyncWatchdog{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *asyncWatchdog) add(a *AsyncTimeout) {
	w.mu.Lock()
	heap.Push(&w.heap, a)
	start := !w.running
	if start {
		w.running = true
	}
	w.mu.Unlock()
	if start {
		go w.run()
	} else {
		w.cond.Broadcast()
	}
}

func (w *asyncWatchdog) remove(a *AsyncTimeout) {
	w.mu.Lock()
	if a.index >= 0 && a.index < len(w.heap) && w.heap[a.index] == a {
		heap.Remove(&w.heap, a.index)
	}
	w.mu.Unlock()
	w.cond.Broadcast()
}

func (w *asyncWatchdog) run() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		if len(w.heap) == 0 {
			idleUntil := time.Now().Add(idleWatchdogTimeout)
			idleTimer := time.AfterFunc(idleWatchdogTimeout, func() { w.cond.Broadcast() })
			for len(w.heap) == 0 && time.Now().Before(idleUntil) {
				w.cond.Wait()
			}
			idleTimer.Stop()
			if len(w.heap) == 0 {
				w.running = false
				return
			}
			continue
		}
		next := w.heap[0]
		wait := time.Until(next.deadlineAt())
		if wait > 0 {
			timer := time.AfterFunc(wait, func() { w.cond.Broadcast() })
			w.cond.Wait()
			timer.Stop()
			continue
		}
		heap.Remove(&w.heap, 0)
		w.mu.Unlock()
		next.fire()
		w.mu.Lock()
	}
}
