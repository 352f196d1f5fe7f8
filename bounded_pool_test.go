// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/segbuf"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

func TestBoundedPool_BasicGetPut(t *testing.T) {
	const capacity = 16
	pool := segbuf.NewBoundedPool[int](capacity)

	// Fill the pool with values
	counter := 0
	pool.Fill(func() int {
		v := counter * 10
		counter++
		return v
	})

	// Get all items
	indices := make([]int, capacity)
	for i := range capacity {
		idx, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed at iteration %d: %v", i, err)
		}
		indices[i] = idx
	}

	// Put all items back
	for _, idx := range indices {
		err := pool.Put(idx)
		if err != nil {
			t.Fatalf("Put(%d) failed: %v", idx, err)
		}
	}

	// Verify we can get them again
	for i := range capacity {
		_, err := pool.Get()
		if err != nil {
			t.Fatalf("Second Get() failed at iteration %d: %v", i, err)
		}
	}
}

func TestBoundedPool_NonblockingEmpty(t *testing.T) {
	const capacity = 4
	pool := segbuf.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)

	pool.Fill(func() int { return 0 })

	// Drain the pool
	for range capacity {
		_, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
	}

	// Next Get should return ErrWouldBlock
	_, err := pool.Get()
	if err != iox.ErrWouldBlock {
		t.Errorf("expected iox.ErrWouldBlock, got %v", err)
	}
}

func TestBoundedPool_NonblockingFull(t *testing.T) {
	const capacity = 4
	pool := segbuf.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)

	pool.Fill(func() int { return 0 })

	// Pool is full, Put should return ErrWouldBlock
	err := pool.Put(0)
	if err != iox.ErrWouldBlock {
		t.Errorf("expected iox.ErrWouldBlock on full pool, got %v", err)
	}
}

func TestBoundedPool_Concurrent(t *testing.T) {
	const capacity = 64
	const goroutines = 16
	const iterations = 2000

	pool := segbuf.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := range goroutines {
		go func(id int) {
			defer wg.Done()
			for i := range iterations {
				idx, err := pool.Get()
				if err != nil {
					t.Errorf("goroutine %d iteration %d: Get() failed: %v", id, i, err)
					return
				}
				// Simulate some work
				_ = pool.Value(idx)
				spin.Yield()
				err = pool.Put(idx)
				if err != nil {
					t.Errorf("goroutine %d iteration %d: Put() failed: %v", id, i, err)
					return
				}
			}
		}(g)
	}

	wg.Wait()
}

func TestBoundedPool_HighContention(t *testing.T) {
	// High contention test with many goroutines on small pool
	const capacity = 8
	const goroutines = 16
	const iterations = 2000

	pool := segbuf.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				idx, err := pool.Get()
				if err != nil {
					spin.Yield()
					continue
				}
				spin.Yield()
				_ = pool.Put(idx)
			}
		}()
	}

	wg.Wait()
}

func TestBoundedPool_Cap(t *testing.T) {
	const capacity = 32
	pool := segbuf.NewBoundedPool[int](capacity)
	if pool.Cap() != capacity {
		t.Errorf("Cap() = %d, want %d", pool.Cap(), capacity)
	}
}

func TestBoundedPool_Value(t *testing.T) {
	const capacity = 8
	pool := segbuf.NewBoundedPool[string](capacity)

	pool.Fill(func() string { return "item" })

	// Get an item and modify it
	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	pool.SetValue(idx, "modified")
	if pool.Value(idx) != "modified" {
		t.Errorf("Value(%d) = %q, want %q", idx, pool.Value(idx), "modified")
	}

	// Put it back
	err = pool.Put(idx)
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
}

func TestNewBoundedPool_InvalidCapacity(t *testing.T) {
	t.Run("zero capacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("NewBoundedPool(0) did not panic")
			}
		}()
		_ = segbuf.NewBoundedPool[int](0)
	})

	t.Run("negative capacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("NewBoundedPool(-1) did not panic")
			}
		}()
		_ = segbuf.NewBoundedPool[int](-1)
	})
}

func TestBoundedPool_Value_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Value() on unfilled pool did not panic")
		}
	}()
	pool := segbuf.NewBoundedPool[int](8)
	_ = pool.Value(0)
}

func TestBoundedPool_SetValue_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("SetValue() on unfilled pool did not panic")
		}
	}()
	pool := segbuf.NewBoundedPool[int](8)
	pool.SetValue(0, 42)
}

func TestBoundedPool_Value_PanicInvalidIndirect(t *testing.T) {
	pool := segbuf.NewBoundedPool[int](8)
	pool.Fill(func() int { return 0 })

	t.Run("negative index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Value(-1) did not panic")
			}
		}()
		_ = pool.Value(-1)
	})

	t.Run("out of range index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Value(capacity) did not panic")
			}
		}()
		_ = pool.Value(pool.Cap())
	})
}

func TestBoundedPool_SetValue_PanicInvalidIndirect(t *testing.T) {
	pool := segbuf.NewBoundedPool[int](8)
	pool.Fill(func() int { return 0 })

	t.Run("negative index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("SetValue(-1, v) did not panic")
			}
		}()
		pool.SetValue(-1, 42)
	})

	t.Run("out of range index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("SetValue(capacity, v) did not panic")
			}
		}()
		pool.SetValue(pool.Cap(), 42)
	})
}

func TestBoundedPool_Get_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Get() on unfilled pool did not panic")
		}
	}()
	pool := segbuf.NewBoundedPool[int](8)
	_, _ = pool.Get()
}

func TestBoundedPool_Put_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Put() on unfilled pool did not panic")
		}
	}()
	pool := segbuf.NewBoundedPool[int](8)
	_ = pool.Put(0)
}

func TestBoundedPool_BlockingGet(t *testing.T) {
	const capacity = 4
	pool := segbuf.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	// Drain the pool
	indices := make([]int, capacity)
	for i := range capacity {
		idx, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		indices[i] = idx
	}

	// Start a goroutine that will Put after a short delay
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Small delay to ensure Get() enters blocking state
		for range 1000 {
			spin.Yield()
		}
		// Return one item to unblock the waiting Get
		_ = pool.Put(indices[0])
	}()

	// This Get should block until the Put above completes
	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("blocking Get() failed: %v", err)
	}
	_ = idx

	<-done
}

func TestBoundedPool_BlockingPut(t *testing.T) {
	const capacity = 4
	pool := segbuf.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	// Pool is already full after Fill

	// Start a goroutine that will Get after a short delay
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Small delay to ensure Put() enters blocking state
		for range 1000 {
			spin.Yield()
		}
		// Get one item to unblock the waiting Put
		_, _ = pool.Get()
	}()

	// This Put should block until the Get above completes
	err := pool.Put(0)
	if err != nil {
		t.Fatalf("blocking Put() failed: %v", err)
	}

	<-done
}

func TestNewScratchBufferPool(t *testing.T) {
	const capacity = 16

	pool := segbuf.NewScratchBufferPool(capacity)
	if pool.Cap() != capacity {
		t.Errorf("NewScratchBufferPool capacity = %d, want %d", pool.Cap(), capacity)
	}

	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	buf := pool.Value(idx)
	if len(buf) != 8192 {
		t.Errorf("scratch buffer size = %d, want 8192", len(buf))
	}
	buf[0] = 0x5A
	if err := pool.Put(idx); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	// The pool is FIFO: the buffer just put back comes out again after
	// the other Cap()-1 entries.
	var idx2 int
	for range pool.Cap() {
		if idx2, err = pool.Get(); err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
	}
	if pool.Value(idx2)[0] != 0x5A {
		t.Error("scratch buffer contents not preserved across recycle")
	}
}
