// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/segbuf"
)

func TestAlignedMem_PageAlignment(t *testing.T) {
	const size = 8192
	mem := segbuf.AlignedMem(size, segbuf.PageSize)

	if len(mem) != size {
		t.Errorf("AlignedMem length = %d, want %d", len(mem), size)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%segbuf.PageSize != 0 {
		t.Errorf("AlignedMem not page-aligned: address %#x %% %d = %d", ptr, segbuf.PageSize, ptr%segbuf.PageSize)
	}
}

func TestAlignedMem_SmallAllocation(t *testing.T) {
	const size = 64
	mem := segbuf.AlignedMem(size, segbuf.PageSize)

	if len(mem) != size {
		t.Errorf("AlignedMem length = %d, want %d", len(mem), size)
	}

	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%segbuf.PageSize != 0 {
		t.Errorf("AlignedMem not page-aligned: address %#x %% %d = %d", ptr, segbuf.PageSize, ptr%segbuf.PageSize)
	}
}

func TestAlignedMemBlocks(t *testing.T) {
	const n, pageSize = 8, 4096
	blocks := segbuf.AlignedMemBlocks(n, pageSize)
	if len(blocks) != n {
		t.Fatalf("AlignedMemBlocks returned %d blocks, want %d", len(blocks), n)
	}
	for i, b := range blocks {
		if len(b) != pageSize {
			t.Errorf("block %d length = %d, want %d", i, len(b), pageSize)
		}
		ptr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
		if ptr%pageSize != 0 {
			t.Errorf("block %d not page-aligned: %#x", i, ptr)
		}
	}
}

func TestAlignedMemBlocksPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for n < 1")
		}
	}()
	segbuf.AlignedMemBlocks(0, 4096)
}

func TestCacheLineAlignedMem(t *testing.T) {
	mem := segbuf.CacheLineAlignedMem(128)
	if len(mem) != 128 {
		t.Errorf("length = %d, want 128", len(mem))
	}
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if ptr%uintptr(segbuf.CacheLineSize) != 0 {
		t.Errorf("not cache-line aligned: %#x", ptr)
	}
}

func TestCacheLineAlignedMemBlocksNoOverlap(t *testing.T) {
	const n, blockSize = 4, 40
	blocks := segbuf.CacheLineAlignedMemBlocks(n, blockSize)
	if len(blocks) != n {
		t.Fatalf("got %d blocks, want %d", len(blocks), n)
	}
	for i := range blocks {
		blocks[i][0] = byte(i + 1)
	}
	for i := range blocks {
		if blocks[i][0] != byte(i+1) {
			t.Errorf("block %d clobbered: got %d", i, blocks[i][0])
		}
	}
}

func TestNewBuffers(t *testing.T) {
	bufs := segbuf.NewBuffers(3, 16)
	if len(bufs) != 3 {
		t.Fatalf("got %d buffers, want 3", len(bufs))
	}
	for i, b := range bufs {
		if len(b) != 16 {
			t.Errorf("buffer %d length = %d, want 16", i, len(b))
		}
	}
	if len(segbuf.NewBuffers(0, 16)) != 0 {
		t.Error("NewBuffers(0, ...) should be empty")
	}
}

func TestScratchBufferPool(t *testing.T) {
	pool := segbuf.NewScratchBufferPool(4)
	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	buf := pool.Value(idx)
	buf[0] = 0xAA
	if err := pool.Put(idx); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// The pool is FIFO: the buffer just put back comes out again after
	// the other Cap()-1 entries.
	var idx2 int
	for range pool.Cap() {
		if idx2, err = pool.Get(); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if pool.Value(idx2)[0] != 0xAA {
		t.Error("scratch buffer contents not preserved across recycle")
	}
}
