// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"unsafe"
)

// AlignedMem returns a byte slice with the specified size
// and starting address aligned to the memory page size.
//
// This is useful for direct I/O (O_DIRECT) reads, which require
// page-aligned memory addresses.
//
// The returned slice shares underlying memory with a larger allocation;
// do not assume len(result) == cap(result).
func AlignedMem(size int, pageSize uintptr) []byte {
	p := make([]byte, uintptr(size)+pageSize-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// AlignedMemBlocks returns n page-aligned byte slices, each of length pageSize.
//
// All returned slices share a single contiguous underlying allocation,
// which is more memory-efficient than calling AlignedMem n times.
//
// Panics if n < 1.
func AlignedMemBlocks(n int, pageSize uintptr) (blocks [][]byte) {
	if n < 1 {
		panic("bad block num")
	}
	blocks = make([][]byte, n)
	p := make([]byte, int(pageSize)*(n+1))
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+pageSize-1)/pageSize)*pageSize - uintptr(base)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*pageSize)), pageSize)
	}
	return
}

// AlignedMemBlock returns a single page-aligned block using the system page size.
//
// This is a convenience function equivalent to AlignedMemBlocks(1, PageSize)[0].
func AlignedMemBlock() []byte {
	return AlignedMemBlocks(1, PageSize)[0]
}

// CacheLineAlignedMem returns a byte slice with the specified size
// and starting address aligned to the CPU cache line size.
// This is useful for preventing false sharing in concurrent data structures,
// such as the segment pool's per-P shards.
func CacheLineAlignedMem(size int) []byte {
	align := uintptr(CacheLineSize)
	p := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// CacheLineAlignedMemBlocks returns n cache-line-aligned byte slices,
// each of length blockSize. Adjacent blocks are separated by cache line
// boundaries to prevent false sharing.
func CacheLineAlignedMemBlocks(n int, blockSize int) (blocks [][]byte) {
	if n < 1 {
		panic("bad block num")
	}
	align := uintptr(CacheLineSize)
	alignedBlockSize := ((uintptr(blockSize) + align - 1) / align) * align
	totalSize := int(alignedBlockSize)*n + int(align) - 1
	p := make([]byte, totalSize)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	blocks = make([][]byte, n)
	for i := range n {
		blocks[i] = unsafe.Slice((*byte)(unsafe.Add(base, offset+uintptr(i)*alignedBlockSize)), blockSize)
	}
	return
}

// NewBuffers creates a Buffers slice containing n byte slices, each of length size.
//
// Returns an empty Buffers if n < 1. Each inner slice is independently allocated;
// for contiguous memory, use AlignedMemBlocks instead.
func NewBuffers(n int, size int) Buffers {
	if n < 1 {
		return Buffers{}
	}
	ret := make(Buffers, n)
	for i := range n {
		if size > 0 {
			ret[i] = make([]byte, size)
		} else {
			ret[i] = []byte{}
		}
	}

	return ret
}

// scratchBuffer is a segment-sized byte array that the Source returned by
// SourceFromReader uses as its staging area between raw io.Reader reads
// and a Buffer's pooled segments. It is sized to match segmentSize so a
// single scratch read holds at most one segment's worth of bytes, keeping
// that Read free of per-call allocations. adapter/file and adapter/netconn
// do not use it.
type scratchBuffer [segmentSize]byte

// ScratchBufferPool is a bounded pool of segment-sized scratch buffers,
// reusing BoundedPool's lock-free MPMC algorithm for the homogeneous,
// fill-once-reuse-in-place resource pattern it was designed for.
type ScratchBufferPool = BoundedPool[*scratchBuffer]

// NewScratchBufferPool creates a ScratchBufferPool with the given capacity
// (rounded up to the next power of two) and fills it with freshly allocated
// scratch buffers.
func NewScratchBufferPool(capacity int) *ScratchBufferPool {
	pool := NewBoundedPool[*scratchBuffer](capacity)
	pool.Fill(func() *scratchBuffer { return new(scratchBuffer) })
	return pool
}
