// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segbuf implements a segmented, pooled byte buffer for
// allocation-light I/O: Buffer holds bytes as a chain of fixed-size
// pooled segments instead of a single contiguous array, so moving bytes
// between buffers can relink segments instead of copying them.
//
// # Segments
//
// Every segment wraps a fixed 8 KiB backing array. A segment is either an
// owner, free to append new bytes past its current limit, or shared,
// meaning another segment or ByteString references the same array and
// its already-written range must never be mutated or shifted. Buffer,
// ByteString, and Clone all use sharing to move or snapshot bytes
// without copying.
//
// # Segment Pool
//
// Segments are recycled through a process-wide, per-P lock-free pool
// (segmentPool) rather than allocated and garbage collected on every
// use. There is one bounded Treiber stack of free segments per P
// (GOMAXPROCS at package init), and callers pick a stack through a
// shared rotating counter rather than by P; take() falls back to a fresh
// allocation when the stacks it tries are empty, and recycle() drops the
// segment for the GC to reclaim once its chosen stack is full. No correctness property of Buffer depends on a pool hit.
//
// # Bounded Pool
//
// BoundedPool is a lock-free multi-producer multi-consumer (MPMC) pool
// based on the algorithm from "A Scalable, Portable, and Memory-Efficient
// Lock-Free FIFO Queue" (Ruslan Nikolaev, 2019). It backs
// ScratchBufferPool, the fixed, pre-filled set of segment-sized staging
// buffers that the Source returned by SourceFromReader reads raw bytes
// into before copying them into a Buffer's own pooled segments.
// adapter/file and adapter/netconn do not use it.
//
//   - Lock-free: uses atomic CAS operations, no mutexes
//   - Bounded: fixed capacity rounded to a power of two
//   - Indirect: Get/Put hand off an int index rather than the value
//     itself, so Value(idx) reads the item without moving it
//
// Usage pattern:
//
//	pool := NewScratchBufferPool(64)
//	idx, err := pool.Get()     // acquire a scratch buffer's index
//	buf := pool.Value(idx)     // access it without copying
//	// read into buf[:]...
//	pool.Put(idx)              // return it to the pool
//
// # Page-Aligned Memory
//
// For direct I/O (O_DIRECT) reads requiring page alignment:
//
//	mem := AlignedMem(4096, PageSize)        // page-aligned []byte
//	block := AlignedMemBlock()               // single page, default PageSize
//	blocks := AlignedMemBlocks(16, PageSize) // multiple aligned blocks
//
// # Vectored I/O
//
// IoVecFromBuffer provides scatter/gather I/O support for readv/writev
// syscalls over a Buffer's segments without linearizing them first:
//
//	vec := IoVecFromBuffer(buf)
//	addr, n := IoVecAddrLen(vec)  // pointer and count for the syscall
//
// # Architecture Requirements
//
// This package requires a 64-bit CPU architecture (amd64, arm64, riscv64,
// loong64, ppc64, ppc64le, s390x, mips64, mips64le). 32-bit architectures
// are not supported due to 64-bit atomic operations in BoundedPool.
//
// # Thread Safety
//
// Pool operations (segmentPool, BoundedPool) are safe for concurrent
// use. A Buffer itself is not: callers sharing one across goroutines
// must synchronize externally, same as bytes.Buffer.
//
// # Dependencies
//
// segbuf depends on:
//   - iox: semantic error types (ErrWouldBlock, ErrMore)
//   - spin: spin-wait primitives for lock-free retry loops
//   - github.com/pkg/errors: wrapped error chains with stack traces
//   - golang.org/x/crypto/blake2b: ByteString's BLAKE2b digest
package segbuf
