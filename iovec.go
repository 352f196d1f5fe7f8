// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"unsafe"
)

// IoVec represents a scatter/gather I/O descriptor compatible with the
// standard Linux struct iovec. It is used to pass multiple non-contiguous
// user-space buffers to the kernel in a single vectored I/O system call
// (readv, writev, preadv, pwritev).
//
// Memory layout matches the C struct iovec exactly:
//
//	struct iovec {
//	    void  *iov_base;  // Starting address
//	    size_t iov_len;   // Number of bytes
//	};
//
// The caller must ensure Base points to valid memory for the lifetime of
// any I/O operation using this IoVec.
type IoVec struct {
	Base *byte  // Starting address of the memory block
	Len  uint64 // Number of bytes to transfer
}

// IoVecFromBytesSlice converts a slice of byte slices to a pointer and count
// suitable for a vectored I/O syscall.
// Returns the address of the first IoVec element and the number of elements.
//
// Note: The returned address points to a newly allocated []IoVec slice.
// The caller must ensure the input slices remain valid for the lifetime
// of the operation.
func IoVecFromBytesSlice(iov [][]byte) (addr uintptr, n int) {
	if len(iov) == 0 {
		return 0, 0
	}
	vec := make([]IoVec, len(iov))
	for i := range len(iov) {
		vec[i] = IoVec{Base: unsafe.SliceData(iov[i]), Len: uint64(len(iov[i]))}
	}
	addr, n = uintptr(unsafe.Pointer(unsafe.SliceData(vec))), len(vec)
	return
}

// IoVecAddrLen extracts the raw pointer and length from an IoVec slice
// for direct syscall consumption (readv, writev).
//
// Returns (0, 0) for empty or nil slices.
func IoVecAddrLen(vec []IoVec) (addr uintptr, n int) {
	if len(vec) == 0 {
		return 0, 0
	}
	addr, n = uintptr(unsafe.Pointer(unsafe.SliceData(vec))), len(vec)
	return
}

// IoVecFromBuffer returns one IoVec per readable segment currently held by
// b, in logical order, without copying segment data. This lets a caller
// hand a Buffer's pending bytes straight to a vectored write syscall
// instead of linearizing them first. adapter/netconn uses
// Buffer.NetBuffers for its writes instead.
//
// The returned IoVecs are only valid until the next mutation of b: reads,
// writes, Clone, or Snapshot may release or reassign the underlying
// segments.
func IoVecFromBuffer(b *Buffer) []IoVec {
	segs := b.segmentsSnapshot()
	if len(segs) == 0 {
		return nil
	}
	vec := make([]IoVec, len(segs))
	for i, s := range segs {
		if len(s) == 0 {
			vec[i] = IoVec{}
			continue
		}
		vec[i] = IoVec{Base: unsafe.SliceData(s), Len: uint64(len(s))}
	}
	return vec
}
