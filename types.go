// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"net"

	"code.hybscloud.com/segbuf/internal"
)

// PageSize defines the standard memory page size (4 KiB) that
// AlignedMemBlock aligns to.
var PageSize uintptr = 4096

// SetPageSize updates the package-level page size used for allocations.
func SetPageSize(size int) {
	PageSize = uintptr(size)
}

// Buffers is an alias for net.Buffers, used by adapter/netconn to hand a
// Buffer's segments to a vectored write (writev) without copying.
type Buffers = net.Buffers

// noCopy is a sentinel used to prevent copying of synchronization primitives.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// CacheLineSize is the CPU L1 cache line size for the current architecture,
// used to pad the segment pool's per-P shards against false sharing.
const CacheLineSize = internal.CacheLineSize
