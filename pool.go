// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"runtime"
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// segmentPool is a process-wide, per-P lock-free cache of recyclable
// segments. It avoids zero-filled allocations and GC churn on the hot
// path: take() returns an owner segment with pos = limit = 0, shared =
// false; recycle() accepts only a segment whose array is not shared.
//
// Unlike BoundedPool (bounded_pool.go), which pre-fills a fixed set of
// slots and blocks when empty/full, the segment pool is a best-effort
// cache: take() falls back to allocating a fresh segment when
// len(shards) shard picks all come up empty, and recycle() silently drops
// the segment (letting the GC reclaim it) when the one shard it picks is
// full. Correctness never depends on a
// pool hit — see spec §4.1 — only throughput does. This follows the
// design notes' "one bucket per CPU with a lock-free or compare-and-swap
// top pointer" guidance: each shard is a Treiber stack of segments linked
// through their own next pointer, matching the spec's requirement that
// pooled segments sit in a singly-linked intrusive list.
type segmentPool struct {
	shards []poolShard
}

// shardCap bounds each shard at 8 segments (64 KiB at the canonical 8 KiB
// segment size), so total retained memory is bounded at
// 64 KiB × len(shards) as required by spec §4.1.
const shardCap = 8

type poolShard struct {
	top   atomic.Pointer[segment]
	count atomic.Int32
	// pad prevents false sharing between shards on the same cache line.
	_ [CacheLineSize]byte
}

var globalSegmentPool = newSegmentPool()

func newSegmentPool() *segmentPool {
	n := max(1, runtime.GOMAXPROCS(0))
	return &segmentPool{shards: make([]poolShard, n)}
}

// shardCursor spreads callers across shards. Go does not expose the
// current P id to user code, so unlike BoundedPool's cache-line remap
// table (which indexes a fixed entries array by a known slot), shard
// selection here uses a shared counter mixed with a golden-ratio
// multiplier: cheap, branch-free, and avoids lockstep collisions between
// goroutines that call take()/recycle() back-to-back.
var shardCursor atomic.Uint32

func (p *segmentPool) shardFor() *poolShard {
	const goldenRatio32 = 0x9e3779b9
	cursor := shardCursor.Add(1) * goldenRatio32
	return &p.shards[cursor%uint32(len(p.shards))]
}

func (p *segmentPool) take() *segment {
	sw := spin.Wait{}
	for range len(p.shards) {
		shard := p.shardFor()
		for {
			top := shard.top.Load()
			if top == nil {
				break
			}
			if shard.top.CompareAndSwap(top, top.next) {
				shard.count.Add(-1)
				top.next = nil
				top.pos, top.limit = 0, 0
				top.shared, top.owner = false, true
				return top
			}
			sw.Once()
		}
	}
	return newSegment()
}

func (p *segmentPool) recycle(s *segment) {
	if s.shared {
		panic("segbuf: recycle: segment is shared")
	}
	s.prev, s.next = nil, nil
	s.pos, s.limit = 0, 0

	shard := p.shardFor()
	sw := spin.Wait{}
	for {
		if shard.count.Load() >= shardCap {
			return // bounded: drop and let the GC reclaim it.
		}
		top := shard.top.Load()
		s.next = top
		if shard.top.CompareAndSwap(top, s) {
			shard.count.Add(1)
			return
		}
		sw.Once()
	}
}

// takeSegment acquires an owner segment from the global pool, or
// allocates a fresh one if the shards it tries are empty.
func takeSegment() *segment {
	return globalSegmentPool.take()
}

// recycleSegment returns s to the global pool. s must not be shared.
func recycleSegment(s *segment) {
	globalSegmentPool.recycle(s)
}
