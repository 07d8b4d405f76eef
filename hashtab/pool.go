package hashtab

import (
	"fmt"
	"sync"
)

// DefaultBlockSize is the number of node slots carved per block.
const DefaultBlockSize = 1024

// Pool hands out chain nodes to any number of tables. Nodes are carved from
// blocks of BlockSize slots and recycled through a singly linked free list,
// so steady insert/remove churn never reaches the Go allocator.
//
// A Pool is safe for concurrent use. Its lock is independent of table
// locks: tables take their own lock first and then call into the pool; the
// pool never calls back into a table.
type Pool[K comparable, V any] struct {
	mu sync.Mutex

	// ---- guarded by mu ----
	blocks [][]node[K, V]
	free   *node[K, V]
	nfree  int
	inUse  int
	tables int // attached tables; Drop refuses while > 0

	blockSize int
	maxBlocks int
	metrics   PoolMetrics
}

// PoolStats is a point-in-time snapshot of a Pool.
type PoolStats struct {
	Blocks int // blocks carved so far
	Slots  int // Blocks * BlockSize
	Free   int // slots on the free list
	InUse  int // slots reachable from some table
	Tables int // tables currently attached
}

// NewPool constructs an empty pool. No block is carved until the first
// node is requested.
func NewPool[K comparable, V any](opt PoolOptions) *Pool[K, V] {
	if opt.BlockSize <= 0 {
		opt.BlockSize = DefaultBlockSize
	}
	if opt.MaxBlocks < 0 {
		opt.MaxBlocks = 0
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopPoolMetrics{}
	}
	return &Pool[K, V]{
		blockSize: opt.BlockSize,
		maxBlocks: opt.MaxBlocks,
		metrics:   opt.Metrics,
	}
}

// BlockSize returns the number of slots per block.
func (p *Pool[K, V]) BlockSize() int { return p.blockSize }

// Stats returns a snapshot of the pool's accounting.
func (p *Pool[K, V]) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Blocks: len(p.blocks),
		Slots:  len(p.blocks) * p.blockSize,
		Free:   p.nfree,
		InUse:  p.inUse,
		Tables: p.tables,
	}
}

// Drop releases every block and clears the free list. It fails with
// ErrPoolInUse while any table is attached or any node is still in use;
// destroy every table built on the pool first. A dropped pool is empty and
// may be used again.
func (p *Pool[K, V]) Drop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tables > 0 || p.inUse > 0 {
		return fmt.Errorf("%w: %d tables attached, %d nodes live", ErrPoolInUse, p.tables, p.inUse)
	}
	for i := range p.blocks {
		p.blocks[i] = nil
	}
	p.blocks = nil
	p.free = nil
	p.nfree = 0
	p.metrics.Slots(0, 0)
	return nil
}

// -------------------- table-facing internals --------------------

// attach registers a table as a user of the pool.
func (p *Pool[K, V]) attach() {
	p.mu.Lock()
	p.tables++
	p.mu.Unlock()
}

// detach unregisters a table. The table must hold no nodes.
func (p *Pool[K, V]) detach() {
	p.mu.Lock()
	if p.tables > 0 {
		p.tables--
	}
	p.mu.Unlock()
}

// alloc pops a zeroed node off the free list, carving a new block first if
// the list is empty. Fails with ErrOutOfMemory when MaxBlocks is reached.
func (p *Pool[K, V]) alloc() (*node[K, V], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.free == nil {
		if p.maxBlocks > 0 && len(p.blocks) >= p.maxBlocks {
			return nil, fmt.Errorf("%w: node pool limit of %d blocks reached", ErrOutOfMemory, p.maxBlocks)
		}
		p.grow()
	}
	n := p.free
	p.free = n.next
	p.nfree--
	p.inUse++
	*n = node[K, V]{}
	p.metrics.Slots(p.inUse, p.nfree)
	return n, nil
}

// release pushes n back onto the free list. n must already be unlinked
// from its chain. Releasing a node twice corrupts the free list.
func (p *Pool[K, V]) release(n *node[K, V]) {
	p.mu.Lock()
	p.releaseLocked(n)
	p.metrics.Slots(p.inUse, p.nfree)
	p.mu.Unlock()
}

// releaseChain returns a whole unlinked chain (linked through next) under a
// single lock acquisition. It is used by Reset and Destroy.
func (p *Pool[K, V]) releaseChain(head *node[K, V]) {
	if head == nil {
		return
	}
	p.mu.Lock()
	for n := head; n != nil; {
		next := n.next
		p.releaseLocked(n)
		n = next
	}
	p.metrics.Slots(p.inUse, p.nfree)
	p.mu.Unlock()
}

func (p *Pool[K, V]) releaseLocked(n *node[K, V]) {
	// Drop references so the GC can reclaim caller data while the slot idles.
	var zk K
	var zv V
	n.key, n.data = zk, zv
	n.next = p.free
	p.free = n
	p.nfree++
	p.inUse--
}

// grow carves one block and threads all of its slots onto the free list,
// in slot order. mu must be held.
func (p *Pool[K, V]) grow() {
	blk := make([]node[K, V], p.blockSize)
	for i := 0; i < len(blk)-1; i++ {
		blk[i].next = &blk[i+1]
	}
	blk[len(blk)-1].next = p.free
	p.free = &blk[0]
	p.nfree += len(blk)
	p.blocks = append(p.blocks, blk)
	p.metrics.Grow(len(blk))
}
