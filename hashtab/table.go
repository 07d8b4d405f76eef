package hashtab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IvanBrykalov/chainhash/internal/singleflight"
	"github.com/IvanBrykalov/chainhash/internal/util"
)

// Table is a fixed-capacity hash table with separate chaining.
//
// Every chain is kept in ascending key order (by Options.Compare), so a scan
// stops at the first key that compares greater than the probe, whether the
// probe is present or not. Nodes come from a Pool that may be shared with
// other tables.
//
// All methods are safe for concurrent use. Each method holds the table's
// mutex for its whole duration; OnDelete and ArgFunc callbacks run under
// it and must not call back into the same table.
type Table[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu        sync.Mutex
	buckets   []*node[K, V]
	count     int
	destroyed bool

	hash     HashFunc[K]
	cmp      CompareFunc[K]
	onDelete DeleteFunc[V]
	pool     *Pool[K, V]
	ownPool  bool
	metrics  Metrics

	sf singleflight.Group[K, V]

	// ---- hot counters, bumped on every lookup ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
}

// TableStats is a point-in-time snapshot of a Table.
type TableStats struct {
	Count        int
	Capacity     int
	Hits         uint64
	Misses       uint64
	UsedBuckets  int // buckets holding at least one node
	LongestChain int
}

// New creates an empty table.
// It fails with ErrInvalidArgument if Hash or Compare is nil, and with
// ErrOutOfMemory if Capacity exceeds MaxCapacity.
func New[K comparable, V any](opt Options[K, V]) (*Table[K, V], error) {
	if opt.Hash == nil || opt.Compare == nil {
		return nil, fmt.Errorf("%w: Hash and Compare are required", ErrInvalidArgument)
	}
	size := opt.Capacity
	if size <= 0 {
		size = DefaultCapacity
	}
	if size > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d exceeds %d buckets", ErrOutOfMemory, size, MaxCapacity)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	t := &Table[K, V]{
		buckets:  make([]*node[K, V], size),
		hash:     opt.Hash,
		cmp:      opt.Compare,
		onDelete: opt.OnDelete,
		pool:     opt.Pool,
		metrics:  opt.Metrics,
	}
	if t.pool == nil {
		t.pool = NewPool[K, V](PoolOptions{})
		t.ownPool = true
	}
	t.pool.attach()
	return t, nil
}

// Capacity returns the fixed number of buckets (0 for a nil table).
func (t *Table[K, V]) Capacity() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// Pool returns the node pool backing the table.
func (t *Table[K, V]) Pool() *Pool[K, V] {
	if t == nil {
		return nil
	}
	return t.pool
}

// Find returns the data stored under k.
// ok is false with a nil error when k is not present; a nil k fails with
// ErrInvalidArgument.
func (t *Table[K, V]) Find(k K) (V, bool, error) {
	var zero V
	if t == nil || absent(k) {
		return zero, false, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return zero, false, ErrDestroyed
	}

	if pp, c := t.seekLocked(k); c == 0 {
		t.hits.Add(1)
		t.metrics.Hit()
		return (*pp).data, true, nil
	}
	t.misses.Add(1)
	t.metrics.Miss()
	return zero, false, nil
}

// Insert stores data under k and returns data.
// Both k and data are mandatory (k may alias data). If an equal key is
// present Insert fails with ErrAlreadyExists; if the pool cannot supply a
// node it fails with ErrOutOfMemory. A failed Insert changes nothing.
func (t *Table[K, V]) Insert(k K, data V) (V, error) {
	var zero V
	if t == nil || absent(k) || absent(data) {
		return zero, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return zero, ErrDestroyed
	}

	pp, c := t.seekLocked(k)
	if c == 0 {
		return zero, ErrAlreadyExists
	}
	n, err := t.pool.alloc()
	if err != nil {
		return zero, err
	}
	n.key = k
	n.data = data
	n.next = *pp
	*pp = n
	t.count++

	t.metrics.Insert()
	t.metrics.Size(t.count)
	return data, nil
}

// Remove unlinks k and returns its data. OnDelete is not called: ownership
// of data passes back to the caller.
// ok is false with a nil error when k is not present.
func (t *Table[K, V]) Remove(k K) (V, bool, error) {
	var zero V
	if t == nil || absent(k) {
		return zero, false, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return zero, false, ErrDestroyed
	}

	pp, c := t.seekLocked(k)
	if c != 0 {
		return zero, false, nil
	}
	n := *pp
	data := n.data
	*pp = n.next
	t.count--
	t.pool.release(n)

	t.metrics.Delete(DeleteRemoved, 1)
	t.metrics.Size(t.count)
	return data, true, nil
}

// DeleteIf calls fn(data, key, arg) for every item and drops those for
// which it returns > 0, calling OnDelete on each. It returns the number of
// items dropped, or -1 with ErrInvalidArgument if fn is nil.
func (t *Table[K, V]) DeleteIf(fn ArgFunc[K, V], arg any) (int, error) {
	if t == nil || fn == nil {
		return -1, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return -1, ErrDestroyed
	}

	deleted := 0
	for i := range t.buckets {
		pp := &t.buckets[i]
		for *pp != nil {
			n := *pp
			if fn(n.data, n.key, arg) <= 0 {
				pp = &n.next
				continue
			}
			if t.onDelete != nil {
				t.onDelete(n.data)
			}
			*pp = n.next
			t.count--
			t.pool.release(n)
			deleted++
		}
	}
	if deleted > 0 {
		t.metrics.Delete(DeleteMatched, deleted)
		t.metrics.Size(t.count)
	}
	return deleted, nil
}

// ForEach calls fn(data, key, arg) for every item and returns how many
// calls returned > 0. Items are visited bucket by bucket, in ascending key
// order within a bucket. The table is not modified.
func (t *Table[K, V]) ForEach(fn ArgFunc[K, V], arg any) (int, error) {
	if t == nil || fn == nil {
		return -1, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return -1, ErrDestroyed
	}

	matched := 0
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			if fn(n.data, n.key, arg) > 0 {
				matched++
			}
		}
	}
	return matched, nil
}

// FindOrLoad returns the data for k. On a miss it calls load and inserts
// the result; concurrent misses on the same key share one load. load runs
// without the table lock held. Load errors are returned unchanged and
// nothing is inserted.
//
// If another goroutine inserts k through Insert while load runs, the value
// already in the table wins and the loaded value is returned to nobody.
func (t *Table[K, V]) FindOrLoad(ctx context.Context, k K, load func(context.Context, K) (V, error)) (V, error) {
	var zero V
	if t == nil || load == nil {
		return zero, ErrInvalidArgument
	}
	if v, ok, err := t.Find(k); err != nil || ok {
		return v, err
	}

	v, _, err := t.sf.Do(ctx, k, func() (V, error) {
		// double-check after becoming the leader
		if v, ok, err := t.peek(k); err != nil || ok {
			return v, err
		}
		v, err := load(ctx, k)
		if err != nil {
			return zero, err
		}
		if _, err := t.Insert(k, v); err != nil {
			if !errors.Is(err, ErrAlreadyExists) {
				return zero, err
			}
			cur, ok, ferr := t.peek(k)
			if ferr != nil {
				return zero, ferr
			}
			if !ok {
				return zero, err
			}
			return cur, nil
		}
		return v, nil
	})
	return v, err
}

// Count returns the number of items, or -1 with ErrInvalidArgument for a
// nil table.
func (t *Table[K, V]) Count() (int, error) {
	if t == nil {
		return -1, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return -1, ErrDestroyed
	}
	return t.count, nil
}

// IsEmpty reports whether the table holds no items.
func (t *Table[K, V]) IsEmpty() (bool, error) {
	if t == nil {
		return false, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return false, ErrDestroyed
	}
	return t.count == 0, nil
}

// Reset drops every item, calling OnDelete on each, and returns the nodes
// to the pool. The bucket array is kept and the table remains usable.
func (t *Table[K, V]) Reset() error {
	if t == nil {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrDestroyed
	}
	t.clearLocked()
	return nil
}

// Destroy drops every item, calling OnDelete on each, returns the nodes to
// the pool and detaches the table from it. A private pool is dropped as
// well. Every later call on the table fails with ErrDestroyed.
func (t *Table[K, V]) Destroy() error {
	if t == nil {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrDestroyed
	}
	t.clearLocked()
	t.buckets = nil
	t.destroyed = true

	t.pool.detach()
	if t.ownPool {
		return t.pool.Drop()
	}
	return nil
}

// Stats returns a snapshot of the table's counters and chain shape.
func (t *Table[K, V]) Stats() (TableStats, error) {
	if t == nil {
		return TableStats{}, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return TableStats{}, ErrDestroyed
	}

	st := TableStats{
		Count:    t.count,
		Capacity: len(t.buckets),
		Hits:     t.hits.Load(),
		Misses:   t.misses.Load(),
	}
	for _, head := range t.buckets {
		if head == nil {
			continue
		}
		st.UsedBuckets++
		l := 0
		for n := head; n != nil; n = n.next {
			l++
		}
		if l > st.LongestChain {
			st.LongestChain = l
		}
	}
	return st, nil
}

// -------------------- internals (mu held) --------------------

// seekLocked walks k's bucket in ascending order and returns the link that
// points at the first node whose key is >= k (or at the nil chain end),
// together with that node's comparison against k. c == 0 is a hit; any
// other value means the link is k's insertion point. Each visited node is
// compared once.
func (t *Table[K, V]) seekLocked(k K) (pp **node[K, V], c int) {
	slot := t.hash(k) % uint64(len(t.buckets))
	pp = &t.buckets[slot]
	for n := *pp; n != nil; n = *pp {
		if c = t.cmp(n.key, k); c >= 0 {
			return pp, c
		}
		pp = &n.next
	}
	return pp, 1
}

// peek is Find without hit/miss accounting.
func (t *Table[K, V]) peek(k K) (V, bool, error) {
	var zero V
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return zero, false, ErrDestroyed
	}
	if pp, c := t.seekLocked(k); c == 0 {
		return (*pp).data, true, nil
	}
	return zero, false, nil
}

// clearLocked calls OnDelete on every item, empties every bucket and hands
// each detached chain back to the pool.
func (t *Table[K, V]) clearLocked() {
	dropped := t.count
	for i, head := range t.buckets {
		if head == nil {
			continue
		}
		if t.onDelete != nil {
			for n := head; n != nil; n = n.next {
				t.onDelete(n.data)
			}
		}
		t.buckets[i] = nil
		t.pool.releaseChain(head)
	}
	t.count = 0
	if dropped > 0 {
		t.metrics.Delete(DeleteReset, dropped)
	}
	t.metrics.Size(0)
}
