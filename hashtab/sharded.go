package hashtab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IvanBrykalov/chainhash/internal/util"
)

// Sharded spreads keys over independent Tables, each with its own lock,
// all drawing nodes from one shared Pool. Operations on different shards
// never contend on a table lock. Whole-container operations (Count,
// ForEach, DeleteIf, Reset, Destroy) visit the shards one at a time and
// never hold two shard locks at once, so their results are per-shard
// snapshots rather than one atomic view.
type Sharded[K comparable, V any] struct {
	shards  []*Table[K, V]
	hash    HashFunc[K]
	pool    *Pool[K, V]
	ownPool bool
}

// NewSharded creates opt.Shards tables (capped at util.MaxShards and
// rounded up to a power of two; <= 0 picks util.ReasonableShardCount) that
// split opt.Capacity evenly between them. opt.Metrics sees one Size series:
// the total across all shards. If opt.Pool is nil a pool is created,
// shared by the shards and dropped on Destroy.
func NewSharded[K comparable, V any](opt Options[K, V]) (*Sharded[K, V], error) {
	if opt.Hash == nil || opt.Compare == nil {
		return nil, fmt.Errorf("%w: Hash and Compare are required", ErrInvalidArgument)
	}
	n := opt.Shards
	if n <= 0 {
		n = util.ReasonableShardCount()
	} else {
		n = int(util.NextPow2(uint64(min(n, util.MaxShards))))
	}
	capacity := opt.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &Sharded[K, V]{
		shards: make([]*Table[K, V], n),
		hash:   opt.Hash,
		pool:   opt.Pool,
	}
	if s.pool == nil {
		s.pool = NewPool[K, V](PoolOptions{})
		s.ownPool = true
	}

	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	sum := &sizeTotal{inner: opt.Metrics}

	per := opt
	per.Pool = s.pool
	per.Capacity = (capacity + n - 1) / n // ceil
	for i := range s.shards {
		per.Metrics = &shardMetrics{Metrics: opt.Metrics, sum: sum}
		t, err := New(per)
		if err != nil {
			for _, built := range s.shards[:i] {
				_ = built.Destroy()
			}
			return nil, err
		}
		s.shards[i] = t
	}
	return s, nil
}

// Shards returns the number of tables.
func (s *Sharded[K, V]) Shards() int { return len(s.shards) }

// Pool returns the pool shared by all shards.
func (s *Sharded[K, V]) Pool() *Pool[K, V] { return s.pool }

func (s *Sharded[K, V]) shard(k K) *Table[K, V] {
	return s.shards[util.ShardIndex(s.hash(k), len(s.shards))]
}

func (s *Sharded[K, V]) Find(k K) (V, bool, error) {
	var zero V
	if s == nil || absent(k) {
		return zero, false, ErrInvalidArgument
	}
	return s.shard(k).Find(k)
}

func (s *Sharded[K, V]) Insert(k K, data V) (V, error) {
	var zero V
	if s == nil || absent(k) {
		return zero, ErrInvalidArgument
	}
	return s.shard(k).Insert(k, data)
}

func (s *Sharded[K, V]) Remove(k K) (V, bool, error) {
	var zero V
	if s == nil || absent(k) {
		return zero, false, ErrInvalidArgument
	}
	return s.shard(k).Remove(k)
}

func (s *Sharded[K, V]) FindOrLoad(ctx context.Context, k K, load func(context.Context, K) (V, error)) (V, error) {
	var zero V
	if s == nil || absent(k) {
		return zero, ErrInvalidArgument
	}
	return s.shard(k).FindOrLoad(ctx, k, load)
}

func (s *Sharded[K, V]) DeleteIf(fn ArgFunc[K, V], arg any) (int, error) {
	if s == nil || fn == nil {
		return -1, ErrInvalidArgument
	}
	total := 0
	for _, t := range s.shards {
		n, err := t.DeleteIf(fn, arg)
		if err != nil {
			return -1, err
		}
		total += n
	}
	return total, nil
}

func (s *Sharded[K, V]) ForEach(fn ArgFunc[K, V], arg any) (int, error) {
	if s == nil || fn == nil {
		return -1, ErrInvalidArgument
	}
	total := 0
	for _, t := range s.shards {
		n, err := t.ForEach(fn, arg)
		if err != nil {
			return -1, err
		}
		total += n
	}
	return total, nil
}

// Count returns the total number of items across all shards.
func (s *Sharded[K, V]) Count() (int, error) {
	if s == nil {
		return -1, ErrInvalidArgument
	}
	total := 0
	for _, t := range s.shards {
		n, err := t.Count()
		if err != nil {
			return -1, err
		}
		total += n
	}
	return total, nil
}

func (s *Sharded[K, V]) IsEmpty() (bool, error) {
	n, err := s.Count()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *Sharded[K, V]) Reset() error {
	if s == nil {
		return ErrInvalidArgument
	}
	for _, t := range s.shards {
		if err := t.Reset(); err != nil {
			return err
		}
	}
	return nil
}

// Destroy destroys every shard and, if the pool was created by NewSharded,
// drops it.
func (s *Sharded[K, V]) Destroy() error {
	if s == nil {
		return ErrInvalidArgument
	}
	var errs []error
	for _, t := range s.shards {
		if err := t.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if s.ownPool {
		return s.pool.Drop()
	}
	return nil
}

// Stats returns per-shard snapshots, in shard order.
func (s *Sharded[K, V]) Stats() ([]TableStats, error) {
	if s == nil {
		return nil, ErrInvalidArgument
	}
	out := make([]TableStats, 0, len(s.shards))
	for _, t := range s.shards {
		st, err := t.Stats()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// sizeTotal folds per-shard Size reports into one container-wide count.
type sizeTotal struct {
	mu    sync.Mutex
	total int
	inner Metrics
}

// shardMetrics forwards every signal of one shard unchanged except Size,
// which is turned into a delta against the shard's previous report.
type shardMetrics struct {
	Metrics
	sum  *sizeTotal
	last int // guarded by sum.mu
}

func (m *shardMetrics) Size(entries int) {
	m.sum.mu.Lock()
	m.sum.total += entries - m.last
	m.last = entries
	m.sum.inner.Size(m.sum.total)
	m.sum.mu.Unlock()
}
