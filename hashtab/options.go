package hashtab

const (
	// DefaultCapacity is the bucket count used when Options.Capacity <= 0.
	DefaultCapacity = 1213

	// MaxCapacity bounds the bucket array; larger requests fail with
	// ErrOutOfMemory instead of attempting the allocation.
	MaxCapacity = 1 << 26
)

// HashFunc converts a key into a hash value.
type HashFunc[K any] func(k K) uint64

// CompareFunc orders two keys: negative if a < b, zero if equal, positive
// if a > b. It must define a total order consistent with equality.
// cmp.Compare satisfies it for ordered key types.
type CompareFunc[K any] func(a, b K) int

// DeleteFunc releases caller-owned data when an item is dropped by Reset,
// Destroy or DeleteIf. It is never called by Remove.
type DeleteFunc[V any] func(data V)

// ArgFunc is invoked per item by ForEach and DeleteIf with the item's data,
// its key and the caller's arg. A result > 0 selects the item.
type ArgFunc[K any, V any] func(data V, key K, arg any) int

// DeleteReason explains why an item left a table.
type DeleteReason int

const (
	// DeleteRemoved - handed back to the caller by Remove.
	DeleteRemoved DeleteReason = iota
	// DeleteMatched - selected by a DeleteIf predicate.
	DeleteMatched
	// DeleteReset - dropped by Reset or Destroy.
	DeleteReset
)

// Metrics exposes table-level observability hooks.
// Calls happen under the table lock; implementations must be cheap.
type Metrics interface {
	Hit()
	Miss()
	Insert()
	Delete(reason DeleteReason, n int)
	Size(entries int)
}

// PoolMetrics exposes node pool observability hooks.
// Calls happen under the pool lock.
type PoolMetrics interface {
	// Grow reports a new block of slots carved from the heap.
	Grow(slots int)
	// Slots reports the current in-use and free slot counts.
	Slots(inUse, free int)
}

// Options configures a Table. Zero values are safe except for Hash and
// Compare, which are mandatory. Defaults applied in New():
//   - Capacity <= 0 => DefaultCapacity
//   - nil Pool      => a private pool, dropped on Destroy
//   - nil Metrics   => NoopMetrics
type Options[K comparable, V any] struct {
	// Capacity is the fixed number of buckets. It never changes.
	Capacity int

	// Hash and Compare are mandatory; see HashString, HashFNV and HashXX.
	Hash    HashFunc[K]
	Compare CompareFunc[K]

	// OnDelete is called under the table lock for every item dropped by
	// Reset, Destroy or DeleteIf. Optional.
	OnDelete DeleteFunc[V]

	// Pool supplies nodes. Tables built with the same Pool share its
	// blocks and free list.
	Pool *Pool[K, V]

	Metrics Metrics

	// Shards is used by NewSharded only: the number of tables, rounded up
	// to a power of two. <= 0 picks a value from GOMAXPROCS.
	Shards int
}

// PoolOptions configures a Pool. Zero values are safe:
//   - BlockSize <= 0 => DefaultBlockSize
//   - MaxBlocks <= 0 => unlimited
//   - nil Metrics    => NoopPoolMetrics
type PoolOptions struct {
	BlockSize int
	MaxBlocks int
	Metrics   PoolMetrics
}
