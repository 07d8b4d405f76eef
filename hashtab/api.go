package hashtab

import "context"

// Container is the operation set shared by Table and Sharded.
// All methods are safe for concurrent use by multiple goroutines.
//
// The container stores the key and data values it is given and never
// copies what they reference. Ownership of data returns to the caller on
// Remove; Reset, Destroy and DeleteIf pass dropped data to OnDelete.
type Container[K comparable, V any] interface {
	// Find returns the data stored under k. ok is false, with a nil
	// error, when k is not present.
	Find(k K) (data V, ok bool, err error)

	// Insert stores data under k and returns data. It fails with
	// ErrAlreadyExists, and changes nothing, if an equal key is present.
	Insert(k K, data V) (V, error)

	// Remove unlinks k and returns its data without calling OnDelete.
	// ok is false, with a nil error, when k is not present.
	Remove(k K) (data V, ok bool, err error)

	// DeleteIf drops every item for which fn returns > 0, calling
	// OnDelete on each, and returns how many were dropped.
	DeleteIf(fn ArgFunc[K, V], arg any) (int, error)

	// ForEach calls fn on every item and returns how many returned > 0.
	// The container is not modified.
	ForEach(fn ArgFunc[K, V], arg any) (int, error)

	// FindOrLoad returns the data for k, running load on a miss and
	// inserting its result. Concurrent misses on the same key share a
	// single load.
	FindOrLoad(ctx context.Context, k K, load func(context.Context, K) (V, error)) (V, error)

	Count() (int, error)
	IsEmpty() (bool, error)

	// Reset drops every item, calling OnDelete on each; the container
	// stays usable.
	Reset() error

	// Destroy drops every item, calling OnDelete on each, and releases
	// the container. Every later call fails with ErrDestroyed.
	Destroy() error
}

var (
	_ Container[string, *int] = (*Table[string, *int])(nil)
	_ Container[string, *int] = (*Sharded[string, *int])(nil)
)
