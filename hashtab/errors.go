package hashtab

import "errors"

// Sentinel errors. Compare with errors.Is; some are wrapped with context.
//
// A missing key is not an error: lookups report it through their ok result.
var (
	// ErrInvalidArgument reports a missing mandatory argument: a nil table,
	// a nil Hash/Compare function, a nil key, nil data or a nil callback.
	ErrInvalidArgument = errors.New("hashtab: invalid argument")

	// ErrAlreadyExists is returned by Insert when an equal key is present.
	ErrAlreadyExists = errors.New("hashtab: key already exists")

	// ErrOutOfMemory is returned when the bucket array exceeds MaxCapacity
	// or the node pool has reached PoolOptions.MaxBlocks.
	ErrOutOfMemory = errors.New("hashtab: out of memory")

	// ErrDestroyed is returned by every operation on a destroyed table.
	ErrDestroyed = errors.New("hashtab: table destroyed")

	// ErrPoolInUse is returned by Pool.Drop while tables are still attached.
	ErrPoolInUse = errors.New("hashtab: pool in use")
)
