// Package hashtab provides a generic, thread-safe hash table with separate
// chaining, backed by a shared bulk node pool.
//
// Design
//
//   - Storage: a Table owns a fixed array of bucket chains. The capacity is
//     chosen at creation and never changes; there is no rehashing.
//
//   - Ordering: every chain is kept sorted ascending by the caller's
//     CompareFunc. Find, Insert and Remove stop scanning at the first key
//     that compares greater than the probe, so misses are as cheap as hits.
//
//   - Ownership: the table stores the key and data values it is handed and
//     never copies what they reference. Remove hands data back to the
//     caller. Reset, Destroy and DeleteIf hand dropped data to the optional
//     OnDelete callback.
//
//   - Nodes: chain nodes come from a Pool, which carves them in blocks
//     (DefaultBlockSize slots) and recycles them through a free list. Pass
//     the same Pool to several tables to share one free list. Pool.Drop
//     releases every block and refuses while a table is still attached.
//
//   - Concurrency: one mutex per table, held for the whole of each call,
//     and one mutex per pool. A table takes its own lock first and then the
//     pool's; the pool never calls back into a table. Sharded splits keys
//     over several tables sharing one pool to reduce contention.
//
//   - Metrics: Options.Metrics and PoolOptions.Metrics receive hit, miss,
//     insert, delete and size signals. The metrics/prom package exports
//     them to Prometheus.
//
// Basic usage
//
//	t, err := hashtab.New[string, *Cred](hashtab.Options[string, *Cred]{
//	    Capacity: 4096,
//	    Hash:     hashtab.HashString,
//	    Compare:  cmp.Compare[string],
//	})
//	if err != nil {
//	    return err
//	}
//	defer t.Destroy()
//
//	if _, err := t.Insert(c.ID, c); errors.Is(err, hashtab.ErrAlreadyExists) {
//	    // replayed credential
//	}
//	if c, ok, err := t.Find(id); err == nil && ok {
//	    _ = c
//	}
//
// Purging with DeleteIf
//
//	expired := func(c *Cred, _ string, arg any) int {
//	    if c.Expires.Before(arg.(time.Time)) {
//	        return 1
//	    }
//	    return 0
//	}
//	n, err := t.DeleteIf(expired, time.Now())
//
// # Errors
//
// Argument errors are ErrInvalidArgument; duplicate keys are
// ErrAlreadyExists; capacity or pool limits are ErrOutOfMemory. A key that
// is simply not present is reported through the ok result, never as an
// error.
package hashtab
