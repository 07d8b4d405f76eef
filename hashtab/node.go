package hashtab

// node is a bucket chain link. It borrows key and data from the caller:
// the table stores the values it was given and never copies what they
// point to. Nodes live in Pool blocks; a node is either reachable from
// exactly one bucket chain or threaded on the pool's free list, and next
// serves both lists.
type node[K comparable, V any] struct {
	key  K
	data V
	next *node[K, V]
}
