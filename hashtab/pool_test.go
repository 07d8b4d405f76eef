package hashtab

import (
	"cmp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoolMetrics struct {
	grows        int
	inUse, nfree int
}

func (m *countingPoolMetrics) Grow(int)              { m.grows++ }
func (m *countingPoolMetrics) Slots(inUse, free int) { m.inUse, m.nfree = inUse, free }

func TestPool_GrowsInBlocks(t *testing.T) {
	t.Parallel()

	m := &countingPoolMetrics{}
	p := NewPool[string, int](PoolOptions{BlockSize: 8, Metrics: m})
	require.Equal(t, PoolStats{}, p.Stats(), "no block before first alloc")

	var nodes []*node[string, int]
	for i := 0; i < 9; i++ {
		n, err := p.alloc()
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	st := p.Stats()
	assert.Equal(t, 2, st.Blocks)
	assert.Equal(t, 16, st.Slots)
	assert.Equal(t, 9, st.InUse)
	assert.Equal(t, 7, st.Free)
	assert.Equal(t, 2, m.grows)
	assert.Equal(t, 9, m.inUse)
	assert.Equal(t, 7, m.nfree)

	for _, n := range nodes {
		p.release(n)
	}
	st = p.Stats()
	assert.Equal(t, 0, st.InUse)
	assert.Equal(t, 16, st.Free)
	assert.Equal(t, 2, st.Blocks, "released slots stay carved")
}

func TestPool_AllocReturnsZeroedRecycledSlot(t *testing.T) {
	t.Parallel()

	p := NewPool[string, *int](PoolOptions{BlockSize: 2})
	n, err := p.alloc()
	require.NoError(t, err)
	n.key, n.data = "k", intp(1)
	p.release(n)

	assert.Empty(t, n.key, "release must drop the key reference")
	assert.Nil(t, n.data, "release must drop the data reference")

	again, err := p.alloc()
	require.NoError(t, err)
	assert.Same(t, n, again, "free list is LIFO")
	assert.Nil(t, again.next)
	assert.Equal(t, 1, p.Stats().Blocks)
}

func TestPool_MaxBlocks(t *testing.T) {
	t.Parallel()

	p := NewPool[int, int](PoolOptions{BlockSize: 2, MaxBlocks: 1})
	_, err := p.alloc()
	require.NoError(t, err)
	_, err = p.alloc()
	require.NoError(t, err)
	_, err = p.alloc()
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 2, p.Stats().InUse, "a failed alloc must not change accounting")
}

func TestPool_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPool[int, int](PoolOptions{BlockSize: -3, MaxBlocks: -1})
	assert.Equal(t, DefaultBlockSize, p.BlockSize())
	_, err := p.alloc()
	require.NoError(t, err)
	assert.Equal(t, DefaultBlockSize-1, p.Stats().Free)
}

// Tables sharing a pool draw from and return to one free list.
func TestPool_SharedAcrossTables(t *testing.T) {
	t.Parallel()

	p := NewPool[string, *int](PoolOptions{BlockSize: 16})
	newT := func() *Table[string, *int] {
		tb, err := New[string, *int](Options[string, *int]{
			Capacity: 5,
			Hash:     HashString,
			Compare:  cmp.Compare[string],
			Pool:     p,
		})
		require.NoError(t, err)
		return tb
	}
	a, b := newT(), newT()
	require.Equal(t, 2, p.Stats().Tables)

	for i := 0; i < 10; i++ {
		_, err := a.Insert("a"+strconv.Itoa(i), intp(i))
		require.NoError(t, err)
		_, err = b.Insert("b"+strconv.Itoa(i), intp(i))
		require.NoError(t, err)
	}
	st := p.Stats()
	assert.Equal(t, 20, st.InUse)
	assert.Equal(t, 2, st.Blocks)

	// Nodes freed by one table are reused by the other without growing.
	require.NoError(t, a.Reset())
	for i := 10; i < 20; i++ {
		_, err := b.Insert("b"+strconv.Itoa(i), intp(i))
		require.NoError(t, err)
	}
	st = p.Stats()
	assert.Equal(t, 20, st.InUse)
	assert.Equal(t, 2, st.Blocks)

	require.ErrorIs(t, p.Drop(), ErrPoolInUse, "tables still attached")
	require.NoError(t, a.Destroy())
	require.ErrorIs(t, p.Drop(), ErrPoolInUse, "b still attached")
	require.NoError(t, b.Destroy())

	require.NoError(t, p.Drop())
	assert.Equal(t, PoolStats{}, p.Stats())

	// A dropped pool can be used again.
	c := newT()
	_, err := c.Insert("c", intp(1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().Blocks)
	require.NoError(t, c.Destroy())
}

// A table created without a pool owns a private one and drops it on Destroy.
func TestPool_PrivatePoolDroppedOnDestroy(t *testing.T) {
	t.Parallel()

	tb := newStringTable(t, 4, nil)
	_, err := tb.Insert("a", intp(1))
	require.NoError(t, err)
	p := tb.Pool()
	require.Equal(t, 1, p.Stats().Blocks)

	require.NoError(t, tb.Destroy())
	assert.Equal(t, PoolStats{}, p.Stats())
}
