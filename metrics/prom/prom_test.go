package prom

import (
	"cmp"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/chainhash/hashtab"
)

// gather returns the value of every counter/gauge sample keyed by metric
// name, with a "{reason}" suffix for labelled samples.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" {
					name += "{" + lp.GetValue() + "}"
				}
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestAdapter_TableAndPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "chainhash", "test", nil)

	pool := hashtab.NewPool[string, *int](hashtab.PoolOptions{BlockSize: 4, Metrics: a})
	tb, err := hashtab.New[string, *int](hashtab.Options[string, *int]{
		Capacity: 8,
		Hash:     hashtab.HashString,
		Compare:  cmp.Compare[string],
		Pool:     pool,
		Metrics:  a,
	})
	require.NoError(t, err)

	for i, k := range []string{"a", "b", "c", "d", "e"} {
		v := i
		_, err := tb.Insert(k, &v)
		require.NoError(t, err)
	}
	_, _, _ = tb.Find("a")
	_, _, _ = tb.Find("zz")
	_, _, _ = tb.Remove("a")
	_, err = tb.DeleteIf(func(*int, string, any) int { return 1 }, nil)
	require.NoError(t, err)

	got := gather(t, reg)
	require.Equal(t, 1.0, got["chainhash_test_hits_total"])
	require.Equal(t, 1.0, got["chainhash_test_misses_total"])
	require.Equal(t, 5.0, got["chainhash_test_inserts_total"])
	require.Equal(t, 1.0, got["chainhash_test_deletes_total{removed}"])
	require.Equal(t, 4.0, got["chainhash_test_deletes_total{matched}"])
	require.Equal(t, 0.0, got["chainhash_test_entries"])
	require.Equal(t, 2.0, got["chainhash_test_pool_blocks_total"])
	require.Equal(t, 0.0, got["chainhash_test_pool_slots_in_use"])
	require.Equal(t, 8.0, got["chainhash_test_pool_slots_free"])

	require.NoError(t, tb.Destroy())
	require.NoError(t, pool.Drop())
	require.Equal(t, 0.0, gather(t, reg)["chainhash_test_pool_slots_free"])
}

func TestReason(t *testing.T) {
	cases := map[hashtab.DeleteReason]string{
		hashtab.DeleteRemoved: "removed",
		hashtab.DeleteMatched: "matched",
		hashtab.DeleteReset:   "reset",
	}
	for r, want := range cases {
		require.Equal(t, want, reason(r))
	}
}
