// Package prom exports hashtab table and pool signals as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/chainhash/hashtab"
)

// Adapter implements hashtab.Metrics and hashtab.PoolMetrics.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
// One Adapter may serve a Sharded container and its pool: the entries
// gauge then tracks the total across shards. Independent Tables sharing
// one Adapter overwrite each other's entries gauge; give each its own
// Adapter (with distinct const labels) when per-table sizes matter.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	inserts  prometheus.Counter
	deletes  *prometheus.CounterVec
	entries  prometheus.Gauge
	blocks   prometheus.Counter
	slotsUse prometheus.Gauge
	slotFree prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: constLabels,
		})
	}

	a := &Adapter{
		hits:    counter("hits_total", "Successful lookups"),
		misses:  counter("misses_total", "Lookups for absent keys"),
		inserts: counter("inserts_total", "Items inserted"),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "deletes_total",
				Help:        "Items removed from the table by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		entries:  gauge("entries", "Number of items in the table"),
		blocks:   counter("pool_blocks_total", "Node blocks carved by the pool"),
		slotsUse: gauge("pool_slots_in_use", "Pool node slots linked into tables"),
		slotFree: gauge("pool_slots_free", "Pool node slots on the free list"),
	}
	reg.MustRegister(a.hits, a.misses, a.inserts, a.deletes, a.entries, a.blocks, a.slotsUse, a.slotFree)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Insert increments the insert counter.
func (a *Adapter) Insert() { a.inserts.Inc() }

// Delete adds n to the delete counter for reason r.
func (a *Adapter) Delete(r hashtab.DeleteReason, n int) {
	a.deletes.WithLabelValues(reason(r)).Add(float64(n))
}

// Size updates the entries gauge.
func (a *Adapter) Size(entries int) { a.entries.Set(float64(entries)) }

// Grow counts one carved block.
func (a *Adapter) Grow(int) { a.blocks.Inc() }

// Slots updates the pool slot gauges.
func (a *Adapter) Slots(inUse, free int) {
	a.slotsUse.Set(float64(inUse))
	a.slotFree.Set(float64(free))
}

// reason maps DeleteReason to a stable label value.
func reason(r hashtab.DeleteReason) string {
	switch r {
	case hashtab.DeleteRemoved:
		return "removed"
	case hashtab.DeleteMatched:
		return "matched"
	default:
		return "reset"
	}
}

var (
	_ hashtab.Metrics     = (*Adapter)(nil)
	_ hashtab.PoolMetrics = (*Adapter)(nil)
)
