// Command bench runs a synthetic credential-cache workload against a hash
// table and exposes optional pprof/Prometheus endpoints.
package main

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	atomicfile "github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/IvanBrykalov/chainhash/hashtab"
	pmet "github.com/IvanBrykalov/chainhash/metrics/prom"
)

// Report is the JSON summary written to --out.
type Report struct {
	Profile  Profile           `json:"profile"`
	Elapsed  Duration          `json:"elapsed"`
	Ops      uint64            `json:"ops"`
	OpsPerS  float64           `json:"ops_per_sec"`
	Finds    uint64            `json:"finds"`
	Hits     uint64            `json:"hits"`
	Inserts  uint64            `json:"inserts"`
	Dups     uint64            `json:"duplicates"`
	Removes  uint64            `json:"removes"`
	Purged   uint64            `json:"purged"`
	HitRate  float64           `json:"hit_rate_pct"`
	Count    int               `json:"count"`
	Pool     hashtab.PoolStats `json:"pool"`
	Longest  int               `json:"longest_chain"`
	UsedBkts int               `json:"used_buckets"`
}

// cred is the cached item: the table stores the pointer, never a copy.
type cred struct {
	id      string
	expires int64 // UnixNano
}

func main() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	var (
		configPath  = fs.String("config", "", "JSONC workload profile; flags set explicitly override it")
		out         = fs.String("out", "", "write a JSON report to this path (atomic replace)")
		pprofAddr   = fs.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = fs.String("http", ":8080", "serve Prometheus metrics at addr; empty = disabled")
	)
	p, err := resolveProfile(fs, os.Args[1:], configPath)
	if err != nil {
		log.Fatal(err)
	}

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	metrics := pmet.New(nil, "chainhash", "bench", nil)
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("metrics: serving at %s", *metricsAddr)
			log.Println(http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	pool := hashtab.NewPool[string, *cred](hashtab.PoolOptions{BlockSize: p.BlockSize, Metrics: metrics})
	c, stats, err := build(p, pool, metrics)
	if err != nil {
		log.Fatalf("build table: %v", err)
	}

	rep := run(p, c)
	rep.Profile = p
	rep.Count, _ = c.Count()
	for _, st := range stats() {
		rep.UsedBkts += st.UsedBuckets
		rep.Longest = max(rep.Longest, st.LongestChain)
	}
	rep.Pool = pool.Stats()

	if err := c.Destroy(); err != nil {
		log.Printf("destroy: %v", err)
	}
	if err := pool.Drop(); err != nil {
		log.Printf("drop pool: %v", err)
	}

	fmt.Printf("hash=%s capacity=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		p.Hash, p.Capacity, p.Shards, p.Workers, p.Keys, time.Duration(rep.Elapsed), p.Seed)
	fmt.Printf("ops=%d (%.0f ops/s)  finds=%d  inserts=%d (dup=%d)  removes=%d  purged=%d\n",
		rep.Ops, rep.OpsPerS, rep.Finds, rep.Inserts, rep.Dups, rep.Removes, rep.Purged)
	fmt.Printf("hit-rate=%.2f%%  count=%d  used-buckets=%d  longest-chain=%d\n",
		rep.HitRate, rep.Count, rep.UsedBkts, rep.Longest)
	fmt.Printf("pool: blocks=%d slots=%d in-use=%d free=%d\n",
		rep.Pool.Blocks, rep.Pool.Slots, rep.Pool.InUse, rep.Pool.Free)

	if *out != "" {
		if err := writeReport(*out, rep); err != nil {
			log.Fatal(err)
		}
	}
}

// build creates a single table or a sharded one on the shared pool.
// stats reports per-table chain shape at the end of the run.
func build(p Profile, pool *hashtab.Pool[string, *cred], m hashtab.Metrics) (hashtab.Container[string, *cred], func() []hashtab.TableStats, error) {
	opt := hashtab.Options[string, *cred]{
		Capacity: p.Capacity,
		Hash:     hashFunc(p.Hash),
		Compare:  cmp.Compare[string],
		Pool:     pool,
		Metrics:  m,
	}
	if p.Shards == 0 {
		t, err := hashtab.New(opt)
		if err != nil {
			return nil, nil, err
		}
		return t, func() []hashtab.TableStats {
			st, _ := t.Stats()
			return []hashtab.TableStats{st}
		}, nil
	}
	opt.Shards = max(p.Shards, 0)
	s, err := hashtab.NewSharded(opt)
	if err != nil {
		return nil, nil, err
	}
	return s, func() []hashtab.TableStats {
		st, _ := s.Stats()
		return st
	}, nil
}

func hashFunc(name string) hashtab.HashFunc[string] {
	switch name {
	case "fnv":
		return hashtab.HashFNV[string]
	case "xx":
		return hashtab.HashXX
	default:
		return hashtab.HashString
	}
}

func run(p Profile, c hashtab.Container[string, *cred]) Report {
	keys := make([]string, p.Keys)
	for i := range keys {
		keys[i] = "cred:" + strconv.Itoa(i)
	}

	preload := p.Preload
	if preload <= 0 {
		preload = p.Keys / 2
	}
	ttl := int64(time.Second)
	now := time.Now().UnixNano()
	for i := 0; i < preload && i < len(keys); i++ {
		_, _ = c.Insert(keys[i], &cred{id: keys[i], expires: now + ttl})
	}

	var finds, hits, inserts, dups, removes, purged, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.Duration))
	defer cancel()

	var wg sync.WaitGroup
	if p.Purge > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			expired := func(cr *cred, _ string, arg any) int {
				if cr.expires < arg.(int64) {
					return 1
				}
				return 0
			}
			tick := time.NewTicker(time.Duration(p.Purge))
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
					n, err := c.DeleteIf(expired, time.Now().UnixNano())
					if err != nil {
						log.Printf("purge: %v", err)
						continue
					}
					atomic.AddUint64(&purged, uint64(n))
				}
			}
		}()
	}

	workers := max(p.Workers, 1)
	start := time.Now()
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()

			// rand.Rand is not goroutine-safe: one per worker.
			r := rand.New(rand.NewSource(p.Seed + int64(id)*9973))
			zipf := rand.NewZipf(r, p.ZipfS, p.ZipfV, uint64(p.Keys-1))

			for ctx.Err() == nil {
				atomic.AddUint64(&total, 1)
				k := keys[zipf.Uint64()]
				op := int(r.Int31n(100))
				switch {
				case op < p.FindPct:
					atomic.AddUint64(&finds, 1)
					if _, ok, _ := c.Find(k); ok {
						atomic.AddUint64(&hits, 1)
					}
				case op < p.FindPct+(100-p.FindPct)/2:
					_, err := c.Insert(k, &cred{id: k, expires: time.Now().UnixNano() + ttl})
					switch {
					case err == nil:
						atomic.AddUint64(&inserts, 1)
					case errors.Is(err, hashtab.ErrAlreadyExists):
						atomic.AddUint64(&dups, 1)
					default:
						log.Printf("insert %s: %v", k, err)
					}
				default:
					if _, ok, _ := c.Remove(k); ok {
						atomic.AddUint64(&removes, 1)
					}
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	rep := Report{
		Elapsed: Duration(elapsed),
		Ops:     total,
		OpsPerS: float64(total) / elapsed.Seconds(),
		Finds:   finds,
		Hits:    hits,
		Inserts: inserts,
		Dups:    dups,
		Removes: removes,
		Purged:  purged,
	}
	if finds > 0 {
		rep.HitRate = float64(hits) / float64(finds) * 100
	}
	return rep
}

func writeReport(path string, rep Report) error {
	buf, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	buf = append(buf, '\n')
	if err := atomicfile.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
