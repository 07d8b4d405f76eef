package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// Profile describes one benchmark run. It can be loaded from a JSONC file
// (comments and trailing commas allowed); flags set on the command line
// override the file.
type Profile struct {
	Capacity  int      `json:"capacity"`
	Shards    int      `json:"shards"` // 0 = one table, < 0 = auto
	Hash      string   `json:"hash"`   // poly | fnv | xx
	BlockSize int      `json:"block_size"`
	Workers   int      `json:"workers"`
	Duration  Duration `json:"duration"`
	FindPct   int      `json:"find_pct"`
	Keys      int      `json:"keys"`
	ZipfS     float64  `json:"zipf_s"`
	ZipfV     float64  `json:"zipf_v"`
	Seed      int64    `json:"seed"`
	Preload   int      `json:"preload"` // 0 = keys/2
	Purge     Duration `json:"purge"`   // DeleteIf sweep period, 0 = off
}

// Duration is a time.Duration that reads "1.5s"-style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func defaultProfile() Profile {
	return Profile{
		Capacity:  1213,
		Hash:      "poly",
		BlockSize: 1024,
		Workers:   2 * runtime.GOMAXPROCS(0),
		Duration:  Duration(10 * time.Second),
		FindPct:   80,
		Keys:      100_000,
		ZipfS:     1.1,
		ZipfV:     1.0,
		Seed:      time.Now().UnixNano(),
	}
}

// loadProfile parses a JSONC profile over the defaults.
func loadProfile(path string, base Profile) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Profile{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}
	p := base
	if err := json.Unmarshal(standardized, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// bindFlags registers profile flags on fs, defaulting to p.
func bindFlags(fs *flag.FlagSet, p *Profile) {
	fs.IntVar(&p.Capacity, "capacity", p.Capacity, "buckets per table")
	fs.IntVar(&p.Shards, "shards", p.Shards, "number of shards (0 = single table, <0 = auto)")
	fs.StringVar(&p.Hash, "hash", p.Hash, "hash function: poly | fnv | xx")
	fs.IntVar(&p.BlockSize, "block-size", p.BlockSize, "node pool block size")
	fs.IntVar(&p.Workers, "workers", p.Workers, "number of worker goroutines")
	fs.DurationVar((*time.Duration)(&p.Duration), "duration", time.Duration(p.Duration), "benchmark duration")
	fs.IntVar(&p.FindPct, "finds", p.FindPct, "find percentage [0..100]")
	fs.IntVar(&p.Keys, "keys", p.Keys, "keyspace size")
	fs.Float64Var(&p.ZipfS, "zipf-s", p.ZipfS, "Zipf s > 1 (skew)")
	fs.Float64Var(&p.ZipfV, "zipf-v", p.ZipfV, "Zipf v >= 1")
	fs.Int64Var(&p.Seed, "seed", p.Seed, "random seed")
	fs.IntVar(&p.Preload, "preload", p.Preload, "preloaded keys (0 = keys/2)")
	fs.DurationVar((*time.Duration)(&p.Purge), "purge", time.Duration(p.Purge), "DeleteIf sweep period (0 = off)")
}

// resolveProfile applies the defaults, then the --config file, then every
// flag explicitly set on the command line.
func resolveProfile(fs *flag.FlagSet, args []string, configPath *string) (Profile, error) {
	cli := defaultProfile()
	bindFlags(fs, &cli)
	if err := fs.Parse(args); err != nil {
		return Profile{}, err
	}
	if *configPath == "" {
		return cli, cli.validate()
	}

	p, err := loadProfile(*configPath, defaultProfile())
	if err != nil {
		return Profile{}, err
	}
	// Re-apply flags the user typed; they win over the file.
	override := flag.NewFlagSet("override", flag.ContinueOnError)
	bindFlags(override, &p)
	var replay []string
	fs.Visit(func(f *flag.Flag) {
		if override.Lookup(f.Name) != nil {
			replay = append(replay, "--"+f.Name+"="+f.Value.String())
		}
	})
	if err := override.Parse(replay); err != nil {
		return Profile{}, err
	}
	return p, p.validate()
}

func (p Profile) validate() error {
	switch {
	case p.Keys < 2:
		return fmt.Errorf("keys must be >= 2, got %d", p.Keys)
	case p.FindPct < 0 || p.FindPct > 100:
		return fmt.Errorf("finds must be in [0,100], got %d", p.FindPct)
	case p.ZipfS <= 1:
		return fmt.Errorf("zipf-s must be > 1, got %v", p.ZipfS)
	case p.ZipfV < 1:
		return fmt.Errorf("zipf-v must be >= 1, got %v", p.ZipfV)
	case p.Duration <= 0:
		return fmt.Errorf("duration must be positive")
	}
	switch p.Hash {
	case "poly", "fnv", "xx":
	default:
		return fmt.Errorf("unknown hash %q (use poly, fnv or xx)", p.Hash)
	}
	return nil
}
