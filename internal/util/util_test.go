package util

import "testing"

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := map[uint64]uint64{
		0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128,
		1<<63 - 1: 1 << 63, 1 << 63: 1 << 63, 1<<63 + 1: 1 << 63,
	}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Fatalf("NextPow2(%d) want %d, got %d", in, want, got)
		}
	}
}

func TestLog2(t *testing.T) {
	t.Parallel()

	for i := 0; i < 64; i++ {
		if got := Log2(1 << i); got != i {
			t.Fatalf("Log2(1<<%d) = %d", i, got)
		}
	}
}

func TestShardIndex_InRange(t *testing.T) {
	t.Parallel()

	for _, shards := range []int{1, 2, 3, 16, 100, 256} {
		seen := map[int]bool{}
		for h := uint64(0); h < 10_000; h++ {
			i := ShardIndex(h, shards)
			if i < 0 || i >= shards {
				t.Fatalf("ShardIndex(%d, %d) = %d out of range", h, shards, i)
			}
			seen[i] = true
		}
		if len(seen) != shards {
			t.Fatalf("shards=%d: only %d shards used by sequential hashes", shards, len(seen))
		}
	}
}

func TestReasonableShardCount(t *testing.T) {
	t.Parallel()

	n := ReasonableShardCount()
	if n < 1 || n > MaxShards || !IsPowerOfTwo(uint64(n)) {
		t.Fatalf("unexpected shard count %d", n)
	}
}

func TestFNV1a(t *testing.T) {
	t.Parallel()

	// FNV-1a 64 reference value for "a".
	if h, ok := FNV1a("a"); !ok || h != 0xaf63dc4c8601ec8c {
		t.Fatalf("FNV1a(\"a\") = %#x ok=%v", h, ok)
	}
	if h := FNV1aBytes([]byte("a")); h != 0xaf63dc4c8601ec8c {
		t.Fatalf("string and []byte must agree, got %#x", h)
	}
	if a, _ := FNV1a(int64(-1)); a != mustFNV(t, uint64(1<<64-1)) {
		t.Fatal("int64(-1) must hash as its two's complement bits")
	}
	type opaque struct{ x int }
	if _, ok := FNV1a(opaque{1}); ok {
		t.Fatal("unsupported types must report ok=false")
	}
}

func mustFNV[K comparable](t *testing.T, k K) uint64 {
	t.Helper()
	h, ok := FNV1a(k)
	if !ok {
		t.Fatalf("FNV1a(%v) unsupported", k)
	}
	return h
}
