package util

import "runtime"

// MaxShards bounds ReasonableShardCount.
const MaxShards = 256

// ReasonableShardCount picks a default shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..MaxShards].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > MaxShards {
		n = MaxShards
	}
	return n
}

// golden is 2^64 / phi, the Fibonacci hashing multiplier.
const golden = 0x9E3779B97F4A7C15

// ShardIndex maps a hash to a shard index in [0, shards).
//
// The hash is multiplied by the Fibonacci constant and the index is taken
// from the high bits, so the low bits that pick a bucket inside the shard
// (hash % capacity) stay independent of the shard choice. Non power-of-two
// shard counts fall back to modulo over the mixed value.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	mixed := hash * golden
	if IsPowerOfTwo(uint64(shards)) {
		return int(mixed >> (64 - Log2(uint64(shards))))
	}
	return int(mixed % uint64(shards))
}
