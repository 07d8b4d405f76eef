// Package util contains internal helpers (hashing, shard selection, padding).
//
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import "math"

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// FNV1a hashes common key types with 64-bit FNV-1a.
// Supported: string, bool, all int/uint widths, uintptr, float32/64.
// The second result is false for any other type; callers pick a fallback.
func FNV1a[K comparable](k K) (uint64, bool) {
	switch v := any(k).(type) {
	case string:
		return fnvString(v), true
	case bool:
		if v {
			return fnvUint64(1), true
		}
		return fnvUint64(0), true
	case uint8:
		return fnvUint64(uint64(v)), true
	case uint16:
		return fnvUint64(uint64(v)), true
	case uint32:
		return fnvUint64(uint64(v)), true
	case uint64:
		return fnvUint64(v), true
	case uint:
		return fnvUint64(uint64(v)), true
	case uintptr:
		return fnvUint64(uint64(v)), true
	case int8:
		return fnvUint64(uint64(uint8(v))), true
	case int16:
		return fnvUint64(uint64(uint16(v))), true
	case int32:
		return fnvUint64(uint64(uint32(v))), true
	case int64:
		return fnvUint64(uint64(v)), true
	case int:
		return fnvUint64(uint64(v)), true
	case float32:
		return fnvUint64(uint64(math.Float32bits(v))), true
	case float64:
		return fnvUint64(math.Float64bits(v)), true
	default:
		return 0, false
	}
}

// FNV1aBytes hashes b with 64-bit FNV-1a.
func FNV1aBytes(b []byte) uint64 { return fnvBytes(b) }

// fnvString avoids the []byte conversion (and its allocation) for strings.
func fnvString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnvBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// fnvUint64 hashes the 8 little-endian bytes of u.
func fnvUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= u & 0xff
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
