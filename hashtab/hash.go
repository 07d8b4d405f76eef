package hashtab

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/IvanBrykalov/chainhash/internal/util"
)

// HashString is the default hash for text keys: a polynomial rolling hash
// h = h*31 + b over every byte of s, with uint64 wraparound. It is cheap
// and adequate for short identifiers; it is not collision resistant.
func HashString(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return h
}

// HashFNV hashes common key types (strings, byte slices, bools, integers,
// floats) with 64-bit FNV-1a. Other key types are hashed through their
// fmt %v rendering, which is slow; supply a dedicated HashFunc for them.
func HashFNV[K comparable](k K) uint64 {
	if h, ok := util.FNV1a(k); ok {
		return h
	}
	return util.FNV1aBytes(fmt.Appendf(nil, "%v", k))
}

// HashXX hashes s with xxHash64. It spreads keys better than HashString
// for long or structured identifiers.
func HashXX(s string) uint64 { return xxhash.Sum64String(s) }
