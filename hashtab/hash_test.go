package hashtab

import "testing"

func TestHashString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"abc", (97*31+98)*31 + 99},
	}
	for _, c := range cases {
		if got := HashString(c.in); got != c.want {
			t.Fatalf("HashString(%q) want %d, got %d", c.in, c.want, got)
		}
	}
}

// Long keys wrap around without panicking and stay deterministic.
func TestHashString_Wraparound(t *testing.T) {
	t.Parallel()

	long := make([]byte, 4096)
	for i := range long {
		long[i] = 0xff
	}
	if HashString(string(long)) != HashString(string(long)) {
		t.Fatal("hash must be deterministic")
	}
}

func TestHashFNV(t *testing.T) {
	t.Parallel()

	if HashFNV("a") == HashFNV("b") {
		t.Fatal("distinct strings should hash apart")
	}
	if HashFNV(1) == HashFNV(2) {
		t.Fatal("distinct ints should hash apart")
	}
	type point struct{ x, y int }
	if HashFNV(point{1, 2}) != HashFNV(point{1, 2}) {
		t.Fatal("fallback hash must be deterministic")
	}
	if HashFNV(point{1, 2}) == HashFNV(point{2, 1}) {
		t.Fatal("fallback hash should separate distinct structs")
	}
}

func TestHashXX(t *testing.T) {
	t.Parallel()

	// Reference value of xxHash64 for the empty input with seed 0.
	if got := HashXX(""); got != 0xef46db3751d8e999 {
		t.Fatalf("HashXX(\"\") = %#x", got)
	}
}
