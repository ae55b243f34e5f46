package rstest

import (
	"crypto/sha256"
	"math/rand/v2"
	"testing"
)

// chachaForTest returns a ChaCha8 source seeded from the test name,
// so every run of the same test sees the same values.
func chachaForTest(t *testing.T) *rand.ChaCha8 {
	// The SHA-256 digest is exactly the size of a ChaCha8 seed,
	// and it is independent of the test name's length.
	return rand.NewChaCha8(sha256.Sum256([]byte(t.Name())))
}

// RandomDataForTest returns sz pseudorandom bytes
// derived from the test name.
func RandomDataForTest(t *testing.T, sz int) []byte {
	out := make([]byte, sz)
	if _, err := chachaForTest(t).Read(out); err != nil {
		panic(err)
	}
	return out
}

// RandomIntsForTest returns n pseudorandom ints in [0, limit)
// derived from the test name.
func RandomIntsForTest(t *testing.T, n, limit int) []int {
	rng := rand.New(chachaForTest(t))
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(limit)
	}
	return out
}
