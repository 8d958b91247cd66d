package random

import (
	"crypto/rand"
	"math/big"
)

// Intn returns a uniform random int in [0, n) backed by crypto/rand.
// Falls back to 0 only if the system entropy source fails.
func Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Shuffle performs an unbiased Fisher-Yates permutation of n elements.
func Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := Intn(i + 1)
		swap(i, j)
	}
}
