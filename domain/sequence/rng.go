package sequence

// RNG abstracts the random source so sequence generation is reproducible
// under test. *math/rand.Rand satisfies it.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// shuffleInts is an in-place Fisher-Yates shuffle.
func shuffleInts(a []int, rng RNG) {
	for i := len(a) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
