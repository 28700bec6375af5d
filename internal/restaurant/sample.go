package restaurant

import (
	"errors"
	"fmt"
	"math/rand"
)

// SampleSize is how many records a recommendation shows.
const SampleSize = 3

// ErrInsufficientRecords is returned when the candidate pool is smaller than the sample.
var ErrInsufficientRecords = errors.New("not enough records to sample")

// Sample draws n distinct records uniformly at random without replacement.
// It fails with ErrInsufficientRecords instead of repeating or truncating.
func Sample(rng *rand.Rand, pool []Record, n int) ([]Record, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size must be >= 0, got %d", n)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRecords, len(pool), n)
	}
	perm := rng.Perm(len(pool))
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out, nil
}
