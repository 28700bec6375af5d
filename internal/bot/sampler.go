package bot

import (
	"math/rand"
	"sync"
	"time"

	"lunchbot/internal/restaurant"
)

// sampler guards a *rand.Rand, which is not safe for concurrent use.
type sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSampler(rng *rand.Rand) *sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &sampler{rng: rng}
}

func (s *sampler) pick(pool []restaurant.Record) ([]restaurant.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return restaurant.Sample(s.rng, pool, restaurant.SampleSize)
}
