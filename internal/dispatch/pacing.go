package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DelaySource draws inter-record delays, in seconds, uniformly from [min, max]
type DelaySource interface {
	Uniform(min, max float64) float64
}

// RandSource is a DelaySource backed by math/rand. A fixed seed gives a reproducible
// pacing sequence.
type RandSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRandSource(seed int64) *RandSource {
	return &RandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *RandSource) Uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	s.mu.Lock()
	f := s.r.Float64()
	s.mu.Unlock()
	return min + f*(max-min)
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
