// Package ranking — scoring.go draws the daily delta.
// With probability WinProbability the delta is uniform in [WinMin, WinMax],
// otherwise uniform in [LossMin, LossMax].
package ranking

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Bounds configures the random outcome of a play.
type Bounds struct {
	WinMin         int64
	WinMax         int64
	LossMin        int64
	LossMax        int64
	WinProbability float64
}

// DefaultBounds: +1..+10 with 70%, -5..-1 otherwise.
func DefaultBounds() Bounds {
	return Bounds{WinMin: 1, WinMax: 10, LossMin: -5, LossMax: -1, WinProbability: 0.7}
}

// Validate rejects empty ranges and probabilities outside [0, 1].
func (b Bounds) Validate() error {
	if b.WinMin > b.WinMax {
		return fmt.Errorf("win range [%d, %d] is empty", b.WinMin, b.WinMax)
	}
	if b.LossMin > b.LossMax {
		return fmt.Errorf("loss range [%d, %d] is empty", b.LossMin, b.LossMax)
	}
	// Int64N needs the width to fit in an int64.
	if b.WinMax-b.WinMin+1 <= 0 {
		return fmt.Errorf("win range [%d, %d] is too wide", b.WinMin, b.WinMax)
	}
	if b.LossMax-b.LossMin+1 <= 0 {
		return fmt.Errorf("loss range [%d, %d] is too wide", b.LossMin, b.LossMax)
	}
	if b.WinProbability < 0 || b.WinProbability > 1 {
		return fmt.Errorf("win probability %v outside [0, 1]", b.WinProbability)
	}
	return nil
}

// Contains reports whether delta is a possible draw.
func (b Bounds) Contains(delta int64) bool {
	return (delta >= b.WinMin && delta <= b.WinMax) || (delta >= b.LossMin && delta <= b.LossMax)
}

// Roller draws one score delta.
type Roller interface {
	Roll() int64
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int64

func (f RollerFunc) Roll() int64 { return f() }

// Scorer is the production Roller. Safe for concurrent use.
type Scorer struct {
	mu     sync.Mutex
	bounds Bounds
	rng    *rand.Rand
}

// NewScorer creates a randomly seeded scorer.
func NewScorer(b Bounds) (*Scorer, error) {
	return NewScorerWithSource(b, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewScorerWithSource creates a scorer over src (deterministic in tests).
func NewScorerWithSource(b Bounds, src rand.Source) (*Scorer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{bounds: b, rng: rand.New(src)}, nil
}

// Roll draws a delta within the configured bounds.
func (s *Scorer) Roll() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.bounds.WinProbability {
		return s.bounds.WinMin + s.rng.Int64N(s.bounds.WinMax-s.bounds.WinMin+1)
	}
	return s.bounds.LossMin + s.rng.Int64N(s.bounds.LossMax-s.bounds.LossMin+1)
}
