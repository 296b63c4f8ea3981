// Package rng provides the seeded randomness every probabilistic game system
// draws from.
package rng

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Luck biases double rolls. Only the sign of a character's luck stat matters.
type Luck int8

const (
	Unlucky Luck = -1
	Neutral Luck = 0
	Lucky   Luck = 1
)

// LuckOf converts a luck stat value into a roll bias.
func LuckOf(value float64) Luck {
	switch {
	case value > 0:
		return Lucky
	case value < 0:
		return Unlucky
	default:
		return Neutral
	}
}

// Source yields uniform samples in [0, 1).
type Source interface {
	Float64() float64
}

// Service is the random number generator of a single game instance. It is not
// safe for concurrent use; each instance owns its own service.
type Service struct {
	src Source
}

// SeedValue hashes a root seed and a label into a non-zero seed.
func SeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// New returns a service deterministically seeded from rootSeed and label.
func New(rootSeed, label string) *Service {
	return &Service{src: rand.New(rand.NewSource(SeedValue(rootSeed, label)))}
}

// NewWithSource wraps an arbitrary sample source.
func NewWithSource(src Source) *Service {
	if src == nil {
		return New("", "")
	}
	return &Service{src: src}
}

// Float64 draws a single uniform sample in [0, 1).
func (s *Service) Float64() float64 {
	if s == nil || s.src == nil {
		return 0
	}
	return s.src.Float64()
}

// roll draws two samples and keeps the first under neutral luck, the more
// favorable one under positive luck and the less favorable one under negative
// luck.
func (s *Service) roll(luck Luck, higherIsBetter bool) float64 {
	first := s.Float64()
	second := s.Float64()
	if luck == Neutral {
		return first
	}
	favorable := (luck > 0) == higherIsBetter
	if favorable {
		return math.Max(first, second)
	}
	return math.Min(first, second)
}

// Range draws a value in [min, max] where higher is favorable.
func (s *Service) Range(min, max float64, luck Luck) float64 {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + s.roll(luck, true)*(max-min)
}

// IntRange draws an integer in [min, max] where higher is favorable.
func (s *Service) IntRange(min, max int, luck Luck) int {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	span := max - min + 1
	offset := int(s.roll(luck, true) * float64(span))
	if offset >= span {
		offset = span - 1
	}
	return min + offset
}

// Chance rolls a pass/fail check against a percentage. A check passes when the
// kept sample falls under the threshold, so positive luck keeps the lower
// sample. Checks that cannot fail or cannot pass consume no samples.
func (s *Service) Chance(percent float64, luck Luck) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return s.roll(luck, false) < percent/100
}

// Pick returns a uniform index in [0, n).
func (s *Service) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	idx := int(s.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// WeightedPick selects an index with probability proportional to its weight
// using a single draw. It reports false when no weight is positive.
func (s *Service) WeightedPick(weights []float64) (int, bool) {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0, false
	}
	target := s.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if target < w {
			return i, true
		}
		target -= w
	}
	return last, true
}

// Weighted is implemented by values that can be drawn with PickWeighted.
type Weighted interface {
	PickWeight() float64
}

// PickWeighted draws one element of items by weight.
func PickWeighted[T Weighted](s *Service, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	weights := make([]float64, len(items))
	for i, item := range items {
		weights[i] = item.PickWeight()
	}
	idx, ok := s.WeightedPick(weights)
	if !ok {
		return zero, false
	}
	return items[idx], true
}
