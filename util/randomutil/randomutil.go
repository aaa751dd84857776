package randomutil

import (
	"math/rand"
)

// RandomGenerator produces non-negative pseudo-random numbers.
type RandomGenerator interface {
	GenerateInt63() int64
}

// RandomNumberGenerator draws from the math/rand top-level source, which is safe for concurrent use.
type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateInt63() int64 {
	return rand.Int63()
}
