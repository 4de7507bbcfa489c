// Package game defines the mini-game interfaces, the shared randomness
// seam and the registry.
package game

import "math/rand"

// Rand is the randomness source games draw from. Injecting it keeps
// every game resolution deterministic under test.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// systemRand backs production games with math/rand's shared source,
// which is safe for concurrent use.
type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
func (systemRand) Intn(n int) int   { return rand.Intn(n) }

// NewRand returns the production randomness source.
func NewRand() Rand {
	return systemRand{}
}

// Mercy rolls the flat forced-win chance applied before the real draw
// in every game.
func Mercy(r Rand, chance float64) bool {
	return chance > 0 && r.Float64() < chance
}
