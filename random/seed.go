// Package random builds the seeded sources used by the draw and the scheduler.
//
// The engines never touch a global generator: callers pass a *rand.Rand, so a
// fixed seed reproduces the same draw and the same schedule.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a seed using crypto/rand. The result is never zero.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// New returns a deterministic source for seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Derive returns an independent source for stream number stream of parent.
// Used for pipeline retries and parallel simulation runs.
func Derive(parent int64, stream uint64) *rand.Rand {
	return New(DeriveSeed(parent, stream))
}

// DeriveSeed mixes a parent seed and a stream id (SplitMix64 finalizer).
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
