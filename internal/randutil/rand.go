// Package randutil derives reproducible random sources from a single seed so
// that shuffles, bot choices and ids can be replayed.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a generator seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Fork derives an independent generator for the n-th consumer of seed, so
// each table or bot gets its own stream without sharing one generator.
func Fork(seed int64, n int) *rand.Rand {
	return New(int64(mix(uint64(seed) + uint64(n+1)*goldenRatio64)))
}

// SeedOrNow returns seed, or a time-derived seed when seed is zero.
func SeedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Reader is an io.Reader of deterministic bytes.
type Reader struct {
	rng *rand.Rand
}

// NewReader returns a reader of bytes drawn from New(seed).
func NewReader(seed int64) *Reader {
	return &Reader{rng: New(seed)}
}

func (r *Reader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.rng.Uint64()
		for j := i; j < len(p) && j < i+8; j++ {
			p[j] = byte(v)
			v >>= 8
		}
	}
	return len(p), nil
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
