// Package entropy provides the random sources threaded through every
// stochastic system: shuffles, follower drift, rival scoring jitter,
// faction rolls and loot draws. Tests pass a seeded source; production
// falls back to crypto/rand when no seed is configured.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source is the subset of *rand.Rand the simulation needs.
type Source interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewSeeded returns a deterministic source. The same seed always yields the
// same sequence.
func NewSeeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// New returns a seeded source when seed is non-zero, otherwise a source
// backed by crypto/rand.
func New(seed int64) Source {
	if seed != 0 {
		return &locked{src: NewSeeded(seed)}
	}
	return Crypto{}
}

// locked serializes access to a seeded source shared between the tick loop
// and command handlers.
type locked struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (l *locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *locked) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Shuffle(n, swap)
}

// Crypto draws from crypto/rand. It is safe for concurrent use.
type Crypto struct{}

func (Crypto) Float64() float64 { return cryptoRandFloat() }

func (Crypto) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(cryptoRandFloat() * float64(n))
}

func (c Crypto) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, c.Intn(i+1))
	}
}

// cryptoRandFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := crand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Chance reports whether a roll from src lands under p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}
