// Package rng provides the three randomness primitives the game needs —
// room-code generation, box shuffling, and banker variance — behind one
// seedable abstraction so engine and banker tests stay deterministic.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"

	"boxdrop/config"
)

// Source is the RNG surface every domain component depends on. Production
// code gets Process(), tests get New(seed) for a reproducible sequence.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// lockedRand wraps math/rand.Rand with a mutex: the process-wide source is
// shared across every room's goroutine, and math/rand.Rand is not safe for
// concurrent use on its own.
type lockedRand struct {
	mu  sync.Mutex
	rnd *mathrand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

// New builds a seeded Source for deterministic tests.
func New(seed int64) Source {
	return &lockedRand{rnd: mathrand.New(mathrand.NewSource(seed))}
}

var process = New(cryptoSeed())

// Process returns the single process-wide RNG source used by live rooms.
func Process() Source {
	return process
}

func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

// Shuffle performs an unbiased Fisher-Yates shuffle of vs in place.
func Shuffle[T any](src Source, vs []T) {
	for i := len(vs) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		vs[i], vs[j] = vs[j], vs[i]
	}
}

// RoomCode draws a uniformly random code over config.RoomCodeAlphabet.
// Collision retry is the caller's responsibility (the store checks
// uniqueness against live rooms).
func RoomCode(src Source) string {
	alphabet := config.RoomCodeAlphabet
	buf := make([]byte, config.RoomCodeLength)
	for i := range buf {
		buf[i] = alphabet[src.Intn(len(alphabet))]
	}
	return string(buf)
}

// UniformFloat returns a uniform value in [min, max).
func UniformFloat(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}
