// Package game holds the shared pieces of the arena game algorithms.
package game

import (
	"math/rand"
	"sync"
)

// Rand is the randomness source injected into every game algorithm.
// *math/rand.Rand satisfies it; tests supply deterministic sequences.
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewLockedRand returns a Rand safe for concurrent use by the services.
func NewLockedRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}
