package rng

import (
	"hash"
	"sync"

	"github.com/tevino/abool"
)

// WeakState is the rolling state behind the weak fallback generator.
// Every derived block depends on the previous state, the chain is never
// reset for the lifetime of the state. The raw state is never exposed.
type WeakState struct {
	lock   sync.Mutex
	seeded *abool.AtomicBool
	state  []byte
}

// sharedWeakState backs all generators that do not bring their own
// state, keeping the default chain process-wide.
var sharedWeakState = NewWeakState()

// NewWeakState returns a fresh, unseeded rolling state.
func NewWeakState() *WeakState {
	return &WeakState{
		seeded: abool.New(),
	}
}

// next derives the following block of the chain. On first use the state
// is seeded with the hashed environment sample, the raw sample is not
// retained. Every call, including the first, advances the state through
// one full drift mix.
func (s *WeakState) next(mixer *driftMixer, sample func() []byte, newHash func() hash.Hash) []byte {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.seedIfNeeded(sample, newHash)
	s.state = mixer.mix(s.state, newHash)

	block := make([]byte, len(s.state))
	copy(block, s.state)
	return block
}

func (s *WeakState) seedIfNeeded(sample func() []byte, newHash func() hash.Hash) {
	if s.seeded.IsSet() {
		return
	}

	h := newHash()
	h.Write(sample())
	s.state = h.Sum(nil)
	s.seeded.Set()
}

// warmUp seeds the state ahead of the first fallback request.
func (s *WeakState) warmUp(sample func() []byte, newHash func() hash.Hash) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.seedIfNeeded(sample, newHash)
}
