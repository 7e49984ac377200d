package rng

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeakStateAdvances(t *testing.T) {
	t.Parallel()

	s := NewWeakState()
	m := newDriftMixer()
	m.now = fakeClock(50 * time.Microsecond)

	sampleCalls := 0
	testSample := func() []byte {
		sampleCalls++
		return []byte("one-shot sample")
	}

	b1 := s.next(m, testSample, sha256.New)
	b2 := s.next(m, testSample, sha256.New)

	require.Len(t, b1, sha256.Size)
	assert.NotEqual(t, b1, b2, "successive blocks must never repeat")
	assert.Equal(t, 1, sampleCalls, "the environment is sampled only once per state")
}

func TestWeakStateBlockIsCopy(t *testing.T) {
	t.Parallel()

	s := NewWeakState()
	m := newDriftMixer()
	m.now = fakeClock(50 * time.Microsecond)
	testSample := func() []byte { return []byte("sample") }

	b1 := s.next(m, testSample, sha256.New)
	for i := range b1 {
		b1[i] = 0
	}
	b2 := s.next(m, testSample, sha256.New)
	assert.NotEqual(t, make([]byte, len(b2)), b2, "mutating a returned block must not reset the state")
}

func TestWeakStateWarmUp(t *testing.T) {
	t.Parallel()

	s := NewWeakState()
	m := newDriftMixer()
	m.now = fakeClock(50 * time.Microsecond)

	sampleCalls := 0
	testSample := func() []byte {
		sampleCalls++
		return []byte("sample")
	}

	s.warmUp(testSample, sha256.New)
	assert.Equal(t, 1, sampleCalls)

	s.next(m, testSample, sha256.New)
	assert.Equal(t, 1, sampleCalls, "a warmed-up state must not sample again")
}
