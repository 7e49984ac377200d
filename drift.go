package rng

import (
	"encoding/binary"
	"hash"
	"strconv"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/cespare/xxhash/v2"

	"github.com/safing/portbase/log"
)

const (
	driftScratchSize = 64 * 1024
	driftFoldEvery   = 100
)

var (
	driftDuration   = vm.NewHistogram("rng_drift_duration_seconds")
	driftIterations = vm.NewCounter("rng_drift_iterations_total")
)

// driftMixer extracts entropy from scheduling and memory timing jitter.
// Mixing is deliberately slow, the time spent is the entropy source.
type driftMixer struct {
	scratch []byte
	now     func() time.Time
}

func newDriftMixer() *driftMixer {
	return &driftMixer{
		scratch: make([]byte, driftScratchSize),
		now:     time.Now,
	}
}

// mix perturbs memory while measuring the wall clock drift between loop
// iterations and folds the measurements into a single digest of the
// given hash function. The loop runs for at least minDriftIterations()
// iterations and at least driftTimePerByte() per digest byte, whichever
// takes longer. The iteration floor keeps a fast or idle machine from
// looping too few times, the duration floor bounds the entropy gathered
// per output byte regardless of clock resolution.
func (m *driftMixer) mix(seed []byte, newHash func() hash.Hash) []byte {
	digestSize := newHash().Size()
	minIterations := minDriftIterations()
	minDuration := time.Duration(digestSize) * driftTimePerByte()

	acc := make([]byte, len(seed), len(seed)+1024)
	copy(acc, seed)

	start := m.now()
	last := start
	var elapsed time.Duration
	iterations := 0
	offset := 0

	for {
		iterations++

		// perturb memory and cache state
		m.scratch[offset] = byte(iterations)
		offset = (offset + 1) % len(m.scratch)

		// measure drift since the last iteration
		now := m.now()
		acc = strconv.AppendInt(acc, now.Sub(last).Microseconds(), 10)
		last = now
		elapsed = now.Sub(start)

		// bound the accumulator
		if iterations%driftFoldEvery == 0 {
			var folded [8]byte
			binary.LittleEndian.PutUint64(folded[:], xxhash.Sum64(acc))
			acc = append(acc[:0], folded[:]...)
		}

		if iterations >= minIterations && elapsed >= minDuration {
			break
		}
	}

	driftDuration.Update(elapsed.Seconds())
	driftIterations.Add(iterations)
	log.Tracef(
		"rng: drift mix finished after %s and %d iterations (%s/iteration)",
		elapsed, iterations, elapsed/time.Duration(iterations),
	)

	h := newHash()
	h.Write(acc)
	return h.Sum(nil)
}
