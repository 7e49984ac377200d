package rng

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"math"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/safing/portbase/container"
	"github.com/safing/portbase/log"
)

// ErrNotGenerated is returned by LastStrong before the first request.
var ErrNotGenerated = errors.New("rng: nothing generated yet")

type strength uint8

const (
	strengthUnknown strength = iota
	strengthStrong
	strengthWeak
)

// Options configures a new Generator. The zero value selects the
// platform source chain, the configured hash function and the shared
// process-wide weak state.
type Options struct {
	// Hash selects the digest primitive used for weak entropy mixing
	// and fallback output.
	Hash func() hash.Hash

	// Sources replaces the platform strong source chain. Sources are
	// tried in the given order.
	Sources []*Source

	// EntropyCallbacks are opaque byte producers that are queried once,
	// when the weak state is seeded.
	EntropyCallbacks []func() []byte

	// EntropyFiles are additional files whose metadata is fed into the
	// one-time entropy sample.
	EntropyFiles []string

	// WeakState sets the rolling state behind the weak fallback. Leave
	// unset to share the process-wide state with all other generators.
	WeakState *WeakState
}

// Generator produces random bytes from layered sources. All methods are
// safe for concurrent use.
type Generator struct {
	lock sync.Mutex

	newHash   func() hash.Hash
	sources   []*Source
	weak      *WeakState
	mixer     *driftMixer
	callbacks []func() []byte
	files     []string
	uuidGen   uuid.Generator

	pending  *container.Container
	origins  []byteOrigin
	strength strength
}

// byteOrigin records the provenance of a run of pending bytes, in FIFO
// order matching the pending buffer.
type byteOrigin struct {
	n    int
	weak bool
}

// NewGenerator returns a new Generator. A nil opts is valid and selects
// all defaults.
func NewGenerator(opts *Options) *Generator {
	if opts == nil {
		opts = &Options{}
	}

	g := &Generator{
		newHash:   opts.Hash,
		sources:   opts.Sources,
		weak:      opts.WeakState,
		callbacks: opts.EntropyCallbacks,
		files:     opts.EntropyFiles,
		mixer:     newDriftMixer(),
		pending:   container.New(),
	}
	if g.newHash == nil {
		g.newHash = newHash
	}
	if g.sources == nil {
		g.sources = defaultSources()
	}
	if g.weak == nil {
		g.weak = sharedWeakState
	}
	g.uuidGen = uuid.NewGenWithOptions(uuid.WithRandomReader(g))

	return g
}

// Bytes returns exactly n random bytes. It never fails: whatever the
// strong source chain cannot supply is filled from the weak fallback
// generator. Requests with n <= 0 yield an empty result. Setting
// forceStrong additionally attempts strong sources that are expensive
// to read from, it does not prevent the weak fallback.
func (g *Generator) Bytes(n int, forceStrong bool) []byte {
	if n < 0 {
		n = 0
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	g.fill(n, forceStrong)

	// Strength reflects the provenance of the served bytes, including
	// leftovers buffered by earlier requests.
	if g.consumeOrigins(n) {
		g.strength = strengthWeak
	} else {
		g.strength = strengthStrong
	}

	data, err := g.pending.Get(n)
	if err != nil {
		// fill guarantees at least n pending bytes
		log.Errorf("rng: pending buffer underrun: %s", err)
	}
	return data
}

// appendPending adds data to the pending buffer, recording whether it
// came from a weak source.
func (g *Generator) appendPending(data []byte, weak bool) {
	if len(data) == 0 {
		return
	}
	g.pending.Append(data)

	if l := len(g.origins) - 1; l >= 0 && g.origins[l].weak == weak {
		g.origins[l].n += len(data)
		return
	}
	g.origins = append(g.origins, byteOrigin{n: len(data), weak: weak})
}

// consumeOrigins accounts for n served bytes and reports whether any of
// them came from a weak source.
func (g *Generator) consumeOrigins(n int) (weak bool) {
	for n > 0 && len(g.origins) > 0 {
		seg := &g.origins[0]
		if seg.weak {
			weak = true
		}
		if seg.n > n {
			seg.n -= n
			return weak
		}
		n -= seg.n
		g.origins = g.origins[1:]
	}
	return weak
}

// Hex returns a random hex string of exactly n characters.
func (g *Generator) Hex(n int, forceStrong bool) string {
	if n < 0 {
		n = 0
	}
	raw := g.Bytes((n+1)/2, forceStrong)
	return hex.EncodeToString(raw)[:n]
}

// LastStrong reports whether all bytes of the most recent request came
// from strong sources. It returns ErrNotGenerated if nothing was
// generated yet.
func (g *Generator) LastStrong() (bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	switch g.strength {
	case strengthStrong:
		return true, nil
	case strengthWeak:
		return false, nil
	default:
		return false, ErrNotGenerated
	}
}

// Read implements io.Reader. It always fills b completely and never
// returns an error.
func (g *Generator) Read(b []byte) (n int, err error) {
	return copy(b, g.Bytes(len(b), false)), nil
}

// Number returns a uniform random number from 0 to (incl.) max.
func (g *Generator) Number(max uint64) uint64 {
	if max == 0 {
		return 0
	}
	if max == math.MaxUint64 {
		return binary.LittleEndian.Uint64(g.Bytes(8, false))
	}

	count := max + 1
	secureLimit := math.MaxUint64 - (math.MaxUint64 % count)

	for {
		candidate := binary.LittleEndian.Uint64(g.Bytes(8, false))
		if candidate < secureLimit {
			return candidate % count
		}
	}
}

// UUID returns a random (v4) UUID derived from this generator's output.
func (g *Generator) UUID() (uuid.UUID, error) {
	return g.uuidGen.NewV4()
}

// sample gathers the one-time entropy sample with this generator's
// configured inputs.
func (g *Generator) sample() []byte {
	configured := entropyFiles()
	files := make([]string, 0, len(configured)+len(g.files))
	files = append(files, configured...)
	files = append(files, g.files...)

	return sample(g.callbacks, files)
}

// Default Generator API.

var (
	defaultGen     *Generator
	defaultGenOnce sync.Once

	// Reader provides the default generator as an io.Reader.
	Reader io.Reader = reader{}
)

type reader struct{}

func (reader) Read(b []byte) (n int, err error) {
	return defaultGenerator().Read(b)
}

func defaultGenerator() *Generator {
	defaultGenOnce.Do(func() {
		defaultGen = NewGenerator(nil)
	})
	return defaultGen
}

// Bytes returns exactly n random bytes from the default generator.
func Bytes(n int) []byte {
	return defaultGenerator().Bytes(n, false)
}

// Hex returns a random hex string of exactly n characters from the
// default generator.
func Hex(n int) string {
	return defaultGenerator().Hex(n, false)
}

// LastStrong reports whether all bytes of the default generator's most
// recent request came from strong sources.
func LastStrong() (bool, error) {
	return defaultGenerator().LastStrong()
}

// Read fills b with random bytes from the default generator.
func Read(b []byte) (n int, err error) {
	return defaultGenerator().Read(b)
}

// Number returns a uniform random number from 0 to (incl.) max from the
// default generator.
func Number(max uint64) uint64 {
	return defaultGenerator().Number(max)
}

// UUID returns a random (v4) UUID from the default generator.
func UUID() (uuid.UUID, error) {
	return defaultGenerator().UUID()
}
