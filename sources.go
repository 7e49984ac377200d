package rng

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"io"
	"os"

	"github.com/safing/portbase/log"
	"github.com/valyala/fastrand"
)

// A Source is one candidate supplier of random bytes. The chain of
// sources is resolved once at generator construction and must not be
// modified afterwards.
type Source struct {
	// Name identifies the source in log messages.
	Name string

	// Strong tags sources whose bytes are always cryptographically
	// strong. Sources that judge their strength per read leave this
	// unset and report it from Read instead.
	Strong bool

	// Device marks sources that read from a shared system entropy
	// device. Device sources that cannot tune their read size are only
	// attempted when the caller forces strong sources.
	Device bool

	// Tunable reports whether the read size can be matched to the
	// shortfall. Non-tunable device sources read at least
	// deviceReadChunk() bytes per call.
	Tunable bool

	// Read returns up to n bytes and reports whether they are
	// cryptographically strong. Failing sources are skipped, not
	// surfaced.
	Read func(n int) (data []byte, strong bool, err error)
}

func (s *Source) strongRead(n int) ([]byte, bool, error) {
	data, reported, err := s.Read(n)
	return data, s.Strong || reported, err
}

// fill appends random data to the pending buffer until it holds at
// least target bytes, recording the provenance of every contribution.
func (g *Generator) fill(target int, forceStrong bool) {
	for _, src := range g.sources {
		shortfall := target - g.pending.Length()
		if shortfall <= 0 {
			break
		}

		if src.Device && !src.Tunable && !forceStrong {
			// would deplete the system entropy pool beyond the request
			continue
		}

		n := shortfall
		if src.Device && !src.Tunable && n < deviceReadChunk() {
			n = deviceReadChunk()
		}

		data, srcStrong, err := src.strongRead(n)
		if err != nil {
			log.Debugf("rng: source %s failed: %s", src.Name, err)
			continue
		}
		if len(data) == 0 {
			continue
		}

		g.appendPending(data, !srcStrong)
	}

	// Weak fallback, last resort and always available. Every byte
	// produced here makes the request it serves weak.
	for g.pending.Length() < target {
		g.appendPending(g.weakBlock(), true)
	}
}

// weakBlock derives one fallback block: the next block of the rolling
// weak state, keyed against a fresh non-cryptographic salt.
func (g *Generator) weakBlock() []byte {
	block := g.weak.next(g.mixer, g.sample, g.newHash)

	var salt [8]byte
	binary.LittleEndian.PutUint32(salt[:4], fastrand.Uint32())
	binary.LittleEndian.PutUint32(salt[4:], fastrand.Uint32())

	mac := hmac.New(g.newHash, block)
	mac.Write(salt[:])
	return mac.Sum(nil)
}

func cryptoRandSource() *Source {
	return &Source{
		Name:    "crypto/rand",
		Strong:  true,
		Tunable: true,
		Read: func(n int) ([]byte, bool, error) {
			data := make([]byte, n)
			if _, err := rand.Read(data); err != nil {
				return nil, false, err
			}
			return data, true, nil
		},
	}
}

func deviceSource() *Source {
	return &Source{
		Name:    "random device",
		Strong:  true,
		Device:  true,
		Tunable: true,
		Read: func(n int) ([]byte, bool, error) {
			f, err := os.Open(devicePath())
			if err != nil {
				return nil, false, err
			}
			defer func() {
				_ = f.Close()
			}()

			data := make([]byte, n)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, false, err
			}
			return data, true, nil
		},
	}
}
