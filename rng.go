package rng

import (
	"crypto/sha256"
	"hash"
	"strings"
	"time"

	"github.com/safing/portbase/config"
	"github.com/safing/portbase/log"
	"github.com/safing/portbase/modules"
	"github.com/zeebo/blake3"
)

const (
	defaultHashFunc           = "sha256"
	defaultMinDriftIterations = 1000
	defaultDriftUsecsPerByte  = 500
	defaultDevicePath         = "/dev/urandom"
	defaultDeviceReadChunk    = 8192
)

var (
	hashFuncOption           config.StringOption
	minDriftIterationsOption config.IntOption
	driftUsecsPerByteOption  config.IntOption
	devicePathOption         config.StringOption
	deviceReadChunkOption    config.IntOption
	entropyFilesOption       config.StringArrayOption
)

func init() {
	modules.Register("random", prep, start, nil)
}

func prep() error {
	err := config.Register(&config.Option{
		Name:           "Hash Function",
		Key:            "random/hash_func",
		Description:    "Digest used to mix weak entropy and derive fallback output. Requires restart to take effect.",
		OptType:        config.OptTypeString,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultHashFunc,
		PossibleValues: []config.PossibleValue{
			{
				Name:  "SHA2-256",
				Value: "sha256",
			},
			{
				Name:  "BLAKE3",
				Value: "blake3",
			},
		},
		ValidationRegex: "^(sha256|blake3)$",
	})
	if err != nil {
		return err
	}
	hashFuncOption = config.GetAsString("random/hash_func", defaultHashFunc)

	err = config.Register(&config.Option{
		Name:            "Minimum Drift Iterations",
		Key:             "random/min_drift_iterations",
		Description:     "The minimum amount of loop iterations per drift mix, regardless of how fast the clock advances.",
		OptType:         config.OptTypeInt,
		ExpertiseLevel:  config.ExpertiseLevelDeveloper,
		ReleaseLevel:    config.ReleaseLevelStable,
		DefaultValue:    defaultMinDriftIterations,
		ValidationRegex: "^[1-9][0-9]{0,5}$",
	})
	if err != nil {
		return err
	}
	minDriftIterationsOption = config.Concurrent.GetAsInt("random/min_drift_iterations", defaultMinDriftIterations)

	err = config.Register(&config.Option{
		Name:            "Drift Time Per Byte",
		Key:             "random/drift_usecs_per_byte",
		Description:     "The minimum drift sampling time per digest byte, in microseconds. More output demanded means more sampling time.",
		OptType:         config.OptTypeInt,
		ExpertiseLevel:  config.ExpertiseLevelDeveloper,
		ReleaseLevel:    config.ReleaseLevelStable,
		DefaultValue:    defaultDriftUsecsPerByte,
		ValidationRegex: "^[1-9][0-9]{0,4}$",
	})
	if err != nil {
		return err
	}
	driftUsecsPerByteOption = config.Concurrent.GetAsInt("random/drift_usecs_per_byte", defaultDriftUsecsPerByte)

	err = config.Register(&config.Option{
		Name:           "Random Device Path",
		Key:            "random/device_path",
		Description:    "Path of the dedicated OS random device.",
		OptType:        config.OptTypeString,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   defaultDevicePath,
	})
	if err != nil {
		return err
	}
	devicePathOption = config.GetAsString("random/device_path", defaultDevicePath)

	err = config.Register(&config.Option{
		Name:            "Random Device Read Chunk",
		Key:             "random/device_read_chunk",
		Description:     "Number of bytes to read from the random device at once when the read size cannot be matched to the request.",
		OptType:         config.OptTypeInt,
		ExpertiseLevel:  config.ExpertiseLevelDeveloper,
		ReleaseLevel:    config.ReleaseLevelStable,
		DefaultValue:    defaultDeviceReadChunk,
		ValidationRegex: "^[1-9][0-9]{2,6}$",
	})
	if err != nil {
		return err
	}
	deviceReadChunkOption = config.Concurrent.GetAsInt("random/device_read_chunk", defaultDeviceReadChunk)

	err = config.Register(&config.Option{
		Name:           "Entropy Files",
		Key:            "random/entropy_files",
		Description:    "Additional files whose metadata is fed into the one-time entropy sample.",
		OptType:        config.OptTypeStringArray,
		ExpertiseLevel: config.ExpertiseLevelDeveloper,
		ReleaseLevel:   config.ReleaseLevelStable,
		DefaultValue:   []string{},
	})
	if err != nil {
		return err
	}
	entropyFilesOption = config.GetAsStringArray("random/entropy_files", []string{})

	return nil
}

func start() error {
	g := defaultGenerator()

	names := make([]string, 0, len(g.sources))
	for _, src := range g.sources {
		names = append(names, src.Name)
	}
	log.Infof("rng: resolved strong source chain: %s", strings.Join(names, ", "))

	// Seed the shared weak state ahead of time, so that a later
	// fallback only pays the mixing cost.
	go sharedWeakState.warmUp(g.sample, g.newHash)

	return nil
}

// newHash returns the configured digest primitive.
func newHash() hash.Hash {
	algo := defaultHashFunc
	if hashFuncOption != nil {
		algo = hashFuncOption()
	}
	switch algo {
	case "sha256":
		return sha256.New()
	case "blake3":
		return blake3.New()
	default:
		log.Warningf("rng: unknown or unsupported hash function %q, using sha256", algo)
		return sha256.New()
	}
}

// The tuning helpers below fall back to compiled defaults when the
// config options were never registered, so that the library keeps
// working when imported without the module runtime.

func minDriftIterations() int {
	if minDriftIterationsOption != nil {
		return int(minDriftIterationsOption())
	}
	return defaultMinDriftIterations
}

func driftTimePerByte() time.Duration {
	if driftUsecsPerByteOption != nil {
		return time.Duration(driftUsecsPerByteOption()) * time.Microsecond
	}
	return defaultDriftUsecsPerByte * time.Microsecond
}

func devicePath() string {
	if devicePathOption != nil {
		return devicePathOption()
	}
	return defaultDevicePath
}

func deviceReadChunk() int {
	if deviceReadChunkOption != nil {
		return int(deviceReadChunkOption())
	}
	return defaultDeviceReadChunk
}

func entropyFiles() []string {
	if entropyFilesOption != nil {
		return entropyFilesOption()
	}
	return nil
}
