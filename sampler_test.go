package rng

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleNeverFails(t *testing.T) {
	t.Parallel()

	blob := sample(nil, nil)
	assert.NotEmpty(t, blob, "sampling must produce data even without configured inputs")
}

func TestSampleCallbacks(t *testing.T) {
	t.Parallel()

	marker := []byte("supplied-entropy-marker")
	callbacks := []func() []byte{
		func() []byte { return marker },
		func() []byte { panic("misbehaving callback") },
		nil,
	}

	blob := sample(callbacks, nil)
	assert.True(t, bytes.Contains(blob, marker), "callback output must be part of the sample")
}

func TestSampleFileStats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "entropy-probe")
	require.NoError(t, os.WriteFile(path, []byte("probe"), 0o600))

	blob := sample(nil, []string{path})
	assert.True(t, bytes.Contains(blob, []byte(path)), "the resolved path must be part of the sample")
}

func TestSampleMissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	blob := sample(nil, []string{missing})
	assert.NotEmpty(t, blob, "a missing file must not fail the sample")
	assert.False(t, bytes.Contains(blob, []byte(missing)), "a missing file contributes a sentinel, not its path")
}

func TestOwnLocations(t *testing.T) {
	t.Parallel()

	locations := ownLocations()
	require.NotEmpty(t, locations)
	assert.Contains(t, locations[0], "sampler.go")
}
