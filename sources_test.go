package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSources(t *testing.T) {
	t.Parallel()

	sources := defaultSources()
	require.NotEmpty(t, sources)
	assert.Equal(t, "crypto/rand", sources[0].Name, "the platform CSPRNG comes first")

	for _, src := range sources {
		assert.True(t, src.Strong, "all default sources are inherently strong")

		data, strong, err := src.Read(16)
		if err != nil {
			// a source may be unavailable in restricted environments,
			// the chain is built to skip it
			t.Logf("source %s unavailable: %s", src.Name, err)
			continue
		}
		assert.GreaterOrEqual(t, len(data), 16, "source %s returned a short read", src.Name)
		assert.True(t, strong)
	}
}

func TestStrongTagOverridesReport(t *testing.T) {
	t.Parallel()

	tagged := &Source{
		Name:   "tagged",
		Strong: true,
		Read: func(n int) ([]byte, bool, error) {
			return make([]byte, n), false, nil
		},
	}
	_, strong, err := tagged.strongRead(4)
	require.NoError(t, err)
	assert.True(t, strong, "inherently strong sources stay strong regardless of the per-read report")

	untagged := &Source{
		Name: "untagged",
		Read: func(n int) ([]byte, bool, error) {
			return make([]byte, n), false, nil
		},
	}
	_, strong, err = untagged.strongRead(4)
	require.NoError(t, err)
	assert.False(t, strong)
}
