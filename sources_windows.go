//go:build windows

package rng

// defaultSources resolves the strong source chain for this platform.
// There is no dedicated random device on windows, crypto/rand already
// wraps the platform CSPRNG.
func defaultSources() []*Source {
	return []*Source{
		cryptoRandSource(),
	}
}
