//go:build !linux && !windows

package rng

// defaultSources resolves the strong source chain for this platform.
func defaultSources() []*Source {
	return []*Source{
		cryptoRandSource(),
		deviceSource(),
	}
}
