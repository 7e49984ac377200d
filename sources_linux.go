//go:build linux

package rng

import "golang.org/x/sys/unix"

func getrandomSource() *Source {
	return &Source{
		Name:    "getrandom",
		Strong:  true,
		Tunable: true,
		Read: func(n int) ([]byte, bool, error) {
			data := make([]byte, n)
			read := 0
			for read < n {
				r, err := unix.Getrandom(data[read:], 0)
				if err != nil {
					return nil, false, err
				}
				read += r
			}
			return data, true, nil
		},
	}
}

// defaultSources resolves the strong source chain for this platform.
func defaultSources() []*Source {
	return []*Source{
		cryptoRandSource(),
		getrandomSource(),
		deviceSource(),
	}
}
