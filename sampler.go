package rng

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/safing/portbase/log"
	"github.com/shirou/gopsutil/process"
)

// statFallback is contributed for files that cannot be inspected.
const statFallback = 0x00

// sample gathers one-shot, highly unstable system and process state
// into a raw byte blob. Every signal is best effort, an unavailable one
// is skipped. The blob has no cryptographic structure and must be
// hashed before use.
func sample(callbacks []func() []byte, files []string) []byte {
	blob := make([]byte, 0, 4096)

	// environment
	blob = append(blob, strings.Join(os.Environ(), "\x00")...)

	// caller supplied entropy callbacks
	for _, cb := range callbacks {
		blob = append(blob, runCallback(cb)...)
	}

	// file metadata, including this package's own location and its
	// parent directories, which vary per installation
	for _, path := range append(ownLocations(), files...) {
		blob = appendFileStat(blob, path)
	}

	// process id
	blob = strconv.AppendInt(blob, int64(os.Getpid()), 10)

	// current memory usage
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			blob = strconv.AppendUint(blob, memInfo.RSS, 10)
			blob = strconv.AppendUint(blob, memInfo.VMS, 10)
		}
	}

	return blob
}

// runCallback shields the sampler from misbehaving entropy callbacks.
func runCallback(cb func() []byte) (data []byte) {
	if cb == nil {
		return nil
	}
	defer func() {
		if x := recover(); x != nil {
			log.Debugf("rng: entropy callback panicked: %s", x)
			data = nil
		}
	}()
	return cb()
}

// ownLocations returns the path of this source file and its parent
// directories.
func ownLocations() []string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil
	}

	locations := []string{file}
	dir := filepath.Dir(file)
	for i := 0; i < 3; i++ {
		locations = append(locations, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return locations
}

// appendFileStat appends the metadata of the given file: size,
// timestamps, platform specific identifiers and the resolved absolute
// path, or the literal path string if it cannot be resolved. Files that
// cannot be inspected contribute a single fallback byte.
func appendFileStat(blob []byte, path string) []byte {
	info, err := os.Stat(path)
	if err != nil {
		return append(blob, statFallback)
	}

	blob = strconv.AppendInt(blob, info.Size(), 10)
	blob = strconv.AppendInt(blob, info.ModTime().UnixNano(), 10)
	blob = appendStatExtra(blob, info)

	if abs, err := filepath.Abs(path); err == nil {
		blob = append(blob, abs...)
	} else {
		blob = append(blob, path...)
	}
	return blob
}
