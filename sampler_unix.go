//go:build !windows

package rng

import (
	"os"
	"strconv"
	"syscall"
)

func appendStatExtra(blob []byte, info os.FileInfo) []byte {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return blob
	}

	blob = strconv.AppendUint(blob, uint64(stat.Ino), 10)
	blob = strconv.AppendUint(blob, uint64(stat.Uid), 10)
	blob = strconv.AppendUint(blob, uint64(stat.Gid), 10)
	return blob
}
