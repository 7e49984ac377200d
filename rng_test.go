package rng

import (
	"testing"

	"github.com/safing/portbase/config"
	"github.com/zeebo/blake3"
)

func init() {
	err := prep()
	if err != nil {
		panic(err)
	}

	err = start()
	if err != nil {
		panic(err)
	}
}

func TestModule(t *testing.T) {
	err := config.SetConfigOption("random/hash_func", "blake3")
	if err != nil {
		t.Errorf("failed to set random/hash_func config: %s", err)
	}
	if _, ok := newHash().(*blake3.Hasher); !ok {
		t.Error("expected a blake3 hasher")
	}

	err = config.SetConfigOption("random/hash_func", "sha256")
	if err != nil {
		t.Errorf("failed to set random/hash_func config: %s", err)
	}
	if newHash().Size() != 32 {
		t.Errorf("unexpected sha256 digest size: %d", newHash().Size())
	}

	b := Bytes(32)
	if len(b) != 32 {
		t.Errorf("Bytes returned %d bytes instead of 32", len(b))
	}
	if _, err := Read(b); err != nil {
		t.Errorf("Read failed: %s", err)
	}
	if _, err := Reader.Read(b); err != nil {
		t.Errorf("Reader.Read failed: %s", err)
	}

	s := Hex(9)
	if len(s) != 9 {
		t.Errorf("Hex returned %d characters instead of 9", len(s))
	}

	if _, err := LastStrong(); err != nil {
		t.Errorf("LastStrong failed after generating: %s", err)
	}

	if n := Number(10); n > 10 {
		t.Errorf("Number returned %d, max is 10", n)
	}

	u, err := UUID()
	if err != nil {
		t.Errorf("UUID failed: %s", err)
	}
	if u.Version() != 4 {
		t.Errorf("unexpected UUID version: %d", u.Version())
	}
}
