package torrent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPeerID(t *testing.T) {
	id, err := NewPeerID(DefaultPeerIDPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if string(id[:8]) != DefaultPeerIDPrefix {
		t.Errorf("unexpected prefix %q", id[:8])
	}
	for _, c := range id[8:] {
		if c < '0' || c > 'z' {
			t.Errorf("byte %q is not printable", c)
		}
	}

	other, err := NewPeerID(DefaultPeerIDPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if other == id {
		t.Error("two generated peer ids are equal")
	}

	if _, err := NewPeerID("-XX-"); !errors.Is(err, ErrPeerIDPrefix) {
		t.Errorf("expected ErrPeerIDPrefix, got %v", err)
	}
}

func TestPeerIDFromBytes(t *testing.T) {
	raw := []byte("-DL0001-abcdefghijkl")
	id, err := PeerIDFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(id[:]) != string(raw) {
		t.Errorf("unexpected id %q", id[:])
	}
	if _, err := PeerIDFromBytes(raw[:19]); err == nil {
		t.Error("expected error for 19 bytes")
	}
}

func TestConfigPath(t *testing.T) {
	cfg := Config{Dir: "data", DefaultName: "sample.torrent"}

	if got := cfg.Path(""); got != filepath.Join("data", "sample.torrent") {
		t.Errorf("unexpected default path %q", got)
	}
	if got := cfg.Path("x.torrent"); got != filepath.Join("data", "x.torrent") {
		t.Errorf("unexpected path %q", got)
	}
	abs := filepath.Join(t.TempDir(), "abs.torrent")
	if got := cfg.Path(abs); got != abs {
		t.Errorf("absolute path rewritten to %q", got)
	}
	if got := (Config{}).Path(""); got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.torrent"), []byte(singleFile), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Dir: dir, DefaultName: "hello.torrent"}
	mi, err := LoadFile(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if mi.Info.Name != "hello.txt" {
		t.Errorf("unexpected name %q", mi.Info.Name)
	}

	_, err = LoadFile(cfg, "missing.torrent")
	if !errors.Is(err, ErrRead) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrRead wrapping ErrNotExist, got %v", err)
	}

	_, err = LoadFile(Config{}, "")
	if !errors.Is(err, ErrRead) {
		t.Errorf("expected ErrRead, got %v", err)
	}
}
