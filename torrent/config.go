package torrent

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Config says where torrent files are looked up.
type Config struct {
	// Directory relative names are resolved against.
	Dir string
	// File name used when none is given.
	DefaultName string
}

// Path resolves name against c.Dir. Absolute names are returned unchanged.
func (c Config) Path(name string) string {
	if name == "" {
		name = c.DefaultName
	}
	if name == "" || filepath.IsAbs(name) || c.Dir == "" {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// LoadFile reads and parses the torrent file name resolves to.
func LoadFile(cfg Config, name string) (*MetaInfo, error) {
	path := cfg.Path(name)
	if path == "" {
		return nil, &ParseError{Kind: ErrRead, Err: errors.New("no torrent file given")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: ErrRead, Err: fmt.Errorf("%s: %w", path, err)}
	}

	mi, err := Load(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded torrent", "path", path, "name", mi.Info.Name, "info_hash", mi.InfoHash)
	return mi, nil
}
