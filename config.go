package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nham/deluge/torrent"
)

const defaultTorrent = "sample.torrent"

// Config is the command line of the client.
type Config struct {
	// Torrent file name, resolved against Dir.
	Torrent    string
	Dir        string
	Port       uint16
	PeerPrefix string
	// Path of the SQLite ledger. Empty disables it.
	DB      string
	Workers int
	// Announce to every tracker of the announce-list, not only the main one.
	AllTrackers bool
	Scrape      bool

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	TrackerTimeout   time.Duration
	StrictProtocol   bool

	LogLevel slog.Level
}

// ParseConfig parses and validates args. Usage and parse errors are written
// to output.
func ParseConfig(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("deluge", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		port     uint
		logLevel string
	)
	fs.StringVar(&cfg.Torrent, "t", "", "torrent file to load (default "+defaultTorrent+")")
	fs.StringVar(&cfg.Dir, "dir", "data", "directory torrent files are read from")
	fs.UintVar(&port, "port", 6881, "port reported to the tracker")
	fs.StringVar(&cfg.PeerPrefix, "peer-prefix", torrent.DefaultPeerIDPrefix, "8 byte client prefix of the peer id")
	fs.StringVar(&cfg.DB, "db", "", "SQLite ledger of announces and handshakes (disabled when empty)")
	fs.IntVar(&cfg.Workers, "workers", 1, "concurrent handshakes (1 tries peers one at a time)")
	fs.BoolVar(&cfg.AllTrackers, "all-trackers", false, "announce to every tracker in the announce-list")
	fs.BoolVar(&cfg.Scrape, "scrape", false, "scrape the tracker before announcing")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", 5*time.Second, "timeout for connecting to a peer")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", 10*time.Second, "timeout for the handshake exchange")
	fs.DurationVar(&cfg.TrackerTimeout, "tracker-timeout", 15*time.Second, "timeout for tracker requests")
	fs.BoolVar(&cfg.StrictProtocol, "strict-protocol", false, "reject peers whose protocol string differs")
	fs.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %q", fs.Args())
	}

	if port == 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d, must be between 1 and 65535", port)
	}
	cfg.Port = uint16(port)

	if len(cfg.PeerPrefix) != 8 {
		return nil, fmt.Errorf("invalid peer prefix %q: %w", cfg.PeerPrefix, torrent.ErrPeerIDPrefix)
	}
	if cfg.Workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}
	for name, d := range map[string]time.Duration{
		"dial-timeout":      cfg.DialTimeout,
		"handshake-timeout": cfg.HandshakeTimeout,
		"tracker-timeout":   cfg.TrackerTimeout,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}

	return cfg, nil
}

func (c *Config) torrentConfig() torrent.Config {
	return torrent.Config{Dir: c.Dir, DefaultName: defaultTorrent}
}
