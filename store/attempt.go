package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nham/deluge/download"
	"github.com/nham/deluge/torrent"
)

// Attempt is one stored handshake attempt.
type Attempt struct {
	Addr     string
	Time     time.Time
	PeerID   *torrent.PeerID
	Err      string
	Duration time.Duration
}

func (a Attempt) OK() bool {
	return a.Err == ""
}

// RecordAttempt stores the outcome of a handshake with a peer of infoHash.
func (s *Store) RecordAttempt(ctx context.Context, infoHash torrent.InfoHash, a download.Attempt, t time.Time) error {
	var peerID any
	if a.PeerID != nil {
		peerID = a.PeerID[:]
	}
	errText := ""
	if a.Err != nil {
		errText = a.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts(info_hash, addr, time, peer_id, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		infoHash.String(), a.Addr, unixTime(t), peerID, errText, a.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording attempt with %s: %w", a.Addr, err)
	}
	return nil
}

// Attempts lists the recorded attempts for infoHash, oldest first.
func (s *Store) Attempts(ctx context.Context, infoHash torrent.InfoHash) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT addr, time, peer_id, error, duration_ms FROM attempts
		WHERE info_hash = ? ORDER BY time, id`,
		infoHash.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a          Attempt
			ts, millis int64
			peerID     []byte
		)
		if err := rows.Scan(&a.Addr, &ts, &peerID, &a.Err, &millis); err != nil {
			return nil, fmt.Errorf("listing attempts: %w", err)
		}
		a.Time = time.Unix(ts, 0).UTC()
		a.Duration = time.Duration(millis) * time.Millisecond
		if len(peerID) > 0 {
			id, err := torrent.PeerIDFromBytes(peerID)
			if err != nil {
				return nil, fmt.Errorf("stored peer id for %s: %w", a.Addr, err)
			}
			a.PeerID = &id
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}
