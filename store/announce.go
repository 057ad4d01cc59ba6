package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nham/deluge/bencode"
	"github.com/nham/deluge/discover"
	"github.com/nham/deluge/torrent"
)

// Announce is one stored tracker exchange.
type Announce struct {
	InfoHash    torrent.InfoHash
	Tracker     string
	Time        time.Time
	Event       discover.Event
	Interval    *int64
	MinInterval *int64
	TrackerID   string
	Peers       []discover.Peer
}

// NewAnnounce builds the record for res as received at t.
func NewAnnounce(infoHash torrent.InfoHash, tracker string, event discover.Event, res *discover.Response, t time.Time) Announce {
	a := Announce{
		InfoHash:    infoHash,
		Tracker:     tracker,
		Time:        t,
		Event:       event,
		Interval:    res.Interval,
		MinInterval: res.MinInterval,
		Peers:       res.Peers,
	}
	if res.TrackerID != nil {
		a.TrackerID = *res.TrackerID
	}
	return a
}

// NextAnnounce is the earliest time the tracker wants to hear from us again.
// It is Time when the tracker gave no interval.
func (a Announce) NextAnnounce() time.Time {
	interval := a.MinInterval
	if interval == nil {
		interval = a.Interval
	}
	if interval == nil {
		return a.Time
	}
	return a.Time.Add(time.Duration(*interval) * time.Second)
}

// Peers are stored in the same bencoded form a tracker sends them.
func encodePeers(peers []discover.Peer) []byte {
	list := make(bencode.List, len(peers))
	for i, p := range peers {
		d := bencode.Dict{
			"ip":   bencode.String(p.IP),
			"port": bencode.Integer(p.Port),
		}
		if p.ID != nil {
			d["peer id"] = bencode.String(p.ID[:])
		}
		list[i] = d
	}
	return bencode.Encode(bencode.Dict{"peers": list})
}

func decodePeers(data []byte) ([]discover.Peer, error) {
	res, err := discover.ParseResponse("ledger", data)
	if err != nil {
		return nil, err
	}
	if len(res.PeerErrors) > 0 {
		return nil, errors.Join(res.PeerErrors...)
	}
	return res.Peers, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func (s *Store) SaveAnnounce(ctx context.Context, a Announce) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announces(info_hash, tracker, time, event, interval, min_interval, tracker_id, peers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.InfoHash.String(),
		a.Tracker,
		unixTime(a.Time),
		string(a.Event),
		nullInt(a.Interval),
		nullInt(a.MinInterval),
		a.TrackerID,
		encodePeers(a.Peers),
	)
	if err != nil {
		return fmt.Errorf("saving announce to %s: %w", a.Tracker, err)
	}
	return nil
}

// LastAnnounce returns the most recent announce of infoHash to tracker, or
// ErrNotFound.
func (s *Store) LastAnnounce(ctx context.Context, infoHash torrent.InfoHash, tracker string) (*Announce, error) {
	var (
		a                     = &Announce{InfoHash: infoHash, Tracker: tracker}
		ts                    int64
		event                 string
		interval, minInterval sql.NullInt64
		peers                 []byte
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT time, event, interval, min_interval, tracker_id, peers FROM announces
		WHERE info_hash = ? AND tracker = ?
		ORDER BY time DESC, id DESC LIMIT 1`,
		infoHash.String(), tracker,
	).Scan(&ts, &event, &interval, &minInterval, &a.TrackerID, &peers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading announce to %s: %w", tracker, err)
	}

	a.Time = time.Unix(ts, 0).UTC()
	a.Event = discover.Event(event)
	a.Interval = intPtr(interval)
	a.MinInterval = intPtr(minInterval)
	if a.Peers, err = decodePeers(peers); err != nil {
		return nil, fmt.Errorf("decoding stored peers: %w", err)
	}

	return a, nil
}
