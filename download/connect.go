package download

import (
	"context"
	"time"

	"github.com/nham/deluge/torrent"
)

// Attempt is the outcome of one handshake attempt.
type Attempt struct {
	Addr string
	// Set when the handshake was validated.
	PeerID   *torrent.PeerID
	Err      error
	Duration time.Duration
}

func (a Attempt) OK() bool {
	return a.Err == nil
}

// ConnectAll attempts a handshake with every address once, in order. Each
// connection is closed before the next attempt starts and failures do not
// stop the run. Once ctx is done the remaining addresses get ctx.Err().
func ConnectAll(ctx context.Context, addrs []string, infoHash torrent.InfoHash, peerID torrent.PeerID, opts Options) []Attempt {
	attempts := make([]Attempt, len(addrs))
	for i, addr := range addrs {
		if err := ctx.Err(); err != nil {
			attempts[i] = Attempt{Addr: addr, Err: err}
			continue
		}
		attempts[i] = attempt(ctx, addr, infoHash, peerID, opts)
	}
	return attempts
}

func attempt(ctx context.Context, addr string, infoHash torrent.InfoHash, peerID torrent.PeerID, opts Options) Attempt {
	start := time.Now()
	pc, err := Dial(ctx, addr, infoHash, peerID, opts)
	a := Attempt{Addr: addr, Err: err, Duration: time.Since(start)}
	if err != nil {
		return a
	}

	id := pc.PeerID
	a.PeerID = &id
	pc.Close()
	return a
}
