package download

import (
	"context"

	"github.com/bradfitz/iter"
	"github.com/joaovictorsl/gorkpool"

	"github.com/nham/deluge/torrent"
)

type handshakeTask struct {
	index int
	addr  string
}

type handshakeResult struct {
	index   int
	attempt Attempt
}

// Pool runs handshakes on a fixed number of workers. Each attempt behaves
// as in ConnectAll; only the attempts overlap.
type Pool struct {
	workers int
	opts    Options
}

func NewPool(workers int, opts Options) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		opts:    opts,
	}
}

// ConnectAll attempts a handshake with every address once and returns the
// attempts in the order of addrs.
func (p *Pool) ConnectAll(ctx context.Context, addrs []string, infoHash torrent.InfoHash, peerID torrent.PeerID) []Attempt {
	attempts := make([]Attempt, len(addrs))
	if len(addrs) == 0 {
		return attempts
	}

	inputCh := make(chan handshakeTask, len(addrs))
	outputCh := make(chan handshakeResult, len(addrs))
	for i, addr := range addrs {
		attempts[i].Addr = addr
		inputCh <- handshakeTask{index: i, addr: addr}
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := gorkpool.NewGorkPool(
		poolCtx,
		inputCh,
		outputCh,
		func(id int, ic chan handshakeTask, oc chan handshakeResult) (gorkpool.GorkWorker[int, handshakeTask, handshakeResult], error) {
			return newHandshakeWorker(poolCtx, id, ic, oc, infoHash, peerID, p.opts), nil
		},
	)

	for i := range iter.N(min(p.workers, len(addrs))) {
		pool.AddWorker(i)
	}

	done := make([]bool, len(addrs))
	for pending := len(addrs); pending > 0; pending-- {
		select {
		case r := <-pool.OutputCh():
			attempts[r.index] = r.attempt
			done[r.index] = true
		case <-ctx.Done():
			for i := range attempts {
				if !done[i] {
					attempts[i].Err = ctx.Err()
				}
			}
			return attempts
		}
	}

	return attempts
}
