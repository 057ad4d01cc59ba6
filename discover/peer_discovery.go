package discover

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bradfitz/iter"
	"github.com/joaovictorsl/gorkpool"

	"github.com/nham/deluge/torrent"
)

// Result is the outcome of announcing to one tracker.
type Result struct {
	URL      string
	Response *Response
	Err      error
}

type announceTask struct {
	index int
	url   string
}

type announceResult struct {
	index int
	Result
}

// PeerDiscovery announces to every tracker of a torrent at once.
type PeerDiscovery struct {
	client  *Client
	workers int
}

func NewPeerDiscovery(client *Client, workers int) *PeerDiscovery {
	if workers < 1 {
		workers = 1
	}
	return &PeerDiscovery{
		client:  client,
		workers: workers,
	}
}

// AnnounceAll announces to each tracker of mi and returns one Result per
// tracker, in the order of mi.Trackers. Trackers not reached before ctx is
// done get ctx.Err().
func (pd *PeerDiscovery) AnnounceAll(ctx context.Context, mi *torrent.MetaInfo, stats Stats, event Event) []Result {
	trackers := mi.Trackers()
	results := make([]Result, len(trackers))

	inputCh := make(chan announceTask, len(trackers))
	outputCh := make(chan announceResult, len(trackers))
	for i, u := range trackers {
		results[i].URL = u
		inputCh <- announceTask{index: i, url: u}
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := gorkpool.NewGorkPool(
		poolCtx,
		inputCh,
		outputCh,
		func(id int, ic chan announceTask, oc chan announceResult) (gorkpool.GorkWorker[int, announceTask, announceResult], error) {
			return &announceWorker{
				id:       id,
				ctx:      poolCtx,
				client:   pd.client,
				infoHash: mi.InfoHash,
				stats:    stats,
				event:    event,
				inputCh:  ic,
				outputCh: oc,
				log:      pd.client.logger().With("worker", id),
			}, nil
		},
	)

	for i := range iter.N(min(pd.workers, len(trackers))) {
		pool.AddWorker(i)
	}

	done := make([]bool, len(trackers))
	for pending := len(trackers); pending > 0; pending-- {
		select {
		case r := <-pool.OutputCh():
			results[r.index] = r.Result
			done[r.index] = true
		case <-ctx.Done():
			for i := range results {
				if !done[i] {
					results[i].Err = ctx.Err()
				}
			}
			return results
		}
	}

	return results
}

// Peers merges the peer lists of results, dropping repeated addresses.
// Results from trackers that reported a failure contribute nothing.
func Peers(results []Result) []Peer {
	seen := make(map[string]bool)
	var peers []Peer
	for _, r := range results {
		if r.Response == nil || errors.Is(r.Err, ErrTrackerFailure) {
			continue
		}
		for _, p := range r.Response.Peers {
			if addr := p.Addr(); !seen[addr] {
				seen[addr] = true
				peers = append(peers, p)
			}
		}
	}
	return peers
}

type announceWorker struct {
	id       int
	ctx      context.Context
	client   *Client
	infoHash torrent.InfoHash
	stats    Stats
	event    Event
	inputCh  chan announceTask
	outputCh chan announceResult

	log *slog.Logger
}

func (w *announceWorker) ID() int {
	return w.id
}

func (w *announceWorker) SignalRemoval() {}

func (w *announceWorker) Process() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.inputCh:
			w.log.Debug("picked up tracker", "url", t.url, "event", w.event)
			req := w.client.request(w.infoHash, t.url, w.stats, w.event)
			res, err := w.client.AnnounceRequest(w.ctx, t.url, req)
			w.outputCh <- announceResult{
				index:  t.index,
				Result: Result{URL: t.url, Response: res, Err: err},
			}
		}
	}
}
