package download

import (
	"context"
	"log/slog"

	"github.com/nham/deluge/torrent"
)

// HandshakeWorker takes addresses off the shared queue and attempts one
// handshake per address until its context is done.
type HandshakeWorker struct {
	id       int
	ctx      context.Context
	inputCh  chan handshakeTask
	outputCh chan handshakeResult
	infoHash torrent.InfoHash
	peerID   torrent.PeerID
	opts     Options

	log *slog.Logger
}

func newHandshakeWorker(ctx context.Context, id int, inputCh chan handshakeTask, outputCh chan handshakeResult, infoHash torrent.InfoHash, peerID torrent.PeerID, opts Options) *HandshakeWorker {
	log := opts.logger().With("component", "handshake-worker", "worker", id)
	opts.Logger = log
	return &HandshakeWorker{
		id:       id,
		ctx:      ctx,
		inputCh:  inputCh,
		outputCh: outputCh,
		infoHash: infoHash,
		peerID:   peerID,
		opts:     opts,
		log:      log,
	}
}

func (w *HandshakeWorker) ID() int {
	return w.id
}

func (w *HandshakeWorker) SignalRemoval() {}

func (w *HandshakeWorker) Process() {
	w.log.Debug("starting")
	for {
		select {
		case <-w.ctx.Done():
			w.log.Debug("stopping")
			return
		case t := <-w.inputCh:
			a := attempt(w.ctx, t.addr, w.infoHash, w.peerID, w.opts)
			w.outputCh <- handshakeResult{index: t.index, attempt: a}
		}
	}
}
