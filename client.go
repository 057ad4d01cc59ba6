package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/nham/deluge/discover"
	"github.com/nham/deluge/download"
	"github.com/nham/deluge/store"
	"github.com/nham/deluge/torrent"
)

var errNoPeers = errors.New("no tracker returned peers")

// Run loads the torrent, announces it, attempts a handshake with every peer
// the trackers returned, prints a summary to out and finally tells the
// trackers it stopped.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	log := slog.Default().With("component", "client")

	mi, err := torrent.LoadFile(cfg.torrentConfig(), cfg.Torrent)
	if err != nil {
		return err
	}
	log.Info("loaded torrent", "name", mi.Info.Name, "info_hash", mi.InfoHash, "size", mi.Info.TotalLength(), "pieces", mi.Info.NumPieces())

	peerID, err := torrent.NewPeerID(cfg.PeerPrefix)
	if err != nil {
		return err
	}

	client := discover.NewClient(peerID, cfg.Port, slog.Default())
	client.HTTP.Timeout = cfg.TrackerTimeout

	var ledger *store.Store
	if cfg.DB != "" {
		if ledger, err = store.Open(ctx, cfg.DB); err != nil {
			return err
		}
		defer ledger.Close()
	}

	trackers := []string{mi.Announce}
	if cfg.AllTrackers {
		trackers = mi.Trackers()
	}
	if ledger != nil {
		restoreTrackerState(ctx, log, ledger, client, mi.InfoHash, trackers)
	}

	if cfg.Scrape {
		if sr, err := client.Scrape(ctx, mi.Announce, mi.InfoHash); err != nil {
			log.Warn("scrape failed", "err", err)
		} else {
			log.Info("scraped", "seeders", sr.Complete, "leechers", sr.Incomplete, "downloads", sr.Downloaded)
		}
	}

	stats := discover.Stats{Left: uint64(mi.Info.TotalLength())}
	results := announce(ctx, client, cfg, mi, trackers, stats, discover.EventStarted)
	if ledger != nil {
		saveAnnounces(ctx, log, ledger, mi.InfoHash, discover.EventStarted, results)
	}
	defer func() {
		// The run context may already be cancelled.
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.TrackerTimeout)
		defer cancel()
		stopped := announce(stopCtx, client, cfg, mi, trackers, stats, discover.EventStopped)
		if ledger != nil {
			saveAnnounces(stopCtx, log, ledger, mi.InfoHash, discover.EventStopped, stopped)
		}
	}()

	peers := discover.Peers(results)
	if len(peers) == 0 {
		var errs []error
		for _, r := range results {
			if r.Err != nil {
				errs = append(errs, r.Err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("%w: %w", errNoPeers, errors.Join(errs...))
		}
	}

	addrs := make([]string, len(peers))
	for i, p := range peers {
		addrs[i] = p.Addr()
	}

	opts := download.Options{
		DialTimeout:      cfg.DialTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
		StrictProtocol:   cfg.StrictProtocol,
		Logger:           slog.Default().With("component", "handshake"),
	}
	var attempts []download.Attempt
	if cfg.Workers > 1 {
		attempts = download.NewPool(cfg.Workers, opts).ConnectAll(ctx, addrs, mi.InfoHash, peerID)
	} else {
		attempts = download.ConnectAll(ctx, addrs, mi.InfoHash, peerID, opts)
	}

	if ledger != nil {
		now := time.Now()
		for _, a := range attempts {
			if err := ledger.RecordAttempt(ctx, mi.InfoHash, a, now); err != nil {
				log.Warn("recording attempt", "err", err)
			}
		}
	}

	printSummary(out, mi, peerID, results, attempts)
	return nil
}

func announce(ctx context.Context, client *discover.Client, cfg *Config, mi *torrent.MetaInfo, trackers []string, stats discover.Stats, event discover.Event) []discover.Result {
	if len(trackers) == 1 {
		res, err := client.Announce(ctx, mi, stats, event)
		return []discover.Result{{URL: mi.Announce, Response: res, Err: err}}
	}
	return discover.NewPeerDiscovery(client, cfg.Workers).AnnounceAll(ctx, mi, stats, event)
}

func restoreTrackerState(ctx context.Context, log *slog.Logger, ledger *store.Store, client *discover.Client, infoHash torrent.InfoHash, trackers []string) {
	for _, tr := range trackers {
		last, err := ledger.LastAnnounce(ctx, infoHash, tr)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn("reading ledger", "tracker", tr, "err", err)
			continue
		}
		if last.TrackerID != "" {
			client.SetTrackerID(tr, last.TrackerID)
		}
		if next := last.NextAnnounce(); time.Now().Before(next) {
			log.Warn("announcing before the tracker interval elapsed", "tracker", tr, "next", next)
		}
	}
}

func saveAnnounces(ctx context.Context, log *slog.Logger, ledger *store.Store, infoHash torrent.InfoHash, event discover.Event, results []discover.Result) {
	now := time.Now()
	for _, r := range results {
		if r.Response == nil || r.Err != nil {
			continue
		}
		if err := ledger.SaveAnnounce(ctx, store.NewAnnounce(infoHash, r.URL, event, r.Response, now)); err != nil {
			log.Warn("saving announce", "tracker", r.URL, "err", err)
		}
	}
}

func printSummary(out io.Writer, mi *torrent.MetaInfo, peerID torrent.PeerID, results []discover.Result, attempts []download.Attempt) {
	fmt.Fprintf(out, "Torrent:   %s\n", mi.Info.Name)
	fmt.Fprintf(out, "Info hash: %s\n", mi.InfoHash)
	fmt.Fprintf(out, "Peer ID:   %s\n", peerID[:])
	fmt.Fprintf(out, "Size:      %d bytes in %d pieces\n", mi.Info.TotalLength(), mi.Info.NumPieces())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nTRACKER\tPEERS\tRESULT")
	for _, r := range results {
		peers, result := 0, "ok"
		if r.Response != nil {
			peers = len(r.Response.Peers)
		}
		if r.Err != nil {
			result = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.URL, peers, result)
	}
	tw.Flush()

	ok := 0
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nPEER\tPEER ID\tTIME\tRESULT")
	for _, a := range attempts {
		id, result := "-", "handshake ok"
		if a.PeerID != nil {
			id = fmt.Sprintf("%q", a.PeerID[:])
		}
		if a.Err != nil {
			result = a.Err.Error()
		} else {
			ok++
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", a.Addr, id, a.Duration.Round(time.Millisecond), result)
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d of %d handshakes succeeded\n", ok, len(attempts))
}
