package discover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nham/deluge/torrent"
)

const (
	DefaultTimeout = 15 * time.Second
	// MaxResponseSize bounds how much of a tracker response is read.
	MaxResponseSize = 1 << 20
)

// Client announces to HTTP trackers on behalf of one local peer.
type Client struct {
	HTTP   *http.Client
	PeerID torrent.PeerID
	// Port the local peer listens on.
	Port uint16
	// Sent as the compact parameter when non-nil. NewClient asks for the
	// dictionary model since compact peer lists are not decoded.
	Compact *bool
	NumWant *int
	Logger  *slog.Logger

	mu         sync.Mutex
	trackerIDs map[string]string
}

func NewClient(peerID torrent.PeerID, port uint16, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	compact := false
	return &Client{
		HTTP:       &http.Client{Timeout: DefaultTimeout},
		PeerID:     peerID,
		Port:       port,
		Compact:    &compact,
		Logger:     logger.With("component", "tracker"),
		trackerIDs: make(map[string]string),
	}
}

// TrackerID returns the id the tracker at announce handed out, if any.
func (c *Client) TrackerID(announce string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackerIDs[announce]
}

// SetTrackerID seeds the id echoed to the tracker at announce, e.g. from a
// previous run.
func (c *Client) SetTrackerID(announce, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trackerIDs == nil {
		c.trackerIDs = make(map[string]string)
	}
	c.trackerIDs[announce] = id
}

// Announce reports stats and event for mi to its tracker and returns the
// tracker's response.
func (c *Client) Announce(ctx context.Context, mi *torrent.MetaInfo, stats Stats, event Event) (*Response, error) {
	return c.AnnounceRequest(ctx, mi.Announce, c.request(mi.InfoHash, mi.Announce, stats, event))
}

func (c *Client) request(infoHash torrent.InfoHash, announce string, stats Stats, event Event) Request {
	return Request{
		InfoHash:  infoHash,
		PeerID:    c.PeerID,
		Port:      c.Port,
		Stats:     stats,
		Compact:   c.Compact,
		Event:     event,
		NumWant:   c.NumWant,
		TrackerID: c.TrackerID(announce),
	}
}

// AnnounceRequest sends req to the tracker at announce.
func (c *Client) AnnounceRequest(ctx context.Context, announce string, req Request) (*Response, error) {
	u := AnnounceURL(announce, req)
	c.logger().Debug("announcing", "url", announce, "event", req.Event, "left", req.Left)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	res, err := ParseResponse(announce, body)
	if err != nil {
		c.logger().Warn("announce failed", "url", announce, "err", err)
		return res, err
	}

	if res.TrackerID != nil && *res.TrackerID != "" {
		c.SetTrackerID(announce, *res.TrackerID)
	}
	if res.WarningMessage != nil {
		c.logger().Warn("tracker warning", "url", announce, "message", *res.WarningMessage)
	}
	for _, perr := range res.PeerErrors {
		c.logger().Debug("skipping peer entry", "url", announce, "err", perr)
	}
	c.logger().Info("announced", "url", announce, "peers", len(res.Peers), "skipped", len(res.PeerErrors))

	return res, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// get fetches rawURL with a one-shot connection and returns the body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TrackerError{URL: rawURL, Kind: ErrNetwork, Err: err}
	}
	req.Close = true

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TrackerError{URL: rawURL, Kind: ErrNetwork, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &TrackerError{URL: rawURL, Kind: ErrNetwork, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &TrackerError{URL: rawURL, Kind: ErrNetwork, Err: err}
	}
	if len(body) > MaxResponseSize {
		return nil, malformed(rawURL, fmt.Errorf("response larger than %d bytes", MaxResponseSize))
	}

	return body, nil
}
