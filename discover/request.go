package discover

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nham/deluge/torrent"
)

type Event string

const (
	EventNone      Event = ""
	EventStarted   Event = "started"
	EventStopped   Event = "stopped"
	EventCompleted Event = "completed"
)

// Stats are the transfer counters reported on every announce.
type Stats struct {
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
}

// Request holds the parameters of one announce.
type Request struct {
	InfoHash torrent.InfoHash
	PeerID   torrent.PeerID
	Port     uint16
	Stats
	Compact  *bool
	NoPeerID *bool
	Event    Event
	NumWant  *int
	// Echo of the id a tracker returned on an earlier announce.
	TrackerID string
}

// Query renders the request as a query string. Parameters are always in the
// same order and optional ones are left out when unset.
func (r Request) Query() string {
	var b strings.Builder

	b.WriteString("info_hash=")
	b.WriteString(EscapeBytes(r.InfoHash[:]))
	b.WriteString("&peer_id=")
	b.WriteString(EscapeBytes(r.PeerID[:]))
	b.WriteString("&port=")
	b.WriteString(strconv.FormatUint(uint64(r.Port), 10))
	b.WriteString("&uploaded=")
	b.WriteString(strconv.FormatUint(r.Uploaded, 10))
	b.WriteString("&downloaded=")
	b.WriteString(strconv.FormatUint(r.Downloaded, 10))
	b.WriteString("&left=")
	b.WriteString(strconv.FormatUint(r.Left, 10))

	if r.Compact != nil {
		b.WriteString("&compact=")
		b.WriteString(boolParam(*r.Compact))
	}
	if r.NoPeerID != nil {
		b.WriteString("&no_peer_id=")
		b.WriteString(boolParam(*r.NoPeerID))
	}
	if r.Event != EventNone {
		b.WriteString("&event=")
		b.WriteString(url.QueryEscape(string(r.Event)))
	}
	if r.NumWant != nil {
		b.WriteString("&numwant=")
		b.WriteString(strconv.Itoa(*r.NumWant))
	}
	if r.TrackerID != "" {
		b.WriteString("&trackerid=")
		b.WriteString(url.QueryEscape(r.TrackerID))
	}

	return b.String()
}

// AnnounceURL appends the query of req to the tracker's announce URL.
func AnnounceURL(announce string, req Request) string {
	return withQuery(announce, req.Query())
}

func withQuery(base, query string) string {
	switch {
	case !strings.Contains(base, "?"):
		return base + "?" + query
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		return base + query
	default:
		return base + "&" + query
	}
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

const upperhex = "0123456789ABCDEF"

// EscapeBytes percent-encodes every byte of b except the unreserved
// characters A-Z a-z 0-9 - . _ ~. A space becomes %20, never '+'.
func EscapeBytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for _, c := range b {
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
