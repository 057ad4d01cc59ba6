package discover

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/nham/deluge/bencode"
	"github.com/nham/deluge/torrent"
)

// Peer is one entry of a tracker's peer list.
type Peer struct {
	// Nil when the tracker omitted it (no_peer_id).
	ID *torrent.PeerID
	// Dotted IPv4, IPv6 or a DNS name.
	IP   string
	Port uint16
}

// Addr returns the peer address in host:port form.
func (p Peer) Addr() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(int(p.Port)))
}

// Response is a decoded announce response. Unset optional keys are nil.
type Response struct {
	FailureReason  *string
	WarningMessage *string
	// Seconds the client should wait between regular announces.
	Interval    *int64
	MinInterval *int64
	TrackerID   *string
	// Number of seeders and leechers.
	Complete   *int64
	Incomplete *int64
	Peers      []Peer
	// Entries of the peer list that could not be used. The other entries
	// are still in Peers.
	PeerErrors []error
}

func malformed(url string, err error) *TrackerError {
	return &TrackerError{URL: url, Kind: ErrMalformedResponse, Err: err}
}

func decodeDict(url string, body []byte) (bencode.Dict, error) {
	v, err := bencode.Decode(body)
	if err != nil {
		return nil, malformed(url, err)
	}
	d, ok := v.(bencode.Dict)
	if !ok {
		return nil, malformed(url, fmt.Errorf("response is a %v, not a dictionary", v.Kind()))
	}
	return d, nil
}

func optionalString(d bencode.Dict, key string) (*string, error) {
	v, ok, err := bencode.OptionalField[bencode.String](d, key)
	if err != nil || !ok {
		return nil, err
	}
	s := v.String()
	return &s, nil
}

func optionalInt(d bencode.Dict, key string) (*int64, error) {
	v, ok, err := bencode.OptionalField[bencode.Integer](d, key)
	if err != nil || !ok {
		return nil, err
	}
	i := int64(v)
	return &i, nil
}

func trackerFailure(url string, reason *string) error {
	if reason == nil {
		return nil
	}
	return &TrackerError{URL: url, Kind: ErrTrackerFailure, Reason: *reason}
}

// ParseResponse decodes an announce response body. When the tracker sent a
// failure reason the partially filled Response is returned together with a
// *TrackerError matching ErrTrackerFailure. Its peer list is never read.
func ParseResponse(url string, body []byte) (*Response, error) {
	d, err := decodeDict(url, body)
	if err != nil {
		return nil, err
	}

	res := &Response{}
	if res.FailureReason, err = optionalString(d, "failure reason"); err != nil {
		return nil, malformed(url, err)
	}

	strs := []struct {
		key string
		dst **string
	}{
		{"warning message", &res.WarningMessage},
		{"tracker id", &res.TrackerID},
	}
	for _, f := range strs {
		if *f.dst, err = optionalString(d, f.key); err != nil {
			return nil, malformed(url, err)
		}
	}

	ints := []struct {
		key string
		dst **int64
	}{
		{"interval", &res.Interval},
		{"min interval", &res.MinInterval},
		{"complete", &res.Complete},
		{"incomplete", &res.Incomplete},
	}
	for _, f := range ints {
		if *f.dst, err = optionalInt(d, f.key); err != nil {
			return nil, malformed(url, err)
		}
	}

	if err := trackerFailure(url, res.FailureReason); err != nil {
		return res, err
	}

	switch peers := d["peers"].(type) {
	case nil:
	case bencode.String:
		res.PeerErrors = append(res.PeerErrors, ErrCompactPeers)
	case bencode.List:
		for i, entry := range peers {
			p, err := peerFrom(entry)
			if err != nil {
				res.PeerErrors = append(res.PeerErrors, &PeerEntryError{Index: i, Err: err})
				continue
			}
			res.Peers = append(res.Peers, p)
		}
	default:
		return nil, malformed(url, fmt.Errorf("peers is a %v", peers.Kind()))
	}

	return res, nil
}

func peerFrom(v bencode.Value) (Peer, error) {
	var p Peer

	d, ok := v.(bencode.Dict)
	if !ok {
		return p, fmt.Errorf("entry is a %v, not a dictionary", v.Kind())
	}

	ip, err := bencode.Field[bencode.String](d, "ip")
	if err != nil {
		return p, fmt.Errorf("ip: %w", err)
	}
	if !validHost(ip.String()) {
		return p, fmt.Errorf("invalid ip %q", ip)
	}

	port, err := bencode.Field[bencode.Integer](d, "port")
	if err != nil {
		return p, fmt.Errorf("port: %w", err)
	}
	if port < 0 || port > 65535 {
		return p, fmt.Errorf("port %d out of range", port)
	}

	id, ok, err := bencode.OptionalField[bencode.String](d, "peer id")
	if err != nil {
		return p, fmt.Errorf("peer id: %w", err)
	}
	if ok {
		peerID, err := torrent.PeerIDFromBytes(id)
		if err != nil {
			return p, err
		}
		p.ID = &peerID
	}

	p.IP = ip.String()
	p.Port = uint16(port)
	return p, nil
}

var errEmptyLabel = errors.New("empty label")

// validHost accepts IP literals and DNS names.
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return checkHostname(host) == nil
}

func checkHostname(host string) error {
	if len(host) > 253 {
		return fmt.Errorf("name too long")
	}
	label := 0
	for i := 0; i < len(host); i++ {
		c := host[i]
		switch {
		case c == '.':
			if label == 0 {
				return errEmptyLabel
			}
			label = 0
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_':
			label++
			if label > 63 {
				return fmt.Errorf("label too long")
			}
		default:
			return fmt.Errorf("invalid character %q", c)
		}
	}
	// A numeric top label is a mistyped address, not a name.
	top := strings.TrimSuffix(host, ".")
	top = top[strings.LastIndexByte(top, '.')+1:]
	if strings.Trim(top, "0123456789") == "" {
		return fmt.Errorf("invalid address %q", host)
	}
	return nil
}
