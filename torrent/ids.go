package torrent

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nham/deluge/util"
)

// DefaultPeerIDPrefix identifies this client in generated peer ids.
const DefaultPeerIDPrefix = "-DL0001-"

const peerIDPrefixLen = 8

var ErrPeerIDPrefix = errors.New("peer id prefix must be 8 bytes")

// InfoHash identifies a torrent.
type InfoHash [20]byte

func (h InfoHash) String() string {
	return hex.EncodeToString(h[:])
}

// PeerID identifies a client in a swarm. It is treated as opaque bytes.
type PeerID [20]byte

func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// NewPeerID returns prefix followed by 12 random alphanumeric characters.
func NewPeerID(prefix string) (PeerID, error) {
	var id PeerID
	if len(prefix) != peerIDPrefixLen {
		return id, fmt.Errorf("%w: got %q", ErrPeerIDPrefix, prefix)
	}

	random, err := util.RandomPrintable(len(id) - peerIDPrefixLen)
	if err != nil {
		return id, err
	}

	copy(id[:], prefix)
	copy(id[peerIDPrefixLen:], random)
	return id, nil
}

// PeerIDFromBytes copies b into a PeerID. b must be exactly 20 bytes.
func PeerIDFromBytes(b []byte) (PeerID, error) {
	var id PeerID
	if len(b) != len(id) {
		return id, fmt.Errorf("peer id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}
