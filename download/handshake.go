package download

import (
	"errors"
	"fmt"
	"io"

	"github.com/nham/deluge/torrent"
)

// Protocol is the protocol identifier sent in every handshake.
const Protocol = "BitTorrent protocol"

const (
	reservedLen = 8
	hashLen     = len(torrent.InfoHash{})
	idLen       = len(torrent.PeerID{})
)

// maxEmptyReads bounds how many (0, nil) reads ReadFull tolerates in a row.
const maxEmptyReads = 100

// Handshake is the first message exchanged on a peer connection.
type Handshake struct {
	Protocol string
	Reserved [reservedLen]byte
	InfoHash torrent.InfoHash
	PeerID   torrent.PeerID
}

// NewHandshake returns our handshake for infoHash. No extension bits are set.
func NewHandshake(infoHash torrent.InfoHash, peerID torrent.PeerID) Handshake {
	return Handshake{
		Protocol: Protocol,
		InfoHash: infoHash,
		PeerID:   peerID,
	}
}

// Len is the encoded size: 49 bytes plus the protocol string.
func (h Handshake) Len() int {
	return 1 + len(h.Protocol) + reservedLen + hashLen + idLen
}

func (h Handshake) Bytes() []byte {
	buf := make([]byte, 0, h.Len())
	buf = append(buf, byte(len(h.Protocol)))
	buf = append(buf, h.Protocol...)
	buf = append(buf, h.Reserved[:]...)
	buf = append(buf, h.InfoHash[:]...)
	buf = append(buf, h.PeerID[:]...)
	return buf
}

// ReadFull reads exactly len(buf) bytes from r, looping over short reads.
// A stream that ends early yields ErrConnectionClosed; any other failure
// yields ErrIO.
func ReadFull(r io.Reader, buf []byte) error {
	n, empty := 0, 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if n == len(buf) {
			return nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w after %d of %d bytes", ErrConnectionClosed, n, len(buf))
			}
			return fmt.Errorf("%w: %w", ErrIO, err)
		}

		if m > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= maxEmptyReads {
			return fmt.Errorf("%w: %w", ErrIO, io.ErrNoProgress)
		}
	}
	return nil
}

// ReadHandshake reads a peer's handshake from r and checks it against the
// torrent we expect. The protocol string is compared only when strict is
// set; its length always must match.
func ReadHandshake(r io.Reader, infoHash torrent.InfoHash, strict bool) (*Handshake, error) {
	var pstrlen [1]byte
	if err := ReadFull(r, pstrlen[:]); err != nil {
		return nil, err
	}
	if int(pstrlen[0]) != len(Protocol) {
		return nil, fmt.Errorf("%w: protocol length %d, want %d", ErrProtocolMismatch, pstrlen[0], len(Protocol))
	}

	h := &Handshake{}

	pstr := make([]byte, pstrlen[0])
	if err := ReadFull(r, pstr); err != nil {
		return nil, err
	}
	if strict && string(pstr) != Protocol {
		return nil, fmt.Errorf("%w: %q", ErrProtocolMismatch, pstr)
	}
	h.Protocol = string(pstr)

	if err := ReadFull(r, h.Reserved[:]); err != nil {
		return nil, err
	}

	if err := ReadFull(r, h.InfoHash[:]); err != nil {
		return nil, err
	}
	if h.InfoHash != infoHash {
		return nil, fmt.Errorf("%w: got %s", ErrInfoHashMismatch, h.InfoHash)
	}

	if err := ReadFull(r, h.PeerID[:]); err != nil {
		return nil, err
	}

	return h, nil
}
