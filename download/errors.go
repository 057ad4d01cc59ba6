package download

import (
	"errors"
	"fmt"
)

var (
	ErrIO               = errors.New("i/o error")
	ErrConnectionClosed = errors.New("connection closed by peer")
	ErrProtocolMismatch = errors.New("protocol mismatch")
	ErrInfoHashMismatch = errors.New("info hash mismatch")
	ErrPeerIDMismatch   = errors.New("peer id mismatch")
)

// State is the progress of a single handshake attempt.
type State int

const (
	StateConnecting State = iota
	StateHandshakeSent
	StateHandshakeValidated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshakeSent:
		return "handshake sent"
	case StateHandshakeValidated:
		return "handshake validated"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// HandshakeError reports a failed attempt. State is the state the attempt
// was in when it failed.
type HandshakeError struct {
	Addr  string
	State State
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake with %s failed while %v: %v", e.Addr, e.State, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
