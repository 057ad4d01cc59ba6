package discover

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork           = errors.New("tracker unreachable")
	ErrMalformedResponse = errors.New("malformed tracker response")
	ErrTrackerFailure    = errors.New("tracker reported failure")
	ErrCompactPeers      = errors.New("compact peer list not supported")
	ErrScrapeUnsupported = errors.New("tracker does not support scrape")
)

// TrackerError is returned by announce and scrape requests. Kind is
// ErrNetwork, ErrMalformedResponse or ErrTrackerFailure.
type TrackerError struct {
	URL  string
	Kind error
	// Reason is the tracker's "failure reason" for ErrTrackerFailure.
	Reason string
	Err    error
}

func (e *TrackerError) Error() string {
	msg := fmt.Sprintf("tracker %s: %v", e.URL, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TrackerError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PeerEntryError describes a single unusable entry of a peer list.
type PeerEntryError struct {
	Index int
	Err   error
}

func (e *PeerEntryError) Error() string {
	return fmt.Sprintf("peer %d: %v", e.Index, e.Err)
}

func (e *PeerEntryError) Unwrap() error {
	return e.Err
}
