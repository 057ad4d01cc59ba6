package download

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/nham/deluge/torrent"
)

// Dialer opens the transport for a handshake. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options tune a handshake attempt. The zero value is usable.
type Options struct {
	// Zero means no limit beyond ctx.
	DialTimeout time.Duration
	// Bounds the write of our handshake plus the read of the reply.
	HandshakeTimeout time.Duration
	// Compare the peer's protocol string byte for byte, not only its length.
	StrictProtocol bool
	// When set the peer must answer with this id.
	ExpectPeerID *torrent.PeerID
	Dialer       Dialer
	Logger       *slog.Logger
}

func (o Options) dialer() Dialer {
	if o.Dialer == nil {
		return &net.Dialer{}
	}
	return o.Dialer
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// PeerConn is a connection to a peer that completed the handshake.
type PeerConn struct {
	AmChoking      bool
	AmInterested   bool
	PeerChoking    bool
	PeerInterested bool

	PeerID torrent.PeerID
	// Extension bits the peer announced.
	Reserved [reservedLen]byte

	addr  string
	conn  net.Conn
	state State
}

func newPeerConn(addr string) *PeerConn {
	return &PeerConn{
		AmChoking:   true,
		PeerChoking: true,
		addr:        addr,
		state:       StateConnecting,
	}
}

func (pc *PeerConn) Addr() string {
	return pc.addr
}

func (pc *PeerConn) State() State {
	return pc.state
}

// Conn returns the underlying connection for the session that follows the
// handshake.
func (pc *PeerConn) Conn() net.Conn {
	return pc.conn
}

func (pc *PeerConn) Close() error {
	if pc.conn == nil {
		return nil
	}
	return pc.conn.Close()
}

// Dial connects to addr and performs the handshake for infoHash. The
// returned connection is in StateHandshakeValidated; on failure the
// connection is closed and the error is a *HandshakeError.
func Dial(ctx context.Context, addr string, infoHash torrent.InfoHash, peerID torrent.PeerID, opts Options) (*PeerConn, error) {
	pc := newPeerConn(addr)
	log := opts.logger().With("peer", addr)

	fail := func(err error) (*PeerConn, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		herr := &HandshakeError{Addr: addr, State: pc.state, Err: err}
		pc.state = StateFailed
		pc.Close()
		log.Debug("handshake failed", "state", herr.State, "err", err)
		return nil, herr
	}

	dialCtx := ctx
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	log.Debug("connecting")
	conn, err := opts.dialer().DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrIO, err))
	}
	pc.conn = conn

	deadline, ok := ctx.Deadline()
	if opts.HandshakeTimeout > 0 {
		if d := time.Now().Add(opts.HandshakeTimeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		conn.SetDeadline(deadline)
	}
	// Unblock pending I/O when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(NewHandshake(infoHash, peerID).Bytes()); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrIO, err))
	}
	pc.state = StateHandshakeSent

	reply, err := ReadHandshake(conn, infoHash, opts.StrictProtocol)
	if err != nil {
		return fail(err)
	}
	if opts.ExpectPeerID != nil && reply.PeerID != *opts.ExpectPeerID {
		return fail(fmt.Errorf("%w: got %s", ErrPeerIDMismatch, reply.PeerID))
	}

	if !stop() {
		// ctx was cancelled after the reply arrived.
		return fail(ErrIO)
	}
	conn.SetDeadline(time.Time{})

	pc.PeerID = reply.PeerID
	pc.Reserved = reply.Reserved
	pc.state = StateHandshakeValidated
	log.Debug("handshake validated", "peer_id", pc.PeerID)

	return pc, nil
}

// Handshake dials addr, validates the peer's handshake and closes the
// connection again.
func Handshake(ctx context.Context, addr string, infoHash torrent.InfoHash, peerID torrent.PeerID, opts Options) error {
	pc, err := Dial(ctx, addr, infoHash, peerID, opts)
	if err != nil {
		return err
	}
	pc.Close()
	return nil
}
