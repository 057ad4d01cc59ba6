package download

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// fakePeer accepts connections on a local port, answers every handshake
// with msg and hangs up.
func fakePeer(t *testing.T, msg []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	t.Cleanup(func() {
		ln.Close()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()
				conn.SetDeadline(time.Now().Add(5 * time.Second))
				if _, err := io.ReadFull(conn, make([]byte, 68)); err != nil {
					return
				}
				conn.Write(msg)
			}()
		}
	}()

	return ln.Addr().String()
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func peerFixtures(t *testing.T) ([]string, []error) {
	other := testHash
	other[3] = 0

	addrs := []string{
		fakePeer(t, reply(Protocol, testHash, remoteID)),
		closedAddr(t),
		fakePeer(t, reply(Protocol, other, remoteID)),
		fakePeer(t, reply(Protocol, testHash, remoteID)[:10]),
		fakePeer(t, reply(Protocol, testHash, remoteID)),
	}
	want := []error{nil, ErrIO, ErrInfoHashMismatch, ErrConnectionClosed, nil}
	return addrs, want
}

func checkAttempts(t *testing.T, addrs []string, want []error, attempts []Attempt) {
	t.Helper()
	if len(attempts) != len(addrs) {
		t.Fatalf("expected %d attempts, got %d", len(addrs), len(attempts))
	}
	for i, a := range attempts {
		if a.Addr != addrs[i] {
			t.Errorf("attempt %d: expected %s, got %s", i, addrs[i], a.Addr)
		}
		if want[i] == nil {
			if !a.OK() || a.PeerID == nil || *a.PeerID != remoteID {
				t.Errorf("attempt %d: expected success, got %+v", i, a)
			}
			continue
		}
		if !errors.Is(a.Err, want[i]) {
			t.Errorf("attempt %d: expected %v, got %v", i, want[i], a.Err)
		}
		if a.PeerID != nil {
			t.Errorf("attempt %d: failed attempt has a peer id", i)
		}
	}
}

func TestConnectAll(t *testing.T) {
	addrs, want := peerFixtures(t)
	opts := Options{DialTimeout: time.Second, HandshakeTimeout: 2 * time.Second}

	attempts := ConnectAll(context.Background(), addrs, testHash, testPeerID, opts)
	checkAttempts(t, addrs, want, attempts)
}

func TestConnectAllCancelled(t *testing.T) {
	addrs, _ := peerFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i, a := range ConnectAll(ctx, addrs, testHash, testPeerID, Options{}) {
		if !errors.Is(a.Err, context.Canceled) {
			t.Errorf("attempt %d: expected context.Canceled, got %v", i, a.Err)
		}
	}
}

func TestPoolConnectAll(t *testing.T) {
	addrs, want := peerFixtures(t)
	opts := Options{DialTimeout: time.Second, HandshakeTimeout: 2 * time.Second}

	for _, workers := range []int{1, 3, 10} {
		attempts := NewPool(workers, opts).ConnectAll(context.Background(), addrs, testHash, testPeerID)
		checkAttempts(t, addrs, want, attempts)
	}

	if got := NewPool(2, opts).ConnectAll(context.Background(), nil, testHash, testPeerID); len(got) != 0 {
		t.Errorf("expected no attempts, got %+v", got)
	}
}
