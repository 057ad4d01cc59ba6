package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/nham/deluge/torrent"
)

func TestAnnounceAll(t *testing.T) {
	peers := func(ports ...int) []byte {
		list := make([]interface{}, len(ports))
		for i, p := range ports {
			list[i] = map[string]interface{}{"ip": "127.0.0.1", "port": p}
		}
		return marshal(t, map[string]interface{}{"interval": 60, "peers": list})
	}

	first, second := peers(1, 2), peers(2, 3)
	_, a := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) { w.Write(first) })
	_, b := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) { w.Write(second) })
	_, down := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	mi := &torrent.MetaInfo{
		Announce:     a.URL + "/announce",
		AnnounceList: [][]string{{a.URL + "/announce", down.URL + "/announce"}, {b.URL + "/announce"}},
		InfoHash:     testInfoHash(),
	}

	pd := NewPeerDiscovery(testClient(t), 2)
	results := pd.AnnounceAll(context.Background(), mi, Stats{Left: 1}, EventStarted)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range mi.Trackers() {
		if results[i].URL != want {
			t.Errorf("result %d: expected %s, got %s", i, want, results[i].URL)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected errors %v %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrNetwork) {
		t.Errorf("expected ErrNetwork for the failing tracker, got %v", results[1].Err)
	}

	merged := Peers(results)
	if len(merged) != 3 {
		t.Fatalf("expected 3 distinct peers, got %+v", merged)
	}
	for i, want := range []string{"127.0.0.1:1", "127.0.0.1:2", "127.0.0.1:3"} {
		if merged[i].Addr() != want {
			t.Errorf("peer %d: expected %s, got %s", i, want, merged[i].Addr())
		}
	}
}

func TestAnnounceAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mi := &torrent.MetaInfo{Announce: "http://127.0.0.1:1/announce", InfoHash: testInfoHash()}
	results := NewPeerDiscovery(testClient(t), 1).AnnounceAll(ctx, mi, Stats{}, EventNone)

	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("expected a cancelled result, got %+v", results)
	}
}

func TestAnnounceAllWorkerIDs(t *testing.T) {
	body := marshal(t, map[string]interface{}{"interval": 60})
	var urls []string
	for range 3 {
		_, srv := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) { w.Write(body) })
		urls = append(urls, srv.URL+"/announce")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := testClient(t)
	client.Logger = logger

	mi := &torrent.MetaInfo{
		Announce:     urls[0],
		AnnounceList: [][]string{urls},
		InfoHash:     testInfoHash(),
	}
	results := NewPeerDiscovery(client, 2).AnnounceAll(context.Background(), mi, Stats{}, EventStarted)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.URL, r.Err)
		}
	}

	announced := make(map[string]bool)
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line struct {
			Msg    string
			URL    string
			Worker *int
		}
		if err := dec.Decode(&line); err != nil {
			t.Fatal(err)
		}
		if line.Msg != "picked up tracker" {
			continue
		}
		if line.Worker == nil || *line.Worker < 0 || *line.Worker > 1 {
			t.Errorf("announce for %s logged by unexpected worker %v", line.URL, line.Worker)
		}
		announced[line.URL] = true
	}
	for _, u := range urls {
		if !announced[u] {
			t.Errorf("no worker logged an announce to %s", u)
		}
	}
}
