package discover

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestScrapeURL(t *testing.T) {
	tests := []struct {
		announce string
		want     string
		ok       bool
	}{
		{"http://example.com/announce", "http://example.com/scrape", true},
		{"http://example.com/x/announce", "http://example.com/x/scrape", true},
		{"http://example.com/announce.php", "http://example.com/scrape.php", true},
		{"http://example.com/announce?x2%0644", "http://example.com/scrape?x2%0644", true},
		{"http://example.com/a", "", false},
		{"http://example.com/announce/x", "", false},
		{"http://example.com/x%064announce", "", false},
	}

	for _, tt := range tests {
		got, err := ScrapeURL(tt.announce)
		if !tt.ok {
			if !errors.Is(err, ErrScrapeUnsupported) {
				t.Errorf("ScrapeURL(%q): expected ErrScrapeUnsupported, got %q %v", tt.announce, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ScrapeURL(%q) = %q, %v, want %q", tt.announce, got, err, tt.want)
		}
	}
}

func TestScrape(t *testing.T) {
	infoHash := testInfoHash()
	body := marshal(t, map[string]interface{}{
		"files": map[string]interface{}{
			string(infoHash[:]): map[string]interface{}{
				"complete":   3,
				"downloaded": 10,
				"incomplete": 4,
			},
		},
	})
	ft, srv := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})

	res, err := testClient(t).Scrape(context.Background(), srv.URL+"/announce", infoHash)
	if err != nil {
		t.Fatal(err)
	}
	if res.Complete != 3 || res.Downloaded != 10 || res.Incomplete != 4 {
		t.Errorf("unexpected scrape %+v", res)
	}

	r := ft.last()
	if r.URL.Path != "/scrape" {
		t.Errorf("unexpected path %q", r.URL.Path)
	}
	if r.URL.Query().Get("info_hash") != string(infoHash[:]) {
		t.Errorf("unexpected info_hash %q", r.URL.Query().Get("info_hash"))
	}
}

func TestScrapeUnknownTorrent(t *testing.T) {
	body := marshal(t, map[string]interface{}{"files": map[string]interface{}{}})
	_, srv := newFakeTracker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})

	_, err := testClient(t).Scrape(context.Background(), srv.URL+"/announce", testInfoHash())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
