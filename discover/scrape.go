package discover

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nham/deluge/bencode"
	"github.com/nham/deluge/torrent"
)

// ScrapeResponse holds the swarm counters a tracker reports for one torrent.
type ScrapeResponse struct {
	Complete   int64
	Downloaded int64
	Incomplete int64
	Name       *string
}

// ScrapeURL derives the scrape URL from an announce URL by replacing
// "announce" at the start of the last path segment with "scrape".
func ScrapeURL(announce string) (string, error) {
	u, err := url.Parse(announce)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeUnsupported, err)
	}

	i := strings.LastIndex(u.Path, "/")
	if i < 0 || !strings.HasPrefix(u.Path[i+1:], "announce") {
		return "", fmt.Errorf("%w: %s", ErrScrapeUnsupported, announce)
	}

	u.Path = u.Path[:i+1] + "scrape" + strings.TrimPrefix(u.Path[i+1:], "announce")
	u.RawPath = ""
	return u.String(), nil
}

// Scrape asks the tracker at announce for the counters of infoHash.
func (c *Client) Scrape(ctx context.Context, announce string, infoHash torrent.InfoHash) (*ScrapeResponse, error) {
	scrape, err := ScrapeURL(announce)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, withQuery(scrape, "info_hash="+EscapeBytes(infoHash[:])))
	if err != nil {
		return nil, err
	}

	d, err := decodeDict(scrape, body)
	if err != nil {
		return nil, err
	}
	reason, err := optionalString(d, "failure reason")
	if err != nil {
		return nil, malformed(scrape, err)
	}
	if err := trackerFailure(scrape, reason); err != nil {
		return nil, err
	}

	files, err := bencode.Field[bencode.Dict](d, "files")
	if err != nil {
		return nil, malformed(scrape, err)
	}
	stats, err := bencode.Field[bencode.Dict](files, string(infoHash[:]))
	if err != nil {
		return nil, malformed(scrape, fmt.Errorf("torrent %s: %w", infoHash, err))
	}

	res := &ScrapeResponse{}
	counters := []struct {
		key string
		dst *int64
	}{
		{"complete", &res.Complete},
		{"downloaded", &res.Downloaded},
		{"incomplete", &res.Incomplete},
	}
	for _, f := range counters {
		v, err := optionalInt(stats, f.key)
		if err != nil {
			return nil, malformed(scrape, err)
		}
		if v != nil {
			*f.dst = *v
		}
	}
	if res.Name, err = optionalString(stats, "name"); err != nil {
		return nil, malformed(scrape, err)
	}

	c.logger().Debug("scraped", "url", scrape, "complete", res.Complete, "incomplete", res.Incomplete)
	return res, nil
}
