package torrent

import (
	"errors"
	"fmt"

	"github.com/nham/deluge/bencode"
	"github.com/nham/deluge/util"
)

var errMixedLayout = errors.New("there can only be a key length or a key files, not both or neither")

// MetaInfo is the content of a .torrent file.
type MetaInfo struct {
	// URL of the tracker.
	Announce string
	// Optional tiers of backup trackers.
	AnnounceList [][]string
	// Creation time in seconds since the Unix epoch.
	CreationDate *int64
	CreatedBy    *string
	// Character set used for the strings in Info.
	Encoding *string
	Info     Info
	// SHA-1 of the bencoded info dictionary exactly as it was decoded,
	// including keys this package does not interpret.
	InfoHash InfoHash
}

// Load parses a bencoded metainfo document.
func Load(data []byte) (*MetaInfo, error) {
	v, err := bencode.Decode(data)
	if err != nil {
		return nil, &ParseError{Kind: ErrDecode, Err: err}
	}

	source, ok := v.(bencode.Dict)
	if !ok {
		return nil, &ParseError{
			Kind: ErrMalformed,
			Err:  fmt.Errorf("top level is a %v, not a dictionary", v.Kind()),
		}
	}

	announce, err := getField[bencode.String]("", "announce", source)
	if err != nil {
		return nil, err
	}

	mi := &MetaInfo{Announce: announce.String()}

	if mi.AnnounceList, err = announceListFrom(source); err != nil {
		return nil, err
	}

	if mi.CreatedBy, err = getOptionalString("", "created by", source); err != nil {
		return nil, err
	}
	if mi.Encoding, err = getOptionalString("", "encoding", source); err != nil {
		return nil, err
	}
	date, ok, err := getOptionalField[bencode.Integer]("", "creation date", source)
	if err != nil {
		return nil, err
	}
	if ok {
		d := int64(date)
		mi.CreationDate = &d
	}

	infoDict, err := getField[bencode.Dict]("", "info", source)
	if err != nil {
		return nil, err
	}

	// Hash the decoded sub-tree, not the parsed Info, so unknown keys count.
	mi.InfoHash = util.CalcHash(bencode.Encode(infoDict))

	if mi.Info, err = infoFrom(infoDict); err != nil {
		return nil, err
	}

	return mi, nil
}

// Dict rebuilds the bencode form of the metainfo.
func (mi *MetaInfo) Dict() bencode.Dict {
	d := bencode.Dict{
		"announce": bencode.String(mi.Announce),
		"info":     mi.Info.Dict(),
	}
	if len(mi.AnnounceList) > 0 {
		tiers := make(bencode.List, len(mi.AnnounceList))
		for i, tier := range mi.AnnounceList {
			urls := make(bencode.List, len(tier))
			for j, u := range tier {
				urls[j] = bencode.String(u)
			}
			tiers[i] = urls
		}
		d["announce-list"] = tiers
	}
	if mi.CreatedBy != nil {
		d["created by"] = bencode.String(*mi.CreatedBy)
	}
	if mi.CreationDate != nil {
		d["creation date"] = bencode.Integer(*mi.CreationDate)
	}
	if mi.Encoding != nil {
		d["encoding"] = bencode.String(*mi.Encoding)
	}
	return d
}

// Trackers lists every tracker URL once, Announce first, then the tiers of
// AnnounceList in order.
func (mi *MetaInfo) Trackers() []string {
	seen := map[string]bool{mi.Announce: true}
	trackers := []string{mi.Announce}
	for _, tier := range mi.AnnounceList {
		for _, u := range tier {
			if !seen[u] {
				seen[u] = true
				trackers = append(trackers, u)
			}
		}
	}
	return trackers
}

func announceListFrom(source bencode.Dict) ([][]string, error) {
	tiers, ok, err := getOptionalField[bencode.List]("", "announce-list", source)
	if err != nil || !ok {
		return nil, err
	}

	list := make([][]string, 0, len(tiers))
	for i, t := range tiers {
		tier, ok := t.(bencode.List)
		if !ok {
			return nil, invalid(fmt.Sprintf("announce-list[%d]", i), "tier is a %v, not a list", t.Kind())
		}
		urls := make([]string, 0, len(tier))
		for j, u := range tier {
			s, ok := u.(bencode.String)
			if !ok {
				return nil, invalid(fmt.Sprintf("announce-list[%d][%d]", i, j), "url is a %v, not a string", u.Kind())
			}
			urls = append(urls, s.String())
		}
		if len(urls) > 0 {
			list = append(list, urls)
		}
	}

	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}
