package torrent

import (
	"fmt"
	"strings"

	"github.com/nham/deluge/bencode"
)

// FileEntry is one file of a multi-file torrent.
type FileEntry struct {
	// Length of the file in bytes.
	Length int64
	// A list of UTF-8 encoded strings corresponding to subdirectory names,
	// the last of which is the actual file name.
	Path []string
	// Optional hex MD5 of the file, as published by some creators.
	MD5Sum *string
}

func (fe FileEntry) Name() string {
	if len(fe.Path) == 0 {
		return ""
	}
	return fe.Path[len(fe.Path)-1]
}

// RelPath joins the path segments with sep.
func (fe FileEntry) RelPath(sep string) string {
	return strings.Join(fe.Path, sep)
}

func (fe FileEntry) dict() bencode.Dict {
	path := make(bencode.List, len(fe.Path))
	for i, s := range fe.Path {
		path[i] = bencode.String(s)
	}

	d := bencode.Dict{
		"length": bencode.Integer(fe.Length),
		"path":   path,
	}
	if fe.MD5Sum != nil {
		d["md5sum"] = bencode.String(*fe.MD5Sum)
	}
	return d
}

func filesFrom(source bencode.Dict) ([]FileEntry, error) {
	list, err := getField[bencode.List]("info", "files", source)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, invalid("info.files", "files cannot be empty")
	}

	files := make([]FileEntry, 0, len(list))
	for i, item := range list {
		scope := fmt.Sprintf("info.files[%d]", i)
		m, ok := item.(bencode.Dict)
		if !ok {
			return nil, invalid(scope, "entry is a %v, not a dictionary", item.Kind())
		}

		length, err := getField[bencode.Integer](scope, "length", m)
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return nil, invalid(scope+".length", "negative length %d", length)
		}

		path, err := getField[bencode.List](scope, "path", m)
		if err != nil {
			return nil, err
		}
		if len(path) == 0 {
			return nil, invalid(scope+".path", "path cannot be empty")
		}
		segments := make([]string, 0, len(path))
		for j, v := range path {
			s, ok := v.(bencode.String)
			if !ok {
				return nil, invalid(fmt.Sprintf("%s.path[%d]", scope, j), "segment is a %v, not a string", v.Kind())
			}
			segments = append(segments, s.String())
		}

		md5sum, err := getOptionalString(scope, "md5sum", m)
		if err != nil {
			return nil, err
		}

		files = append(files, FileEntry{
			Length: int64(length),
			Path:   segments,
			MD5Sum: md5sum,
		})
	}

	return files, nil
}
