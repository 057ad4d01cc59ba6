package torrent

import (
	"github.com/nham/deluge/bencode"
)

// PieceHashSize is the length of one SHA-1 entry in Info.Pieces.
const PieceHashSize = 20

// Info is the parsed "info" dictionary of a metainfo file.
type Info struct {
	// Number of bytes in each piece the content is split into. All pieces
	// have the same length except possibly the last one.
	PieceLength int64
	// Concatenated 20-byte SHA-1 hashes, one per piece.
	Pieces []byte
	// Suggested name to save the file (or directory) as. Purely advisory.
	Name string
	// Private torrents must only use the trackers named in the metainfo.
	// Nil when the key is absent.
	Private *bool
	// Either SingleFile or MultiFile.
	Layout Layout
}

// Layout is implemented only by SingleFile and MultiFile.
type Layout interface {
	TotalLength() int64
	layout()
}

// SingleFile is the layout of a torrent holding exactly one file, named
// after Info.Name.
type SingleFile struct {
	Length int64
	MD5Sum *string
}

func (SingleFile) layout() {}

func (sf SingleFile) TotalLength() int64 {
	return sf.Length
}

// MultiFile is the layout of a torrent holding a directory of files.
type MultiFile struct {
	Files []FileEntry
}

func (MultiFile) layout() {}

func (mf MultiFile) TotalLength() int64 {
	var length int64
	for _, f := range mf.Files {
		length += f.Length
	}
	return length
}

func (i Info) TotalLength() int64 {
	if i.Layout == nil {
		return 0
	}
	return i.Layout.TotalLength()
}

func (i Info) NumPieces() int {
	return len(i.Pieces) / PieceHashSize
}

// PieceHash returns the expected hash of piece index.
func (i Info) PieceHash(index int) ([PieceHashSize]byte, bool) {
	var h [PieceHashSize]byte
	if index < 0 || index >= i.NumPieces() {
		return h, false
	}
	copy(h[:], i.Pieces[index*PieceHashSize:])
	return h, true
}

// Files lists the files of the torrent. A single-file torrent yields one
// entry whose path is the torrent name.
func (i Info) Files() []FileEntry {
	switch l := i.Layout.(type) {
	case SingleFile:
		return []FileEntry{{Length: l.Length, Path: []string{i.Name}, MD5Sum: l.MD5Sum}}
	case MultiFile:
		return l.Files
	}
	return nil
}

// Dict rebuilds the bencode form of the info dictionary from the parsed
// fields. Keys the parser does not know about are not reproduced, so the
// hash of this value can differ from MetaInfo.InfoHash.
func (i Info) Dict() bencode.Dict {
	d := bencode.Dict{
		"piece length": bencode.Integer(i.PieceLength),
		"pieces":       bencode.String(i.Pieces),
		"name":         bencode.String(i.Name),
	}
	if i.Private != nil {
		private := bencode.Integer(0)
		if *i.Private {
			private = 1
		}
		d["private"] = private
	}

	switch l := i.Layout.(type) {
	case SingleFile:
		d["length"] = bencode.Integer(l.Length)
		if l.MD5Sum != nil {
			d["md5sum"] = bencode.String(*l.MD5Sum)
		}
	case MultiFile:
		files := make(bencode.List, len(l.Files))
		for j, f := range l.Files {
			files[j] = f.dict()
		}
		d["files"] = files
	}

	return d
}

func infoFrom(source bencode.Dict) (Info, error) {
	var info Info

	pieceLength, err := getField[bencode.Integer]("info", "piece length", source)
	if err != nil {
		return info, err
	}
	if pieceLength <= 0 {
		return info, invalid("info.piece length", "piece length must be positive, got %d", pieceLength)
	}

	pieces, err := getField[bencode.String]("info", "pieces", source)
	if err != nil {
		return info, err
	}
	if len(pieces)%PieceHashSize != 0 {
		return info, invalid("info.pieces", "length %d is not a multiple of %d", len(pieces), PieceHashSize)
	}

	name, err := getField[bencode.String]("info", "name", source)
	if err != nil {
		return info, err
	}

	private, ok, err := getOptionalField[bencode.Integer]("info", "private", source)
	if err != nil {
		return info, err
	}
	if ok {
		if private != 0 && private != 1 {
			return info, invalid("info.private", "expected 0 or 1, got %d", private)
		}
		p := private == 1
		info.Private = &p
	}

	info.PieceLength = int64(pieceLength)
	info.Pieces = []byte(pieces)
	info.Name = name.String()

	_, okL := source["length"]
	_, okF := source["files"]
	if okL == okF {
		return info, &ParseError{
			Field: "info",
			Kind:  ErrMalformed,
			Err:   errMixedLayout,
		}
	}

	if okL {
		length, err := getField[bencode.Integer]("info", "length", source)
		if err != nil {
			return info, err
		}
		if length < 0 {
			return info, invalid("info.length", "negative length %d", length)
		}
		md5sum, err := getOptionalString("info", "md5sum", source)
		if err != nil {
			return info, err
		}
		info.Layout = SingleFile{Length: int64(length), MD5Sum: md5sum}
	} else {
		files, err := filesFrom(source)
		if err != nil {
			return info, err
		}
		info.Layout = MultiFile{Files: files}
	}

	return info, nil
}
