// Package id3v1 reads and writes the fixed 128-byte ID3v1 trailer.
//
// Layout:
//
//	"TAG" title(30) artist(30) album(30) year(4) comment(30) genre(1)
//
// ID3v1.1 stores a track number in the last comment byte when the byte
// before it is zero. That rule is a heuristic: a 29-byte comment followed
// by a NUL is indistinguishable from a v1.1 comment with a track.
package id3v1

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// Size is the size of an ID3v1 tag.
const Size = 128

// noGenre is written when the genre is absent or not in the table.
const noGenre = 255

// Find reports whether the source ends with an ID3v1 tag and returns its
// offset.
func Find(sr *binary.SafeReader) (int64, bool, error) {
	return FindBefore(sr, sr.Size())
}

// FindBefore looks for an ID3v1 tag ending at end.
func FindBefore(sr *binary.SafeReader, end int64) (int64, bool, error) {
	if end < Size {
		return 0, false, nil
	}
	magic := make([]byte, 3)
	if err := sr.ReadAt(magic, end-Size, "ID3v1 magic"); err != nil {
		return 0, false, err
	}
	return end - Size, string(magic) == "TAG", nil
}

// Read parses the ID3v1 tag at off.
func Read(sr *binary.SafeReader, off int64) (*types.Tag, error) {
	buf, err := sr.ReadBytes(off, Size, "ID3v1 tag")
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// Parse decodes a 128-byte ID3v1 tag. Zero-filled fields are absent.
func Parse(b []byte) (*types.Tag, error) {
	if len(b) != Size || string(b[:3]) != "TAG" {
		return nil, &types.MalformedHeaderError{Format: "ID3v1", Reason: "missing TAG magic"}
	}

	tag := types.NewTag(types.TagID3v1)
	setField(tag, types.KeyTrackTitle, b[3:33])
	setField(tag, types.KeyTrackArtist, b[33:63])
	setField(tag, types.KeyAlbumTitle, b[63:93])
	setField(tag, types.KeyYear, b[93:97])

	comment := b[97:127]
	if comment[28] == 0 && comment[29] != 0 {
		setField(tag, types.KeyComment, comment[:28])
		tag.SetText(types.KeyTrackNumber, strconv.Itoa(int(comment[29])))
	} else {
		setField(tag, types.KeyComment, comment)
	}

	if g := Genre(int(b[127])); g != "" {
		tag.SetText(types.KeyGenre, g)
	}
	return tag, nil
}

func setField(tag *types.Tag, key types.ItemKey, field []byte) {
	s := strings.TrimRight(textenc.DecodeLatin1(textenc.TrimNul(field)), " ")
	if s != "" {
		tag.SetText(key, s)
	}
}

// Encode serializes tag into 128 bytes. Text is written as Latin-1 and
// truncated to the field width. A year in any date form is reduced to its
// four digits, and a genre that is not in the table (by name or index) is
// written as 255.
func Encode(tag *types.Tag) []byte {
	out := make([]byte, Size)
	copy(out, "TAG")

	putField(out[3:33], text(tag, types.KeyTrackTitle))
	putField(out[33:63], text(tag, types.KeyTrackArtist))
	putField(out[63:93], text(tag, types.KeyAlbumTitle))
	if y, ok := types.ParseYear(text(tag, types.KeyYear)); ok {
		putField(out[93:97], y)
	}

	track, _ := types.ParseNumber(text(tag, types.KeyTrackNumber))
	if track > 0 && track <= 255 {
		putField(out[97:125], text(tag, types.KeyComment))
		out[126] = byte(track)
	} else {
		putField(out[97:127], text(tag, types.KeyComment))
	}

	out[127] = genreByte(text(tag, types.KeyGenre))
	return out
}

// IsEmpty reports whether Encode would produce a tag with no content.
func IsEmpty(tag *types.Tag) bool {
	b := Encode(tag)
	return bytes.Count(b[3:127], []byte{0}) == 124 && b[127] == noGenre
}

func text(tag *types.Tag, key types.ItemKey) string {
	s, _ := tag.GetText(key)
	return s
}

func putField(dst []byte, s string) {
	copy(dst, textenc.EncodeLatin1(s))
}

func genreByte(s string) byte {
	if s == "" {
		return noGenre
	}
	if i, ok := GenreIndex(s); ok {
		return byte(i)
	}
	// ID3v2-style "(17)" references and bare indexes
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(Genres) {
		return byte(n)
	}
	return noGenre
}
