package id3v1

import (
	"bytes"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// rawTag builds an ID3v1 tag from explicit field bytes.
func rawTag(title, artist, album, year string, comment []byte, genre byte) []byte {
	b := make([]byte, Size)
	copy(b, "TAG")
	copy(b[3:33], title)
	copy(b[33:63], artist)
	copy(b[63:93], album)
	copy(b[93:97], year)
	copy(b[97:127], comment)
	b[127] = genre
	return b
}

func TestParse(t *testing.T) {
	comment := make([]byte, 30)
	copy(comment, "great")
	comment[29] = 7

	tag, err := Parse(rawTag("Title", "Artist", "Album", "1999", comment, 17))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		key  types.ItemKey
		want string
	}{
		{types.KeyTrackTitle, "Title"},
		{types.KeyTrackArtist, "Artist"},
		{types.KeyAlbumTitle, "Album"},
		{types.KeyYear, "1999"},
		{types.KeyComment, "great"},
		{types.KeyTrackNumber, "7"},
		{types.KeyGenre, "Rock"},
	}
	for _, tt := range tests {
		got, ok := tag.GetText(tt.key)
		if !ok || got != tt.want {
			t.Errorf("%v = %q (%v), want %q", tt.key, got, ok, tt.want)
		}
	}
}

func TestParseTrackHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		tail      [2]byte
		wantTrack bool
	}{
		{"v1.1 track", [2]byte{0, 5}, true},
		{"both zero", [2]byte{0, 0}, false},
		{"full comment", [2]byte{'x', 'y'}, false},
		{"nonzero before last", [2]byte{'x', 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment := make([]byte, 30)
			comment[28], comment[29] = tt.tail[0], tt.tail[1]
			tag, err := Parse(rawTag("", "", "", "", comment, 255))
			if err != nil {
				t.Fatal(err)
			}
			_, ok := tag.GetText(types.KeyTrackNumber)
			if ok != tt.wantTrack {
				t.Errorf("track present = %v, want %v", ok, tt.wantTrack)
			}
		})
	}
}

func TestParseGenreOutOfTable(t *testing.T) {
	for _, g := range []byte{192, 200, 255} {
		tag, err := Parse(rawTag("", "", "", "", nil, g))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := tag.GetText(types.KeyGenre); ok {
			t.Errorf("genre byte %d produced a genre", g)
		}
	}
	tag, _ := Parse(rawTag("", "", "", "", nil, 191))
	if g, _ := tag.GetText(types.KeyGenre); g != "Psybient" {
		t.Errorf("genre 191 = %q, want Psybient", g)
	}
}

func TestParseEmptyFieldsAbsent(t *testing.T) {
	tag, err := Parse(rawTag("", "", "", "", nil, 255))
	if err != nil {
		t.Fatal(err)
	}
	if !tag.IsEmpty() {
		t.Errorf("zero-filled tag has %d items", tag.Len())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tag := types.NewTag(types.TagID3v1)
	tag.SetText(types.KeyTrackTitle, "Café")
	tag.SetText(types.KeyTrackArtist, "Artist")
	tag.SetText(types.KeyAlbumTitle, "Album")
	tag.SetText(types.KeyYear, "2004")
	tag.SetText(types.KeyComment, "comment")
	tag.SetText(types.KeyTrackNumber, "12")
	tag.SetText(types.KeyGenre, "jazz")

	b := Encode(tag)
	if len(b) != Size {
		t.Fatalf("len(Encode()) = %d", len(b))
	}
	if b[125] != 0 || b[126] != 12 {
		t.Errorf("track bytes = %d %d", b[125], b[126])
	}

	got, err := Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	want := tag.Clone()
	want.SetText(types.KeyGenre, "Jazz")
	if !got.Equal(want) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got.Items(), want.Items())
	}
}

func TestEncodeNormalizesYear(t *testing.T) {
	tag := types.NewTag(types.TagID3v1)
	tag.SetText(types.KeyYear, "2004-05-06")
	b := Encode(tag)
	if string(b[93:97]) != "2004" {
		t.Errorf("year = %q, want 2004", b[93:97])
	}
}

func TestEncodeTruncates(t *testing.T) {
	tag := types.NewTag(types.TagID3v1)
	tag.SetText(types.KeyTrackTitle, string(bytes.Repeat([]byte("a"), 40)))
	got, _ := Parse(Encode(tag))
	if title, _ := got.GetText(types.KeyTrackTitle); len(title) != 30 {
		t.Errorf("title length = %d, want 30", len(title))
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(types.NewTag(types.TagID3v1)) {
		t.Error("IsEmpty(new tag) = false")
	}
	tag := types.NewTag(types.TagID3v1)
	tag.SetText(types.KeyGenre, "Blues")
	if IsEmpty(tag) {
		t.Error("IsEmpty(genre 0) = true")
	}
}

func TestFind(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAA}, 300)
	data := append(audio, rawTag("T", "", "", "", nil, 255)...)
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")

	off, ok, err := Find(sr)
	if err != nil || !ok || off != 300 {
		t.Errorf("Find() = %d, %v, %v; want 300, true, nil", off, ok, err)
	}

	sr = binary.NewSafeReader(bytes.NewReader(audio), int64(len(audio)), "test.mp3")
	if _, ok, _ := Find(sr); ok {
		t.Error("Find() on untagged data = true")
	}
}
