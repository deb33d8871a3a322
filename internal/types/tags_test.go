package types

import (
	"slices"
	"testing"
)

func jpeg(n int) *Picture {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xD8, 0xFF})
	return &Picture{MIMEType: "image/jpeg", Type: PictureFrontCover, Data: data}
}

func keyNames(tag *Tag) []string {
	var names []string
	for item := range tag.All() {
		names = append(names, item.KeyName())
	}
	return names
}

func TestTagInsert(t *testing.T) {
	tag := NewTag(TagVorbisComments)
	tag.SetTitle("One")
	tag.Push(NewItem(KeyTrackArtist, Text("A")))
	tag.Push(NewItem(KeyTrackArtist, Text("B")))
	tag.SetAlbum("Album")

	// Replacing a repeated key keeps the first position and drops the rest
	tag.SetArtist("C")
	if got := keyNames(tag); !slices.Equal(got, []string{"TrackTitle", "TrackArtist", "AlbumTitle"}) {
		t.Errorf("keys = %v", got)
	}
	if tag.Artist() != "C" {
		t.Errorf("Artist() = %q", tag.Artist())
	}

	tag.Insert(NewItem(KeyPicture, jpeg(4)))
	tag.Insert(NewItem(KeyPicture, jpeg(8)))
	if n := len(tag.Pictures()); n != 2 {
		t.Errorf("len(Pictures()) = %d, want 2", n)
	}

	if n := tag.Remove(KeyPicture); n != 2 || tag.Len() != 3 {
		t.Errorf("Remove() = %d, Len() = %d", n, tag.Len())
	}
}

func TestTagPushAPEOverwrites(t *testing.T) {
	tag := NewTag(TagAPE)
	tag.Push(NewItem(KeyTrackArtist, Text("A")))
	tag.Push(NewItem(KeyTrackArtist, Text("B")))
	if items := tag.GetAll(KeyTrackArtist); len(items) != 1 || items[0].Value != Text("B") {
		t.Errorf("artists = %v", items)
	}
}

func TestTagUnknownItems(t *testing.T) {
	tag := NewTag(TagVorbisComments)
	if !tag.Insert(NewUnknownItem("CUSTOM", Text("x"))) {
		t.Fatal("Insert(CUSTOM) rejected")
	}
	tag.Insert(NewUnknownItem("custom", Text("y")))
	if item, ok := tag.GetUnknown("Custom"); !ok || item.Value != Text("y") || tag.Len() != 1 {
		t.Errorf("GetUnknown() = %v, %v (len %d)", item, ok, tag.Len())
	}
	if _, ok := tag.Get(KeyUnknown); ok {
		t.Error("Get(KeyUnknown) matched a raw item")
	}
	if n := tag.RemoveUnknown("CUSTOM"); n != 1 || !tag.IsEmpty() {
		t.Errorf("RemoveUnknown() = %d", n)
	}
}

func TestTagCanStore(t *testing.T) {
	tests := []struct {
		name string
		typ  TagType
		item TagItem
		want bool
	}{
		{"text in id3v1", TagID3v1, NewItem(KeyTrackTitle, Text("x")), true},
		{"unmapped key in id3v1", TagID3v1, NewItem(KeyComposer, Text("x")), false},
		{"binary in id3v1", TagID3v1, NewItem(KeyTrackTitle, Binary{1}), false},
		{"locator in id3v2", TagID3v2, NewItem(KeyAudioFileURL, Locator("http://x")), true},
		{"locator in vorbis", TagVorbisComments, NewItem(KeyComment, Locator("http://x")), false},
		{"picture in vorbis", TagVorbisComments, NewItem(KeyPicture, jpeg(4)), true},
		{"picture in riff", TagRIFFInfo, NewItem(KeyPicture, jpeg(4)), false},
		{"picture under text key", TagID3v2, NewItem(KeyTrackTitle, jpeg(4)), false},
		{"text under picture key", TagID3v2, NewItem(KeyPicture, Text("x")), false},
		{"nil value", TagID3v2, NewItem(KeyTrackTitle, nil), false},
		{"raw TXXX", TagID3v2, NewUnknownItem("TXXX:MOOD2", Text("x")), true},
		{"raw bad frame id", TagID3v2, NewUnknownItem("tit2", Text("x")), false},
		{"raw ape reserved", TagAPE, NewUnknownItem("TAG", Text("x")), false},
		{"raw freeform", TagMP4Ilst, NewUnknownItem("----:org.x:y", Text("x")), true},
		{"raw four cc", TagMP4Ilst, NewUnknownItem("©xyz", Text("x")), true},
		{"raw riff", TagRIFFInfo, NewUnknownItem("ISBJ", Text("x")), true},
		{"raw vorbis with equals", TagVorbisComments, NewUnknownItem("A=B", Text("x")), false},
		{"raw aiff", TagAIFFText, NewUnknownItem("COMT", Text("x")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTag(tt.typ).CanStore(tt.item); got != tt.want {
				t.Errorf("CanStore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagCloneAndEqual(t *testing.T) {
	tag := NewTag(TagID3v2)
	tag.SetTitle("Title")
	tag.SetArtist("Artist")
	tag.Insert(NewItem(KeyPicture, jpeg(4)))

	clone := tag.Clone()
	if !clone.Equal(tag) {
		t.Fatal("clone differs")
	}
	clone.Pictures()[0].Data[3] = 0x01
	if tag.Pictures()[0].Data[3] != 0 {
		t.Error("clone shares picture data")
	}

	reordered := NewTag(TagID3v2)
	reordered.Insert(NewItem(KeyPicture, jpeg(4)))
	reordered.SetArtist("Artist")
	reordered.SetTitle("Title")
	if !reordered.Equal(tag) {
		t.Error("order of different keys is significant")
	}

	a, b := NewTag(TagVorbisComments), NewTag(TagVorbisComments)
	a.Push(NewItem(KeyGenre, Text("Rock")))
	a.Push(NewItem(KeyGenre, Text("Pop")))
	b.Push(NewItem(KeyGenre, Text("Pop")))
	b.Push(NewItem(KeyGenre, Text("Rock")))
	if a.Equal(b) {
		t.Error("order of repeated values is not significant")
	}

	if NewTag(TagID3v2).Equal(NewTag(TagAPE)) {
		t.Error("tags of different types are equal")
	}
	var nilTag *Tag
	if !nilTag.Equal(nil) || nilTag.Clone() != nil || nilTag.Len() != 0 {
		t.Error("nil tag handling")
	}
}

func TestTagAccessors(t *testing.T) {
	tag := NewTag(TagVorbisComments)
	tag.SetTrack(3, 12)
	tag.SetDisc(1, 0)
	if n, total := tag.Track(); n != 3 || total != 12 {
		t.Errorf("Track() = %d, %d", n, total)
	}
	if n, total := tag.Disc(); n != 1 || total != 0 {
		t.Errorf("Disc() = %d, %d", n, total)
	}
	tag.SetTrack(4, 0)
	if _, ok := tag.GetText(KeyTrackTotal); ok {
		t.Error("zero total not removed")
	}

	if _, ok := tag.Year(); ok {
		t.Error("Year() without a date")
	}
	tag.SetText(KeyRecordingDate, "May 6, 2004")
	if y, ok := tag.Year(); !ok || y != 2004 {
		t.Errorf("Year() = %d, %v", y, ok)
	}
	tag.SetText(KeyYear, "1999")
	if y, _ := tag.Year(); y != 1999 {
		t.Errorf("Year() = %d, want the Year item first", y)
	}

	tag.SetGenre("Jazz")
	tag.SetComment("note")
	tag.SetText(KeyAlbumArtist, "Various")
	if tag.Genre() != "Jazz" || tag.Comment() != "note" || tag.AlbumArtist() != "Various" {
		t.Errorf("items = %v", tag.Items())
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2004", "2004", true},
		{" 2004-05-06 ", "2004", true},
		{"2004-05-06T10:00:00", "2004", true},
		{"May 6, 2004", "2004", true},
		{"06/05/1987", "1987", true},
		{"", "", false},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseYear(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseYear(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNumberPairs(t *testing.T) {
	if n, ok := ParseNumber(" 3/12"); !ok || n != 3 {
		t.Errorf("ParseNumber() = %d, %v", n, ok)
	}
	for _, s := range []string{"", "x", "-1", "/12"} {
		if _, ok := ParseNumber(s); ok {
			t.Errorf("ParseNumber(%q) succeeded", s)
		}
	}

	items := PairItems("/12", KeyTrackNumber, KeyTrackTotal)
	if len(items) != 1 || items[0].Key != KeyTrackTotal {
		t.Errorf("PairItems(/12) = %v", items)
	}

	tag := NewTag(TagID3v2)
	if _, ok := PairText(tag, KeyTrackNumber, KeyTrackTotal); ok {
		t.Error("PairText() on empty tag")
	}
	tag.SetText(KeyTrackTotal, "12")
	if s, _ := PairText(tag, KeyTrackNumber, KeyTrackTotal); s != "/12" {
		t.Errorf("PairText() = %q", s)
	}
	tag.SetText(KeyTrackNumber, "3")
	if s, _ := PairText(tag, KeyTrackNumber, KeyTrackTotal); s != "3/12" {
		t.Errorf("PairText() = %q", s)
	}

	if n, total, ok := PairKeys(KeyDiscTotal); !ok || n != KeyDiscNumber || total != KeyDiscTotal {
		t.Errorf("PairKeys() = %v, %v, %v", n, total, ok)
	}
	if _, _, ok := PairKeys(KeyGenre); ok {
		t.Error("PairKeys(Genre) succeeded")
	}
}

func TestConvert(t *testing.T) {
	src := NewTag(TagID3v2)
	src.SetTitle("Title")
	src.SetText(KeyRecordingDate, "2004-05-06")
	src.SetText(KeyComposer, "Composer")
	src.Insert(NewItem(KeyAudioFileURL, Locator("http://example.com")))
	src.Insert(NewUnknownItem("TXXX:CUSTOM", Text("c")))
	src.Insert(NewUnknownItem("TXXX:LABEL", Text("l")))
	src.Insert(NewUnknownItem("PRIV", Binary{1, 2}))
	src.Insert(NewItem(KeyPicture, jpeg(4)))

	t.Run("to id3v1", func(t *testing.T) {
		got := src.Convert(TagID3v1)
		want := NewTag(TagID3v1)
		want.SetTitle("Title")
		want.SetText(KeyYear, "2004")
		if !got.Equal(want) {
			t.Errorf("Convert() = %v", got.Items())
		}
	})

	t.Run("to vorbis", func(t *testing.T) {
		got := src.Convert(TagVorbisComments)
		want := NewTag(TagVorbisComments)
		want.SetTitle("Title")
		want.SetText(KeyRecordingDate, "2004-05-06")
		want.SetText(KeyComposer, "Composer")
		want.Insert(NewUnknownItem("CUSTOM", Text("c")))
		want.SetText(KeyLabel, "l")
		want.Insert(NewItem(KeyPicture, jpeg(4)))
		if !got.Equal(want) {
			t.Errorf("Convert() = %v", got.Items())
		}
	})

	t.Run("to ape", func(t *testing.T) {
		got := src.Convert(TagAPE)
		if _, ok := got.Get(KeyAudioFileURL); ok {
			// APE has no mapping for the URL key
			t.Error("unmapped key converted")
		}
		if item, ok := got.GetUnknown("CUSTOM"); !ok || item.Value != Text("c") {
			t.Errorf("CUSTOM = %v, %v", item, ok)
		}
	})

	t.Run("to ilst freeform", func(t *testing.T) {
		got := src.Convert(TagMP4Ilst)
		if _, ok := got.GetUnknown(itunesPrefix + "CUSTOM"); !ok {
			t.Errorf("items = %v", got.Items())
		}
		if got.Title() != "Title" || got.Len() != 6 {
			t.Errorf("items = %v", got.Items())
		}
	})

	t.Run("same type clones", func(t *testing.T) {
		got := src.Convert(TagID3v2)
		if got == src || !got.Equal(src) {
			t.Error("Convert() to own type is not a clone")
		}
	})

	t.Run("year survives riff", func(t *testing.T) {
		v1 := NewTag(TagID3v1)
		v1.SetText(KeyYear, "1999")
		got := v1.Convert(TagRIFFInfo)
		if s, _ := got.GetText(KeyRecordingDate); s != "1999" {
			t.Errorf("items = %v", got.Items())
		}
	})
}

func TestFilterPictures(t *testing.T) {
	tag := NewTag(TagID3v2)
	tag.SetTitle("x")
	tag.Insert(NewItem(KeyPicture, jpeg(10)))
	tag.Insert(NewItem(KeyPicture, jpeg(100)))
	p := &Parsed{}
	p.AddTag(tag)
	p.AddTag(nil)

	p.FilterPictures(0)
	if len(p.Warnings) != 0 || len(tag.Pictures()) != 2 {
		t.Fatal("zero limit filtered pictures")
	}

	p.FilterPictures(50)
	if len(p.Tags) != 1 || len(tag.Pictures()) != 1 || tag.Len() != 2 {
		t.Errorf("items = %v", tag.Items())
	}
	if len(p.Warnings) != 1 || p.Warnings[0].Stage != "picture" || p.Warnings[0].Tag != TagID3v2 {
		t.Errorf("warnings = %+v", p.Warnings)
	}
}

func TestParseItemKey(t *testing.T) {
	for _, k := range ItemKeys() {
		if got, ok := ParseItemKey(k.String()); !ok || got != k {
			t.Errorf("ParseItemKey(%q) = %v, %v", k.String(), got, ok)
		}
	}
	aliases := map[string]ItemKey{"TITLE": KeyTrackTitle, "cover": KeyPicture, "date": KeyRecordingDate}
	for name, want := range aliases {
		if got, ok := ParseItemKey(name); !ok || got != want {
			t.Errorf("ParseItemKey(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := ParseItemKey("Unknown"); ok {
		t.Error("ParseItemKey(Unknown) succeeded")
	}
}

func TestKeyTables(t *testing.T) {
	for _, typ := range TagTypes {
		for _, k := range ItemKeys() {
			p, ok := PhysicalKey(typ, k)
			if !ok {
				continue
			}
			back, ok := CanonicalKey(typ, p)
			if !ok {
				t.Errorf("%v: %v writes %q which does not read back", typ, k, p)
				continue
			}
			// Paired keys share one physical field
			if back != k {
				if n, total, paired := PairKeys(k); !paired || (back != n && back != total) {
					t.Errorf("%v: %q reads back as %v, want %v", typ, p, back, k)
				}
			}
		}
	}
}
