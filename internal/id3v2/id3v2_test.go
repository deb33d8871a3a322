package id3v2

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	bogem "github.com/bogem/id3v2/v2"
	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/audiotag/internal/types"
)

// v23Frame builds an ID3v2.3 frame with a plain 32-bit size.
func v23Frame(id string, flags uint16, body []byte) []byte {
	n := len(body)
	out := append([]byte(id), byte(n>>24), byte(n>>16), byte(n>>8), byte(n), byte(flags>>8), byte(flags))
	return append(out, body...)
}

// v24Frame builds an ID3v2.4 frame with a synchsafe size.
func v24Frame(id string, flags uint16, body []byte) []byte {
	out := append([]byte(id), EncodeSynchsafe(uint32(len(body)))...)
	out = append(out, byte(flags>>8), byte(flags))
	return append(out, body...)
}

// v22Frame builds an ID3v2.2 frame.
func v22Frame(id string, body []byte) []byte {
	n := len(body)
	out := append([]byte(id), byte(n>>16), byte(n>>8), byte(n))
	return append(out, body...)
}

// tagBytes wraps frames in a tag header.
func tagBytes(major, flags byte, frames ...[]byte) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f...)
	}
	out := []byte{'I', 'D', '3', major, 0, flags}
	out = append(out, EncodeSynchsafe(uint32(len(body)))...)
	return append(out, body...)
}

func text(s string) []byte {
	return append([]byte{encLatin1}, s...)
}

func mustParse(t *testing.T, b []byte) *types.Tag {
	t.Helper()
	tag, warnings, err := Parse(b, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}
	return tag
}

func wantText(t *testing.T, tag *types.Tag, key types.ItemKey, want string) {
	t.Helper()
	got, ok := tag.GetText(key)
	if !ok || got != want {
		t.Errorf("%v = %q (present %v), want %q", key, got, ok, want)
	}
}

func TestSynchsafe(t *testing.T) {
	for _, n := range []uint32{0, 1, 127, 128, 255, 1 << 20, maxSynchsafe} {
		b := EncodeSynchsafe(n)
		for _, c := range b {
			if c&0x80 != 0 {
				t.Errorf("EncodeSynchsafe(%d) = %v has high bit set", n, b)
			}
		}
		if got := DecodeSynchsafe(b); got != n {
			t.Errorf("DecodeSynchsafe(EncodeSynchsafe(%d)) = %d", n, got)
		}
	}
}

func TestRemoveUnsync(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte{0xFF, 0x00, 0xE0}, []byte{0xFF, 0xE0}},
		{[]byte{0xFF, 0x00, 0x00}, []byte{0xFF, 0x00}},
		{[]byte{0x01, 0xFF}, []byte{0x01, 0xFF}},
		{[]byte{0xFF, 0x01}, []byte{0xFF, 0x01}},
	}
	for _, tt := range tests {
		if got := RemoveUnsync(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("RemoveUnsync(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHeaderRejects(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{"magic", []byte("ID4\x03\x00\x00\x00\x00\x00\x00")},
		{"version", []byte("ID3\x05\x00\x00\x00\x00\x00\x00")},
		{"size", []byte("ID3\x03\x00\x00\x00\x00\x80\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.b)
			var mh *types.MalformedHeaderError
			if !errors.As(err, &mh) {
				t.Errorf("ParseHeader() error = %v, want MalformedHeaderError", err)
			}
		})
	}
}

func TestParseV23(t *testing.T) {
	b := tagBytes(3, 0,
		v23Frame("TIT2", 0, text("Title")),
		v23Frame("TPE1", 0, append([]byte{encUTF16, 0xFF, 0xFE}, 'A', 0, 'r', 0, 't', 0)),
		v23Frame("TRCK", 0, text("3/12")),
		v23Frame("TYER", 0, text("1999")),
		v23Frame("TCON", 0, text("(17)")),
		v23Frame("TXXX", 0, append(text("LABEL\x00"), "Label"...)),
		v23Frame("TXXX", 0, append(text("MY FIELD\x00"), "custom"...)),
		v23Frame("COMM", 0, append([]byte{encLatin1, 'e', 'n', 'g', 0}, "hello"...)),
		v23Frame("COMM", 0, append([]byte{encLatin1, 'e', 'n', 'g'}, "iTunNORM\x00 0000"...)),
		v23Frame("WOAR", 0, []byte("https://example.com")),
		v23Frame("PRIV", 0, []byte("owner\x00data")),
		make([]byte, 64), // padding
	)
	tag := mustParse(t, b)

	wantText(t, tag, types.KeyTrackTitle, "Title")
	wantText(t, tag, types.KeyTrackArtist, "Art")
	wantText(t, tag, types.KeyTrackNumber, "3")
	wantText(t, tag, types.KeyTrackTotal, "12")
	wantText(t, tag, types.KeyRecordingDate, "1999")
	wantText(t, tag, types.KeyGenre, "Rock")
	wantText(t, tag, types.KeyLabel, "Label")
	wantText(t, tag, types.KeyComment, "hello")
	wantText(t, tag, types.KeyTrackArtistURL, "https://example.com")

	if item, ok := tag.GetUnknown("TXXX:MY FIELD"); !ok || types.ValueString(item.Value) != "custom" {
		t.Errorf("TXXX:MY FIELD = %v, %v", item, ok)
	}
	if item, ok := tag.GetUnknown("COMM:iTunNORM"); !ok || types.ValueString(item.Value) != " 0000" {
		t.Errorf("COMM:iTunNORM = %v, %v", item, ok)
	}
	if item, ok := tag.GetUnknown("PRIV"); !ok {
		t.Error("PRIV frame missing")
	} else if _, isBinary := item.Value.(types.Binary); !isBinary {
		t.Errorf("PRIV value = %T, want Binary", item.Value)
	}
}

func TestParseV22(t *testing.T) {
	pic := append([]byte{encLatin1, 'P', 'N', 'G', byte(types.PictureFrontCover)}, "cover\x00"...)
	pic = append(pic, "\x89PNG\r\n\x1a\ndata"...)
	b := tagBytes(2, 0,
		v22Frame("TT2", text("Old title")),
		v22Frame("TYE", text("1995")),
		v22Frame("PIC", pic),
		v22Frame("XYZ", text("dropped")),
	)
	tag, warnings, err := Parse(b, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantText(t, tag, types.KeyTrackTitle, "Old title")
	wantText(t, tag, types.KeyRecordingDate, "1995")

	pics := tag.Pictures()
	if len(pics) != 1 {
		t.Fatalf("got %d pictures, want 1", len(pics))
	}
	if pics[0].MIMEType != "image/png" || pics[0].Description != "cover" || pics[0].Type != types.PictureFrontCover {
		t.Errorf("picture = %+v", pics[0])
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1 for the unmapped v2.2 frame", len(warnings))
	}
}

func TestParseTagUnsync(t *testing.T) {
	// TIT2 "\xFF\xE0" is stored as "\xFF\x00\xE0" under tag-level unsync
	frame := v23Frame("TIT2", 0, []byte{encLatin1, 'a', 0xFF, 0xE0})
	var unsynced []byte
	for i, c := range frame {
		unsynced = append(unsynced, c)
		if c == 0xFF && i+1 < len(frame) && frame[i+1]&0xE0 == 0xE0 {
			unsynced = append(unsynced, 0)
		}
	}
	tag := mustParse(t, tagBytes(3, flagUnsync, unsynced))
	wantText(t, tag, types.KeyTrackTitle, "aÿà")
}

func TestParseFrameUnsyncV24(t *testing.T) {
	body := []byte{encLatin1, 'x', 0xFF, 0x00, 0xE1}
	tag := mustParse(t, tagBytes(4, 0, v24Frame("TIT2", 0x0002, body)))
	wantText(t, tag, types.KeyTrackTitle, "xÿá")
}

func TestParseExtendedHeader(t *testing.T) {
	ext := []byte{0, 0, 0, 6, 0, 0, 0, 0, 0, 0} // v2.3: size excludes itself
	frames := v23Frame("TIT2", 0, text("T"))
	tag := mustParse(t, tagBytes(3, flagExtended, ext, frames))
	wantText(t, tag, types.KeyTrackTitle, "T")

	ext24 := append(EncodeSynchsafe(6), 1, 0) // v2.4: size includes itself
	tag = mustParse(t, tagBytes(4, flagExtended, ext24, v24Frame("TIT2", 0, append([]byte{encUTF8}, "U"...))))
	wantText(t, tag, types.KeyTrackTitle, "U")
}

func TestParseCompressedFrame(t *testing.T) {
	plain := append([]byte{encUTF8}, "compressed title"...)
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(plain); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	// v2.4: compression + data length indicator
	body := append(EncodeSynchsafe(uint32(len(plain))), z.Bytes()...)
	tag := mustParse(t, tagBytes(4, 0, v24Frame("TIT2", 0x0009, body)))
	wantText(t, tag, types.KeyTrackTitle, "compressed title")

	// v2.3: compression with decompressed size prefix
	n := len(plain)
	body = append([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}, z.Bytes()...)
	tag = mustParse(t, tagBytes(3, 0, v23Frame("TIT2", 0x0080, body)))
	wantText(t, tag, types.KeyTrackTitle, "compressed title")
}

func TestParseEncryptedFrame(t *testing.T) {
	body := []byte{0x80, 1, 2, 3}
	tag := mustParse(t, tagBytes(4, 0, v24Frame("TIT2", 0x0004, body)))
	item, ok := tag.GetUnknown("TIT2")
	if !ok {
		t.Fatal("encrypted frame missing")
	}
	if b, isBinary := item.Value.(types.Binary); !isBinary || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Errorf("encrypted frame value = %#v", item.Value)
	}
}

func TestParseMultiValueV24(t *testing.T) {
	body := append([]byte{encUTF8}, "Rock\x00Jazz\x00"...)
	tag := mustParse(t, tagBytes(4, 0, v24Frame("TCON", 0, body)))
	genres := tag.GetAll(types.KeyGenre)
	if len(genres) != 2 || types.ValueString(genres[0].Value) != "Rock" || types.ValueString(genres[1].Value) != "Jazz" {
		t.Errorf("genres = %v", genres)
	}
}

func TestParseStopsAtBadFrame(t *testing.T) {
	bad := v23Frame("TPE1", 0, text("A"))
	bad[7] = 100 // declared size runs past the tag
	b := tagBytes(3, 0, v23Frame("TIT2", 0, text("T")), bad)
	tag, warnings, err := Parse(b, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantText(t, tag, types.KeyTrackTitle, "T")
	if len(warnings) == 0 {
		t.Error("no warning for truncated frame")
	}
}

func TestResolveGenre(t *testing.T) {
	tests := map[string]string{
		"17":          "Rock",
		"(17)":        "Rock",
		"(17)Grunge":  "Grunge",
		"(RX)":        "Remix",
		"(CR)":        "Cover",
		"((paren":     "(paren",
		"Shoegaze":    "Shoegaze",
		"255":         "255",
		"(999)":       "(999)",
		"Alternative": "Alternative",
	}
	for in, want := range tests {
		if got := resolveGenre(in); got != want {
			t.Errorf("resolveGenre(%q) = %q, want %q", in, got, want)
		}
	}
}

func sampleTag() *types.Tag {
	tag := types.NewTag(types.TagID3v2)
	tag.SetText(types.KeyTrackTitle, "Título")
	tag.SetText(types.KeyTrackArtist, "Artist")
	tag.SetText(types.KeyAlbumTitle, "Album")
	tag.SetText(types.KeyTrackNumber, "3")
	tag.SetText(types.KeyTrackTotal, "12")
	tag.SetText(types.KeyDiscNumber, "1")
	tag.SetText(types.KeyRecordingDate, "2004-05-06")
	tag.SetText(types.KeyComment, "a comment")
	tag.SetText(types.KeyLyrics, "la la la")
	tag.SetText(types.KeyLabel, "Label")
	tag.Push(types.NewItem(types.KeyGenre, types.Text("Rock")))
	tag.Push(types.NewItem(types.KeyGenre, types.Text("Jazz")))
	tag.Insert(types.NewItem(types.KeyAudioFileURL, types.Locator("https://example.com/a.mp3")))
	tag.Insert(types.NewUnknownItem("TXXX:MY FIELD", types.Text("custom")))
	tag.Insert(types.NewUnknownItem("WXXX:homepage", types.Locator("https://example.com")))
	tag.Insert(types.NewUnknownItem("COMM:note", types.Text("described")))
	tag.Insert(types.NewUnknownItem("PRIV", types.Binary("owner\x00data")))
	tag.Insert(types.NewItem(types.KeyPicture, &types.Picture{
		MIMEType:    "image/jpeg",
		Description: "front",
		Type:        types.PictureFrontCover,
		Data:        []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3},
	}))
	tag.Insert(types.NewItem(types.KeyPicture, &types.Picture{
		MIMEType: "image/png",
		Type:     types.PictureBackCover,
		Data:     []byte("\x89PNG\r\n\x1a\nback"),
	}))
	return tag
}

func TestEncodeRoundTrip(t *testing.T) {
	tag := sampleTag()
	b, err := Encode(tag)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if b[3] != 4 || b[5] != 0 {
		t.Errorf("header version/flags = %d/%d, want 4/0", b[3], b[5])
	}

	got := mustParse(t, b)
	if !got.Equal(tag) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got.Items(), tag.Items())
	}
}

func TestEncodeMergesTextValues(t *testing.T) {
	tag := types.NewTag(types.TagID3v2)
	tag.Push(types.NewItem(types.KeyGenre, types.Text("Rock")))
	tag.Push(types.NewItem(types.KeyGenre, types.Text("Jazz")))
	b, err := Encode(tag)
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(b, []byte("TCON")); n != 1 {
		t.Errorf("TCON frames = %d, want 1", n)
	}
	if !bytes.Contains(b, []byte("Rock\x00Jazz")) {
		t.Error("genres not NUL separated")
	}
}

func TestEncodeEmptyTextValues(t *testing.T) {
	tag := types.NewTag(types.TagID3v2)
	tag.SetText(types.KeyTrackTitle, "")
	tag.SetText(types.KeyAlbumTitle, "Album")
	tag.SetText(types.KeyComment, "")
	tag.Insert(types.NewUnknownItem("TXXX:EMPTY", types.Text("")))

	b, err := Encode(tag)
	if err != nil {
		t.Fatal(err)
	}
	got := mustParse(t, b)
	wantText(t, got, types.KeyTrackTitle, "")
	wantText(t, got, types.KeyComment, "")
	if !got.Equal(tag) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got.Items(), tag.Items())
	}
}

func TestEncodeEmpty(t *testing.T) {
	b, err := Encode(types.NewTag(types.TagID3v2))
	if err != nil || b != nil {
		t.Errorf("Encode(empty) = %v, %v; want nil, nil", b, err)
	}
}

func TestEncodeReadableByBogem(t *testing.T) {
	b, err := Encode(sampleTag())
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := bogem.ParseReader(bytes.NewReader(b), bogem.Options{Parse: true})
	if err != nil {
		t.Fatalf("bogem ParseReader() error = %v", err)
	}
	if parsed.Version() != 4 {
		t.Errorf("version = %d, want 4", parsed.Version())
	}
	if parsed.Title() != "Título" {
		t.Errorf("bogem title = %q", parsed.Title())
	}
	if parsed.Album() != "Album" {
		t.Errorf("bogem album = %q", parsed.Album())
	}
	if trck := parsed.GetTextFrame("TRCK"); trck.Text != "3/12" {
		t.Errorf("bogem TRCK = %q, want 3/12", trck.Text)
	}
	pics := parsed.GetFrames(parsed.CommonID("Attached picture"))
	if len(pics) != 2 {
		t.Fatalf("bogem pictures = %d, want 2", len(pics))
	}
	front, ok := pics[0].(bogem.PictureFrame)
	if !ok || front.MimeType != "image/jpeg" || front.Description != "front" {
		t.Errorf("bogem front picture = %+v", pics[0])
	}
}

// paddedUTF16 encodes s as big-endian UTF-16 with a BOM followed by the
// single NUL pad byte some writers add.
func paddedUTF16(s string) []byte {
	out := []byte{0xFE, 0xFF}
	for _, r := range s {
		out = append(out, byte(r>>8), byte(r))
	}
	return append(out, 0)
}

func TestParseUTF16Padding(t *testing.T) {
	nul2 := []byte{0, 0}

	b := tagBytes(3, 0,
		v23Frame("TIT2", 0, cat([]byte{encUTF16}, paddedUTF16("Ab"), nul2)),
		v23Frame("TPE1", 0, []byte{encUTF16BE, 0, 'C', 0, 'd', 0, 0, 0}),
		v23Frame("COMM", 0, cat([]byte{encUTF16}, []byte("eng"), paddedUTF16(""), nul2, paddedUTF16("comment"))),
		v23Frame("COMM", 0, cat([]byte{encUTF16}, []byte("eng"),
			[]byte{0xFF, 0xFE, 'n', 0, 'o', 0, 't', 0, 'e', 0, 0, 0},
			[]byte{0xFF, 0xFE, 'x', 0, 0, 0})),
		v23Frame("TXXX", 0, cat([]byte{encUTF16}, paddedUTF16("BARCODE"), nul2, paddedUTF16("0123"), nul2)),
	)
	tag, warnings, err := Parse(b, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	wantText(t, tag, types.KeyTrackTitle, "Ab")
	wantText(t, tag, types.KeyTrackArtist, "Cd")
	wantText(t, tag, types.KeyComment, "comment")
	wantText(t, tag, types.KeyBarcode, "0123")
	if item, ok := tag.GetUnknown("COMM:note"); !ok || item.Value != types.Text("x") {
		t.Errorf("COMM:note = %v, %v", item, ok)
	}
}

func TestSplitValuesUTF16(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []string
	}{
		{"little endian", []byte{0xFF, 0xFE, 'A', 0, 'b', 0}, []string{"Ab"}},
		{"odd NUL after terminator", []byte{0xFE, 0xFF, 0, 'A', 0, 'b', 0, 0, 0}, []string{"Ab"}},
		{"two padded values", cat(paddedUTF16("a"), []byte{0, 0}, paddedUTF16("b")), []string{"a", "b"}},
		{"only padding", []byte{0, 0, 0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitValues(tt.in, encUTF16, 0)
			if err != nil {
				t.Fatalf("splitValues() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("splitValues() = %q, want %q", got, tt.want)
			}
		})
	}
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestParseBogemV23(t *testing.T) {
	src := bogem.NewEmptyTag()
	src.SetVersion(3)
	src.SetDefaultEncoding(bogem.EncodingUTF16)
	src.SetTitle("Ünïcode title")
	src.SetArtist("Artist")
	src.SetYear("2001")
	src.AddTextFrame("TRCK", bogem.EncodingISO, "7/9")
	src.AddCommentFrame(bogem.CommentFrame{
		Encoding:    bogem.EncodingUTF16,
		Language:    "eng",
		Description: "",
		Text:        "comment text",
	})
	src.AddUserDefinedTextFrame(bogem.UserDefinedTextFrame{
		Encoding:    bogem.EncodingUTF16,
		Description: "BARCODE",
		Value:       "0123456789",
	})
	src.AddAttachedPicture(bogem.PictureFrame{
		Encoding:    bogem.EncodingISO,
		MimeType:    "image/png",
		PictureType: bogem.PTFrontCover,
		Description: "cover",
		Picture:     []byte("\x89PNG\r\n\x1a\npixels"),
	})

	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		t.Fatalf("bogem WriteTo() error = %v", err)
	}

	tag := mustParse(t, buf.Bytes())
	wantText(t, tag, types.KeyTrackTitle, "Ünïcode title")
	wantText(t, tag, types.KeyTrackArtist, "Artist")
	wantText(t, tag, types.KeyRecordingDate, "2001")
	wantText(t, tag, types.KeyTrackNumber, "7")
	wantText(t, tag, types.KeyTrackTotal, "9")
	wantText(t, tag, types.KeyComment, "comment text")
	wantText(t, tag, types.KeyBarcode, "0123456789")
	if pics := tag.Pictures(); len(pics) != 1 || string(pics[0].Data) != "\x89PNG\r\n\x1a\npixels" {
		t.Errorf("pictures = %v", pics)
	}
}
