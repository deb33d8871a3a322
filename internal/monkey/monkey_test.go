package monkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/simonhull/audiotag/internal/ape"
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/types"
)

// audioSpan is the size of every synthetic stream, header included.
const audioSpan = 1000

type stream struct {
	version          uint16
	compression      uint16
	flags            uint16
	blocksPerFrame   uint32
	finalFrameBlocks uint32
	totalFrames      uint32
	bits             uint16
	channels         uint16
	rate             uint32
	extraDescriptor  int
}

// tenSeconds is 441000 samples at 44.1 kHz.
var tenSeconds = stream{
	version:          3990,
	compression:      2000,
	blocksPerFrame:   294912,
	finalFrameBlocks: 441000 - 294912,
	totalFrames:      2,
	bits:             16,
	channels:         2,
	rate:             44100,
}

func (s stream) bytes() []byte {
	le := binary.LittleEndian
	out := []byte(magic)
	out = le.AppendUint16(out, s.version)
	if s.version >= descriptorVersion {
		out = le.AppendUint16(out, 0)
		out = le.AppendUint32(out, uint32(descriptorSize+s.extraDescriptor))
		out = append(out, make([]byte, descriptorSize-len(out)+s.extraDescriptor)...)
		out = le.AppendUint16(out, s.compression)
		out = le.AppendUint16(out, s.flags)
		out = le.AppendUint32(out, s.blocksPerFrame)
		out = le.AppendUint32(out, s.finalFrameBlocks)
		out = le.AppendUint32(out, s.totalFrames)
		out = le.AppendUint16(out, s.bits)
		out = le.AppendUint16(out, s.channels)
		out = le.AppendUint32(out, s.rate)
	} else {
		out = le.AppendUint16(out, s.compression)
		out = le.AppendUint16(out, s.flags)
		out = le.AppendUint16(out, s.channels)
		out = le.AppendUint32(out, s.rate)
		out = le.AppendUint32(out, 44)
		out = le.AppendUint32(out, 0)
		out = le.AppendUint32(out, s.totalFrames)
		out = le.AppendUint32(out, s.finalFrameBlocks)
	}
	return append(out, make([]byte, audioSpan-len(out))...)
}

func reader(b []byte) *binutil.SafeReader {
	return binutil.NewSafeReader(bytes.NewReader(b), int64(len(b)), "test.ape")
}

func read(t *testing.T, b []byte) *types.Parsed {
	t.Helper()
	parsed, err := Read(reader(b), types.ReadOptions{ParseTags: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return parsed
}

func apply(t *testing.T, b []byte, tag *types.Tag) []byte {
	t.Helper()
	plan, err := Write(reader(b), tag)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var out bytes.Buffer
	if _, err := plan.WriteTo(&out, bytes.NewReader(b)); err != nil {
		t.Fatalf("plan.WriteTo() error = %v", err)
	}
	return out.Bytes()
}

func textTag(typ types.TagType, title string) *types.Tag {
	tag := types.NewTag(typ)
	tag.SetTitle(title)
	tag.SetArtist("Artist")
	return tag
}

func TestReadHeaderVersions(t *testing.T) {
	old := func(version, compression, flags uint16) stream {
		return stream{version: version, compression: compression, flags: flags, totalFrames: 1, finalFrameBlocks: 10, channels: 1, rate: 8000}
	}
	tests := []struct {
		name           string
		s              stream
		blocksPerFrame uint32
		bits           int
	}{
		{"descriptor", tenSeconds, 294912, 16},
		{"long descriptor", func() stream { s := tenSeconds; s.extraDescriptor = 12; return s }(), 294912, 16},
		{"3970", old(3970, 2000, 0), 73728 * 4, 16},
		{"3900", old(3900, 1000, flag8Bit), 73728, 8},
		{"3800 extra high", old(3800, 4000, flag24Bit), 73728, 24},
		{"3800 normal", old(3800, 2000, 0), 9216, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ReadHeader(reader(tt.s.bytes()), 0)
			if err != nil {
				t.Fatalf("ReadHeader() error = %v", err)
			}
			if h.Version != tt.s.version || h.BlocksPerFrame != tt.blocksPerFrame || h.BitsPerSample != tt.bits {
				t.Errorf("header = %+v", h)
			}
			if h.SampleRate != int(tt.s.rate) || h.Channels != int(tt.s.channels) || h.TotalFrames != tt.s.totalFrames {
				t.Errorf("header = %+v", h)
			}
		})
	}
}

func TestReadHeaderRejects(t *testing.T) {
	for name, mutate := range map[string]func(*stream){
		"no channels":  func(s *stream) { s.channels = 0 },
		"33 channels":  func(s *stream) { s.channels = 33 },
		"zero rate":    func(s *stream) { s.rate = 0 },
		"empty stream": func(s *stream) { s.totalFrames = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			s := tenSeconds
			mutate(&s)
			_, err := ReadHeader(reader(s.bytes()), 0)
			var mh *types.MalformedHeaderError
			if !errors.As(err, &mh) {
				t.Errorf("ReadHeader() error = %v, want MalformedHeaderError", err)
			}
		})
	}
}

func TestReadProperties(t *testing.T) {
	id3, err := id3v2.Encode(textTag(types.TagID3v2, "Lead"))
	if err != nil {
		t.Fatal(err)
	}
	apeTag, err := ape.Encode(textTag(types.TagAPE, "Trailer"))
	if err != nil {
		t.Fatal(err)
	}
	b := append(append(append([]byte{}, id3...), tenSeconds.bytes()...), apeTag...)

	parsed := read(t, b)
	if len(parsed.Warnings) != 0 {
		t.Errorf("warnings = %v", parsed.Warnings)
	}
	want := types.FileProperties{
		Duration:       10 * time.Second,
		SampleRate:     44100,
		Channels:       2,
		BitDepth:       16,
		AudioBitrate:   audioSpan * 8 / 10,
		OverallBitrate: len(b) * 8 / 10,
	}
	if parsed.Properties != want {
		t.Errorf("properties = %+v, want %+v", parsed.Properties, want)
	}
	if len(parsed.Tags) != 2 || parsed.Tags[0].Title() != "Lead" || parsed.Tags[1].Title() != "Trailer" {
		t.Errorf("tags = %v", parsed.Tags)
	}
}

func TestReadBrokenHeader(t *testing.T) {
	s := tenSeconds
	s.channels = 0
	parsed := read(t, s.bytes())
	if !parsed.Properties.IsZero() {
		t.Errorf("properties = %+v", parsed.Properties)
	}
	if len(parsed.Warnings) != 1 || parsed.Warnings[0].Stage != "properties" {
		t.Errorf("warnings = %v", parsed.Warnings)
	}
}

func TestReadMissingMagic(t *testing.T) {
	b := tenSeconds.bytes()
	copy(b, "RIFF")
	_, err := Read(reader(b), types.ReadOptions{})
	var mh *types.MalformedHeaderError
	if !errors.As(err, &mh) {
		t.Errorf("Read() error = %v, want MalformedHeaderError", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	for _, typ := range []types.TagType{types.TagAPE, types.TagID3v2, types.TagID3v1} {
		t.Run(typ.String(), func(t *testing.T) {
			audio := tenSeconds.bytes()
			tag := textTag(typ, "Written")
			out := apply(t, audio, tag)
			if !bytes.Contains(out, audio) {
				t.Fatal("audio stream changed")
			}

			parsed := read(t, out)
			if len(parsed.Tags) != 1 || !parsed.Tags[0].Equal(tag) {
				t.Errorf("tags = %v", parsed.Tags)
			}
			if parsed.Properties.Duration != 10*time.Second {
				t.Errorf("duration = %v", parsed.Properties.Duration)
			}

			if removed := apply(t, out, types.NewTag(typ)); !bytes.Equal(removed, audio) {
				t.Errorf("removing the tag left %d bytes, want %d", len(removed), len(audio))
			}
		})
	}
}

func TestWriteKeepsID3v1Last(t *testing.T) {
	v1 := id3v1.Encode(textTag(types.TagID3v1, "Old"))
	b := append(tenSeconds.bytes(), v1...)
	out := apply(t, b, textTag(types.TagAPE, "New"))
	if !bytes.HasSuffix(out, v1) {
		t.Error("ID3v1 tag is no longer the last 128 bytes")
	}
	if parsed := read(t, out); len(parsed.Tags) != 2 {
		t.Errorf("tags = %v", parsed.Tags)
	}
}

func TestWriteUnsupported(t *testing.T) {
	b := tenSeconds.bytes()
	_, err := Write(reader(b), types.NewTag(types.TagVorbisComments))
	var ut *types.UnsupportedTagError
	if !errors.As(err, &ut) || ut.FileType != types.FileTypeAPE {
		t.Errorf("Write() error = %v, want UnsupportedTagError", err)
	}
}
