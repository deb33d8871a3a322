package iff

import (
	"bytes"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func le(id string, data []byte) []byte {
	return Build(id, data, binary.LittleEndian)
}

func openRIFF(t *testing.T, b []byte) (*binary.SafeReader, *Container) {
	t.Helper()
	sr := binary.NewSafeReader(bytes.NewReader(b), int64(len(b)), "test.wav")
	c, err := Open(sr, binary.LittleEndian, "WAV", "RIFF", "WAVE")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return sr, c
}

func replace(t *testing.T, b []byte, match string, data []byte) []byte {
	t.Helper()
	sr, c := openRIFF(t, b)
	var old []Chunk
	for _, ch := range c.Chunks {
		if ch.ID == match {
			old = append(old, ch)
		}
	}
	p, err := c.Replace(sr, old, data)
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	var out bytes.Buffer
	if _, err := p.WriteTo(&out, bytes.NewReader(b)); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	return out.Bytes()
}

func TestHeaderEnd(t *testing.T) {
	h := Header{Size: 100}
	if got := h.End(50); got != 50 {
		t.Errorf("End(50) = %d, want 50", got)
	}
	if got := h.End(500); got != 108 {
		t.Errorf("End(500) = %d, want 108", got)
	}
}

func TestOpenKeepsChunksBeforeError(t *testing.T) {
	b := riff(le("fmt ", make([]byte, 16)), []byte{0, 1, 2, 3, 4, 0, 0, 0})
	sr := binary.NewSafeReader(bytes.NewReader(b), int64(len(b)), "test.wav")
	c, err := Open(sr, binary.LittleEndian, "WAV", "RIFF", "WAVE")
	var mh *types.MalformedHeaderError
	if !errors.As(err, &mh) {
		t.Fatalf("Open() error = %v, want MalformedHeaderError", err)
	}
	if c == nil || len(c.Chunks) != 1 || c.Chunks[0].ID != "fmt " {
		t.Errorf("chunks = %+v", c)
	}
}

func TestOpenIgnoresBytesAfterContainer(t *testing.T) {
	b := append(riff(le("data", []byte{1, 2})), "junkjunkjunk"...)
	_, c := openRIFF(t, b)
	if len(c.Chunks) != 1 {
		t.Errorf("chunks = %+v", c.Chunks)
	}
}

func TestContainerReplace(t *testing.T) {
	data := le("data", []byte{1, 2, 3, 4})
	tests := []struct {
		name  string
		in    []byte
		match string
		chunk []byte
		want  []byte
	}{
		{
			name:  "append",
			in:    riff(data),
			match: "LIST",
			chunk: le("LIST", []byte("abc")),
			want:  riff(data, le("LIST", []byte("abc"))),
		},
		{
			name:  "replace first and delete rest",
			in:    riff(le("LIST", []byte("a")), data, le("LIST", []byte("bb"))),
			match: "LIST",
			chunk: le("LIST", []byte("new!")),
			want:  riff(le("LIST", []byte("new!")), data),
		},
		{
			name:  "remove",
			in:    riff(le("LIST", []byte("a")), data),
			match: "LIST",
			want:  riff(data),
		},
		{
			name:  "nothing to do",
			in:    riff(data),
			match: "LIST",
			want:  riff(data),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := replace(t, tt.in, tt.match, tt.chunk); !bytes.Equal(got, tt.want) {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestContainerReplaceAfterUnpaddedChunk(t *testing.T) {
	// odd-sized last chunk written without its pad byte
	b := riff(le("data", []byte{1, 2, 3}))
	b = b[:len(b)-1]
	b[4]--

	got := replace(t, b, "LIST", le("LIST", []byte("ab")))
	want := riff(le("data", []byte{1, 2, 3}), le("LIST", []byte("ab")))
	if !bytes.Equal(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestContainerReplaceTruncated(t *testing.T) {
	b := riff(le("data", make([]byte, 16)))
	b = b[:len(b)-4]
	sr, c := openRIFF(t, b)
	_, err := c.Replace(sr, nil, le("LIST", []byte("ab")))
	var mh *types.MalformedHeaderError
	if !errors.As(err, &mh) {
		t.Errorf("Replace() error = %v, want MalformedHeaderError", err)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain\x00\x00"), "plain"},
		{[]byte("caf\xc3\xa9"), "café"},
		{[]byte("caf\xe9\x00junk"), "café"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := DecodeText(tt.in); got != tt.want {
			t.Errorf("DecodeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
