package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simonhull/audiotag"
)

// wavFile is one second of 8 kHz 16-bit mono PCM.
func wavFile() []byte {
	fmtData := binary.LittleEndian.AppendUint16(nil, 1)
	fmtData = binary.LittleEndian.AppendUint16(fmtData, 1)
	fmtData = binary.LittleEndian.AppendUint32(fmtData, 8000)
	fmtData = binary.LittleEndian.AppendUint32(fmtData, 16000)
	fmtData = binary.LittleEndian.AppendUint16(fmtData, 2)
	fmtData = binary.LittleEndian.AppendUint16(fmtData, 16)

	body := []byte("WAVE")
	body = append(body, riffChunk("fmt ", fmtData)...)
	body = append(body, riffChunk("data", make([]byte, 16000))...)
	return append(binary.LittleEndian.AppendUint32([]byte("RIFF"), uint32(len(body))), body...)
}

func riffChunk(id string, data []byte) []byte {
	return append(binary.LittleEndian.AppendUint32([]byte(id), uint32(len(data))), data...)
}

func mp4Box(typ string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	return append(binary.BigEndian.AppendUint32(nil, uint32(8+len(body))), append([]byte(typ), body...)...)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("audiotag %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	wav := writeFile(t, dir, "a.wav", wavFile())
	renamed := writeFile(t, dir, "b.mp3", wavFile())
	junk := writeFile(t, dir, "c.flac", []byte("not audio at all"))

	out := mustRun(t, "probe", wav, renamed, junk)
	for _, want := range []string{
		wav + "\textension=WAV\tsignature=WAV",
		renamed + "\textension=MP3\tsignature=WAV",
		junk + "\textension=FLAC\tsignature=Unknown (unrecognized signature)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "probe", filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("probe of a missing file succeeded")
	}
}

func TestSetDumpRemove(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.wav", wavFile())

	out := mustRun(t, "set", path, "title=Song", "artist=Band", "track=3/12", "TXXX:MOOD=calm")
	if !strings.Contains(out, "wrote ID3v2 tag (5 items)") {
		t.Errorf("set output = %q", out)
	}

	out = mustRun(t, "dump", path)
	for _, want := range []string{"type:       WAV", "[ID3v2] 5 items", "TrackTitle", "Song", "TrackTotal", "TXXX:MOOD"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}

	mustRun(t, "set", path, "artist=", "track=")
	f, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if tag := f.PrimaryTag(); tag == nil || tag.Len() != 2 || tag.Title() != "Song" {
		t.Errorf("tag after clearing = %v", tag.Items())
	}

	mustRun(t, "rm", path, "id3v2")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, wavFile()) {
		t.Error("rm did not restore the original file")
	}
}

func TestSetErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.wav", wavFile())
	tests := []struct {
		name string
		args []string
	}{
		{"no equals", []string{"set", path, "title"}},
		{"bad track", []string{"set", path, "track=x"}},
		{"unsupported type", []string{"set", "--type", "vorbis", path, "title=x"}},
		{"unknown type", []string{"set", "--type", "lyrics3", path, "title=x"}},
		{"key not storable", []string{"set", "--type", "riff", path, "Popularimeter=5"}},
		{"missing cover", []string{"set", path, "cover=" + filepath.Join(t.TempDir(), "none.jpg")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
	b, _ := os.ReadFile(path)
	if !bytes.Equal(b, wavFile()) {
		t.Error("failed commands modified the file")
	}
}

func TestSetCover(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.wav", wavFile())
	img := writeFile(t, dir, "cover.png", []byte("\x89PNG\r\n\x1a\nimage"))

	mustRun(t, "set", path, "cover="+img)
	f, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pics := f.PrimaryTag().Pictures()
	if len(pics) != 1 || pics[0].MIMEType != "image/png" || pics[0].Type != audiotag.PictureFrontCover {
		t.Errorf("pictures = %v", pics)
	}
}

func TestConvert(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.wav", wavFile())
	mustRun(t, "set", path, "title=Song", "artist=Band", "Popularimeter=x")

	out := mustRun(t, "convert", "--move", path, "id3v2", "riff")
	if !strings.Contains(out, "converted ID3v2 to RIFF INFO (2 items, 1 dropped)") {
		t.Errorf("convert output = %q", out)
	}
	f, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Tag(audiotag.TagID3v2) != nil {
		t.Error("--move kept the source tag")
	}
	info := f.Tag(audiotag.TagRIFFInfo)
	if info == nil || info.Title() != "Song" || info.Artist() != "Band" {
		t.Errorf("RIFF INFO tag = %v", info)
	}

	if _, err := run(t, "convert", path, "id3v2", "riff"); err == nil {
		t.Error("convert from a missing tag succeeded")
	}
	if _, err := run(t, "convert", path, "riff", "ilst"); err == nil {
		t.Error("convert to an unsupported tag type succeeded")
	}
}

func TestAtoms(t *testing.T) {
	mp4 := append(mp4Box("ftyp", []byte("M4A \x00\x00\x00\x00M4A ")),
		mp4Box("moov", mp4Box("udta", mp4Box("meta", []byte{0, 0, 0, 0}, mp4Box("ilst"))))...)
	path := writeFile(t, t.TempDir(), "a.m4a", mp4)

	out := mustRun(t, "atoms", path)
	want := "ftyp @0 size=20\nmoov @20 size=36\n  udta @28 size=28\n    meta @36 size=20\n      ilst @48 size=8\n"
	if out != want {
		t.Errorf("atoms output:\n%s\nwant:\n%s", out, want)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.wav", wavFile())
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	tagged := writeFile(t, filepath.Join(dir, "sub"), "b.wav", wavFile())
	writeFile(t, dir, "broken.flac", []byte("fLaC"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))
	mustRun(t, "set", tagged, "title=x")

	out := mustRun(t, "scan", "--no-progress", "-j", "2", dir)
	for _, want := range []string{
		"WAV           2      1        0           2s",
		"2 files read, 1 failed",
		"failed: " + filepath.Join(dir, "broken.flac"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scan output missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "audiotag "+audiotag.Version) {
		t.Errorf("version output = %q", out)
	}
}
