package audiotag_test

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/simonhull/audiotag"
)

func sampleTag(typ audiotag.TagType) *audiotag.Tag {
	tag := audiotag.NewTag(typ)
	tag.SetTitle("Title")
	tag.SetArtist("Artist")
	tag.SetAlbum("Album")
	tag.SetTrack(3, 0)
	return tag
}

func checkTag(t *testing.T, got, want *audiotag.Tag) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s tag missing", want.Type())
	}
	if got.Title() != want.Title() || got.Artist() != want.Artist() || got.Album() != want.Album() {
		t.Errorf("tag = %q/%q/%q, want %q/%q/%q",
			got.Title(), got.Artist(), got.Album(), want.Title(), want.Artist(), want.Album())
	}
	if n, _ := got.Track(); n != 3 {
		t.Errorf("track = %d, want 3", n)
	}
}

func TestWriteTagRoundTrip(t *testing.T) {
	frames := mp3Frames(10)
	flac := flacFile()
	tests := []struct {
		name    string
		file    string
		data    []byte
		tag     audiotag.TagType
		payload []byte // must survive the write unchanged
	}{
		{"mp3 id3v2", "a.mp3", frames, audiotag.TagID3v2, frames},
		{"mp3 ape", "a.mp3", frames, audiotag.TagAPE, frames},
		{"mp3 id3v1", "a.mp3", frames, audiotag.TagID3v1, frames},
		{"wav info", "a.wav", wavFile(), audiotag.TagRIFFInfo, make([]byte, 16000)},
		{"wav id3v2", "a.wav", wavFile(), audiotag.TagID3v2, make([]byte, 16000)},
		{"flac vorbis", "a.flac", flac, audiotag.TagVorbisComments, flac[42:]},
		{"mp4 ilst", "a.m4a", mp4File(), audiotag.TagMP4Ilst, mp4Box("ftyp", []byte("M4A \x00\x00\x00\x00M4A "))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.data)
			want := sampleTag(tt.tag)
			if err := audiotag.WriteTag(path, want); err != nil {
				t.Fatalf("WriteTag() error = %v", err)
			}

			out, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(out, tt.payload) {
				t.Error("audio payload changed")
			}

			file, err := audiotag.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			checkTag(t, file.Tag(tt.tag), want)

			if err := audiotag.RemoveTag(path, tt.tag); err != nil {
				t.Fatalf("RemoveTag() error = %v", err)
			}
			if file, err := audiotag.ReadFile(path); err != nil || file.Tag(tt.tag) != nil {
				t.Errorf("after RemoveTag: %v, %v", file, err)
			}
		})
	}
}

func TestWriteTagUnsupportedLeavesFileIdentical(t *testing.T) {
	data := mp4File()
	path := writeTemp(t, "a.m4a", data)

	err := audiotag.WriteTag(path, sampleTag(audiotag.TagRIFFInfo))
	var unsupported *audiotag.UnsupportedTagError
	if !errors.As(err, &unsupported) {
		t.Fatalf("WriteTag() error = %v, want UnsupportedTagError", err)
	}
	if unsupported.FileType != audiotag.FileTypeMP4 || unsupported.TagType != audiotag.TagRIFFInfo {
		t.Errorf("error = %+v", unsupported)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Error("file changed")
	}
}

func TestWriteTagTo(t *testing.T) {
	path := writeTemp(t, "a.wav", wavFile())
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := sampleTag(audiotag.TagRIFFInfo)
	if err := audiotag.WriteTagTo(f, want); err != nil {
		t.Fatalf("WriteTagTo() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	checkTag(t, file.Tag(audiotag.TagRIFFInfo), want)

	f, err = os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := audiotag.RemoveTagFrom(f, audiotag.TagRIFFInfo); err != nil {
		t.Fatalf("RemoveTagFrom() error = %v", err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, wavFile()) {
		t.Errorf("after RemoveTagFrom the file is %d bytes, want the original %d", len(out), len(wavFile()))
	}
}

func TestWriteTagOptions(t *testing.T) {
	t.Run("backup", func(t *testing.T) {
		data := mp3Frames(10)
		path := writeTemp(t, "a.mp3", data)
		if err := audiotag.WriteTag(path, sampleTag(audiotag.TagID3v2), audiotag.WithBackup(".bak")); err != nil {
			t.Fatal(err)
		}
		backup, err := os.ReadFile(path + ".bak")
		if err != nil {
			t.Fatalf("backup missing: %v", err)
		}
		if !bytes.Equal(backup, data) {
			t.Error("backup differs from the original")
		}
	})

	t.Run("preserve mod time", func(t *testing.T) {
		path := writeTemp(t, "a.mp3", mp3Frames(10))
		old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}
		if err := audiotag.WriteTag(path, sampleTag(audiotag.TagID3v2), audiotag.WithPreserveModTime()); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if !info.ModTime().Equal(old) {
			t.Errorf("mod time = %v, want %v", info.ModTime(), old)
		}
	})

	t.Run("validation", func(t *testing.T) {
		path := writeTemp(t, "a.mp3", mp3Frames(10))
		if err := audiotag.WriteTag(path, sampleTag(audiotag.TagAPE), audiotag.WithValidation()); err != nil {
			t.Errorf("WriteTag(WithValidation) error = %v", err)
		}
		// ID3v1 titles are cut at 30 bytes, so the re-read title differs
		long := sampleTag(audiotag.TagID3v1)
		long.SetTitle("A title that is longer than thirty bytes")
		if err := audiotag.WriteTag(path, long, audiotag.WithValidation()); err == nil {
			t.Error("validation accepted a truncated title")
		}
	})

	t.Run("unchanged file is not rewritten", func(t *testing.T) {
		path := writeTemp(t, "a.mp3", mp3Frames(10))
		if err := audiotag.RemoveTag(path, audiotag.TagAPE, audiotag.WithBackup(".bak")); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
			t.Errorf("backup created for an empty edit: %v", err)
		}
	})
}

func TestTaggedFileSave(t *testing.T) {
	path := writeTemp(t, "a.mp3", mp3Frames(10))
	if err := audiotag.WriteTag(path, sampleTag(audiotag.TagID3v1)); err != nil {
		t.Fatal(err)
	}

	file, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	file.RemoveTag(audiotag.TagID3v1)
	want := sampleTag(audiotag.TagAPE)
	if _, err := file.InsertTag(want); err != nil {
		t.Fatal(err)
	}
	if err := file.Save(audiotag.WithBackup(".bak")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	file, err = audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Tags()) != 1 {
		t.Fatalf("tags = %v", file.Tags())
	}
	checkTag(t, file.Tag(audiotag.TagAPE), want)

	backup, err := audiotag.ReadFile(path + ".bak")
	if err != nil {
		t.Fatal(err)
	}
	if backup.Tag(audiotag.TagID3v1) == nil || backup.Tag(audiotag.TagAPE) != nil {
		t.Errorf("backup tags = %v, want the file as read", backup.Tags())
	}
}

func TestTaggedFileSaveBackupAfterUnchangedTag(t *testing.T) {
	orig := mp3Frames(10)
	path := writeTemp(t, "a.mp3", orig)

	file, err := audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// An empty APE tag on a file without one changes nothing
	if _, err := file.InsertTag(audiotag.NewTag(audiotag.TagAPE)); err != nil {
		t.Fatal(err)
	}
	want := sampleTag(audiotag.TagID3v2)
	if _, err := file.InsertTag(want); err != nil {
		t.Fatal(err)
	}
	if err := file.Save(audiotag.WithBackup(".bak")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(backup, orig) {
		t.Error("backup differs from the file as read")
	}
	file, err = audiotag.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	checkTag(t, file.Tag(audiotag.TagID3v2), want)
}
