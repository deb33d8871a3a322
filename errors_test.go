package audiotag

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "offset beyond file size",
			err:      &OutOfBoundsError{Path: "test.m4a", Offset: 1000, Length: 4, Size: 500, What: "ftyp atom"},
			contains: []string{"test.m4a", "offset 1000 out of bounds", "file size: 500", "ftyp atom"},
		},
		{
			name:     "unknown format",
			err:      &UnknownFormatError{Path: "test.xyz", Reason: "unrecognized signature"},
			contains: []string{"test.xyz", "unknown format", "unrecognized signature"},
		},
		{
			name:     "unsupported tag",
			err:      &UnsupportedTagError{FileType: FileTypeMP4, TagType: TagRIFFInfo},
			contains: []string{"MP4", "RIFF INFO"},
		},
		{
			name:     "malformed header",
			err:      &MalformedHeaderError{Path: "broken.flac", Format: "FLAC", Reason: "missing fLaC marker", Offset: 256},
			contains: []string{"broken.flac", "FLAC", "offset 256", "missing fLaC marker"},
		},
		{
			name:     "encoding",
			err:      &EncodingError{What: "TIT2 frame", Charset: "UTF-16", Offset: 42},
			contains: []string{"UTF-16", "TIT2 frame", "offset 42"},
		},
		{
			name:     "io",
			err:      &IoError{Path: "a.mp3", Op: "open", Err: fs.ErrNotExist},
			contains: []string{"a.mp3", "open", "not exist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(msg, substr) {
					t.Errorf("error message %q should contain %q", msg, substr)
				}
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	if err := error(&OutOfBoundsError{Path: "a", Offset: 10, Length: 4, Size: 12}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("OutOfBoundsError does not unwrap to io.ErrUnexpectedEOF")
	}
	if err := error(&IoError{Op: "read", Err: fs.ErrPermission}); !errors.Is(err, fs.ErrPermission) {
		t.Error("IoError does not unwrap to its cause")
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Stage: "tag", Message: "bad frame", Offset: 10, Tag: TagID3v2, HasTag: true}
	if got := w.String(); got != "ID3v2 tag (at offset 10): bad frame" {
		t.Errorf("String() = %q", got)
	}
}
