package types

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// FileType is the container format of an audio file.
type FileType int

const (
	// FileTypeUnknown is the zero value; no reader handles it.
	FileTypeUnknown FileType = iota
	// FileTypeAIFF is an IFF/AIFF or AIFF-C file.
	FileTypeAIFF
	// FileTypeAPE is a Monkey's Audio file.
	FileTypeAPE
	// FileTypeFLAC is a native FLAC stream.
	FileTypeFLAC
	// FileTypeMP3 is an MPEG audio elementary stream.
	FileTypeMP3
	// FileTypeMP4 is an ISO base media file (m4a, m4b, ...).
	FileTypeMP4
	// FileTypeOpus is an Ogg Opus stream.
	FileTypeOpus
	// FileTypeVorbis is an Ogg Vorbis stream.
	FileTypeVorbis
	// FileTypeWAV is a RIFF/WAVE file.
	FileTypeWAV
)

// FileTypes lists every supported file type.
var FileTypes = []FileType{
	FileTypeAIFF, FileTypeAPE, FileTypeFLAC, FileTypeMP3,
	FileTypeMP4, FileTypeOpus, FileTypeVorbis, FileTypeWAV,
}

func (f FileType) String() string {
	switch f {
	case FileTypeAIFF:
		return "AIFF"
	case FileTypeAPE:
		return "APE"
	case FileTypeFLAC:
		return "FLAC"
	case FileTypeMP3:
		return "MP3"
	case FileTypeMP4:
		return "MP4"
	case FileTypeOpus:
		return "Opus"
	case FileTypeVorbis:
		return "Vorbis"
	case FileTypeWAV:
		return "WAV"
	case FileTypeUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this file type.
func (f FileType) Extensions() []string {
	switch f {
	case FileTypeAIFF:
		return []string{".aiff", ".aif", ".aifc"}
	case FileTypeAPE:
		return []string{".ape"}
	case FileTypeFLAC:
		return []string{".flac"}
	case FileTypeMP3:
		return []string{".mp3"}
	case FileTypeMP4:
		return []string{".mp4", ".m4a", ".m4b", ".m4p", ".m4r", ".m4v", ".3gp"}
	case FileTypeOpus:
		return []string{".opus"}
	case FileTypeVorbis:
		return []string{".ogg", ".oga"}
	case FileTypeWAV:
		return []string{".wav", ".wave"}
	case FileTypeUnknown:
		return nil
	default:
		return nil
	}
}

// PrimaryTagType returns the tag type preferred for a file type.
func (f FileType) PrimaryTagType() TagType {
	switch f {
	case FileTypeAIFF, FileTypeMP3, FileTypeWAV:
		return TagID3v2
	case FileTypeAPE:
		return TagAPE
	case FileTypeFLAC, FileTypeOpus, FileTypeVorbis:
		return TagVorbisComments
	case FileTypeMP4:
		return TagMP4Ilst
	case FileTypeUnknown:
		return TagID3v2
	default:
		return TagID3v2
	}
}

// SupportsTagType reports whether a file type can carry tags of type t.
func (f FileType) SupportsTagType(t TagType) bool {
	switch f {
	case FileTypeAIFF:
		return t == TagID3v2 || t == TagAIFFText
	case FileTypeAPE, FileTypeMP3:
		return t == TagID3v2 || t == TagID3v1 || t == TagAPE
	case FileTypeFLAC, FileTypeOpus, FileTypeVorbis:
		return t == TagVorbisComments
	case FileTypeMP4:
		return t == TagMP4Ilst
	case FileTypeWAV:
		return t == TagID3v2 || t == TagRIFFInfo
	case FileTypeUnknown:
		return false
	default:
		return false
	}
}

// FileTypeFromExtension looks the extension of path up in the static
// extension table. The lookup is case-insensitive.
func FileTypeFromExtension(path string) (FileType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return FileTypeUnknown, false
	}
	for _, f := range FileTypes {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, true
			}
		}
	}
	return FileTypeUnknown, false
}

// signatureLen is the bounded prefix examined by GuessFileType.
const signatureLen = 36

// GuessFileType determines the file type from magic bytes.
//
// A leading ID3v2 tag is skipped, after which Monkey's Audio, FLAC and
// MPEG frame sync signatures are accepted. Detection does not validate the
// rest of the file.
func GuessFileType(r io.ReaderAt, size int64, path string) (FileType, error) { //nolint:gocyclo // Signature detection checks many patterns
	if size < 4 {
		return FileTypeUnknown, &UnknownFormatError{Path: path, Reason: "file too small"}
	}

	sr := prefixReader{r: r, size: size, path: path}
	n := min(size, signatureLen)
	buf := make([]byte, n)
	if err := sr.readAt(buf, 0, "file signature"); err != nil {
		return FileTypeUnknown, err
	}

	switch {
	case string(buf[:4]) == "fLaC":
		return FileTypeFLAC, nil
	case string(buf[:4]) == "MAC ":
		return FileTypeAPE, nil
	case string(buf[:4]) == "OggS":
		return guessOgg(sr, buf)
	case n >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WAVE":
		return FileTypeWAV, nil
	case n >= 12 && string(buf[:4]) == "FORM" && (string(buf[8:12]) == "AIFF" || string(buf[8:12]) == "AIFC"):
		return FileTypeAIFF, nil
	case n >= 8 && string(buf[4:8]) == "ftyp":
		return FileTypeMP4, nil
	case string(buf[:3]) == "ID3" && n >= 10:
		return guessAfterID3(sr, buf)
	case IsFrameSync(buf[0], buf[1]):
		return FileTypeMP3, nil
	}

	return FileTypeUnknown, &UnknownFormatError{Path: sr.path, Reason: "unrecognized signature"}
}

// IsFrameSync reports whether two bytes start an MPEG audio frame header.
func IsFrameSync(a, b byte) bool {
	return a == 0xFF && b != 0xFF && b&0xE0 == 0xE0
}

func guessOgg(sr prefixReader, head []byte) (FileType, error) {
	if len(head) < 27 {
		return FileTypeUnknown, &UnknownFormatError{Path: sr.path, Reason: "truncated Ogg page"}
	}

	// First packet starts after the 27-byte page header and the segment table
	packetOffset := int64(27 + int(head[26]))
	magic := make([]byte, 8)
	if err := sr.readAt(magic, packetOffset, "ogg codec magic"); err != nil {
		return FileTypeUnknown, err
	}

	switch {
	case string(magic) == "OpusHead":
		return FileTypeOpus, nil
	case string(magic[:7]) == "\x01vorbis":
		return FileTypeVorbis, nil
	}
	return FileTypeUnknown, &UnknownFormatError{Path: sr.path, Reason: "unsupported Ogg codec"}
}

func guessAfterID3(sr prefixReader, head []byte) (FileType, error) {
	size := int64(head[6]&0x7F)<<21 | int64(head[7]&0x7F)<<14 | int64(head[8]&0x7F)<<7 | int64(head[9]&0x7F)
	off := 10 + size
	if head[5]&0x10 != 0 {
		off += 10 // footer
	}

	magic := make([]byte, 4)
	if err := sr.readAt(magic, off, "signature after ID3v2"); err != nil {
		return FileTypeUnknown, &UnknownFormatError{Path: sr.path, Reason: "nothing follows the ID3v2 tag"}
	}

	switch {
	case string(magic) == "MAC ":
		return FileTypeAPE, nil
	case string(magic) == "fLaC":
		return FileTypeFLAC, nil
	case IsFrameSync(magic[0], magic[1]):
		return FileTypeMP3, nil
	}
	return FileTypeUnknown, &UnknownFormatError{Path: sr.path, Reason: "unrecognized signature after ID3v2 tag"}
}

// prefixReader performs the few bounds-checked reads signature detection
// needs without depending on the binary package.
type prefixReader struct {
	r    io.ReaderAt
	path string
	size int64
}

func (p prefixReader) readAt(b []byte, off int64, what string) error {
	if off < 0 || off+int64(len(b)) > p.size {
		return &OutOfBoundsError{Path: p.path, What: what, Offset: off, Length: len(b), Size: p.size}
	}
	n, err := p.r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &IoError{Path: p.path, Op: "read " + what, Err: err}
}
