package audiotag

import (
	"io"

	"github.com/simonhull/audiotag/internal/types"
)

// FileType identifies an audio container.
type FileType = types.FileType

// Re-export all file type constants
const (
	FileTypeUnknown = types.FileTypeUnknown
	FileTypeAIFF    = types.FileTypeAIFF
	FileTypeAPE     = types.FileTypeAPE
	FileTypeFLAC    = types.FileTypeFLAC
	FileTypeMP3     = types.FileTypeMP3
	FileTypeMP4     = types.FileTypeMP4
	FileTypeOpus    = types.FileTypeOpus
	FileTypeVorbis  = types.FileTypeVorbis
	FileTypeWAV     = types.FileTypeWAV
)

// FileTypes lists every supported file type.
var FileTypes = types.FileTypes

// TagType identifies the physical encoding of a Tag.
type TagType = types.TagType

// Re-export all tag type constants
const (
	TagID3v1          = types.TagID3v1
	TagID3v2          = types.TagID3v2
	TagAPE            = types.TagAPE
	TagMP4Ilst        = types.TagMP4Ilst
	TagRIFFInfo       = types.TagRIFFInfo
	TagVorbisComments = types.TagVorbisComments
	TagAIFFText       = types.TagAIFFText
)

// TagTypes lists every tag type.
var TagTypes = types.TagTypes

// FileTypeFromExtension looks a file type up by the extension of path.
func FileTypeFromExtension(path string) (FileType, bool) {
	return types.FileTypeFromExtension(path)
}

// GuessFileType identifies a file type from its leading bytes. A leading
// ID3v2 tag is skipped.
func GuessFileType(r io.ReaderAt, size int64, path string) (FileType, error) {
	return types.GuessFileType(r, size, path)
}

// ParseTagType resolves a tag type name such as "id3v2", "ape" or
// "vorbis".
func ParseTagType(name string) (TagType, bool) {
	return types.ParseTagType(name)
}
