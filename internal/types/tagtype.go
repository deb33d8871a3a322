package types

import "strings"

// TagType identifies the physical encoding of a Tag.
type TagType int

const (
	// TagID3v1 is the fixed 128-byte ID3v1 trailer.
	TagID3v1 TagType = iota
	// TagID3v2 is an ID3v2.2/2.3/2.4 tag.
	TagID3v2
	// TagAPE is an APEv1/APEv2 tag.
	TagAPE
	// TagMP4Ilst is an MP4 moov.udta.meta.ilst atom.
	TagMP4Ilst
	// TagRIFFInfo is a RIFF LIST/INFO chunk.
	TagRIFFInfo
	// TagVorbisComments is a Vorbis comment block (OGG, FLAC, Opus).
	TagVorbisComments
	// TagAIFFText is the set of AIFF text chunks (NAME, AUTH, (c) , ANNO).
	TagAIFFText
)

// TagTypes lists every tag type.
var TagTypes = []TagType{
	TagID3v1, TagID3v2, TagAPE, TagMP4Ilst, TagRIFFInfo, TagVorbisComments, TagAIFFText,
}

func (t TagType) String() string {
	switch t {
	case TagID3v1:
		return "ID3v1"
	case TagID3v2:
		return "ID3v2"
	case TagAPE:
		return "APE"
	case TagMP4Ilst:
		return "MP4 ilst"
	case TagRIFFInfo:
		return "RIFF INFO"
	case TagVorbisComments:
		return "Vorbis Comments"
	case TagAIFFText:
		return "AIFF text"
	default:
		return "unknown tag type"
	}
}

// ParseTagType resolves a user-supplied tag type name such as "id3v2",
// "ape", "mp4", "ilst", "riff", "info", "vorbis" or "aiff".
func ParseTagType(name string) (TagType, bool) {
	switch strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)) {
	case "id3v1":
		return TagID3v1, true
	case "id3v2", "id3":
		return TagID3v2, true
	case "ape", "apev2":
		return TagAPE, true
	case "mp4", "ilst", "mp4ilst":
		return TagMP4Ilst, true
	case "riff", "info", "riffinfo":
		return TagRIFFInfo, true
	case "vorbis", "vorbiscomments", "vorbiscomment", "xiph":
		return TagVorbisComments, true
	case "aiff", "aifftext":
		return TagAIFFText, true
	}
	return 0, false
}

// supportsValue reports whether tags of type t can store v.
func (t TagType) supportsValue(v Value) bool {
	switch v.(type) {
	case Text:
		return true
	case Locator:
		return t == TagID3v2 || t == TagAPE
	case Binary:
		return t == TagID3v2 || t == TagAPE || t == TagMP4Ilst
	case *Picture:
		return t == TagID3v2 || t == TagAPE || t == TagMP4Ilst || t == TagVorbisComments
	}
	return false
}
