package aiff

import (
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// Write plans replacing the ID3 chunk or the text chunks with tag. An
// empty tag removes them. New text chunks take the place of the first old
// one; the rest are deleted. The FORM size is patched.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	var (
		data  []byte
		err   error
		match func(iff.Chunk) bool
	)
	switch tag.Type() {
	case types.TagAIFFText:
		data, err = EncodeText(tag)
		match = func(c iff.Chunk) bool { return isText(c.ID) }
	case types.TagID3v2:
		if data, err = id3v2.Encode(tag); data != nil {
			data = iff.Build("ID3 ", data, binutil.BigEndian)
		}
		match = isID3
	default:
		return nil, &types.UnsupportedTagError{FileType: types.FileTypeAIFF, TagType: tag.Type()}
	}
	if err != nil {
		return nil, err
	}

	c, err := open(sr)
	if err != nil {
		return nil, err
	}
	var old []iff.Chunk
	for _, ch := range c.Chunks {
		if match(ch) {
			old = append(old, ch)
		}
	}
	return c.Replace(sr, old, data)
}
