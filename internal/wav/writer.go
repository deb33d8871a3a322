package wav

import (
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// Write plans replacing the LIST/INFO or ID3 chunk with tag. An empty tag
// removes it. A new chunk is appended at the end of the RIFF container and
// the RIFF size is patched.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	var (
		data []byte
		err  error
	)
	switch tag.Type() {
	case types.TagRIFFInfo:
		data, err = EncodeInfo(tag)
	case types.TagID3v2:
		if data, err = id3v2.Encode(tag); data != nil {
			data = iff.Build("ID3 ", data, binutil.LittleEndian)
		}
	default:
		return nil, &types.UnsupportedTagError{FileType: types.FileTypeWAV, TagType: tag.Type()}
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
		info, err := isInfo(sr, ch)
		if err != nil {
			return nil, err
		}
		if (tag.Type() == types.TagRIFFInfo && info) || (tag.Type() == types.TagID3v2 && isID3(ch)) {
			old = append(old, ch)
		}
	}
	return c.Replace(sr, old, data)
}
