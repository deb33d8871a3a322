package vorbis

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// ParsePicture decodes a FLAC PICTURE block body, the same layout that
// METADATA_BLOCK_PICTURE carries in base64:
//
//	type(4) mimeLen(4) mime descLen(4) desc width(4) height(4)
//	depth(4) colors(4) dataLen(4) data
//
// All integers are big-endian.
func ParsePicture(b []byte) (*types.Picture, error) {
	pos := 0
	next := func(what string) (uint32, error) {
		if len(b)-pos < 4 {
			return 0, fmt.Errorf("picture truncated reading %s", what)
		}
		v := binary.BigEndian.Uint32(b[pos:])
		pos += 4
		return v, nil
	}
	field := func(what string) ([]byte, error) {
		n, err := next(what + " length")
		if err != nil {
			return nil, err
		}
		if uint64(n) > uint64(len(b)-pos) {
			return nil, fmt.Errorf("picture %s length %d exceeds block", what, n)
		}
		v := b[pos : pos+int(n)]
		pos += int(n)
		return v, nil
	}

	typ, err := next("type")
	if err != nil {
		return nil, err
	}
	mime, err := field("MIME type")
	if err != nil {
		return nil, err
	}
	desc, err := field("description")
	if err != nil {
		return nil, err
	}
	// width, height, color depth, indexed colors
	if len(b)-pos < 16 {
		return nil, fmt.Errorf("picture truncated reading dimensions")
	}
	pos += 16
	data, err := field("data")
	if err != nil {
		return nil, err
	}

	pic := &types.Picture{
		MIMEType:    string(mime),
		Description: string(desc),
		Data:        append([]byte(nil), data...),
		Type:        types.PictureOther,
	}
	if typ <= uint32(types.PicturePublisherLogotype) {
		pic.Type = types.PictureType(typ)
	}
	if pic.MIMEType == "" {
		pic.MIMEType = types.SniffImageMIME(pic.Data)
	}
	return pic, nil
}

// EncodePicture serializes pic as a FLAC PICTURE block body. Dimensions
// and color depth are written as zero (unknown).
func EncodePicture(pic *types.Picture) []byte {
	mime := pic.MIMEType
	if mime == "" {
		mime = types.SniffImageMIME(pic.Data)
	}
	return binutil.Encode(func(sw *binutil.SafeWriter) {
		binutil.Write(sw, uint32(pic.Type))
		binutil.Write(sw, uint32(len(mime)))
		sw.WriteString(mime)
		binutil.Write(sw, uint32(len(pic.Description)))
		sw.WriteString(pic.Description)
		sw.WriteZeros(16) // width, height, depth, colors
		binutil.Write(sw, uint32(len(pic.Data)))
		sw.WriteBytes(pic.Data)
	})
}
