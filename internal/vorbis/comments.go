// Package vorbis encodes and decodes Vorbis comment blocks and FLAC
// picture blocks.
//
// Vorbis comments are shared by FLAC, Ogg Vorbis and Ogg Opus: a
// length-prefixed vendor string followed by a count of length-prefixed
// UTF-8 "KEY=VALUE" strings, all lengths little-endian. Keys are
// case-insensitive ASCII and may repeat.
package vorbis

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// DefaultVendor is written when a file has no comment block to take the
// vendor string from.
const DefaultVendor = "audiotag"

const (
	pictureField = "METADATA_BLOCK_PICTURE"
	coverArt     = "COVERART" // legacy base64 image without picture metadata
)

// Comments is a decoded comment block.
type Comments struct {
	Tag      *types.Tag
	Vendor   string
	Warnings []types.Warning
}

// Parse decodes a comment block. base is the file offset of b and only
// positions errors and warnings.
//
// Framing errors fail the whole block. Individual comments that are not
// valid UTF-8, lack '=' or carry an invalid key are skipped with a
// warning, as are undecodable pictures.
func Parse(b []byte, base int64) (*Comments, error) { //nolint:gocyclo // Framing checks are sequential
	malformed := func(off int, format string, args ...any) error {
		return &types.MalformedHeaderError{Format: "Vorbis comment", Reason: fmt.Sprintf(format, args...), Offset: base + int64(off)}
	}
	if len(b) < 4 {
		return nil, malformed(0, "block too short")
	}

	vendorLen := binary.LittleEndian.Uint32(b)
	if uint64(vendorLen) > uint64(len(b)-4) {
		return nil, malformed(0, "vendor length %d exceeds block", vendorLen)
	}
	pos := 4 + int(vendorLen)
	c := &Comments{Tag: types.NewTag(types.TagVorbisComments)}
	vendor, err := textenc.DecodeUTF8(b[4:pos], "vendor string", base+4)
	if err != nil {
		return nil, err
	}
	c.Vendor = vendor

	if len(b)-pos < 4 {
		return nil, malformed(pos, "missing comment count")
	}
	count := binary.LittleEndian.Uint32(b[pos:])
	pos += 4
	if uint64(count) > uint64(len(b)-pos)/4 {
		return nil, malformed(pos-4, "comment count %d exceeds block", count)
	}

	for i := uint32(0); i < count; i++ {
		if len(b)-pos < 4 {
			return nil, malformed(pos, "comment %d of %d truncated", i+1, count)
		}
		n := binary.LittleEndian.Uint32(b[pos:])
		if uint64(n) > uint64(len(b)-pos-4) {
			return nil, malformed(pos, "comment length %d exceeds block", n)
		}
		off := pos
		field := b[pos+4 : pos+4+int(n)]
		pos += 4 + int(n)
		c.addField(field, base+int64(off))
	}
	return c, nil
}

func (c *Comments) warn(off int64, format string, args ...any) {
	c.Warnings = append(c.Warnings, types.Warning{
		Stage:   "item",
		Message: fmt.Sprintf(format, args...),
		Offset:  off,
		Tag:     types.TagVorbisComments,
		HasTag:  true,
	})
}

// addField decodes one "KEY=VALUE" comment into the tag.
func (c *Comments) addField(field []byte, off int64) {
	if !utf8.Valid(field) {
		c.warn(off, "comment is not valid UTF-8, skipped")
		return
	}
	key, value, ok := strings.Cut(string(field), "=")
	if !ok {
		c.warn(off, "comment %q has no '=', skipped", truncate(key))
		return
	}
	if !types.ValidRawKey(types.TagVorbisComments, key) {
		c.warn(off, "invalid comment key %q, skipped", truncate(key))
		return
	}

	switch {
	case strings.EqualFold(key, pictureField):
		pic, err := decodeBase64Picture(value)
		if err != nil {
			c.warn(off, "%s: %v", pictureField, err)
			return
		}
		c.Tag.Push(types.NewItem(types.KeyPicture, pic))
		return
	case strings.EqualFold(key, coverArt):
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			c.warn(off, "%s: invalid base64", coverArt)
			return
		}
		c.Tag.Push(types.NewItem(types.KeyPicture, &types.Picture{
			MIMEType: types.SniffImageMIME(data),
			Type:     types.PictureOther,
			Data:     data,
		}))
		return
	}

	k, mapped := types.CanonicalKey(types.TagVorbisComments, key)
	switch {
	case !mapped:
		c.Tag.Push(types.NewUnknownItem(key, types.Text(value)))
	case (k == types.KeyTrackNumber || k == types.KeyDiscNumber) && strings.Contains(value, "/"):
		number, total, _ := types.PairKeys(k)
		for _, item := range types.PairItems(value, number, total) {
			c.Tag.Push(item)
		}
	default:
		c.Tag.Push(types.NewItem(k, types.Text(value)))
	}
}

// Encode serializes tag as a comment block with the given vendor string.
// Pictures are written as base64 METADATA_BLOCK_PICTURE fields when
// withPictures is set and left out otherwise; FLAC stores them in
// PICTURE blocks instead.
func Encode(tag *types.Tag, vendor string, withPictures bool) ([]byte, error) {
	var fields []string
	for item := range tag.All() {
		var key string
		switch {
		case item.Key == types.KeyPicture:
			if !withPictures {
				continue
			}
			pic, ok := item.Value.(*types.Picture)
			if !ok {
				continue
			}
			fields = append(fields, pictureField+"="+base64.StdEncoding.EncodeToString(EncodePicture(pic)))
			continue
		case item.Key == types.KeyUnknown:
			key = item.Raw
		default:
			p, ok := types.PhysicalKey(types.TagVorbisComments, item.Key)
			if !ok {
				continue
			}
			key = p
		}
		if !types.ValidRawKey(types.TagVorbisComments, key) {
			return nil, fmt.Errorf("invalid Vorbis comment key %q", key)
		}
		switch v := item.Value.(type) {
		case types.Text:
			fields = append(fields, key+"="+string(v))
		case types.Locator:
			fields = append(fields, key+"="+string(v))
		}
	}

	return binutil.Encode(func(sw *binutil.SafeWriter) {
		binutil.WriteLE(sw, uint32(len(vendor)))
		sw.WriteString(vendor)
		binutil.WriteLE(sw, uint32(len(fields)))
		for _, f := range fields {
			binutil.WriteLE(sw, uint32(len(f)))
			sw.WriteString(f)
		}
	}), nil
}

func decodeBase64Picture(value string) (*types.Picture, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return ParsePicture(data)
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
