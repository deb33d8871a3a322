// Package wav reads and writes RIFF/WAVE files: stream properties from the
// fmt, fact and data chunks, the RIFF INFO list and an embedded ID3v2 tag.
package wav

import (
	"encoding/binary"
	"fmt"
	"math"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/types"
)

// ParseInfo decodes the sub-chunks of a LIST/INFO chunk. b starts after
// the "INFO" list type and base is its file offset.
//
// Values are NUL-terminated text. An empty value is skipped; a sub-chunk
// that overruns the list breaks the framing and fails the tag.
func ParseInfo(b []byte, base int64) (*types.Tag, error) {
	tag := types.NewTag(types.TagRIFFInfo)

	for pos := 0; pos < len(b); {
		if len(b)-pos < 8 {
			// Some writers pad the list with a stray byte or two.
			if allZero(b[pos:]) {
				break
			}
			return nil, malformed(base+int64(pos), fmt.Sprintf("%d trailing bytes", len(b)-pos))
		}
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4:]))
		if !types.ValidRawKey(types.TagRIFFInfo, id) {
			return nil, malformed(base+int64(pos), fmt.Sprintf("invalid INFO id %q", id))
		}
		if size > len(b)-pos-8 {
			return nil, malformed(base+int64(pos), fmt.Sprintf("%s value of %d bytes overruns the list", id, size))
		}

		if value := iff.DecodeText(b[pos+8 : pos+8+size]); value != "" {
			if key, ok := types.CanonicalKey(types.TagRIFFInfo, id); ok {
				tag.Push(types.NewItem(key, types.Text(value)))
			} else {
				tag.Push(types.NewUnknownItem(id, types.Text(value)))
			}
		}
		pos += 8 + size + size&1
	}
	return tag, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func malformed(off int64, reason string) error {
	return &types.MalformedHeaderError{Format: "RIFF INFO", Reason: reason, Offset: off}
}

// EncodeInfo serializes tag as a complete LIST/INFO chunk. Items with no
// INFO id and non-text values are skipped. An empty result encodes to nil.
func EncodeInfo(tag *types.Tag) ([]byte, error) {
	body := []byte("INFO")
	n := 0
	for item := range tag.All() {
		id := item.Raw
		if item.Key != types.KeyUnknown {
			p, ok := types.PhysicalKey(types.TagRIFFInfo, item.Key)
			if !ok {
				continue
			}
			id = p
		}
		if !types.ValidRawKey(types.TagRIFFInfo, id) {
			continue
		}
		var value string
		switch v := item.Value.(type) {
		case types.Text:
			value = string(v)
		case types.Locator:
			value = string(v)
		default:
			continue
		}
		if value == "" {
			continue
		}
		body = append(body, iff.Build(id, append([]byte(value), 0), binutil.LittleEndian)...)
		n++
	}
	if n == 0 {
		return nil, nil
	}
	if uint64(len(body)) > math.MaxUint32 {
		return nil, fmt.Errorf("RIFF INFO list too large: %d bytes", len(body))
	}
	return iff.Build("LIST", body, binutil.LittleEndian), nil
}
