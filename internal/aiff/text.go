// Package aiff reads and writes AIFF and AIFF-C files: stream properties
// from the COMM and SSND chunks, the NAME/AUTH/(c)/ANNO text chunks and an
// embedded ID3v2 tag.
package aiff

import (
	"fmt"
	"math"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/types"
)

// isText reports whether a chunk id is one of the text chunks.
func isText(id string) bool {
	_, ok := types.CanonicalKey(types.TagAIFFText, id)
	return ok
}

// addText adds the value of text chunk id to tag. Empty values are
// skipped.
func addText(tag *types.Tag, id string, data []byte) {
	key, ok := types.CanonicalKey(types.TagAIFFText, id)
	if !ok {
		return
	}
	if value := iff.DecodeText(data); value != "" {
		tag.Push(types.NewItem(key, types.Text(value)))
	}
}

// EncodeText serializes tag as a run of text chunks in item order. Items
// without a text chunk and non-text values are skipped. An empty result
// encodes to nil.
func EncodeText(tag *types.Tag) ([]byte, error) {
	var out []byte
	for item := range tag.All() {
		id, ok := types.PhysicalKey(types.TagAIFFText, item.Key)
		if !ok {
			continue
		}
		v, ok := item.Value.(types.Text)
		if !ok || v == "" {
			continue
		}
		if uint64(len(v)) > math.MaxUint32 {
			return nil, fmt.Errorf("AIFF %q chunk too large: %d bytes", id, len(v))
		}
		out = append(out, iff.Build(id, []byte(v), binutil.BigEndian)...)
	}
	return out, nil
}
