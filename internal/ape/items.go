package ape

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Item flags: bit 0 marks the item read-only, bits 1-2 hold the value type
const (
	itemReadOnly uint32 = 0x1
	itemTypeMask uint32 = 0x6
)

// Item value types
const (
	itemText    uint32 = 0
	itemBinary  uint32 = 1
	itemLocator uint32 = 2
)

// pictureKeys names the binary item that carries each picture type.
var pictureKeys = [...]string{
	types.PictureOther:             "Cover Art (Other)",
	types.PictureIcon:              "Cover Art (Png Icon)",
	types.PictureOtherIcon:         "Cover Art (Icon)",
	types.PictureFrontCover:        "Cover Art (Front)",
	types.PictureBackCover:         "Cover Art (Back)",
	types.PictureLeaflet:           "Cover Art (Leaflet)",
	types.PictureMedia:             "Cover Art (Media)",
	types.PictureLeadArtist:        "Cover Art (Lead Artist)",
	types.PictureArtist:            "Cover Art (Artist)",
	types.PictureConductor:         "Cover Art (Conductor)",
	types.PictureBand:              "Cover Art (Band)",
	types.PictureComposer:          "Cover Art (Composer)",
	types.PictureLyricist:          "Cover Art (Lyricist)",
	types.PictureRecordingLocation: "Cover Art (Recording Location)",
	types.PictureDuringRecording:   "Cover Art (During Recording)",
	types.PictureDuringPerformance: "Cover Art (During Performance)",
	types.PictureVideoCapture:      "Cover Art (Video Capture)",
	types.PictureBrightFish:        "Cover Art (Fish)",
	types.PictureIllustration:      "Cover Art (Illustration)",
	types.PictureBandLogotype:      "Cover Art (Band Logotype)",
	types.PicturePublisherLogotype: "Cover Art (Publisher Logotype)",
}

func pictureTypeForKey(key string) (types.PictureType, bool) {
	for i, k := range pictureKeys {
		if strings.EqualFold(k, key) {
			return types.PictureType(i), true
		}
	}
	return 0, false
}

func pictureKey(t types.PictureType) string {
	if int(t) < len(pictureKeys) {
		return pictureKeys[t]
	}
	return pictureKeys[types.PictureOther]
}

// Read parses the tag at loc.
func Read(sr *binutil.SafeReader, loc Location) (*types.Tag, []types.Warning, error) {
	n := int(loc.Footer.Size)
	if loc.Footer.Flags&flagNoFooter == 0 {
		n -= FooterSize
	}
	items, err := sr.ReadBytes(loc.itemsOffset(), n, "APE items")
	if err != nil {
		return nil, nil, err
	}
	return Parse(items, loc.Footer, loc.itemsOffset())
}

// Parse decodes the items region of a tag described by f. base is the
// file offset of the first item and only positions errors and warnings.
//
// Keys are case-insensitive and a repeated key overwrites the earlier
// item. A malformed item invalidates the whole tag.
func Parse(b []byte, f Footer, base int64) (*types.Tag, []types.Warning, error) { //nolint:gocyclo // Item framing checks are sequential
	tag := types.NewTag(types.TagAPE)
	var warnings []types.Warning
	warn := func(off int, format string, args ...any) {
		warnings = append(warnings, types.Warning{
			Stage:   "item",
			Message: fmt.Sprintf(format, args...),
			Offset:  base + int64(off),
			Tag:     types.TagAPE,
			HasTag:  true,
		})
	}
	malformed := func(off int, format string, args ...any) error {
		return &types.MalformedHeaderError{Format: "APE", Reason: fmt.Sprintf(format, args...), Offset: base + int64(off)}
	}

	pos := 0
	for i := uint32(0); i < f.Count; i++ {
		if len(b)-pos < 9 {
			return nil, nil, malformed(pos, "item %d of %d truncated", i+1, f.Count)
		}
		size := binary.LittleEndian.Uint32(b[pos:])
		flags := binary.LittleEndian.Uint32(b[pos+4:])
		keyEnd := bytes.IndexByte(b[pos+8:], 0)
		if keyEnd < 0 {
			return nil, nil, malformed(pos, "item key not terminated")
		}
		key := string(b[pos+8 : pos+8+keyEnd])
		valueStart := pos + 8 + keyEnd + 1
		if uint64(size) > uint64(len(b)-valueStart) {
			return nil, nil, malformed(pos, "item %q value size %d exceeds tag", key, size)
		}
		if !types.ValidRawKey(types.TagAPE, key) {
			return nil, nil, malformed(pos, "invalid item key %q", key)
		}
		value := b[valueStart : valueStart+int(size)]
		itemOff := pos
		pos = valueStart + int(size)

		kind := (flags & itemTypeMask) >> 1
		if f.Version == version1 {
			kind = itemText
		}
		readOnly := flags&itemReadOnly != 0

		var item types.TagItem
		switch kind {
		case itemText:
			if !utf8.Valid(value) {
				warn(itemOff, "item %q is not valid UTF-8, skipped", key)
				continue
			}
			item = keyed(key, types.Text(value))
			if number, total, ok := types.PairKeys(item.Key); ok {
				tag.Remove(number)
				tag.Remove(total)
				for _, part := range types.PairItems(string(value), number, total) {
					part.ReadOnly = readOnly
					tag.Insert(part)
				}
				continue
			}
		case itemBinary:
			if pt, ok := pictureTypeForKey(key); ok {
				item = types.NewItem(types.KeyPicture, decodePicture(value, pt))
			} else {
				item = keyed(key, types.Binary(bytes.Clone(value)))
			}
		case itemLocator:
			item = keyed(key, types.Locator(value))
		default:
			warn(itemOff, "item %q has reserved value type, skipped", key)
			continue
		}

		item.ReadOnly = readOnly
		if item.Key == types.KeyPicture {
			// One picture per type
			if pic, ok := item.Value.(*types.Picture); ok {
				removePictureType(tag, pic.Type)
			}
		}
		if !tag.Insert(item) {
			warn(itemOff, "item %q cannot be represented, skipped", key)
		}
	}
	return tag, warnings, nil
}

func keyed(key string, v types.Value) types.TagItem {
	if k, ok := types.CanonicalKey(types.TagAPE, key); ok && k != types.KeyPicture {
		return types.NewItem(k, v)
	}
	return types.NewUnknownItem(key, v)
}

// decodePicture splits "description\0data".
func decodePicture(value []byte, pt types.PictureType) *types.Picture {
	pic := &types.Picture{Type: pt}
	if i := bytes.IndexByte(value, 0); i >= 0 {
		pic.Description = string(value[:i])
		pic.Data = bytes.Clone(value[i+1:])
	} else {
		pic.Data = bytes.Clone(value)
	}
	pic.MIMEType = types.SniffImageMIME(pic.Data)
	return pic
}

// removePictureType drops pictures of type pt so the next one replaces
// them.
func removePictureType(tag *types.Tag, pt types.PictureType) {
	isType := func(item types.TagItem) bool {
		pic, ok := item.Value.(*types.Picture)
		return ok && pic.Type == pt
	}
	items := tag.GetAll(types.KeyPicture)
	if !slices.ContainsFunc(items, isType) {
		return
	}
	tag.Remove(types.KeyPicture)
	for _, item := range items {
		if !isType(item) {
			tag.Insert(item)
		}
	}
}

// Encode serializes tag as an APEv2 tag with header and footer. Pictures
// of the same type collapse to the last one. An empty tag encodes to nil.
func Encode(tag *types.Tag) ([]byte, error) {
	var items [][]byte
	pictures := make(map[types.PictureType]int)

	pairs := make(map[types.ItemKey]bool)
	for item := range tag.All() {
		key := item.Raw
		if number, total, ok := types.PairKeys(item.Key); ok {
			if pairs[number] {
				continue
			}
			pairs[number] = true
			text, _ := types.PairText(tag, number, total)
			readOnly := item.ReadOnly
			item = types.NewItem(number, types.Text(text))
			item.ReadOnly = readOnly
		}
		if item.Key != types.KeyUnknown && item.Key != types.KeyPicture {
			p, ok := types.PhysicalKey(types.TagAPE, item.Key)
			if !ok {
				continue
			}
			key = p
		}

		var kind uint32
		var value []byte
		switch v := item.Value.(type) {
		case types.Text:
			kind, value = itemText, []byte(v)
		case types.Locator:
			kind, value = itemLocator, []byte(v)
		case types.Binary:
			kind, value = itemBinary, v
		case *types.Picture:
			key = pictureKey(v.Type)
			kind = itemBinary
			value = append(append([]byte(v.Description), 0), v.Data...)
		default:
			continue
		}
		if !types.ValidRawKey(types.TagAPE, key) {
			return nil, fmt.Errorf("invalid APE item key %q", key)
		}

		flags := kind << 1
		if item.ReadOnly {
			flags |= itemReadOnly
		}
		encoded := binutil.Encode(func(sw *binutil.SafeWriter) {
			binutil.WriteLE(sw, uint32(len(value)))
			binutil.WriteLE(sw, flags)
			sw.WriteCString(key)
			sw.WriteBytes(value)
		})

		if pic, ok := item.Value.(*types.Picture); ok {
			if i, seen := pictures[pic.Type]; seen {
				items[i] = encoded
				continue
			}
			pictures[pic.Type] = len(items)
		}
		items = append(items, encoded)
	}
	if len(items) == 0 {
		return nil, nil
	}

	size := uint32(FooterSize)
	for _, item := range items {
		size += uint32(len(item))
	}
	count := uint32(len(items))

	return binutil.Encode(func(sw *binutil.SafeWriter) {
		writeFooter(sw, size, count, flagHasHeader|flagIsHeader)
		for _, item := range items {
			sw.WriteBytes(item)
		}
		writeFooter(sw, size, count, flagHasHeader)
	}), nil
}
