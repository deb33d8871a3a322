package id3v2

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// maxInflatedFrame bounds a decompressed frame when no size is declared.
const maxInflatedFrame = 64 << 20

var errShortFrame = errors.New("frame too short")

func errEncoding(enc byte, off int64) error {
	return &types.EncodingError{
		What:    fmt.Sprintf("ID3v2 frame (encoding byte %d)", enc),
		Charset: "unknown",
		Offset:  off,
	}
}

// Read parses the tag at off. It returns the tag, per-frame warnings and
// the size of the tag on disk.
func Read(sr *binary.SafeReader, off int64) (*types.Tag, []types.Warning, int64, error) {
	h, ok, err := FindAt(sr, off)
	if err != nil {
		return nil, nil, 0, err
	}
	if !ok {
		return nil, nil, 0, &types.MalformedHeaderError{Path: sr.Path(), Format: "ID3v2", Reason: "missing ID3 magic", Offset: off}
	}
	size := h.TotalSize()
	data, err := sr.ReadBytes(off, int(min(size, sr.Size()-off)), "ID3v2 tag")
	if err != nil {
		return nil, nil, size, err
	}
	if int64(len(data)) < HeaderSize+int64(h.Size) {
		return nil, nil, size, &types.OutOfBoundsError{
			Path: sr.Path(), What: "ID3v2 tag", Offset: off, Length: int(size), Size: sr.Size(),
		}
	}
	tag, warnings, err := Parse(data, off)
	return tag, warnings, size, err
}

// Parse decodes a complete tag, header included. base is the file offset
// of the tag and only positions warnings.
//
// A frame that cannot be decoded is skipped with a warning; the error
// return is reserved for a tag whose framing is broken.
func Parse(b []byte, base int64) (*types.Tag, []types.Warning, error) { //nolint:gocyclo // Header, extended header and frame loop are sequential
	h, err := ParseHeader(b)
	if err != nil {
		return nil, nil, err
	}
	if int64(len(b)) < HeaderSize+int64(h.Size) {
		return nil, nil, &types.OutOfBoundsError{What: "ID3v2 tag", Offset: base, Length: int(h.Size) + HeaderSize, Size: int64(len(b))}
	}
	if h.Major == 2 && h.Flags&flagExtended != 0 {
		return nil, nil, &types.MalformedHeaderError{Format: "ID3v2", Reason: "compressed ID3v2.2 tags are not supported", Offset: base + 5}
	}

	body := b[HeaderSize : HeaderSize+int(h.Size)]
	if h.Major < 4 && h.Flags&flagUnsync != 0 {
		body = RemoveUnsync(body)
	}

	pos := 0
	if h.Major >= 3 && h.Flags&flagExtended != 0 {
		if len(body) < 4 {
			return nil, nil, &types.MalformedHeaderError{Format: "ID3v2", Reason: "truncated extended header", Offset: base + HeaderSize}
		}
		if h.Major == 3 {
			pos = 4 + int(bigEndian32(body[:4]))
		} else {
			pos = int(DecodeSynchsafe(body[:4]))
		}
		if pos < 4 || pos > len(body) {
			return nil, nil, &types.MalformedHeaderError{
				Format: "ID3v2",
				Reason: fmt.Sprintf("extended header size %d exceeds tag", pos),
				Offset: base + HeaderSize,
			}
		}
	}

	d := decoder{
		tag:       types.NewTag(types.TagID3v2),
		major:     h.Major,
		tagUnsync: h.Flags&flagUnsync != 0,
	}

	headerLen, idLen := 10, 4
	if h.Major == 2 {
		headerLen, idLen = 6, 3
	}

	for len(body)-pos >= headerLen {
		// Padding
		if body[pos] == 0 {
			break
		}
		frameOff := base + HeaderSize + int64(pos)
		rawID := body[pos : pos+idLen]
		if !validFrameID(rawID) {
			d.warn(frameOff, "invalid frame id %q, ignoring rest of tag", rawID)
			break
		}

		var size int
		var flags uint16
		switch h.Major {
		case 2:
			size = int(body[pos+3])<<16 | int(body[pos+4])<<8 | int(body[pos+5])
		case 3:
			size = int(bigEndian32(body[pos+4 : pos+8]))
			flags = uint16(body[pos+8])<<8 | uint16(body[pos+9])
		default:
			size = frameSize24(body, pos)
			flags = uint16(body[pos+8])<<8 | uint16(body[pos+9])
		}

		start := pos + headerLen
		if size > len(body)-start {
			d.warn(frameOff, "frame %s size %d exceeds tag, ignoring rest of tag", rawID, size)
			break
		}
		pos = start + size

		id, ok := upgradeID(string(rawID), h.Major)
		if !ok {
			d.warn(frameOff, "ID3v2.2 frame %s has no ID3v2.4 equivalent, skipped", rawID)
			continue
		}
		d.frame(id, body[start:pos], flags, frameOff)
	}

	return d.tag, d.warnings, nil
}

// frameSize24 reads a v2.4 frame size. Some writers stored plain 32-bit
// sizes in v2.4 tags; a size with high bits set cannot be synchsafe and is
// read as such.
func frameSize24(body []byte, pos int) int {
	raw := body[pos+4 : pos+8]
	if (raw[0]|raw[1]|raw[2]|raw[3])&0x80 != 0 {
		return int(bigEndian32(raw))
	}
	return int(DecodeSynchsafe(raw))
}

func bigEndian32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// decoder accumulates items and warnings for one tag.
type decoder struct {
	tag       *types.Tag
	warnings  []types.Warning
	major     byte
	tagUnsync bool
}

func (d *decoder) warn(off int64, format string, args ...any) {
	d.warnings = append(d.warnings, types.Warning{
		Stage:   "item",
		Message: fmt.Sprintf(format, args...),
		Offset:  off,
		Tag:     types.TagID3v2,
		HasTag:  true,
	})
}

func (d *decoder) push(item types.TagItem, off int64) {
	if !d.tag.Push(item) {
		d.warn(off, "frame %s cannot be represented, skipped", item.KeyName())
	}
}

// frame decodes one frame body after undoing its format flags.
func (d *decoder) frame(id string, data []byte, flags uint16, off int64) {
	content, encrypted, err := d.unwrap(data, flags)
	if err != nil {
		d.warn(off, "frame %s: %v", id, err)
		return
	}
	if encrypted {
		d.push(types.NewUnknownItem(id, types.Binary(content)), off)
		return
	}

	items, err := decodeFrame(id, content, d.major, off)
	if err != nil {
		d.warn(off, "frame %s: %v", id, err)
		return
	}
	for _, item := range items {
		d.push(item, off)
	}
}

// unwrap strips the extra header bytes announced by the frame flags,
// removing unsynchronisation and inflating compressed content.
func (d *decoder) unwrap(data []byte, flags uint16) (content []byte, encrypted bool, err error) {
	var compressed bool
	declared := -1

	switch d.major {
	case 3:
		compressed = flags&0x0080 != 0
		encrypted = flags&0x0040 != 0
		if compressed {
			if len(data) < 4 {
				return nil, false, errShortFrame
			}
			declared = int(bigEndian32(data[:4]))
			data = data[4:]
		}
		if encrypted {
			if len(data) < 1 {
				return nil, false, errShortFrame
			}
			data = data[1:]
		}
		if flags&0x0020 != 0 {
			if len(data) < 1 {
				return nil, false, errShortFrame
			}
			data = data[1:]
		}
	case 4:
		if d.tagUnsync || flags&0x0002 != 0 {
			data = RemoveUnsync(data)
		}
		compressed = flags&0x0008 != 0
		encrypted = flags&0x0004 != 0
		if flags&0x0040 != 0 {
			if len(data) < 1 {
				return nil, false, errShortFrame
			}
			data = data[1:]
		}
		if encrypted {
			if len(data) < 1 {
				return nil, false, errShortFrame
			}
			data = data[1:]
		}
		if flags&0x0001 != 0 {
			if len(data) < 4 {
				return nil, false, errShortFrame
			}
			declared = int(DecodeSynchsafe(data[:4]))
			data = data[4:]
		}
	}

	if encrypted || !compressed {
		return data, encrypted, nil
	}
	inflated, err := inflate(data, declared)
	return inflated, false, err
}

func inflate(data []byte, declared int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close() //nolint:errcheck // Read-only

	limit := int64(maxInflatedFrame)
	if declared >= 0 {
		limit = int64(declared)
	}
	out, err := io.ReadAll(io.LimitReader(zr, limit))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// decodeFrame converts one v2.4 frame body into tag items.
func decodeFrame(id string, b []byte, major byte, off int64) ([]types.TagItem, error) {
	switch {
	case id == "TXXX":
		return decodeUserText(b, off)
	case id == "WXXX":
		return decodeUserURL(b, off)
	case id == "COMM" || id == "USLT":
		return decodeLanguageFrame(id, b, off)
	case id == "APIC":
		return decodePicture(b, major, off)
	case isTextFrame(id):
		return decodeTextFrame(id, b, off)
	case id[0] == 'W':
		url := textenc.DecodeLatin1(textenc.TrimNul(b))
		return []types.TagItem{item(id, types.Locator(url))}, nil
	}
	return []types.TagItem{item(id, types.Binary(bytes.Clone(b)))}, nil
}

// item builds an item keyed canonically when the physical key is mapped.
func item(raw string, v types.Value) types.TagItem {
	if key, ok := types.CanonicalKey(types.TagID3v2, raw); ok {
		return types.NewItem(key, v)
	}
	return types.NewUnknownItem(raw, v)
}

func decodeTextFrame(id string, b []byte, off int64) ([]types.TagItem, error) {
	if len(b) < 1 {
		return nil, errShortFrame
	}
	values, err := splitValues(b[1:], b[0], off)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		// A frame holding only its encoding byte is an empty value
		values = []string{""}
	}

	var items []types.TagItem
	for _, v := range values {
		switch id {
		case "TRCK", "TPOS":
			numberKey, totalKey := types.KeyTrackNumber, types.KeyTrackTotal
			if id == "TPOS" {
				numberKey, totalKey = types.KeyDiscNumber, types.KeyDiscTotal
			}
			items = append(items, types.PairItems(v, numberKey, totalKey)...)
		case "TCON":
			items = append(items, item(id, types.Text(resolveGenre(v))))
		default:
			items = append(items, item(id, types.Text(v)))
		}
	}
	return items, nil
}

func decodeUserText(b []byte, off int64) ([]types.TagItem, error) {
	if len(b) < 2 {
		return nil, errShortFrame
	}
	enc := b[0]
	descBytes, rest := cutTerminated(b[1:], enc)
	desc, err := decodeText(descBytes, enc, off)
	if err != nil {
		return nil, err
	}
	values, err := splitValues(rest, enc, off)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		values = []string{""}
	}

	items := make([]types.TagItem, 0, len(values))
	for _, v := range values {
		items = append(items, item("TXXX:"+desc, types.Text(v)))
	}
	return items, nil
}

func decodeUserURL(b []byte, off int64) ([]types.TagItem, error) {
	if len(b) < 2 {
		return nil, errShortFrame
	}
	enc := b[0]
	descBytes, rest := cutTerminated(b[1:], enc)
	desc, err := decodeText(descBytes, enc, off)
	if err != nil {
		return nil, err
	}
	url := textenc.DecodeLatin1(textenc.TrimNul(rest))
	return []types.TagItem{item("WXXX:"+desc, types.Locator(url))}, nil
}

// decodeLanguageFrame decodes COMM and USLT. The language is not kept; a
// frame with a description keeps it in its raw key.
func decodeLanguageFrame(id string, b []byte, off int64) ([]types.TagItem, error) {
	if len(b) < 4 {
		return nil, errShortFrame
	}
	enc := b[0]
	descBytes, rest := cutTerminated(b[4:], enc)
	desc, err := decodeText(descBytes, enc, off)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(trimTerminator(rest, enc), enc, off)
	if err != nil {
		return nil, err
	}

	if desc == "" {
		return []types.TagItem{item(id, types.Text(text))}, nil
	}
	return []types.TagItem{types.NewUnknownItem(id+":"+desc, types.Text(text))}, nil
}

// trimTerminator drops one trailing terminator.
func trimTerminator(b []byte, enc byte) []byte {
	if isUTF16(enc) {
		b = trimOddNul(b)
		if len(b) >= 2 && len(b)%2 == 0 && b[len(b)-1] == 0 && b[len(b)-2] == 0 {
			return b[:len(b)-2]
		}
		return b
	}
	return bytes.TrimSuffix(b, []byte{0})
}

// decodePicture decodes APIC (v2.3+) and PIC (v2.2) frames.
func decodePicture(b []byte, major byte, off int64) ([]types.TagItem, error) {
	if len(b) < 4 {
		return nil, errShortFrame
	}
	enc := b[0]
	rest := b[1:]

	var mime string
	if major == 2 {
		mime = pictureMIME(string(rest[:3]))
		rest = rest[3:]
	} else {
		var mimeBytes []byte
		mimeBytes, rest = cutTerminated(rest, encLatin1)
		mime = textenc.DecodeLatin1(mimeBytes)
	}
	if len(rest) < 1 {
		return nil, errShortFrame
	}

	pic := &types.Picture{Type: types.PictureType(rest[0]), MIMEType: mime}
	descBytes, data := cutTerminated(rest[1:], enc)
	desc, err := decodeText(descBytes, enc, off)
	if err != nil {
		return nil, err
	}
	pic.Description = desc
	pic.Data = bytes.Clone(data)
	if pic.MIMEType == "" {
		pic.MIMEType = types.SniffImageMIME(pic.Data)
	}
	return []types.TagItem{types.NewItem(types.KeyPicture, pic)}, nil
}
