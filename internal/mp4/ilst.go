package mp4

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// Well-known data atom type codes
const (
	dataImplicit = 0
	dataUTF8     = 1
	dataUTF16    = 2
	dataJPEG     = 13
	dataPNG      = 14
	dataSigned   = 21
	dataUnsigned = 22
	dataBMP      = 27
)

const freeform = "----"

// intKeys lists the items stored as big-endian integers, with the width
// they are written at.
var intKeys = map[string]int{
	"tmpo": 2,
	"cpil": 1,
	"pcst": 1,
	"pgap": 1,
	"hdvd": 1,
	"stik": 1,
	"rtng": 1,
	"akID": 1,
	"tves": 4,
	"tvsn": 4,
	"cnID": 4,
	"atID": 4,
	"cmID": 4,
	"geID": 4,
	"sfID": 4,
	"plID": 8,
}

// ParseIlst decodes the payload of an ilst atom. base is the file offset
// of the payload and only positions errors and warnings.
//
// Each item is an atom named by its key holding one or more data atoms:
//
//	data: size(4) "data" version(1) type(3) locale(4) payload
//
// Freeform items ("----") carry mean and name atoms before their data
// and are keyed "----:mean:name".
func ParseIlst(b []byte, base int64) (*types.Tag, []types.Warning, error) {
	tag := types.NewTag(types.TagMP4Ilst)
	var warnings []types.Warning
	warn := func(off int, format string, args ...any) {
		warnings = append(warnings, types.Warning{
			Stage:   "item",
			Message: fmt.Sprintf(format, args...),
			Offset:  base + int64(off),
			Tag:     types.TagMP4Ilst,
			HasTag:  true,
		})
	}

	for pos := 0; pos < len(b); {
		start := pos
		itemType, body, next, err := splitAtom(b, pos, base)
		if err != nil {
			return nil, nil, err
		}
		key := itemType
		var data []dataAtom
		var mean, name string
		for cpos := 0; cpos < len(body); {
			childType, payload, cnext, err := splitAtom(body, cpos, base+int64(pos+8))
			if err != nil {
				return nil, nil, err
			}
			switch childType {
			case "data":
				if len(payload) < 8 {
					warn(start, "%s: data atom too short", key)
					break
				}
				data = append(data, dataAtom{
					typ:     binary.BigEndian.Uint32(payload) & 0x00FFFFFF,
					payload: payload[8:],
					offset:  pos + 8 + cpos + 16,
				})
			case "mean", "name":
				if len(payload) < 4 {
					warn(start, "%s: %s atom too short", key, childType)
					break
				}
				if childType == "mean" {
					mean = string(payload[4:])
				} else {
					name = string(payload[4:])
				}
			}
			cpos = cnext
		}
		pos = next

		if itemType == freeform {
			if mean == "" || name == "" {
				warn(start, "freeform item without mean or name")
				continue
			}
			key = freeform + ":" + mean + ":" + name
		}
		for _, d := range data {
			if msg := addData(tag, key, d); msg != "" {
				warn(d.offset, "%s: %s", key, msg)
			}
		}
	}
	return tag, warnings, nil
}

type dataAtom struct {
	payload []byte
	typ     uint32
	offset  int
}

// splitAtom returns the type and payload of the atom at pos in b and the
// position just past it.
func splitAtom(b []byte, pos int, base int64) (typ string, payload []byte, next int, err error) {
	malformed := func(reason string) error {
		return &types.MalformedHeaderError{Format: "MP4 ilst", Reason: reason, Offset: base + int64(pos)}
	}
	if len(b)-pos < 8 {
		return "", nil, 0, malformed(fmt.Sprintf("%d trailing bytes", len(b)-pos))
	}
	size := int64(binary.BigEndian.Uint32(b[pos:]))
	typ = textenc.DecodeLatin1(b[pos+4 : pos+8])
	if size < 8 || size > int64(len(b)-pos) {
		return "", nil, 0, malformed(fmt.Sprintf("atom %q size %d exceeds its parent", typ, size))
	}
	end := pos + int(size)
	return typ, b[pos+8 : end], end, nil
}

// addData stores one data atom under key. It returns a warning message
// when the payload cannot be decoded.
func addData(tag *types.Tag, key string, d dataAtom) string {
	switch key {
	case "trkn", "disk":
		if len(d.payload) < 6 {
			return fmt.Sprintf("pair payload of %d bytes", len(d.payload))
		}
		numberKey, totalKey := types.KeyTrackNumber, types.KeyTrackTotal
		if key == "disk" {
			numberKey, totalKey = types.KeyDiscNumber, types.KeyDiscTotal
		}
		if n := binary.BigEndian.Uint16(d.payload[2:]); n > 0 {
			tag.Insert(types.NewItem(numberKey, types.Text(strconv.Itoa(int(n)))))
		}
		if n := binary.BigEndian.Uint16(d.payload[4:]); n > 0 {
			tag.Insert(types.NewItem(totalKey, types.Text(strconv.Itoa(int(n)))))
		}
		return ""
	case "covr":
		if len(d.payload) == 0 {
			return "empty picture"
		}
		tag.Push(types.NewItem(types.KeyPicture, &types.Picture{
			MIMEType: pictureMIME(d.typ, d.payload),
			Type:     types.PictureFrontCover,
			Data:     bytes.Clone(d.payload),
		}))
		return ""
	case "gnre":
		// ID3v1 genre index plus one
		if len(d.payload) < 2 {
			return "short genre index"
		}
		if g := id3v1.Genre(int(binary.BigEndian.Uint16(d.payload)) - 1); g != "" {
			tag.Push(types.NewItem(types.KeyGenre, types.Text(g)))
		}
		return ""
	}

	var v types.Value
	_, isInt := intKeys[key]
	switch {
	case d.typ == dataUTF8:
		s, err := textenc.DecodeUTF8(d.payload, "ilst "+key, int64(d.offset))
		if err != nil {
			return err.Error()
		}
		v = types.Text(s)
	case d.typ == dataUTF16:
		s, err := textenc.DecodeUTF16BE(d.payload, "ilst "+key, int64(d.offset))
		if err != nil {
			return err.Error()
		}
		v = types.Text(s)
	case d.typ == dataSigned || d.typ == dataUnsigned || (d.typ == dataImplicit && isInt):
		n, ok := decodeInt(d.payload, d.typ == dataSigned)
		if !ok {
			return fmt.Sprintf("integer payload of %d bytes", len(d.payload))
		}
		v = types.Text(n)
	default:
		v = types.Binary(bytes.Clone(d.payload))
	}

	item := types.NewUnknownItem(key, v)
	if k, ok := types.CanonicalKey(types.TagMP4Ilst, key); ok {
		item = types.NewItem(k, v)
	}
	if !tag.Push(item) {
		return fmt.Sprintf("unsupported value %s", types.ValueString(v))
	}
	return ""
}

func decodeInt(b []byte, signed bool) (string, bool) {
	var u uint64
	switch len(b) {
	case 1, 2, 3, 4, 8:
		for _, c := range b {
			u = u<<8 | uint64(c)
		}
	default:
		return "", false
	}
	if signed && len(b) < 8 && u&(1<<(8*len(b)-1)) != 0 {
		return strconv.FormatInt(int64(u)-int64(1)<<(8*len(b)), 10), true
	}
	if signed {
		return strconv.FormatInt(int64(u), 10), true
	}
	return strconv.FormatUint(u, 10), true
}

func pictureMIME(typ uint32, data []byte) string {
	switch typ {
	case dataJPEG:
		return "image/jpeg"
	case dataPNG:
		return "image/png"
	case dataBMP:
		return "image/bmp"
	}
	return types.SniffImageMIME(data)
}

func pictureDataType(mime string) uint32 {
	switch mime {
	case "image/jpeg", "image/jpg":
		return dataJPEG
	case "image/png":
		return dataPNG
	case "image/bmp":
		return dataBMP
	}
	return dataImplicit
}

// EncodeIlst builds a complete ilst atom for tag, or returns nil when the
// tag holds nothing writable. Items with the same key share one item atom
// with a data atom per value, in the order the keys first appear.
func EncodeIlst(tag *types.Tag) ([]byte, error) {
	type group struct {
		key    string
		values []types.Value
	}
	var groups []*group
	byKey := make(map[string]*group)
	for item := range tag.All() {
		key := item.Raw
		if item.Key != types.KeyUnknown {
			p, ok := types.PhysicalKey(types.TagMP4Ilst, item.Key)
			if !ok {
				continue
			}
			key = p
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.values = append(g.values, item.Value)
	}

	var items [][]byte
	for _, g := range groups {
		var data [][]byte
		switch g.key {
		case "trkn":
			n, total := tag.Track()
			data = append(data, dataBox(dataImplicit, pairPayload(n, total, 8)))
		case "disk":
			n, total := tag.Disc()
			data = append(data, dataBox(dataImplicit, pairPayload(n, total, 6)))
		default:
			for _, v := range g.values {
				box, err := encodeValue(g.key, v)
				if err != nil {
					return nil, err
				}
				data = append(data, box)
			}
		}

		if rest, ok := strings.CutPrefix(g.key, freeform+":"); ok {
			mean, name, _ := strings.Cut(rest, ":")
			head := [][]byte{
				box("mean", []byte{0, 0, 0, 0}, []byte(mean)),
				box("name", []byte{0, 0, 0, 0}, []byte(name)),
			}
			items = append(items, box(freeform, append(head, data...)...))
			continue
		}
		items = append(items, box(g.key, data...))
	}
	if len(items) == 0 {
		return nil, nil
	}

	out := box("ilst", items...)
	if int64(len(out)) > math.MaxUint32 {
		return nil, fmt.Errorf("ilst of %d bytes exceeds the 32-bit atom size", len(out))
	}
	return out, nil
}

func encodeValue(key string, v types.Value) ([]byte, error) {
	switch v := v.(type) {
	case *types.Picture:
		return dataBox(pictureDataType(v.MIMEType), v.Data), nil
	case types.Binary:
		return dataBox(dataImplicit, v), nil
	case types.Locator:
		return dataBox(dataUTF8, []byte(v)), nil
	case types.Text:
		width, ok := intKeys[key]
		if !ok {
			return dataBox(dataUTF8, []byte(v)), nil
		}
		n, err := parseIntText(string(v))
		if err != nil {
			return nil, &types.EncodingError{What: "ilst " + key, Charset: "integer"}
		}
		payload := binary.BigEndian.AppendUint64(nil, uint64(n))
		return dataBox(dataSigned, payload[8-width:]), nil
	}
	return nil, fmt.Errorf("ilst %s: unsupported value %T", key, v)
}

// parseIntText accepts decimal integers and the flag spellings written by
// other taggers.
func parseIntText(s string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return 1, nil
	case "false", "no", "":
		return 0, nil
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// pairPayload encodes a trkn (8 bytes) or disk (6 bytes) payload:
// reserved(2) number(2) total(2) [reserved(2)].
func pairPayload(number, total, size int) []byte {
	b := make([]byte, size)
	binary.BigEndian.PutUint16(b[2:], uint16(min(number, math.MaxUint16)))
	binary.BigEndian.PutUint16(b[4:], uint16(min(total, math.MaxUint16)))
	return b
}

func dataBox(typ uint32, payload []byte) []byte {
	header := binary.BigEndian.AppendUint32(nil, typ)
	return box("data", header, []byte{0, 0, 0, 0}, payload)
}

// box serializes an atom from its type and payload parts.
func box(typ string, parts ...[]byte) []byte {
	size := 8
	for _, p := range parts {
		size += len(p)
	}
	return binutil.Encode(func(sw *binutil.SafeWriter) {
		binutil.Write(sw, uint32(size))
		sw.WriteBytes(textenc.EncodeLatin1(typ))
		for _, p := range parts {
			sw.WriteBytes(p)
		}
	})
}
