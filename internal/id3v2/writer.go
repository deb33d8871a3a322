package id3v2

import (
	"fmt"
	"strings"

	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// frameBuilder collects the values that end up in one frame.
type frameBuilder struct {
	id     string // frame ID
	desc   string // TXXX/WXXX/COMM/USLT description
	values []string
	value  types.Value // single-value frames
}

// Encode serializes tag as an ID3v2.4 tag: UTF-8 text, synchsafe sizes,
// no padding, no unsynchronisation. Repeated text values of a frame are
// merged into one frame separated by NUL bytes. An empty tag encodes to
// nil.
func Encode(tag *types.Tag) ([]byte, error) {
	frames := buildFrames(tag)
	if len(frames) == 0 {
		return nil, nil
	}

	body := make([]byte, 0, 256)
	for _, f := range frames {
		content := f.content()
		if len(content) > maxSynchsafe {
			return nil, fmt.Errorf("ID3v2 frame %s too large: %d bytes", f.id, len(content))
		}
		body = append(body, f.id...)
		body = append(body, EncodeSynchsafe(uint32(len(content)))...)
		body = append(body, 0, 0)
		body = append(body, content...)
	}
	if len(body) > maxSynchsafe {
		return nil, fmt.Errorf("ID3v2 tag too large: %d bytes", len(body))
	}

	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, 'I', 'D', '3', 4, 0, 0)
	out = append(out, EncodeSynchsafe(uint32(len(body)))...)
	return append(out, body...), nil
}

// buildFrames groups the items of tag into frames in order of first
// appearance.
func buildFrames(tag *types.Tag) []*frameBuilder { //nolint:gocyclo // One case per frame family
	var frames []*frameBuilder
	merged := make(map[string]*frameBuilder)

	mergeText := func(id, desc, value string) {
		slot := id + ":" + desc
		if f, ok := merged[slot]; ok {
			f.values = append(f.values, value)
			return
		}
		f := &frameBuilder{id: id, desc: desc, values: []string{value}}
		merged[slot] = f
		frames = append(frames, f)
	}

	for item := range tag.All() {
		switch item.Key {
		case types.KeyTrackNumber, types.KeyTrackTotal:
			pairFrame(&frames, merged, "TRCK", tag, types.KeyTrackNumber, types.KeyTrackTotal)
			continue
		case types.KeyDiscNumber, types.KeyDiscTotal:
			pairFrame(&frames, merged, "TPOS", tag, types.KeyDiscNumber, types.KeyDiscTotal)
			continue
		case types.KeyPicture:
			frames = append(frames, &frameBuilder{id: "APIC", value: item.Value})
			continue
		}

		raw := item.Raw
		if item.Key != types.KeyUnknown {
			p, ok := types.PhysicalKey(types.TagID3v2, item.Key)
			if !ok {
				continue
			}
			raw = p
		}
		id, desc, _ := strings.Cut(raw, ":")

		if bin, ok := item.Value.(types.Binary); ok {
			frames = append(frames, &frameBuilder{id: id, desc: desc, value: bin})
			continue
		}
		text := types.ValueString(item.Value)

		switch {
		case id == "TXXX" || isTextFrame(id):
			mergeText(id, desc, text)
		default:
			frames = append(frames, &frameBuilder{id: id, desc: desc, values: []string{text}})
		}
	}
	return frames
}

// pairFrame adds the combined "number/total" frame once.
func pairFrame(frames *[]*frameBuilder, merged map[string]*frameBuilder, id string, tag *types.Tag, numberKey, totalKey types.ItemKey) {
	if _, ok := merged[id]; ok {
		return
	}
	value, _ := types.PairText(tag, numberKey, totalKey)
	f := &frameBuilder{id: id, values: []string{value}}
	merged[id] = f
	*frames = append(*frames, f)
}

// content encodes the frame body.
func (f *frameBuilder) content() []byte {
	if bin, ok := f.value.(types.Binary); ok {
		return bin
	}
	if pic, ok := f.value.(*types.Picture); ok {
		return encodePicture(pic)
	}

	switch {
	case f.id == "TXXX":
		out := append([]byte{encUTF8}, f.desc...)
		out = append(out, 0)
		return append(out, strings.Join(f.values, "\x00")...)
	case f.id == "WXXX":
		out := append([]byte{encUTF8}, f.desc...)
		out = append(out, 0)
		return append(out, textenc.EncodeLatin1(f.values[0])...)
	case f.id == "COMM" || f.id == "USLT":
		out := append([]byte{encUTF8}, "eng"...)
		out = append(out, f.desc...)
		out = append(out, 0)
		return append(out, f.values[0]...)
	case isTextFrame(f.id):
		return append([]byte{encUTF8}, strings.Join(f.values, "\x00")...)
	case f.id[0] == 'W':
		return textenc.EncodeLatin1(f.values[0])
	}
	// Text stored under a binary frame ID
	return []byte(f.values[0])
}

func encodePicture(pic *types.Picture) []byte {
	mime := pic.MIMEType
	if mime == "" {
		mime = types.SniffImageMIME(pic.Data)
	}
	out := make([]byte, 0, len(mime)+len(pic.Description)+len(pic.Data)+4)
	out = append(out, encUTF8)
	out = append(out, textenc.EncodeLatin1(mime)...)
	out = append(out, 0, byte(pic.Type))
	out = append(out, pic.Description...)
	out = append(out, 0)
	return append(out, pic.Data...)
}
