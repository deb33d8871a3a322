package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

type codec int

const (
	codecVorbis codec = iota
	codecOpus
)

// headers locates the header packets of the first logical stream. The
// identification packet fills the first page; the comment packet (and the
// Vorbis setup packet) follow on pages of their own, and audio starts on
// a fresh page.
type headers struct {
	ident   []byte
	comment []byte // nil unless loaded
	setup   []byte // Vorbis only, nil unless loaded
	start   int64  // first page after the identification page
	end     int64  // end of the last header page
	pages   int    // header pages of this stream in [start, end)
	codec   codec
	serial  uint32
	nextSeq uint32 // sequence number of the first header page after ident
	mixed   bool   // pages of another stream lie in [start, end)
	shared  bool   // audio data starts on the last header page
}

// locate walks the header pages. Packet bodies are only buffered when
// withData is set; packet boundaries come from the segment tables.
func locate(sr *binutil.SafeReader, withData bool) (*headers, error) {
	first, err := ReadPage(sr, 0, true)
	if err != nil {
		return nil, err
	}
	if first.Flags&flagBOS == 0 {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "OGG", Reason: "first page is not a beginning of stream"}
	}
	parts, complete := first.packets()
	if len(parts) != 1 || !complete {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "OGG", Reason: "identification packet does not fill the first page"}
	}

	h := &headers{ident: parts[0], serial: first.Serial, start: first.End(), nextSeq: first.Sequence + 1}
	need := 2
	switch {
	case bytes.HasPrefix(h.ident, vorbisIdent):
		h.codec = codecVorbis
	case bytes.HasPrefix(h.ident, opusHead):
		h.codec, need = codecOpus, 1
	default:
		return nil, &types.UnknownFormatError{Path: sr.Path(), Reason: "unsupported Ogg codec"}
	}

	var packets [][]byte
	var cur []byte
	count := 0
	off := h.start
	for count < need {
		p, err := ReadPage(sr, off, withData)
		if err != nil {
			return nil, err
		}
		off = p.End()
		if p.Serial != h.serial {
			h.mixed = true
			continue
		}
		h.pages++

		pos := 0
		for i, s := range p.Segments {
			if withData {
				cur = append(cur, p.Data[pos:pos+int(s)]...)
			}
			pos += int(s)
			if s == 255 {
				continue
			}
			packets = append(packets, cur)
			cur = nil
			count++
			if count == need {
				h.shared = i != len(p.Segments)-1
				break
			}
		}
	}
	h.end = off

	if withData {
		h.comment = packets[0]
		if h.codec == codecVorbis {
			h.setup = packets[1]
		}
	}
	return h, nil
}

// commentBody strips the codec framing from the comment packet.
func (h *headers) commentBody() ([]byte, error) {
	prefix := opusTags
	if h.codec == codecVorbis {
		prefix = vorbisComment
	}
	if !bytes.HasPrefix(h.comment, prefix) {
		return nil, &types.MalformedHeaderError{Format: "OGG", Reason: fmt.Sprintf("comment packet does not start with %q", prefix), Offset: h.start}
	}
	return h.comment[len(prefix):], nil
}

// Read parses an Ogg Vorbis or Ogg Opus file.
func Read(sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	h, err := locate(sr, opts.ParseTags)
	if err != nil {
		return nil, err
	}
	parsed := &types.Parsed{}
	if err := readProperties(sr, h, parsed); err != nil {
		parsed.PropertiesFailed(0, err)
	}

	if !opts.ParseTags {
		return parsed, nil
	}
	body, err := h.commentBody()
	if err != nil {
		parsed.TagFailed(types.TagVorbisComments, h.start, err)
		return parsed, nil
	}
	c, err := vorbis.Parse(body, h.start)
	if err != nil {
		parsed.TagFailed(types.TagVorbisComments, h.start, err)
		return parsed, nil
	}
	parsed.Warnings = append(parsed.Warnings, c.Warnings...)
	if !c.Tag.IsEmpty() {
		parsed.AddTag(c.Tag)
	}
	return parsed, nil
}

// readProperties derives stream properties from the identification
// header and the granule position of the last page.
func readProperties(sr *binutil.SafeReader, h *headers, parsed *types.Parsed) error {
	granule, found, err := lastGranule(sr, h.serial)
	if err != nil {
		return err
	}

	var props types.FileProperties
	var samples uint64
	switch h.codec {
	case codecVorbis:
		info, err := parseVorbisIdent(h.ident)
		if err != nil {
			return err
		}
		props.SampleRate = int(info.sampleRate)
		props.Channels = int(info.channels)
		if found {
			samples = granule
		}
		if info.nominalBitrate > 0 {
			props.AudioBitrate = int(info.nominalBitrate)
		}
	case codecOpus:
		info, err := parseOpusHead(h.ident)
		if err != nil {
			return err
		}
		props.SampleRate = opusOutputRate
		if info.inputRate > 0 {
			props.SampleRate = int(info.inputRate)
		}
		props.Channels = int(info.channels)
		if found && granule > uint64(info.preSkip) {
			samples = granule - uint64(info.preSkip)
		}
	}

	if samples > 0 {
		rate := props.SampleRate
		if h.codec == codecOpus {
			rate = opusOutputRate
		}
		props.Duration = types.DurationFromSamples(samples, rate)
		props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
		props.AudioBitrate = types.Bitrate(sr.Size()-h.end, props.Duration)
	}
	parsed.Properties = props
	return nil
}

// lastGranule finds the granule position of the last page of serial that
// completes a packet.
func lastGranule(sr *binutil.SafeReader, serial uint32) (uint64, bool, error) {
	// Largest possible page
	const window = pageHeaderSize + maxSegments + maxSegments*255
	start := max(0, sr.Size()-window)
	buf, err := sr.ReadBytes(start, int(sr.Size()-start), "Ogg tail")
	if err != nil {
		return 0, false, err
	}
	for i := len(buf) - pageHeaderSize; i >= 0; i-- {
		if string(buf[i:i+4]) != "OggS" || buf[i+4] != 0 {
			continue
		}
		if binary.LittleEndian.Uint32(buf[i+14:]) != serial {
			continue
		}
		if g := binary.LittleEndian.Uint64(buf[i+6:]); g != granuleNone {
			return g, true, nil
		}
	}
	return 0, false, nil
}
