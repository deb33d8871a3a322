package aiff

import (
	"encoding/binary"
	"fmt"
	"math"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/types"
)

// commSize is the size of an AIFF COMM chunk; AIFF-C appends the
// compression type and name.
const commSize = 18

// AIFF-C compression types whose sample size is meaningful.
var uncompressed = map[string]bool{
	"NONE": true, "sowt": true, "twos": true, "raw ": true,
	"in24": true, "in32": true, "fl32": true, "fl64": true,
}

func open(sr *binutil.SafeReader) (*iff.Container, error) {
	return iff.Open(sr, binutil.BigEndian, "AIFF", "FORM", "AIFF", "AIFC")
}

func isID3(c iff.Chunk) bool {
	return c.ID == "ID3 " || c.ID == "id3 "
}

// Read parses an AIFF or AIFF-C file. Every text chunk contributes to a
// single AIFFText tag, reported where its first chunk appears.
func Read(sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	c, err := open(sr)
	parsed := &types.Parsed{}
	switch {
	case c == nil:
		return nil, err
	case err != nil && len(c.Chunks) == 0:
		return nil, err
	case err != nil:
		parsed.Warn("probe", 0, "%v", err)
	}

	if props, err := readProperties(sr, c); err != nil {
		parsed.PropertiesFailed(0, err)
	} else {
		parsed.Properties = props
	}

	if !opts.ParseTags {
		return parsed, nil
	}
	var text *types.Tag
	haveID3 := false
	for _, ch := range c.Chunks {
		switch {
		case isText(ch.ID):
			data, err := iff.Data(sr, ch)
			if err != nil {
				return nil, err
			}
			if text == nil {
				text = types.NewTag(types.TagAIFFText)
				parsed.AddTag(text)
			}
			addText(text, ch.ID, data)
		case isID3(ch) && haveID3:
			parsed.Warn("tag", ch.Offset, "duplicate %s chunk ignored", types.TagID3v2)
		case isID3(ch):
			haveID3 = true
			data, err := iff.Data(sr, ch)
			if err != nil {
				return nil, err
			}
			tag, warnings, err := id3v2.Parse(data, ch.DataOffset())
			if err != nil {
				parsed.TagFailed(types.TagID3v2, ch.Offset, err)
				continue
			}
			parsed.Warnings = append(parsed.Warnings, warnings...)
			if !tag.IsEmpty() {
				parsed.AddTag(tag)
			}
		}
	}
	if text != nil && text.IsEmpty() {
		parsed.Tags = removeTag(parsed.Tags, text)
	}
	return parsed, nil
}

func removeTag(tags []*types.Tag, t *types.Tag) []*types.Tag {
	out := tags[:0]
	for _, tag := range tags {
		if tag != t {
			out = append(out, tag)
		}
	}
	return out
}

// readProperties decodes the first COMM chunk:
//
//	channels(16) frames(32) sampleSize(16) sampleRate(80-bit extended)
//	[compressionType(32) compressionName(pstring)]   AIFF-C only
//
// The audio bitrate covers the SSND sound data, without its offset and
// block size fields.
func readProperties(sr *binutil.SafeReader, c *iff.Container) (types.FileProperties, error) {
	var comm, ssnd *iff.Chunk
	for i := range c.Chunks {
		ch := &c.Chunks[i]
		switch {
		case ch.ID == "COMM" && comm == nil:
			comm = ch
		case ch.ID == "SSND" && ssnd == nil:
			ssnd = ch
		}
	}
	if comm == nil {
		return types.FileProperties{}, malformedAIFF(sr, 0, "missing COMM chunk")
	}
	b, err := iff.Data(sr, *comm)
	if err != nil {
		return types.FileProperties{}, err
	}
	if len(b) < commSize {
		return types.FileProperties{}, malformedAIFF(sr, comm.Offset, fmt.Sprintf("COMM chunk is %d bytes", len(b)))
	}

	channels := int(binary.BigEndian.Uint16(b[0:]))
	frames := binary.BigEndian.Uint32(b[2:])
	sampleSize := int(binary.BigEndian.Uint16(b[6:]))
	rate, ok := parseExtended(b[8:18])
	if !ok || channels == 0 {
		return types.FileProperties{}, malformedAIFF(sr, comm.Offset, "invalid sample rate or channel count")
	}

	props := types.FileProperties{
		SampleRate: int(rate),
		Channels:   channels,
		BitDepth:   sampleSize,
	}
	if c.Header.Form == "AIFC" {
		if len(b) < commSize+4 {
			return types.FileProperties{}, malformedAIFF(sr, comm.Offset, "AIFF-C COMM chunk lacks a compression type")
		}
		if !uncompressed[string(b[18:22])] {
			props.BitDepth = 0
		}
	}
	props.Duration = types.DurationFromSamples(uint64(frames), props.SampleRate)

	if ssnd != nil {
		audio := min(int64(ssnd.Size), sr.Size()-ssnd.DataOffset()) - 8
		props.AudioBitrate = types.Bitrate(audio, props.Duration)
	}
	props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
	return props, nil
}

// parseExtended decodes an IEEE 754 80-bit extended float: sign(1)
// exponent(15) mantissa(64) with an explicit integer bit. Only positive
// finite rates below 2^31 are accepted.
func parseExtended(b []byte) (float64, bool) {
	se := binary.BigEndian.Uint16(b)
	mantissa := binary.BigEndian.Uint64(b[2:])
	exp := int(se & 0x7FFF)
	if se&0x8000 != 0 || exp == 0x7FFF || mantissa == 0 {
		return 0, false
	}
	v := math.Ldexp(float64(mantissa), exp-16383-63)
	if v < 1 || v >= 1<<31 {
		return 0, false
	}
	return v, true
}

func malformedAIFF(sr *binutil.SafeReader, off int64, reason string) error {
	return &types.MalformedHeaderError{Path: sr.Path(), Format: "AIFF", Reason: reason, Offset: off}
}
