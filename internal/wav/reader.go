package wav

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/iff"
	"github.com/simonhull/audiotag/internal/types"
)

// WAVE format tags.
const (
	formatPCM        = 0x0001
	formatFloat      = 0x0003
	formatExtensible = 0xFFFE
)

func open(sr *binutil.SafeReader) (*iff.Container, error) {
	return iff.Open(sr, binutil.LittleEndian, "WAV", "RIFF", "WAVE")
}

// isID3 reports whether a chunk holds an ID3v2 tag. Both spellings occur.
func isID3(c iff.Chunk) bool {
	return c.ID == "ID3 " || c.ID == "id3 "
}

// isInfo reports whether c is a LIST chunk of type INFO.
func isInfo(sr *binutil.SafeReader, c iff.Chunk) (bool, error) {
	if c.ID != "LIST" || c.Size < 4 || c.DataOffset()+4 > sr.Size() {
		return false, nil
	}
	typ, err := sr.ReadBytes(c.DataOffset(), 4, "LIST type")
	if err != nil {
		return false, err
	}
	return string(typ) == "INFO", nil
}

// Read parses a WAVE file. Unknown chunks are skipped by their declared
// size. A chunk list that breaks off mid-file keeps the chunks before the
// break and records a warning.
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

	if props, err := readProperties(sr, c.Chunks); err != nil {
		parsed.PropertiesFailed(0, err)
	} else {
		parsed.Properties = props
	}

	if !opts.ParseTags {
		return parsed, nil
	}
	seen := make(map[types.TagType]bool)
	for _, ch := range c.Chunks {
		var (
			tag      *types.Tag
			warnings []types.Warning
			typ      types.TagType
		)
		info, err := isInfo(sr, ch)
		if err != nil {
			return nil, err
		}
		switch {
		case info:
			typ = types.TagRIFFInfo
		case isID3(ch):
			typ = types.TagID3v2
		default:
			continue
		}
		if seen[typ] {
			parsed.Warn("tag", ch.Offset, "duplicate %s chunk ignored", typ)
			continue
		}
		seen[typ] = true

		data, err := iff.Data(sr, ch)
		if err != nil {
			return nil, err
		}
		if typ == types.TagRIFFInfo {
			tag, err = ParseInfo(data[4:], ch.DataOffset()+4)
		} else {
			tag, warnings, err = id3v2.Parse(data, ch.DataOffset())
		}
		if err != nil {
			parsed.TagFailed(typ, ch.Offset, err)
			continue
		}
		parsed.Warnings = append(parsed.Warnings, warnings...)
		if !tag.IsEmpty() {
			parsed.AddTag(tag)
		}
	}
	return parsed, nil
}

// readProperties derives the stream properties from the first fmt, fact
// and data chunks.
//
// PCM and float streams count samples from the data size. Other formats
// need a fact chunk for an exact length; without one the duration comes
// from the average byte rate.
func readProperties(sr *binutil.SafeReader, chunks []iff.Chunk) (types.FileProperties, error) {
	var fmtChunk, fact, data *iff.Chunk
	for i := range chunks {
		c := &chunks[i]
		switch {
		case c.ID == "fmt " && fmtChunk == nil:
			fmtChunk = c
		case c.ID == "fact" && fact == nil:
			fact = c
		case c.ID == "data" && data == nil:
			data = c
		}
	}
	if fmtChunk == nil {
		return types.FileProperties{}, malformedWAV(sr, 0, "missing fmt chunk")
	}
	if data == nil {
		return types.FileProperties{}, malformedWAV(sr, 0, "missing data chunk")
	}

	b, err := iff.Data(sr, *fmtChunk)
	if err != nil {
		return types.FileProperties{}, err
	}
	if len(b) < 16 {
		return types.FileProperties{}, malformedWAV(sr, fmtChunk.Offset, fmt.Sprintf("fmt chunk is %d bytes", len(b)))
	}
	format := binary.LittleEndian.Uint16(b[0:])
	channels := int(binary.LittleEndian.Uint16(b[2:]))
	rate := int(binary.LittleEndian.Uint32(b[4:]))
	byteRate := int(binary.LittleEndian.Uint32(b[8:]))
	bits := int(binary.LittleEndian.Uint16(b[14:]))
	if channels == 0 {
		return types.FileProperties{}, malformedWAV(sr, fmtChunk.Offset, "zero channels")
	}
	if format == formatExtensible {
		if len(b) < 26 {
			return types.FileProperties{}, malformedWAV(sr, fmtChunk.Offset, "extensible fmt chunk too short")
		}
		format = binary.LittleEndian.Uint16(b[24:])
	}

	dataSize := min(int64(data.Size), sr.Size()-data.DataOffset())
	props := types.FileProperties{SampleRate: rate, Channels: channels}

	var samples uint64
	switch {
	case (format == formatPCM || format == formatFloat) && bits > 0:
		props.BitDepth = bits
		samples = uint64(dataSize) / uint64(channels*((bits+7)/8))
	case fact != nil && fact.Size >= 4:
		n, err := binutil.ReadLE[uint32](sr, fact.DataOffset(), "fact sample count")
		if err != nil {
			return types.FileProperties{}, err
		}
		samples = uint64(n)
	}

	switch {
	case samples > 0 && rate > 0:
		props.Duration = types.DurationFromSamples(samples, rate)
		props.AudioBitrate = types.Bitrate(dataSize, props.Duration)
	case byteRate > 0:
		props.Duration = types.DurationFromSamples(uint64(dataSize), byteRate)
		props.AudioBitrate = byteRate * 8
	}
	props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
	return props, nil
}

func malformedWAV(sr *binutil.SafeReader, off int64, reason string) error {
	return &types.MalformedHeaderError{Path: sr.Path(), Format: "WAV", Reason: reason, Offset: off}
}
