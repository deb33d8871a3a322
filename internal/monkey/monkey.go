// Package monkey reads and writes Monkey's Audio (.ape) files. The stream
// properties come from the MAC header; tags follow the MP3 layout with an
// APEv2 tag as the native one.
package monkey

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/mpeg"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	magic = "MAC "

	// descriptorVersion is the first version with a descriptor ahead of
	// the header.
	descriptorVersion = 3980

	descriptorSize = 52
	headerSize     = 24 // after the descriptor
	oldHeaderSize  = 32 // magic and version included
)

// Old format flags.
const (
	flag8Bit  = 1 << 0
	flag24Bit = 1 << 3
)

// Header is the decoded MAC header.
type Header struct {
	Version          uint16
	CompressionLevel uint16
	BlocksPerFrame   uint32
	FinalFrameBlocks uint32
	TotalFrames      uint32
	BitsPerSample    int
	Channels         int
	SampleRate       int
}

// Samples returns the number of samples per channel in the stream.
func (h Header) Samples() uint64 {
	if h.TotalFrames == 0 {
		return 0
	}
	return uint64(h.TotalFrames-1)*uint64(h.BlocksPerFrame) + uint64(h.FinalFrameBlocks)
}

// Read parses a Monkey's Audio file.
func Read(sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	l, err := mpeg.LocateTags(sr)
	if err != nil {
		return nil, err
	}
	if err := checkMagic(sr, l.ID3v2End); err != nil {
		return nil, err
	}

	parsed := &types.Parsed{}
	if props, err := readProperties(sr, l); err != nil {
		parsed.PropertiesFailed(l.ID3v2End, err)
	} else {
		parsed.Properties = props
	}

	if opts.ParseTags {
		if err := mpeg.ReadTags(sr, l, parsed); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

// Write plans replacing the APE, ID3v2 or ID3v1 tag of a Monkey's Audio
// file.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	switch tag.Type() {
	case types.TagAPE, types.TagID3v2, types.TagID3v1:
	default:
		return nil, &types.UnsupportedTagError{FileType: types.FileTypeAPE, TagType: tag.Type()}
	}
	l, err := mpeg.LocateTags(sr)
	if err != nil {
		return nil, err
	}
	if err := checkMagic(sr, l.ID3v2End); err != nil {
		return nil, err
	}
	return mpeg.WriteTags(sr, l, types.FileTypeAPE, tag)
}

func checkMagic(sr *binutil.SafeReader, off int64) error {
	b, err := sr.ReadBytes(off, 4, "MAC magic")
	if err != nil {
		return err
	}
	if string(b) != magic {
		return malformed(sr, off, fmt.Sprintf("expected %q, found %q", magic, b))
	}
	return nil
}

// ReadHeader decodes the MAC header at off, which points at the magic.
func ReadHeader(sr *binutil.SafeReader, off int64) (Header, error) {
	b, err := sr.ReadBytes(off, 8, "MAC header")
	if err != nil {
		return Header{}, err
	}
	version := binary.LittleEndian.Uint16(b[4:])
	var h Header
	if version >= descriptorVersion {
		h, err = readNewHeader(sr, off)
	} else {
		h, err = readOldHeader(sr, off)
	}
	if err != nil {
		return Header{}, err
	}
	h.Version = version

	switch {
	case h.Channels < 1 || h.Channels > 32:
		return Header{}, malformed(sr, off, fmt.Sprintf("invalid channel count %d", h.Channels))
	case h.SampleRate == 0:
		return Header{}, malformed(sr, off, "zero sample rate")
	case h.TotalFrames == 0:
		return Header{}, malformed(sr, off, "stream has no frames")
	}
	return h, nil
}

// readNewHeader decodes the descriptor and the header that follows it:
//
//	descriptor: magic(4) version(2) pad(2) descriptorBytes(4) ...
//	header:     compression(2) flags(2) blocksPerFrame(4) finalFrameBlocks(4)
//	            totalFrames(4) bitsPerSample(2) channels(2) sampleRate(4)
func readNewHeader(sr *binutil.SafeReader, off int64) (Header, error) {
	d, err := sr.ReadBytes(off, descriptorSize, "MAC descriptor")
	if err != nil {
		return Header{}, err
	}
	// A longer descriptor carries fields this reader skips
	descLen := int64(max(binary.LittleEndian.Uint32(d[8:]), descriptorSize))
	b, err := sr.ReadBytes(off+descLen, headerSize, "MAC header")
	if err != nil {
		return Header{}, err
	}
	return Header{
		CompressionLevel: binary.LittleEndian.Uint16(b[0:]),
		BlocksPerFrame:   binary.LittleEndian.Uint32(b[4:]),
		FinalFrameBlocks: binary.LittleEndian.Uint32(b[8:]),
		TotalFrames:      binary.LittleEndian.Uint32(b[12:]),
		BitsPerSample:    int(binary.LittleEndian.Uint16(b[16:])),
		Channels:         int(binary.LittleEndian.Uint16(b[18:])),
		SampleRate:       int(binary.LittleEndian.Uint32(b[20:])),
	}, nil
}

// readOldHeader decodes the header of files before the descriptor:
//
//	magic(4) version(2) compression(2) flags(2) channels(2) sampleRate(4)
//	wavHeaderBytes(4) wavTerminatingBytes(4) totalFrames(4) finalFrameBlocks(4)
//
// The frame size depends on the version and compression level.
func readOldHeader(sr *binutil.SafeReader, off int64) (Header, error) {
	b, err := sr.ReadBytes(off, oldHeaderSize, "MAC header")
	if err != nil {
		return Header{}, err
	}
	version := binary.LittleEndian.Uint16(b[4:])
	h := Header{
		CompressionLevel: binary.LittleEndian.Uint16(b[6:]),
		Channels:         int(binary.LittleEndian.Uint16(b[10:])),
		SampleRate:       int(binary.LittleEndian.Uint32(b[12:])),
		TotalFrames:      binary.LittleEndian.Uint32(b[24:]),
		FinalFrameBlocks: binary.LittleEndian.Uint32(b[28:]),
		BitsPerSample:    16,
	}
	switch flags := binary.LittleEndian.Uint16(b[8:]); {
	case flags&flag8Bit != 0:
		h.BitsPerSample = 8
	case flags&flag24Bit != 0:
		h.BitsPerSample = 24
	}
	switch {
	case version >= 3950:
		h.BlocksPerFrame = 73728 * 4
	case version >= 3900 || (version >= 3800 && h.CompressionLevel >= 4000):
		h.BlocksPerFrame = 73728
	default:
		h.BlocksPerFrame = 9216
	}
	return h, nil
}

func readProperties(sr *binutil.SafeReader, l mpeg.Layout) (types.FileProperties, error) {
	h, err := ReadHeader(sr, l.ID3v2End)
	if err != nil {
		return types.FileProperties{}, err
	}
	props := types.FileProperties{
		Duration:   types.DurationFromSamples(h.Samples(), h.SampleRate),
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		BitDepth:   h.BitsPerSample,
	}
	props.AudioBitrate = types.Bitrate(l.AudioEnd()-l.ID3v2End, props.Duration)
	props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
	return props, nil
}

func malformed(sr *binutil.SafeReader, off int64, reason string) error {
	return &types.MalformedHeaderError{Path: sr.Path(), Format: "Monkey's Audio", Reason: reason, Offset: off}
}
