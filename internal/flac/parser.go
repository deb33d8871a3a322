// Package flac reads and rewrites the metadata blocks of native FLAC
// streams.
//
// A stream is "fLaC" followed by metadata blocks, each with a 4-byte
// header [last(1) type(7) length(24)], then audio frames. STREAMINFO is
// always the first block.
package flac

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// Metadata block types
const (
	blockStreamInfo    = 0
	blockPadding       = 1
	blockApplication   = 2
	blockSeekTable     = 3
	blockVorbisComment = 4
	blockCueSheet      = 5
	blockPicture       = 6
	blockInvalid       = 127
)

const (
	blockHeaderSize = 4
	streamInfoSize  = 34
	maxBlockSize    = 1<<24 - 1
)

// Block is a metadata block header.
type Block struct {
	Offset int64 // block header
	Length int64 // body length
	Type   byte
	Last   bool
}

// DataOffset returns the offset of the block body.
func (b Block) DataOffset() int64 { return b.Offset + blockHeaderSize }

// End returns the offset just past the block.
func (b Block) End() int64 { return b.DataOffset() + b.Length }

// Stream is the located metadata region of a FLAC file.
type Stream struct {
	Blocks     []Block
	Start      int64 // "fLaC", after any leading ID3v2 tag
	AudioStart int64
}

// Locate walks the metadata blocks without reading their bodies.
func Locate(sr *binary.SafeReader) (*Stream, error) {
	start, err := id3v2.Skip(sr, 0)
	if err != nil {
		return nil, err
	}
	magic, err := sr.ReadBytes(start, 4, "FLAC magic")
	if err != nil {
		return nil, err
	}
	if string(magic) != "fLaC" {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "FLAC", Reason: "missing fLaC marker", Offset: start}
	}

	s := &Stream{Start: start}
	off := start + 4
	for {
		header, err := binary.Read[uint32](sr, off, "FLAC block header")
		if err != nil {
			return nil, err
		}
		b := Block{
			Offset: off,
			Type:   byte(header>>24) & 0x7F,
			Last:   header>>31 == 1,
			Length: int64(header & 0x00FFFFFF),
		}
		if b.Type == blockInvalid {
			return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "FLAC", Reason: "invalid block type 127", Offset: off}
		}
		if b.End() > sr.Size() {
			return nil, &types.OutOfBoundsError{Path: sr.Path(), What: fmt.Sprintf("FLAC block type %d", b.Type), Offset: b.DataOffset(), Length: int(b.Length), Size: sr.Size()}
		}
		if len(s.Blocks) == 0 && b.Type != blockStreamInfo {
			return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "FLAC", Reason: "first block is not STREAMINFO", Offset: off}
		}
		s.Blocks = append(s.Blocks, b)
		off = b.End()
		if b.Last {
			break
		}
	}
	s.AudioStart = off
	return s, nil
}

// find returns the first block of type t.
func (s *Stream) find(t byte) (Block, bool) {
	for _, b := range s.Blocks {
		if b.Type == t {
			return b, true
		}
	}
	return Block{}, false
}

// Read parses a FLAC file. The Vorbis comment block and every PICTURE
// block form one VorbisComments tag.
func Read(sr *binary.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	s, err := Locate(sr)
	if err != nil {
		return nil, err
	}
	parsed := &types.Parsed{}

	info := s.Blocks[0]
	props, err := readStreamInfo(sr, info)
	if err != nil {
		parsed.PropertiesFailed(info.DataOffset(), err)
	} else {
		if props.Duration > 0 {
			props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
			props.AudioBitrate = types.Bitrate(sr.Size()-s.AudioStart, props.Duration)
		}
		parsed.Properties = props
	}

	if !opts.ParseTags {
		return parsed, nil
	}

	var tag *types.Tag
	var pictures []*types.Picture
	for _, b := range s.Blocks {
		switch b.Type {
		case blockVorbisComment:
			if tag != nil {
				parsed.Warn("tag", b.Offset, "duplicate VORBIS_COMMENT block ignored")
				continue
			}
			data, err := sr.ReadBytes(b.DataOffset(), int(b.Length), "VORBIS_COMMENT block")
			if err != nil {
				return nil, err
			}
			c, err := vorbis.Parse(data, b.DataOffset())
			if err != nil {
				parsed.TagFailed(types.TagVorbisComments, b.Offset, err)
				continue
			}
			tag = c.Tag
			parsed.Warnings = append(parsed.Warnings, c.Warnings...)
		case blockPicture:
			data, err := sr.ReadBytes(b.DataOffset(), int(b.Length), "PICTURE block")
			if err != nil {
				return nil, err
			}
			pic, err := vorbis.ParsePicture(data)
			if err != nil {
				parsed.Warnings = append(parsed.Warnings, types.Warning{
					Err: err, Stage: "picture", Message: err.Error(), Offset: b.Offset,
					Tag: types.TagVorbisComments, HasTag: true,
				})
				continue
			}
			pictures = append(pictures, pic)
		}
	}

	if tag == nil && len(pictures) > 0 {
		tag = types.NewTag(types.TagVorbisComments)
	}
	for _, pic := range pictures {
		tag.Push(types.NewItem(types.KeyPicture, pic))
	}
	if tag != nil && !tag.IsEmpty() {
		parsed.AddTag(tag)
	}
	return parsed, nil
}

// readStreamInfo decodes the 34-byte STREAMINFO block:
//
//	minBlock(16) maxBlock(16) minFrame(24) maxFrame(24)
//	sampleRate(20) channels-1(3) bits-1(5) totalSamples(36) md5(128)
func readStreamInfo(sr *binary.SafeReader, b Block) (types.FileProperties, error) {
	if b.Length < streamInfoSize {
		return types.FileProperties{}, &types.MalformedHeaderError{
			Path: sr.Path(), Format: "FLAC", Reason: fmt.Sprintf("STREAMINFO is %d bytes", b.Length), Offset: b.Offset,
		}
	}
	packed, err := binary.Read[uint64](sr, b.DataOffset()+10, "STREAMINFO")
	if err != nil {
		return types.FileProperties{}, err
	}

	sampleRate := int(packed >> 44 & 0xFFFFF)
	totalSamples := packed & 0xFFFFFFFFF
	props := types.FileProperties{
		SampleRate: sampleRate,
		Channels:   int(packed>>41&0x7) + 1,
		BitDepth:   int(packed>>36&0x1F) + 1,
	}
	if sampleRate > 0 && totalSamples > 0 {
		props.Duration = types.DurationFromSamples(totalSamples, sampleRate)
	}
	return props, nil
}
