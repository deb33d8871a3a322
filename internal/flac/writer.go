package flac

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

// growPadding is the PADDING left behind when a rewrite outgrows the
// existing metadata region, so later edits can stay in place.
const growPadding = 1024

// Write plans replacing the Vorbis comment and PICTURE blocks with tag.
// An empty tag removes them.
//
// Every other block keeps its bytes and relative order. PADDING absorbs
// the size change when it can, so the audio frames usually do not move.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	s, err := Locate(sr)
	if err != nil {
		return nil, err
	}

	vendor := vorbis.DefaultVendor
	if b, ok := s.find(blockVorbisComment); ok {
		data, err := sr.ReadBytes(b.DataOffset(), int(b.Length), "VORBIS_COMMENT block")
		if err != nil {
			return nil, err
		}
		if c, err := vorbis.Parse(data, b.DataOffset()); err == nil {
			vendor = c.Vendor
		}
	}

	tagBlocks, err := encodeTagBlocks(tag, vendor)
	if err != nil {
		return nil, err
	}

	var blocks []rawBlock
	placed := false
	for _, b := range s.Blocks {
		switch b.Type {
		case blockVorbisComment, blockPicture:
			if !placed {
				blocks = append(blocks, tagBlocks...)
				placed = true
			}
			continue
		case blockPadding:
			continue
		}
		data, err := sr.ReadBytes(b.DataOffset(), int(b.Length), "FLAC block")
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, rawBlock{typ: b.Type, data: data})
		if b.Type == blockStreamInfo && !placed && !hasTagBlocks(s) {
			blocks = append(blocks, tagBlocks...)
			placed = true
		}
	}

	region := s.AudioStart - (s.Start + 4)
	var used int64
	for _, b := range blocks {
		used += blockHeaderSize + int64(len(b.data))
	}
	switch room := region - used - blockHeaderSize; {
	case used == region:
	case room >= 0:
		blocks = append(blocks, rawBlock{typ: blockPadding, data: make([]byte, min(room, maxBlockSize))})
	default:
		blocks = append(blocks, rawBlock{typ: blockPadding, data: make([]byte, growPadding)})
	}

	out := make([]byte, 0, region)
	for i, b := range blocks {
		header := uint32(b.typ)<<24 | uint32(len(b.data))
		if i == len(blocks)-1 {
			header |= 1 << 31
		}
		out = binary.BigEndian.AppendUint32(out, header)
		out = append(out, b.data...)
	}

	plan := patch.NewPlan(sr.Size())
	plan.Replace(s.Start+4, region, out)
	return plan, nil
}

type rawBlock struct {
	data []byte
	typ  byte
}

func hasTagBlocks(s *Stream) bool {
	for _, b := range s.Blocks {
		if b.Type == blockVorbisComment || b.Type == blockPicture {
			return true
		}
	}
	return false
}

// encodeTagBlocks builds the VORBIS_COMMENT block followed by one PICTURE
// block per picture.
func encodeTagBlocks(tag *types.Tag, vendor string) ([]rawBlock, error) {
	if tag.IsEmpty() {
		return nil, nil
	}
	comments, err := vorbis.Encode(tag, vendor, false)
	if err != nil {
		return nil, err
	}
	blocks := []rawBlock{{typ: blockVorbisComment, data: comments}}
	for _, pic := range tag.Pictures() {
		blocks = append(blocks, rawBlock{typ: blockPicture, data: vorbis.EncodePicture(pic)})
	}
	for _, b := range blocks {
		if len(b.data) > maxBlockSize {
			return nil, fmt.Errorf("FLAC block type %d too large: %d bytes", b.typ, len(b.data))
		}
	}
	return blocks, nil
}
