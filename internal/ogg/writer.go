package ogg

import (
	"errors"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/vorbis"
)

var (
	errMixedHeaders  = errors.New("ogg: header pages interleave another logical stream")
	errSharedHeaders = errors.New("ogg: audio data shares the last header page")
)

// Write plans replacing the comment packet with tag. The comment packet
// is mandatory, so an empty tag writes one without fields.
//
// The comment packet (and the Vorbis setup packet, which may share its
// pages) is repaginated on the original serial number. When the number
// of header pages changes, the sequence number and checksum of every
// later page of the stream are rewritten; page bodies are never touched.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	h, err := locate(sr, true)
	if err != nil {
		return nil, err
	}
	switch {
	case h.mixed:
		return nil, errMixedHeaders
	case h.shared:
		return nil, errSharedHeaders
	}

	vendor := vorbis.DefaultVendor
	if body, err := h.commentBody(); err == nil {
		if c, err := vorbis.Parse(body, h.start); err == nil {
			vendor = c.Vendor
		}
	}
	comments, err := vorbis.Encode(tag, vendor, true)
	if err != nil {
		return nil, err
	}

	var packets [][]byte
	switch h.codec {
	case codecVorbis:
		packet := append(append([]byte(nil), vorbisComment...), comments...)
		packet = append(packet, 1) // framing bit
		packets = [][]byte{packet, h.setup}
	case codecOpus:
		packets = [][]byte{append(append([]byte(nil), opusTags...), comments...)}
	}

	pages := Paginate(packets, h.serial, h.nextSeq, 0)
	var out []byte
	for _, p := range pages {
		out = append(out, p.Bytes()...)
	}

	plan := patch.NewPlan(sr.Size())
	plan.Replace(h.start, h.end-h.start, out)
	if delta := len(pages) - h.pages; delta != 0 {
		if err := renumber(sr, plan, h, delta); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// renumber shifts the sequence number of every page of the stream after
// the headers by delta and recomputes its checksum.
func renumber(sr *binutil.SafeReader, plan *patch.Plan, h *headers, delta int) error {
	for off := h.end; off < sr.Size(); {
		p, err := ReadPage(sr, off, true)
		if err != nil {
			return err
		}
		off = p.End()
		if p.Serial != h.serial {
			continue
		}
		p.Sequence = uint32(int64(p.Sequence) + int64(delta))
		b := p.Bytes()
		plan.Replace(p.Offset+18, 8, b[18:26])
	}
	return nil
}
