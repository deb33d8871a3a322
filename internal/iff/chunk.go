// Package iff walks and builds the FourCC + size chunk layout shared by
// RIFF (little-endian) and AIFF (big-endian) files.
package iff

import (
	"fmt"
	"math"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// HeaderSize is the size of the container header: magic, size, form type.
const HeaderSize = 12

// Chunk locates one chunk in the source.
type Chunk struct {
	ID     string
	Offset int64  // start of the chunk header
	Size   uint32 // declared data size, without the pad byte

	// Truncated is set when the declared data runs past the end of the
	// container. The chunk is the last one returned.
	Truncated bool
}

// DataOffset returns the offset of the chunk data.
func (c Chunk) DataOffset() int64 {
	return c.Offset + 8
}

// End returns the offset just past the chunk, including the pad byte that
// follows odd-sized data.
func (c Chunk) End() int64 {
	return c.DataOffset() + int64(c.Size) + int64(c.Size&1)
}

// Header is the 12-byte container header.
type Header struct {
	Magic string // "RIFF" or "FORM"
	Form  string // "WAVE", "AIFF", "AIFC"
	Size  uint32
}

// ReadHeader reads the container header and checks its magic and form
// type against the allowed values.
func ReadHeader(sr *binary.SafeReader, order binary.Endianness, format, magic string, forms ...string) (Header, error) {
	buf, err := sr.ReadBytes(0, HeaderSize, format+" header")
	if err != nil {
		return Header{}, err
	}

	h := Header{Magic: string(buf[0:4]), Form: string(buf[8:12])}
	if h.Magic != magic {
		return Header{}, &types.MalformedHeaderError{
			Path:   sr.Path(),
			Format: format,
			Reason: fmt.Sprintf("expected %q magic, found %q", magic, h.Magic),
		}
	}
	valid := false
	for _, f := range forms {
		valid = valid || h.Form == f
	}
	if !valid {
		return Header{}, &types.MalformedHeaderError{
			Path:   sr.Path(),
			Format: format,
			Reason: fmt.Sprintf("unexpected form type %q", h.Form),
			Offset: 8,
		}
	}
	h.Size, err = binary.ReadEndian[uint32](sr, 4, format+" size", order)
	return h, err
}

// Walker iterates over the chunks in [start, end).
//
// Example:
//
//	w := iff.NewWalker(sr, iff.HeaderSize, sr.Size(), binary.LittleEndian)
//	for w.Next() {
//		c := w.Chunk()
//		...
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	sr    *binary.SafeReader
	chunk Chunk
	err   error
	pos   int64
	end   int64
	order binary.Endianness
	done  bool
}

// NewWalker creates a walker over [start, end) with the given byte order.
func NewWalker(sr *binary.SafeReader, start, end int64, order binary.Endianness) *Walker {
	return &Walker{sr: sr, pos: start, end: min(end, sr.Size()), order: order}
}

// Next advances to the next chunk. It returns false at the end of the
// range, after a truncated chunk, or on error.
func (w *Walker) Next() bool {
	if w.done || w.err != nil {
		return false
	}
	// Trailing bytes too short for a chunk header are ignored
	if w.end-w.pos < 8 {
		w.done = true
		return false
	}

	hdr, err := w.sr.ReadBytes(w.pos, 8, "chunk header")
	if err != nil {
		w.err = err
		return false
	}
	if !validID(hdr[:4]) {
		w.err = &types.MalformedHeaderError{
			Path:   w.sr.Path(),
			Format: "chunk",
			Reason: fmt.Sprintf("invalid chunk id %q", hdr[:4]),
			Offset: w.pos,
		}
		return false
	}

	var size uint32
	if w.order == binary.LittleEndian {
		size = uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	} else {
		size = uint32(hdr[7]) | uint32(hdr[6])<<8 | uint32(hdr[5])<<16 | uint32(hdr[4])<<24
	}

	w.chunk = Chunk{ID: string(hdr[:4]), Offset: w.pos, Size: size}
	if w.chunk.DataOffset()+int64(size) > w.end {
		w.chunk.Truncated = true
		w.done = true
		return true
	}
	w.pos = min(w.chunk.End(), w.end)
	return true
}

// Chunk returns the current chunk.
func (w *Walker) Chunk() Chunk {
	return w.chunk
}

// Err returns the error that stopped the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// Data reads the chunk data, clamped to the end of the source for a
// truncated chunk.
func Data(sr *binary.SafeReader, c Chunk) ([]byte, error) {
	n := int64(c.Size)
	if avail := sr.Size() - c.DataOffset(); n > avail {
		n = max(avail, 0)
	}
	return sr.ReadBytes(c.DataOffset(), int(n), c.ID+" chunk")
}

// Build serializes a chunk with its header and pad byte.
func Build(id string, data []byte, order binary.Endianness) []byte {
	out := make([]byte, 0, 8+len(data)+1)
	out = append(out, id...)
	out = binary.AppendUint32(out, uint32(len(data)), order)
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// PatchContainerSize schedules rewriting the size field of the container
// described by h by the plan's byte delta. Call it after every other edit
// is planned.
func PatchContainerSize(p *patch.Plan, h Header, order binary.Endianness) error {
	size := int64(h.Size) + p.Delta()
	if size < 4 || size > math.MaxUint32 {
		return fmt.Errorf("%s container size %d out of range", h.Magic, size)
	}
	buf := make([]byte, 4)
	binary.PutUint32(buf, uint32(size), order)
	p.Replace(4, 4, buf)
	return nil
}

func validID(id []byte) bool {
	for _, c := range id {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
