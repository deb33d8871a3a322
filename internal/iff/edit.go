package iff

import (
	"fmt"
	"unicode/utf8"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/textenc"
	"github.com/simonhull/audiotag/internal/types"
)

// End returns the offset just past the container described by h, clamped
// to the source. Bytes after it are not part of the file's chunks.
func (h Header) End(size int64) int64 {
	return min(8+int64(h.Size), size)
}

// Container is a parsed container header and its chunks.
type Container struct {
	Header Header
	Chunks []Chunk
	Format string
	Order  binary.Endianness
}

// Open reads the container header and walks its chunks. When the walk
// breaks off mid-file the chunks before the break are returned together
// with the error.
func Open(sr *binary.SafeReader, order binary.Endianness, format, magic string, forms ...string) (*Container, error) {
	h, err := ReadHeader(sr, order, format, magic, forms...)
	if err != nil {
		return nil, err
	}
	c := &Container{Header: h, Format: format, Order: order}
	w := NewWalker(sr, HeaderSize, h.End(sr.Size()), order)
	for w.Next() {
		c.Chunks = append(c.Chunks, w.Chunk())
	}
	return c, w.Err()
}

// Replace plans writing data in place of the chunks in old and patching
// the container size. The first old chunk is replaced and the rest are
// deleted; with no old chunks data is appended after the last chunk. Nil
// data removes every old chunk.
func (c *Container) Replace(sr *binary.SafeReader, old []Chunk, data []byte) (*patch.Plan, error) {
	p := patch.NewPlan(sr.Size())
	for i, o := range old {
		n := min(o.End(), sr.Size()) - o.Offset
		if i == 0 {
			p.Replace(o.Offset, n, data)
		} else {
			p.Delete(o.Offset, n)
		}
	}
	if len(old) == 0 && len(data) > 0 {
		off, pad, err := c.appendOffset(sr)
		if err != nil {
			return nil, err
		}
		if pad {
			data = append([]byte{0}, data...)
		}
		p.Insert(off, data)
	}
	if p.Empty() {
		return p, nil
	}
	if err := PatchContainerSize(p, c.Header, c.Order); err != nil {
		return nil, err
	}
	return p, nil
}

// appendOffset returns where a chunk added after the last one goes, and
// whether a pad byte must precede it because the last chunk lacks its
// own. A truncated last chunk would swallow anything appended.
func (c *Container) appendOffset(sr *binary.SafeReader) (int64, bool, error) {
	if len(c.Chunks) == 0 {
		return HeaderSize, false, nil
	}
	last := c.Chunks[len(c.Chunks)-1]
	if last.Truncated {
		return 0, false, &types.MalformedHeaderError{
			Path: sr.Path(), Format: c.Format, Offset: last.Offset,
			Reason: fmt.Sprintf("%q chunk runs past the end of the file", last.ID),
		}
	}
	if last.End() > sr.Size() {
		return sr.Size(), true, nil
	}
	return last.End(), false, nil
}

// DecodeText decodes a NUL-terminated text chunk. Valid UTF-8 is kept as
// is; anything else is read as Latin-1.
func DecodeText(b []byte) string {
	b = textenc.TrimNul(b)
	if utf8.Valid(b) {
		return string(b)
	}
	return textenc.DecodeLatin1(b)
}

