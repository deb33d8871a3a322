// Package patch applies byte-range edits to a file while copying every
// other byte through unchanged.
//
// Codecs describe a tag rewrite as a Plan: a set of non-overlapping edits
// against the original byte source, including the container size, offset
// and CRC fields that must change with it. The Plan is applied either by
// streaming it into a new file that atomically replaces the original, or
// in place after the full tail has been staged.
package patch

import (
	"fmt"
	"io"
	"slices"
)

// Edit replaces Length bytes at Offset with Data. Length 0 is an insertion,
// empty Data a deletion.
type Edit struct {
	Data   []byte
	Offset int64
	Length int64
}

// Plan is an ordered set of edits against a source of a known size.
type Plan struct {
	edits []Edit
	size  int64
}

// NewPlan creates an empty plan for a source of the given size.
func NewPlan(size int64) *Plan {
	return &Plan{size: size}
}

// Replace schedules replacing [off, off+length) with data.
func (p *Plan) Replace(off, length int64, data []byte) {
	p.edits = append(p.edits, Edit{Offset: off, Length: length, Data: data})
}

// Insert schedules inserting data before the byte at off.
func (p *Plan) Insert(off int64, data []byte) {
	p.Replace(off, 0, data)
}

// Delete schedules removing [off, off+length).
func (p *Plan) Delete(off, length int64) {
	p.Replace(off, length, nil)
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	for _, e := range p.edits {
		if e.Length != 0 || len(e.Data) != 0 {
			return false
		}
	}
	return true
}

// Edits returns the edits sorted by offset. Insertions at the same offset
// keep the order they were scheduled in.
func (p *Plan) Edits() []Edit {
	sorted := slices.Clone(p.edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		// Insertions before replacements at the same offset
		switch {
		case a.Length == 0 && b.Length != 0:
			return -1
		case a.Length != 0 && b.Length == 0:
			return 1
		}
		return 0
	})
	return sorted
}

// Validate checks that every edit lies inside the source and no two edits
// overlap.
func (p *Plan) Validate() error {
	var end int64
	for i, e := range p.Edits() {
		if e.Offset < 0 || e.Length < 0 || e.Offset+e.Length > p.size {
			return fmt.Errorf("edit [%d, %d) outside source of %d bytes", e.Offset, e.Offset+e.Length, p.size)
		}
		if i > 0 && e.Offset < end {
			return fmt.Errorf("edit at offset %d overlaps previous edit ending at %d", e.Offset, end)
		}
		end = e.Offset + e.Length
	}
	return nil
}

// SourceSize returns the size of the source the plan was built against.
func (p *Plan) SourceSize() int64 {
	return p.size
}

// Delta returns the change in file size.
func (p *Plan) Delta() int64 {
	var d int64
	for _, e := range p.edits {
		d += int64(len(e.Data)) - e.Length
	}
	return d
}

// NewSize returns the size of the patched file.
func (p *Plan) NewSize() int64 {
	return p.size + p.Delta()
}

// FirstOffset returns the lowest offset touched by the plan, or the source
// size when the plan is empty.
func (p *Plan) FirstOffset() int64 {
	first := p.size
	for _, e := range p.edits {
		if e.Length == 0 && len(e.Data) == 0 {
			continue
		}
		first = min(first, e.Offset)
	}
	return first
}

// WriteTo streams the patched file into w, reading unchanged ranges from src.
func (p *Plan) WriteTo(w io.Writer, src io.ReaderAt) (int64, error) {
	return p.writeFrom(w, src, 0)
}

// writeFrom streams the patched file starting at source offset start, which
// must not lie inside an edit.
func (p *Plan) writeFrom(w io.Writer, src io.ReaderAt, start int64) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var written int64
	pos := start
	for _, e := range p.Edits() {
		if e.Offset < start {
			continue
		}
		n, err := copyRange(w, src, pos, e.Offset-pos)
		written += n
		if err != nil {
			return written, err
		}
		m, err := w.Write(e.Data)
		written += int64(m)
		if err != nil {
			return written, err
		}
		pos = e.Offset + e.Length
	}

	n, err := copyRange(w, src, pos, p.size-pos)
	written += n
	return written, err
}

func copyRange(w io.Writer, src io.ReaderAt, off, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	copied, err := io.Copy(w, io.NewSectionReader(src, off, n))
	if err == nil && copied != n {
		err = io.ErrUnexpectedEOF
	}
	return copied, err
}
