// Package ape reads APEv1/APEv2 tags and writes APEv2 tags.
//
// A tag is an optional 32-byte header, the items, and a 32-byte footer.
// Header and footer share one layout:
//
//	"APETAGEX" version(4) size(4) count(4) flags(4) reserved(8)
//
// All integers are little-endian; size covers the items and the footer.
package ape

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// FooterSize is the size of the tag header and footer.
const FooterSize = 32

// Tag flags
const (
	flagHasHeader uint32 = 1 << 31
	flagNoFooter  uint32 = 1 << 30
	flagIsHeader  uint32 = 1 << 29
)

const (
	version1 = 1000
	version2 = 2000

	// maxItems bounds the item count of a tag before any item is read.
	maxItems = 65536
)

var preamble = []byte("APETAGEX")

// Footer is a decoded tag header or footer.
type Footer struct {
	Version uint32
	Size    uint32 // items + footer
	Count   uint32
	Flags   uint32
}

// HasHeader reports whether the tag starts with a header.
func (f Footer) HasHeader() bool { return f.Flags&flagHasHeader != 0 }

// IsHeader reports whether this block is the header rather than the footer.
func (f Footer) IsHeader() bool { return f.Flags&flagIsHeader != 0 }

// ParseFooter decodes a 32-byte header or footer.
func ParseFooter(b []byte) (Footer, error) {
	if len(b) < FooterSize || string(b[:8]) != string(preamble) {
		return Footer{}, &types.MalformedHeaderError{Format: "APE", Reason: "missing APETAGEX preamble"}
	}
	f := Footer{
		Version: binary.LittleEndian.Uint32(b[8:12]),
		Size:    binary.LittleEndian.Uint32(b[12:16]),
		Count:   binary.LittleEndian.Uint32(b[16:20]),
		Flags:   binary.LittleEndian.Uint32(b[20:24]),
	}
	switch {
	case f.Version != version1 && f.Version != version2:
		return Footer{}, &types.MalformedHeaderError{Format: "APE", Reason: fmt.Sprintf("unsupported version %d", f.Version), Offset: 8}
	case f.Size < FooterSize:
		return Footer{}, &types.MalformedHeaderError{Format: "APE", Reason: fmt.Sprintf("tag size %d smaller than footer", f.Size), Offset: 12}
	case f.Count > maxItems:
		return Footer{}, &types.MalformedHeaderError{Format: "APE", Reason: fmt.Sprintf("item count %d too large", f.Count), Offset: 16}
	}
	return f, nil
}

func encodeFooter(size, count, flags uint32) []byte {
	return binutil.Encode(func(sw *binutil.SafeWriter) {
		writeFooter(sw, size, count, flags)
	})
}

func writeFooter(sw *binutil.SafeWriter, size, count, flags uint32) {
	sw.WriteBytes(preamble)
	binutil.WriteLE(sw, uint32(version2))
	binutil.WriteLE(sw, size)
	binutil.WriteLE(sw, count)
	binutil.WriteLE(sw, flags)
	sw.WriteZeros(8)
}

// Location is a tag found in a file.
type Location struct {
	Offset int64 // first byte of the tag, header included
	Size   int64 // bytes on disk, header and footer included
	Footer Footer
}

// End returns the offset just past the tag.
func (l Location) End() int64 {
	return l.Offset + l.Size
}

// itemsOffset returns the offset of the first item.
func (l Location) itemsOffset() int64 {
	if l.Footer.HasHeader() {
		return l.Offset + FooterSize
	}
	return l.Offset
}

// FindBefore looks for a tag whose footer ends at end.
func FindBefore(sr *binutil.SafeReader, end int64) (Location, bool, error) {
	if end < FooterSize {
		return Location{}, false, nil
	}
	buf, err := sr.ReadBytes(end-FooterSize, FooterSize, "APE footer")
	if err != nil {
		return Location{}, false, err
	}
	if string(buf[:8]) != string(preamble) {
		return Location{}, false, nil
	}
	f, err := ParseFooter(buf)
	if err != nil {
		return Location{}, true, withPosition(err, sr.Path(), end-FooterSize)
	}
	if f.IsHeader() {
		return Location{}, false, nil
	}

	loc := Location{Footer: f, Size: int64(f.Size)}
	if f.HasHeader() {
		loc.Size += FooterSize
	}
	loc.Offset = end - loc.Size
	if loc.Offset < 0 {
		return Location{}, true, &types.MalformedHeaderError{
			Path:   sr.Path(),
			Format: "APE",
			Reason: fmt.Sprintf("tag size %d exceeds the data before the footer", f.Size),
			Offset: end - FooterSize,
		}
	}
	return loc, true, nil
}

// FindAt looks for a tag that starts with a header at off.
func FindAt(sr *binutil.SafeReader, off int64) (Location, bool, error) {
	if sr.Size()-off < FooterSize {
		return Location{}, false, nil
	}
	buf, err := sr.ReadBytes(off, FooterSize, "APE header")
	if err != nil {
		return Location{}, false, err
	}
	if string(buf[:8]) != string(preamble) {
		return Location{}, false, nil
	}
	f, err := ParseFooter(buf)
	if err != nil {
		return Location{}, true, withPosition(err, sr.Path(), off)
	}
	if !f.IsHeader() {
		return Location{}, false, nil
	}

	loc := Location{Offset: off, Size: FooterSize + int64(f.Size), Footer: f}
	if f.Flags&flagNoFooter != 0 {
		loc.Size -= FooterSize
	}
	if loc.End() > sr.Size() {
		return Location{}, true, &types.OutOfBoundsError{
			Path: sr.Path(), What: "APE tag", Offset: off, Length: int(loc.Size), Size: sr.Size(),
		}
	}
	return loc, true, nil
}

func withPosition(err error, path string, off int64) error {
	if mh, ok := err.(*types.MalformedHeaderError); ok {
		mh.Path = path
		mh.Offset += off
	}
	return err
}
