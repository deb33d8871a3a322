// Package ogg reads and rewrites the header packets of Ogg Vorbis and Ogg
// Opus streams.
//
// An Ogg page is a 27-byte header, a segment table and a body:
//
//	"OggS" version(1) flags(1) granule(8) serial(4) sequence(4) crc(4) segments(1)
//
// Integers are little-endian. A packet is split into 255-byte lacing
// segments and ends at the first segment shorter than 255 bytes; a packet
// may span pages.
package ogg

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Page header flags
const (
	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

const (
	pageHeaderSize = 27
	maxSegments    = 255

	// granuleNone marks a page on which no packet ends.
	granuleNone = ^uint64(0)
)

// Page is an Ogg page. Data is only loaded on request.
type Page struct {
	Segments []byte
	Data     []byte
	Offset   int64
	Granule  uint64
	Serial   uint32
	Sequence uint32
	Checksum uint32
	Flags    byte
}

// HeaderLen returns the size of the page header and segment table.
func (p *Page) HeaderLen() int64 {
	return pageHeaderSize + int64(len(p.Segments))
}

// BodyLen returns the size of the page body.
func (p *Page) BodyLen() int64 {
	var n int64
	for _, s := range p.Segments {
		n += int64(s)
	}
	return n
}

// End returns the offset just past the page.
func (p *Page) End() int64 {
	return p.Offset + p.HeaderLen() + p.BodyLen()
}

// ReadPage reads the page at off, including its body when withData is set.
func ReadPage(sr *binutil.SafeReader, off int64, withData bool) (*Page, error) {
	header, err := sr.ReadBytes(off, pageHeaderSize, "Ogg page header")
	if err != nil {
		return nil, err
	}
	if string(header[:4]) != "OggS" {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "OGG", Reason: "missing OggS capture pattern", Offset: off}
	}
	if header[4] != 0 {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "OGG", Reason: fmt.Sprintf("unsupported stream structure version %d", header[4]), Offset: off + 4}
	}

	p := &Page{
		Offset:   off,
		Flags:    header[5],
		Granule:  binary.LittleEndian.Uint64(header[6:]),
		Serial:   binary.LittleEndian.Uint32(header[14:]),
		Sequence: binary.LittleEndian.Uint32(header[18:]),
		Checksum: binary.LittleEndian.Uint32(header[22:]),
	}
	p.Segments, err = sr.ReadBytes(off+pageHeaderSize, int(header[26]), "Ogg segment table")
	if err != nil {
		return nil, err
	}
	if p.End() > sr.Size() {
		return nil, &types.OutOfBoundsError{Path: sr.Path(), What: "Ogg page body", Offset: off + p.HeaderLen(), Length: int(p.BodyLen()), Size: sr.Size()}
	}
	if withData {
		p.Data, err = sr.ReadBytes(off+p.HeaderLen(), int(p.BodyLen()), "Ogg page body")
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// packets splits the page body at packet boundaries. The last part is
// unfinished when complete is false and continues on the next page.
func (p *Page) packets() (parts [][]byte, complete bool) {
	start, pos := 0, 0
	complete = true
	for i, s := range p.Segments {
		pos += int(s)
		if s < 255 {
			parts = append(parts, p.Data[start:pos])
			start = pos
			continue
		}
		if i == len(p.Segments)-1 {
			parts = append(parts, p.Data[start:pos])
			complete = false
		}
	}
	return parts, complete
}

// Bytes serializes the page with a freshly computed checksum.
func (p *Page) Bytes() []byte {
	out := make([]byte, 0, p.HeaderLen()+int64(len(p.Data)))
	out = append(out, "OggS"...)
	out = append(out, 0, p.Flags)
	out = binary.LittleEndian.AppendUint64(out, p.Granule)
	out = binary.LittleEndian.AppendUint32(out, p.Serial)
	out = binary.LittleEndian.AppendUint32(out, p.Sequence)
	out = append(out, 0, 0, 0, 0)
	out = append(out, byte(len(p.Segments)))
	out = append(out, p.Segments...)
	out = append(out, p.Data...)
	p.Checksum = Checksum(out)
	binary.LittleEndian.PutUint32(out[22:], p.Checksum)
	return out
}

// Paginate lays packets out on pages of one logical stream, numbering
// them from seq. Packets share pages as lacing allows. Pages on which a
// packet ends carry granule; the others carry none.
func Paginate(packets [][]byte, serial, seq uint32, granule uint64) []*Page {
	var pages []*Page
	cur := &Page{Serial: serial, Sequence: seq, Granule: granuleNone}
	flush := func(continued bool) {
		pages = append(pages, cur)
		seq++
		cur = &Page{Serial: serial, Sequence: seq, Granule: granuleNone}
		if continued {
			cur.Flags = flagContinued
		}
	}

	for _, packet := range packets {
		rest := packet
		for {
			if len(cur.Segments) == maxSegments {
				flush(len(rest) != len(packet))
			}
			n := min(len(rest), 255)
			cur.Segments = append(cur.Segments, byte(n))
			cur.Data = append(cur.Data, rest[:n]...)
			rest = rest[n:]
			if n < 255 {
				cur.Granule = granule
				break
			}
		}
	}
	if len(cur.Segments) > 0 {
		pages = append(pages, cur)
	}
	return pages
}
