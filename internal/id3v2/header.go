// Package id3v2 reads ID3v2.2, 2.3 and 2.4 tags and writes ID3v2.4.
package id3v2

import (
	"fmt"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// HeaderSize is the size of the tag header and of the optional footer.
const HeaderSize = 10

// Header flags
const (
	flagUnsync   = 0x80
	flagExtended = 0x40 // v2.2: compression
	flagFooter   = 0x10
	maxSynchsafe = 1<<28 - 1
)

// Header represents an ID3v2 tag header.
type Header struct {
	Major    byte   // 2, 3 or 4
	Revision byte   // Minor version
	Flags    byte   // Header flags
	Size     uint32 // Tag size excluding header and footer
}

// TotalSize returns the size of the tag on disk: header, body and footer.
func (h Header) TotalSize() int64 {
	n := HeaderSize + int64(h.Size)
	if h.Major == 4 && h.Flags&flagFooter != 0 {
		n += HeaderSize
	}
	return n
}

// ParseHeader decodes a 10-byte tag header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize || string(b[:3]) != "ID3" {
		return Header{}, &types.MalformedHeaderError{Format: "ID3v2", Reason: "missing ID3 magic"}
	}

	h := Header{Major: b[3], Revision: b[4], Flags: b[5]}
	if h.Major < 2 || h.Major > 4 {
		return Header{}, &types.MalformedHeaderError{
			Format: "ID3v2",
			Reason: fmt.Sprintf("unsupported version 2.%d", h.Major),
			Offset: 3,
		}
	}
	if (b[6]|b[7]|b[8]|b[9])&0x80 != 0 {
		return Header{}, &types.MalformedHeaderError{Format: "ID3v2", Reason: "tag size is not synchsafe", Offset: 6}
	}
	h.Size = DecodeSynchsafe(b[6:10])
	return h, nil
}

// FindAt reads the tag header at off and reports whether a tag is there.
func FindAt(sr *binary.SafeReader, off int64) (Header, bool, error) {
	if sr.Size()-off < HeaderSize {
		return Header{}, false, nil
	}
	buf, err := sr.ReadBytes(off, HeaderSize, "ID3v2 header")
	if err != nil {
		return Header{}, false, err
	}
	if string(buf[:3]) != "ID3" {
		return Header{}, false, nil
	}
	h, err := ParseHeader(buf)
	if err != nil {
		if mh, ok := err.(*types.MalformedHeaderError); ok {
			mh.Path = sr.Path()
			mh.Offset += off
		}
		return Header{}, true, err
	}
	return h, true, nil
}

// Skip returns the offset just past any ID3v2 tags starting at off.
// Some encoders write several tags back to back.
func Skip(sr *binary.SafeReader, off int64) (int64, error) {
	for {
		h, ok, err := FindAt(sr, off)
		if err != nil || !ok {
			return off, err
		}
		off += h.TotalSize()
	}
}

// DecodeSynchsafe decodes a 28-bit synchsafe integer (7 bits per byte).
func DecodeSynchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// EncodeSynchsafe encodes n as a 4-byte synchsafe integer.
func EncodeSynchsafe(n uint32) []byte {
	return []byte{
		byte(n>>21) & 0x7F,
		byte(n>>14) & 0x7F,
		byte(n>>7) & 0x7F,
		byte(n) & 0x7F,
	}
}

// RemoveUnsync reverses unsynchronisation: every 0xFF 0x00 becomes 0xFF.
func RemoveUnsync(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}
