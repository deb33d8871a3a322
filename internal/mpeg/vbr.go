package mpeg

import "encoding/binary"

// vbriOffset is the fixed position of a VBRI header after the frame start.
const vbriOffset = 36

// Xing header flags.
const (
	xingFrames = 1 << 0
	xingBytes  = 1 << 1
)

// VBRHeader is the frame and byte count an encoder stored in the first
// frame. Zero fields were not recorded.
type VBRHeader struct {
	Kind   string // "Xing", "Info" or "VBRI"
	Frames uint32
	Bytes  uint32
}

// parseXing decodes a Xing or Info header at the start of b.
func parseXing(b []byte) (VBRHeader, bool) {
	if len(b) < 8 {
		return VBRHeader{}, false
	}
	kind := string(b[:4])
	if kind != "Xing" && kind != "Info" {
		return VBRHeader{}, false
	}
	v := VBRHeader{Kind: kind}
	flags := binary.BigEndian.Uint32(b[4:])
	b = b[8:]
	if flags&xingFrames != 0 {
		if len(b) < 4 {
			return VBRHeader{}, false
		}
		v.Frames = binary.BigEndian.Uint32(b)
		b = b[4:]
	}
	if flags&xingBytes != 0 {
		if len(b) < 4 {
			return VBRHeader{}, false
		}
		v.Bytes = binary.BigEndian.Uint32(b)
	}
	return v, true
}

// parseVBRI decodes a VBRI header at the start of b:
//
//	"VBRI" version(2) delay(2) quality(2) bytes(4) frames(4)
func parseVBRI(b []byte) (VBRHeader, bool) {
	if len(b) < 18 || string(b[:4]) != "VBRI" {
		return VBRHeader{}, false
	}
	return VBRHeader{
		Kind:   "VBRI",
		Bytes:  binary.BigEndian.Uint32(b[10:]),
		Frames: binary.BigEndian.Uint32(b[14:]),
	}, true
}

// findVBR looks for a Xing/Info header after the side information of the
// first frame, then for a VBRI header at its fixed offset. frame holds the
// first frame's bytes.
func findVBR(h Header, frame []byte) (VBRHeader, bool) {
	if off := HeaderSize + h.SideInfoSize(); off < len(frame) {
		if v, ok := parseXing(frame[off:]); ok {
			return v, true
		}
	}
	if vbriOffset < len(frame) {
		return parseVBRI(frame[vbriOffset:])
	}
	return VBRHeader{}, false
}
