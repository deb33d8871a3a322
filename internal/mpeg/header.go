// Package mpeg reads and writes MPEG audio (MP3) files: frame headers,
// Xing/Info/VBRI headers, stream properties and the placement of the
// ID3v2, APE and ID3v1 tags around the audio frames.
package mpeg

import (
	"errors"
	"fmt"
)

// Version is the MPEG audio version of a frame.
type Version int

const (
	Version1 Version = iota
	Version2
	Version25
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG-1"
	case Version2:
		return "MPEG-2"
	case Version25:
		return "MPEG-2.5"
	default:
		return "MPEG-?"
	}
}

// Channel modes.
const (
	ModeStereo = iota
	ModeJointStereo
	ModeDualChannel
	ModeMono
)

// HeaderSize is the size of a frame header.
const HeaderSize = 4

// Bitrates in kbps by [MPEG-1 or not][layer-1][index].
var bitrates = [2][3][16]int{
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

// Sample rates in Hz by [version][index].
var sampleRates = [3][3]int{
	{44100, 48000, 32000},
	{22050, 24000, 16000},
	{11025, 12000, 8000},
}

// Samples per frame by [layer-1][MPEG-1 or not].
var samplesPerFrame = [3][2]int{
	{384, 384},
	{1152, 1152},
	{1152, 576},
}

// Layer III side information size by [MPEG-1 or not][mono].
var sideInfoSizes = [2][2]int{
	{32, 17},
	{17, 9},
}

var errNoSync = errors.New("no frame sync")

// Header is a decoded frame header.
type Header struct {
	Version         Version
	Layer           int // 1, 2 or 3
	Bitrate         int // bits per second
	SampleRate      int
	Mode            int
	Channels        int
	Padding         bool
	Length          int // whole frame in bytes, header included
	SamplesPerFrame int
}

// ParseHeader decodes the 32-bit frame header h. Free-format and
// reserved bitrates, reserved sample rates and reserved layers are
// rejected.
func ParseHeader(h uint32) (Header, error) {
	if h&0xFFE00000 != 0xFFE00000 {
		return Header{}, errNoSync
	}

	var hdr Header
	switch h >> 19 & 3 {
	case 0:
		hdr.Version = Version25
	case 2:
		hdr.Version = Version2
	case 3:
		hdr.Version = Version1
	default:
		return Header{}, errors.New("reserved MPEG version")
	}
	layerBits := h >> 17 & 3
	if layerBits == 0 {
		return Header{}, errors.New("reserved layer")
	}
	hdr.Layer = 4 - int(layerBits)

	lsf := 0
	if hdr.Version != Version1 {
		lsf = 1
	}
	bitrateIdx := h >> 12 & 0xF
	if bitrateIdx == 0 || bitrateIdx == 15 {
		return Header{}, fmt.Errorf("unsupported bitrate index %d", bitrateIdx)
	}
	rateIdx := h >> 10 & 3
	if rateIdx == 3 {
		return Header{}, errors.New("reserved sample rate")
	}

	hdr.Bitrate = bitrates[lsf][hdr.Layer-1][bitrateIdx] * 1000
	hdr.SampleRate = sampleRates[hdr.Version][rateIdx]
	hdr.Padding = h>>9&1 == 1
	hdr.Mode = int(h >> 6 & 3)
	hdr.Channels = 2
	if hdr.Mode == ModeMono {
		hdr.Channels = 1
	}
	hdr.SamplesPerFrame = samplesPerFrame[hdr.Layer-1][lsf]

	if hdr.Layer == 1 {
		hdr.Length = 12 * hdr.Bitrate / hdr.SampleRate * 4
		if hdr.Padding {
			hdr.Length += 4
		}
	} else {
		hdr.Length = hdr.SamplesPerFrame / 8 * hdr.Bitrate / hdr.SampleRate
		if hdr.Padding {
			hdr.Length++
		}
	}
	return hdr, nil
}

// SideInfoSize returns the Layer III side information size that precedes
// a Xing or Info header.
func (h Header) SideInfoSize() int {
	lsf, mono := 0, 0
	if h.Version != Version1 {
		lsf = 1
	}
	if h.Mode == ModeMono {
		mono = 1
	}
	return sideInfoSizes[lsf][mono]
}

// compatible reports whether two headers can belong to the same stream.
func (h Header) compatible(o Header) bool {
	return h.Version == o.Version && h.Layer == o.Layer && h.SampleRate == o.SampleRate
}
