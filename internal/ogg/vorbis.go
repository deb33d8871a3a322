package ogg

import (
	"encoding/binary"
	"fmt"
)

var (
	vorbisIdent   = []byte("\x01vorbis")
	vorbisComment = []byte("\x03vorbis")
	vorbisSetup   = []byte("\x05vorbis")
)

// vorbisInfo is the Vorbis identification header:
//
//	"\x01vorbis" version(4) channels(1) rate(4) bitrateMax(4)
//	bitrateNominal(4) bitrateMin(4) blocksizes(1) framing(1)
type vorbisInfo struct {
	sampleRate     uint32
	nominalBitrate int32
	channels       byte
}

func parseVorbisIdent(b []byte) (vorbisInfo, error) {
	if len(b) < 30 {
		return vorbisInfo{}, fmt.Errorf("identification header too short: %d bytes", len(b))
	}
	if version := binary.LittleEndian.Uint32(b[7:]); version != 0 {
		return vorbisInfo{}, fmt.Errorf("unsupported Vorbis version %d", version)
	}
	info := vorbisInfo{
		channels:       b[11],
		sampleRate:     binary.LittleEndian.Uint32(b[12:]),
		nominalBitrate: int32(binary.LittleEndian.Uint32(b[20:])),
	}
	if info.sampleRate == 0 || info.channels == 0 {
		return vorbisInfo{}, fmt.Errorf("invalid identification header: %d Hz, %d channels", info.sampleRate, info.channels)
	}
	return info, nil
}
