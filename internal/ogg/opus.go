package ogg

import (
	"encoding/binary"
	"fmt"
)

var (
	opusHead = []byte("OpusHead")
	opusTags = []byte("OpusTags")
)

// opusOutputRate is the decoding rate of every Opus stream; granule
// positions count 48 kHz samples.
const opusOutputRate = 48000

// opusInfo is the OpusHead identification header:
//
//	"OpusHead" version(1) channels(1) preSkip(2) inputRate(4) gain(2) mapping(1)
type opusInfo struct {
	inputRate uint32
	preSkip   uint16
	channels  byte
}

func parseOpusHead(b []byte) (opusInfo, error) {
	if len(b) < 19 {
		return opusInfo{}, fmt.Errorf("OpusHead too short: %d bytes", len(b))
	}
	// Major version in the upper four bits must be 0
	if b[8]&0xF0 != 0 {
		return opusInfo{}, fmt.Errorf("unsupported Opus version %d", b[8])
	}
	info := opusInfo{
		channels:  b[9],
		preSkip:   binary.LittleEndian.Uint16(b[10:]),
		inputRate: binary.LittleEndian.Uint32(b[12:]),
	}
	if info.channels == 0 {
		return opusInfo{}, fmt.Errorf("OpusHead declares no channels")
	}
	return info, nil
}
