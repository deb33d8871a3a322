package mp4

import (
	"encoding/binary"
	"time"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// readProperties derives the stream properties from the movie header and
// the first audio track. Missing optional atoms leave fields unknown.
func readProperties(sr *binutil.SafeReader, root, moov *Node) (types.FileProperties, error) {
	var props types.FileProperties

	mvhd := moov.Child("mvhd")
	if mvhd == nil {
		return props, atomError(sr, moov.Atom, "missing mvhd")
	}
	timescale, length, err := readTimes(sr, mvhd.Atom)
	if err != nil {
		return props, err
	}
	props.Duration = scaledDuration(length, timescale)

	if trak := audioTrack(sr, moov); trak != nil {
		if mdhd := trak.Find("mdia", "mdhd"); mdhd != nil {
			if timescale, length, err := readTimes(sr, mdhd.Atom); err == nil && timescale > 0 && length > 0 {
				props.Duration = scaledDuration(length, timescale)
			}
		}
		if stsd := trak.Find("mdia", "minf", "stbl", "stsd"); stsd != nil {
			if err := readSampleEntry(sr, stsd.Atom, &props); err != nil {
				return props, err
			}
		}
	}

	props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
	if props.AudioBitrate == 0 {
		var mdat int64
		for _, c := range root.Children {
			if c.Type == "mdat" {
				mdat += c.DataSize()
			}
		}
		props.AudioBitrate = types.Bitrate(mdat, props.Duration)
	}
	return props, nil
}

// readTimes reads the timescale and duration of an mvhd or mdhd atom.
//
//	v0: version(1) flags(3) created(4) modified(4) timescale(4) duration(4)
//	v1: version(1) flags(3) created(8) modified(8) timescale(4) duration(8)
func readTimes(sr *binutil.SafeReader, a Atom) (timescale uint32, length uint64, err error) {
	cr := binutil.NewChainReader(binutil.NewReader(sr, a.DataOffset()))
	version := binutil.ReadChained[uint8](cr, a.Type+" version")
	cr.Skip(3)
	if version == 1 {
		cr.Skip(16)
		timescale = binutil.ReadChained[uint32](cr, a.Type+" timescale")
		length = binutil.ReadChained[uint64](cr, a.Type+" duration")
		if length == ^uint64(0) {
			length = 0
		}
	} else {
		cr.Skip(8)
		timescale = binutil.ReadChained[uint32](cr, a.Type+" timescale")
		d := binutil.ReadChained[uint32](cr, a.Type+" duration")
		if d != ^uint32(0) {
			length = uint64(d)
		}
	}
	if cr.Reader.Offset() > a.End() {
		return 0, 0, atomError(sr, a, "too short")
	}
	return timescale, length, cr.Error()
}

func scaledDuration(length uint64, timescale uint32) time.Duration {
	return types.DurationFromSamples(length, int(timescale))
}

// audioTrack returns the first trak whose handler is "soun", or the first
// trak when none declares one.
func audioTrack(sr *binutil.SafeReader, moov *Node) *Node {
	var first *Node
	for _, trak := range moov.Children {
		if trak.Type != "trak" {
			continue
		}
		if first == nil {
			first = trak
		}
		hdlr := trak.Find("mdia", "hdlr")
		if hdlr == nil || hdlr.DataSize() < 12 {
			continue
		}
		if handler, err := sr.ReadBytes(hdlr.DataOffset()+8, 4, "hdlr handler type"); err == nil && string(handler) == "soun" {
			return trak
		}
	}
	return first
}

// Sample entry versions 1 and 2 (QuickTime) extend the audio fields.
var sampleEntryExtra = map[uint16]int64{0: 0, 1: 16, 2: 36}

// readSampleEntry reads channels and sample rate from the first sample
// entry of stsd, refined by its esds or alac child:
//
//	reserved(6) dataRef(2) version(2) revision(2) vendor(4)
//	channels(2) sampleSize(2) compression(2) packetSize(2) rate(16.16)
func readSampleEntry(sr *binutil.SafeReader, stsd Atom, props *types.FileProperties) error {
	if stsd.DataSize() < 8 {
		return atomError(sr, stsd, "too short")
	}
	count, err := binutil.Read[uint32](sr, stsd.DataOffset()+4, "stsd entry count")
	if err != nil || count == 0 {
		return err
	}
	entry, err := readAtom(sr, stsd.DataOffset()+8, stsd.End())
	if err != nil {
		return err
	}
	if entry.DataSize() < 28 {
		return atomError(sr, entry, "sample entry too short")
	}

	cr := binutil.NewChainReader(binutil.NewReader(sr, entry.DataOffset()+8))
	version := binutil.ReadChained[uint16](cr, "sample entry version")
	cr.Skip(6)
	channels := binutil.ReadChained[uint16](cr, "channel count")
	sampleSize := binutil.ReadChained[uint16](cr, "sample size")
	cr.Skip(4)
	rate := binutil.ReadChained[uint32](cr, "sample rate")
	if err := cr.Error(); err != nil {
		return err
	}
	props.Channels = int(channels)
	props.SampleRate = int(rate >> 16)
	if entry.Type != "mp4a" {
		props.BitDepth = int(sampleSize)
	}

	extra, ok := sampleEntryExtra[version]
	if !ok {
		return nil
	}
	for off := entry.DataOffset() + 28 + extra; entry.End()-off >= 8; {
		child, err := readAtom(sr, off, entry.End())
		if err != nil {
			return err
		}
		off = child.End()
		switch child.Type {
		case "esds":
			payload, err := sr.ReadBytes(child.DataOffset(), int(child.DataSize()), "esds")
			if err != nil {
				return err
			}
			if len(payload) > 4 {
				if avg := esdsAverageBitrate(payload[4:]); avg > 0 {
					props.AudioBitrate = int(avg)
				}
			}
		case "alac":
			if err := readALACConfig(sr, child, props); err != nil {
				return err
			}
		}
	}
	return nil
}

// readALACConfig reads the ALAC magic cookie:
//
//	frameLength(4) compatibleVersion(1) bitDepth(1) pb(1) mb(1) kb(1)
//	channels(1) maxRun(2) maxFrameBytes(4) avgBitrate(4) sampleRate(4)
func readALACConfig(sr *binutil.SafeReader, a Atom, props *types.FileProperties) error {
	if a.DataSize() < 28 {
		return atomError(sr, a, "too short")
	}
	cfg, err := sr.ReadBytes(a.DataOffset()+4, 24, "ALAC config")
	if err != nil {
		return err
	}
	props.BitDepth = int(cfg[5])
	props.Channels = int(cfg[9])
	if avg := binary.BigEndian.Uint32(cfg[16:]); avg > 0 {
		props.AudioBitrate = int(avg)
	}
	if rate := binary.BigEndian.Uint32(cfg[20:]); rate > 0 {
		props.SampleRate = int(rate)
	}
	return nil
}

// esdsAverageBitrate walks the ES descriptor to its DecoderConfigDescriptor
// and returns the average bitrate, or 0.
func esdsAverageBitrate(data []byte) uint32 {
	pos := 0
	readSize := func() int {
		size := 0
		for range 4 {
			if pos >= len(data) {
				return -1
			}
			b := data[pos]
			pos++
			size = size<<7 | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		return size
	}

	// ES_Descriptor: ES_ID(2) flags(1) [dependsOn(2)] [url] [ocrES_ID(2)]
	if pos >= len(data) || data[pos] != 0x03 {
		return 0
	}
	pos++
	if readSize() < 0 || pos+3 > len(data) {
		return 0
	}
	flags := data[pos+2]
	pos += 3
	if flags&0x80 != 0 {
		pos += 2
	}
	if flags&0x40 != 0 {
		if pos >= len(data) {
			return 0
		}
		pos += 1 + int(data[pos])
	}
	if flags&0x20 != 0 {
		pos += 2
	}

	// DecoderConfigDescriptor: objectType(1) streamType(1) bufferSize(3)
	// maxBitrate(4) avgBitrate(4)
	if pos >= len(data) || data[pos] != 0x04 {
		return 0
	}
	pos++
	if readSize() < 13 || pos+13 > len(data) {
		return 0
	}
	return binary.BigEndian.Uint32(data[pos+9:])
}
