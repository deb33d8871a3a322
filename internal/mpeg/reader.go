package mpeg

import (
	"encoding/binary"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// syncWindow bounds how far past the ID3v2 tag the first frame is
// searched for.
const syncWindow = 1 << 20

// Frame is the first audio frame of a stream.
type Frame struct {
	Offset int64
	Header Header
}

// Read parses an MP3 file: the ID3v2, APE and ID3v1 tags and the stream
// properties derived from the first frame.
func Read(sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	l, err := LocateTags(sr)
	if err != nil {
		return nil, err
	}
	first, err := FindFrame(sr, l.ID3v2End, l.AudioEnd())
	if err != nil {
		return nil, err
	}

	parsed := &types.Parsed{}
	if props, err := readProperties(sr, first, l.AudioEnd()); err != nil {
		parsed.PropertiesFailed(first.Offset, err)
	} else {
		parsed.Properties = props
	}

	if opts.ParseTags {
		if err := ReadTags(sr, l, parsed); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

// Write plans replacing the ID3v2, APE or ID3v1 tag of an MP3 file.
func Write(sr *binutil.SafeReader, tag *types.Tag) (*patch.Plan, error) {
	l, err := LocateTags(sr)
	if err != nil {
		return nil, err
	}
	return WriteTags(sr, l, types.FileTypeMP3, tag)
}

// FindFrame returns the first frame in [start, end) whose header is
// followed by another compatible header or by end. Zero padding before
// the audio is skipped.
func FindFrame(sr *binutil.SafeReader, start, end int64) (Frame, error) {
	n := min(end-start, syncWindow)
	if n < HeaderSize {
		return Frame{}, noFrame(sr, start)
	}
	buf, err := sr.ReadBytes(start, int(n), "MPEG audio")
	if err != nil {
		return Frame{}, err
	}

	for i := 0; i+HeaderSize <= len(buf); i++ {
		if !types.IsFrameSync(buf[i], buf[i+1]) {
			continue
		}
		h, err := ParseHeader(binary.BigEndian.Uint32(buf[i:]))
		if err != nil {
			continue
		}
		off := start + int64(i)
		next := off + int64(h.Length)
		if next >= end {
			return Frame{Offset: off, Header: h}, nil
		}
		if next+HeaderSize > end {
			continue
		}
		raw, err := binutil.Read[uint32](sr, next, "MPEG frame header")
		if err != nil {
			return Frame{}, err
		}
		if nh, err := ParseHeader(raw); err == nil && nh.compatible(h) {
			return Frame{Offset: off, Header: h}, nil
		}
	}
	return Frame{}, noFrame(sr, start)
}

func noFrame(sr *binutil.SafeReader, off int64) error {
	return &types.MalformedHeaderError{Path: sr.Path(), Format: "MPEG", Reason: "no MPEG frame found", Offset: off}
}

// readProperties derives the stream properties from the first frame. A
// Xing, Info or VBRI frame count gives an exact duration; otherwise the
// stream is assumed to be constant bitrate.
func readProperties(sr *binutil.SafeReader, f Frame, audioEnd int64) (types.FileProperties, error) {
	h := f.Header
	props := types.FileProperties{
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
	}
	audioBytes := audioEnd - f.Offset

	frame, err := sr.ReadBytes(f.Offset, int(min(int64(h.Length), audioBytes)), "first MPEG frame")
	if err != nil {
		return types.FileProperties{}, err
	}
	if vbr, ok := findVBR(h, frame); ok && vbr.Frames > 0 {
		props.Duration = types.DurationFromSamples(uint64(vbr.Frames)*uint64(h.SamplesPerFrame), h.SampleRate)
		n := int64(vbr.Bytes)
		if n == 0 || n > audioBytes {
			n = audioBytes
		}
		props.AudioBitrate = types.Bitrate(n, props.Duration)
	} else {
		props.Duration = types.DurationFromSamples(uint64(audioBytes)*8, h.Bitrate)
		props.AudioBitrate = h.Bitrate
	}
	props.OverallBitrate = types.Bitrate(sr.Size(), props.Duration)
	return props, nil
}
