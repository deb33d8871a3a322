package types

import (
	"fmt"
	"math/bits"
	"time"
)

// FileProperties describes the audio stream of a file.
//
// Every field is optional; the zero value means the container did not
// expose it or its stream-info region could not be parsed. Bitrates are in
// bits per second. FileProperties never reflects tag content and is
// recomputed on every read.
type FileProperties struct {
	Duration       time.Duration
	OverallBitrate int // whole file
	AudioBitrate   int // audio stream only
	SampleRate     int
	BitDepth       int
	Channels       int
}

// IsZero reports whether nothing is known about the stream.
func (p FileProperties) IsZero() bool {
	return p == FileProperties{}
}

// String returns a human-readable representation of the properties.
// Example output: "3m20s 44.1kHz 16-bit stereo 1411kbps".
func (p FileProperties) String() string {
	if p.IsZero() {
		return "unknown"
	}

	parts := []string{}
	if p.Duration > 0 {
		parts = append(parts, p.Duration.Round(time.Millisecond).String())
	}
	if p.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(p.SampleRate)/1000))
	}
	if p.BitDepth > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", p.BitDepth))
	}
	if ch := channelDescription(p.Channels); ch != "" {
		parts = append(parts, ch)
	}
	if p.AudioBitrate > 0 {
		parts = append(parts, fmt.Sprintf("%dkbps", p.AudioBitrate/1000))
	}

	return join(parts, " ")
}

// DurationFromSamples returns samples / sampleRate as a Duration without
// floating point rounding.
func DurationFromSamples(samples uint64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	rate := uint64(sampleRate)
	secs := samples / rate
	rem := samples % rate
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/rate)
}

// Bitrate returns floor(bytes*8 / duration) in bits per second.
func Bitrate(bytes int64, d time.Duration) int {
	if bytes <= 0 || d <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(bytes)*8, uint64(time.Second))
	if hi >= uint64(d) {
		return 0
	}
	q, _ := bits.Div64(hi, lo, uint64(d))
	return int(q)
}

// channelDescription returns a human-readable channel description.
func channelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 4:
		return "quad"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// join concatenates strings with a separator, skipping empty strings.
func join(parts []string, sep string) string {
	var result string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if result != "" {
			result += sep
		}
		result += part
	}
	return result
}
