package types

import (
	"bytes"
	"fmt"
)

// Value is the payload of a TagItem: one of Text, Locator, Binary or
// *Picture.
type Value interface {
	isValue()
}

// Text is a plain UTF-8 string value.
type Text string

// Locator is a URL or other resource locator.
type Locator string

// Binary is an opaque byte payload the engine does not interpret.
type Binary []byte

func (Text) isValue()     {}
func (Locator) isValue()  {}
func (Binary) isValue()   {}
func (*Picture) isValue() {}

// Picture is an embedded image.
type Picture struct {
	// MIME type of the image data
	MIMEType string // "image/jpeg", "image/png", ...

	// Description of the picture (optional)
	Description string

	// Image binary data
	Data []byte

	// Type of picture (front cover, back cover, ...)
	Type PictureType
}

// PictureType categorizes the purpose of a picture.
//
// Values are the ID3v2 APIC / FLAC PICTURE picture types.
type PictureType uint8

const (
	PictureOther PictureType = iota
	PictureIcon
	PictureOtherIcon
	PictureFrontCover
	PictureBackCover
	PictureLeaflet
	PictureMedia
	PictureLeadArtist
	PictureArtist
	PictureConductor
	PictureBand
	PictureComposer
	PictureLyricist
	PictureRecordingLocation
	PictureDuringRecording
	PictureDuringPerformance
	PictureVideoCapture
	PictureBrightFish
	PictureIllustration
	PictureBandLogotype
	PicturePublisherLogotype
)

var pictureTypeNames = [...]string{
	"Other", "File icon", "Other file icon", "Front cover", "Back cover",
	"Leaflet page", "Media", "Lead artist", "Artist", "Conductor", "Band",
	"Composer", "Lyricist", "Recording location", "During recording",
	"During performance", "Video capture", "A bright colored fish",
	"Illustration", "Band logotype", "Publisher logotype",
}

func (p PictureType) String() string {
	if int(p) < len(pictureTypeNames) {
		return pictureTypeNames[p]
	}
	return fmt.Sprintf("PictureType(%d)", uint8(p))
}

// String returns a short description such as "Front cover (JPEG, 245KB)".
func (p *Picture) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.Type, mimeToFormat(p.MIMEType), formatSize(len(p.Data)))
}

// SniffImageMIME returns the MIME type of well-known image signatures, or
// "" when none matches.
func SniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "image/tiff"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// formatSize formats byte size in human-readable form.
func formatSize(n int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case n >= MB:
		return fmt.Sprintf("%.1fMB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%dKB", n/KB)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// mimeToFormat converts MIME type to short format name.
func mimeToFormat(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "JPEG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	case "image/bmp":
		return "BMP"
	case "image/tiff":
		return "TIFF"
	case "image/webp":
		return "WebP"
	default:
		return "Image"
	}
}

// ValuesEqual reports whether two values have the same kind and content.
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Locator:
		bv, ok := b.(Locator)
		return ok && av == bv
	case Binary:
		bv, ok := b.(Binary)
		return ok && bytes.Equal(av, bv)
	case *Picture:
		bv, ok := b.(*Picture)
		if !ok || av == nil || bv == nil {
			return ok && av == bv
		}
		return av.MIMEType == bv.MIMEType && av.Type == bv.Type &&
			av.Description == bv.Description && bytes.Equal(av.Data, bv.Data)
	}
	return a == nil && b == nil
}

// ValueString renders a value for display.
func ValueString(v Value) string {
	switch v := v.(type) {
	case Text:
		return string(v)
	case Locator:
		return string(v)
	case Binary:
		return fmt.Sprintf("<binary: %d bytes>", len(v))
	case *Picture:
		return v.String()
	}
	return ""
}

func cloneValue(v Value) Value {
	switch v := v.(type) {
	case Binary:
		return Binary(bytes.Clone(v))
	case *Picture:
		p := *v
		p.Data = bytes.Clone(v.Data)
		return &p
	}
	return v
}
