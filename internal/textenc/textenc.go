// Package textenc converts between Go strings and the legacy charsets used
// by ID3, RIFF and AIFF text fields.
package textenc

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/simonhull/audiotag/internal/types"
)

var (
	utf16BOM encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	utf16BE  encoding.Encoding = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// DecodeLatin1 decodes ISO-8859-1 bytes. Every byte sequence is valid.
func DecodeLatin1(b []byte) string {
	// ISO-8859-1 maps bytes 1:1 onto U+0000..U+00FF
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// EncodeLatin1 encodes s as ISO-8859-1, replacing unrepresentable runes
// with '?'.
func EncodeLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// DecodeUTF16 decodes UTF-16 honoring a leading byte order mark; without
// one the data is read as little-endian.
func DecodeUTF16(b []byte, what string, offset int64) (string, error) {
	if len(b)%2 != 0 {
		return "", &types.EncodingError{What: what, Charset: "UTF-16", Offset: offset}
	}
	out, err := utf16BOM.NewDecoder().Bytes(b)
	if err != nil {
		return "", &types.EncodingError{What: what, Charset: "UTF-16", Offset: offset}
	}
	return string(out), nil
}

// DecodeUTF16BE decodes big-endian UTF-16 without a byte order mark.
func DecodeUTF16BE(b []byte, what string, offset int64) (string, error) {
	if len(b)%2 != 0 {
		return "", &types.EncodingError{What: what, Charset: "UTF-16BE", Offset: offset}
	}
	out, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", &types.EncodingError{What: what, Charset: "UTF-16BE", Offset: offset}
	}
	return string(out), nil
}

// DecodeUTF8 validates b as UTF-8.
func DecodeUTF8(b []byte, what string, offset int64) (string, error) {
	if !utf8.Valid(b) {
		return "", &types.EncodingError{What: what, Charset: "UTF-8", Offset: offset}
	}
	return string(b), nil
}

// TrimNul cuts b at its first NUL byte.
func TrimNul(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
