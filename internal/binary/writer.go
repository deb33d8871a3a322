package binary

import (
	"bytes"
	"encoding/binary"
	"io"
)

// SafeWriter serializes tag structures with position tracking.
//
// The first write error is kept and later writes are skipped, so an encoder
// checks Err once after building a whole structure.
type SafeWriter struct {
	w      io.Writer
	err    error
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Encode runs fn against a SafeWriter over a fresh buffer and returns what
// it wrote. Writes to memory cannot fail.
func Encode(fn func(sw *SafeWriter)) []byte {
	var buf bytes.Buffer
	fn(NewSafeWriter(&buf))
	return buf.Bytes()
}

// Offset returns the number of bytes written.
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// Err returns the first write error.
func (sw *SafeWriter) Err() error {
	return sw.err
}

// WriteBytes writes raw bytes.
func (sw *SafeWriter) WriteBytes(b []byte) {
	if sw.err != nil {
		return
	}
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	sw.err = err
}

// WriteString writes s without a terminator.
func (sw *SafeWriter) WriteString(s string) {
	sw.WriteBytes([]byte(s))
}

// WriteCString writes s followed by a NUL byte, as APE item keys and
// ID3v2 descriptions are stored.
func (sw *SafeWriter) WriteCString(s string) {
	sw.WriteBytes(append([]byte(s), 0))
}

// WriteZeros writes n zero bytes.
func (sw *SafeWriter) WriteZeros(n int) {
	sw.WriteBytes(make([]byte, n))
}

// Write writes val in big-endian byte order, as MP4 atoms and FLAC
// blocks store integers.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) {
	sw.WriteBytes(appendUint(binary.BigEndian, val))
}

// WriteLE writes val in little-endian byte order, as APE tags and Vorbis
// comments store integers.
func WriteLE[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) {
	sw.WriteBytes(appendUint(binary.LittleEndian, val))
}

func appendUint[T uint8 | uint16 | uint32 | uint64](order binary.AppendByteOrder, val T) []byte {
	switch v := any(val).(type) {
	case uint8:
		return []byte{v}
	case uint16:
		return order.AppendUint16(nil, v)
	case uint32:
		return order.AppendUint32(nil, v)
	case uint64:
		return order.AppendUint64(nil, v)
	}
	return nil
}
