package types

import (
	"fmt"
	"io"
)

// IoError wraps a failure of the underlying byte source or sink.
type IoError struct {
	Err  error
	Path string
	Op   string // "read", "write", "stat", "truncate", ...
}

func (e *IoError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// OutOfBoundsError is returned when attempting to read beyond file bounds.
//
// It is the Io error raised for truncated headers and unwraps to
// io.ErrUnexpectedEOF.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

func (e *OutOfBoundsError) Unwrap() error { return io.ErrUnexpectedEOF }

// UnknownFormatError is returned when neither the extension nor the
// signature identifies a supported file type.
type UnknownFormatError struct {
	Path   string
	Reason string
}

func (e *UnknownFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unknown format: %s", e.Reason)
	}
	return fmt.Sprintf("%s: unknown format: %s", e.Path, e.Reason)
}

// UnsupportedTagError is returned when a tag type is written to a file
// type that cannot carry it.
type UnsupportedTagError struct {
	FileType FileType
	TagType  TagType
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("%s files cannot carry %s tags", e.FileType, e.TagType)
}

// MalformedHeaderError is returned when a structure violates its format:
// bad magic, a disallowed version, an invalid count or a zero-length
// mandatory chunk.
type MalformedHeaderError struct {
	Path   string
	Format string // "ID3v2", "APE", "OGG", ...
	Reason string
	Offset int64
}

func (e *MalformedHeaderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed %s header at offset %d: %s", e.Format, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: malformed %s header at offset %d: %s", e.Path, e.Format, e.Offset, e.Reason)
}

// EncodingError is returned when text violates the charset its container
// declares.
type EncodingError struct {
	What    string
	Charset string
	Offset  int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid %s text in %s at offset %d", e.Charset, e.What, e.Offset)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// A tag that fails to parse is reported as a Warning with Stage "tag" and
// Tag set; the remaining tags and the file properties are still returned.
type Warning struct {
	// Underlying error, if any
	Err error

	// Stage where the warning occurred
	Stage string // "probe", "properties", "tag", "item", "picture"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64

	// Tag the warning belongs to (valid when HasTag is true)
	Tag    TagType
	HasTag bool
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	stage := w.Stage
	if w.HasTag {
		stage = fmt.Sprintf("%s %s", w.Tag, w.Stage)
	}
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", stage, w.Message)
}

// TagWarning builds the Warning reported for a tag that failed to parse.
func TagWarning(t TagType, offset int64, err error) Warning {
	return Warning{
		Err:     err,
		Stage:   "tag",
		Message: err.Error(),
		Offset:  offset,
		Tag:     t,
		HasTag:  true,
	}
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
