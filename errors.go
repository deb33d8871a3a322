package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// IoError is an alias to types.IoError.
// It wraps a failure of the underlying file or reader.
type IoError = types.IoError

// OutOfBoundsError is an alias to types.OutOfBoundsError.
// It reports truncated data and unwraps to io.ErrUnexpectedEOF.
type OutOfBoundsError = types.OutOfBoundsError

// UnknownFormatError is an alias to types.UnknownFormatError.
type UnknownFormatError = types.UnknownFormatError

// UnsupportedTagError is an alias to types.UnsupportedTagError.
// It is returned before any byte is written.
type UnsupportedTagError = types.UnsupportedTagError

// MalformedHeaderError is an alias to types.MalformedHeaderError.
type MalformedHeaderError = types.MalformedHeaderError

// EncodingError is an alias to types.EncodingError.
type EncodingError = types.EncodingError

// Warning is an alias to types.Warning.
// Non-fatal issues found while reading are collected as Warnings.
type Warning = types.Warning
