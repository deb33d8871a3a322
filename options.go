package audiotag

import (
	"io"
	"log/slog"
)

// Option configures behavior when reading audio files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	file, err := audiotag.ReadFile("song.flac",
//	    audiotag.WithStrictParsing(),
//	    audiotag.WithMaxPictureSize(10<<20),
//	)
type Option func(*readOptions)

// readOptions holds configuration for reading files.
type readOptions struct {
	strictParsing  bool // Fail on any warning
	ignoreWarnings bool // Suppress all warnings
	maxPictureSize int  // Maximum picture size in bytes (0 = no limit)
	logger         *slog.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() *readOptions {
	return &readOptions{logger: discardLogger}
}

func applyOptions(opts []Option) *readOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WithStrictParsing treats any warning as a fatal error.
//
// By default, reading continues past issues like invalid tag encodings or
// a corrupt stream header, returning warnings alongside the parsed data.
//
// Example:
//
//	file, err := audiotag.ReadFile("song.flac", audiotag.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *readOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default, warnings about non-fatal issues are collected in
// TaggedFile.Warnings. This option discards them.
func WithIgnoreWarnings() Option {
	return func(o *readOptions) {
		o.ignoreWarnings = true
	}
}

// WithMaxPictureSize sets a maximum size for embedded pictures.
//
// Pictures larger than bytes are dropped from their tag with a warning.
// This protects against excessively large embedded images.
//
// Default is 0 (no limit).
func WithMaxPictureSize(bytes int) Option {
	return func(o *readOptions) {
		o.maxPictureSize = bytes
	}
}

// WithLogger sets the logger reads report to. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *readOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
