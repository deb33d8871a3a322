package audiotag

import "log/slog"

// SaveOption configures behavior when writing tags.
//
// Example:
//
//	err := audiotag.WriteTag("song.mp3", tag,
//	    audiotag.WithBackup(".bak"),
//	    audiotag.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
	logger          *slog.Logger
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{logger: discardLogger}
}

func applySaveOptions(opts []SaveOption) *saveOptions {
	o := defaultSaveOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBackup creates a backup of the original file before saving.
//
// The backup file will have the specified suffix appended to the original
// filename. For example, WithBackup(".bak") will create "song.mp3.bak"
// before modifying "song.mp3".
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// After saving, the file is read again and the written tag's title,
// artist and album are compared with what was written.
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// Use this when updating metadata should not change the "modified" date.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}

// WithSaveLogger sets the logger writes report to. The default discards.
func WithSaveLogger(l *slog.Logger) SaveOption {
	return func(o *saveOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
