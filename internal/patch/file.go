package patch

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/simonhull/audiotag/internal/types"
)

// File is a byte store that can be patched in place. *os.File satisfies it.
type File interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
}

// ReplaceOptions configure ReplaceFile.
type ReplaceOptions struct {
	BackupSuffix    string // rename the original to path+suffix first
	PreserveModTime bool
}

// ReplaceFile writes the patched file next to outputPath and atomically
// renames it into place. src is the original content of size p.SourceSize().
//
// If any step fails, the temporary file is removed and outputPath is left
// untouched.
func ReplaceFile(outputPath string, src io.ReaderAt, p *Plan, opts ReplaceOptions) error { //nolint:gocyclo // Atomic file operations require sequential steps
	if err := p.Validate(); err != nil {
		return err
	}

	// Get original file's mod time if we need to preserve it
	var origInfo fs.FileInfo
	if opts.PreserveModTime {
		if info, err := os.Stat(outputPath); err == nil {
			origInfo = info
		}
	}

	// Create temp file in same directory as output (for atomic rename)
	tempFile, err := os.CreateTemp(filepath.Dir(outputPath), ".audiotag-*.tmp")
	if err != nil {
		return &types.IoError{Path: outputPath, Op: "create temp file", Err: err}
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := p.WriteTo(tempFile, src); err != nil {
		return &types.IoError{Path: tempPath, Op: "write", Err: err}
	}

	// Sync temp file (fsync) to ensure data is on disk
	if err := tempFile.Sync(); err != nil {
		return &types.IoError{Path: tempPath, Op: "sync", Err: err}
	}
	if err := tempFile.Close(); err != nil {
		return &types.IoError{Path: tempPath, Op: "close", Err: err}
	}

	if origInfo != nil {
		_ = os.Chmod(tempPath, origInfo.Mode().Perm()) //nolint:errcheck // Non-fatal: keeps the original permissions when possible
	} else if info, err := os.Stat(outputPath); err == nil {
		_ = os.Chmod(tempPath, info.Mode().Perm()) //nolint:errcheck // Non-fatal
	}

	// Rename original to the backup name before replacing it
	if opts.BackupSuffix != "" {
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, outputPath+opts.BackupSuffix); err != nil {
				return &types.IoError{Path: outputPath, Op: "create backup", Err: err}
			}
		}
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return &types.IoError{Path: outputPath, Op: "rename temp to output", Err: err}
	}
	success = true

	if origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	return nil
}

// ApplyInPlace patches f in place.
//
// Everything from the first changed offset to the end of the patched file
// is staged in a temporary file before f is written, so a failure while
// building the new content leaves f unchanged.
func ApplyInPlace(f File, p *Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}

	start := p.FirstOffset()
	stage, err := os.CreateTemp("", "audiotag-*.stage")
	if err != nil {
		return &types.IoError{Op: "create staging file", Err: err}
	}
	defer func() {
		_ = stage.Close()           //nolint:errcheck // Best effort cleanup
		_ = os.Remove(stage.Name()) //nolint:errcheck // Best effort cleanup
	}()

	staged, err := p.writeFrom(stage, f, start)
	if err != nil {
		return &types.IoError{Path: stage.Name(), Op: "stage patched tail", Err: err}
	}
	if start+staged != p.NewSize() {
		return fmt.Errorf("staged %d bytes from offset %d, expected file size %d", staged, start, p.NewSize())
	}

	// Grow before writing so a full disk fails before any byte changes
	if p.NewSize() > p.SourceSize() {
		if err := f.Truncate(p.NewSize()); err != nil {
			return &types.IoError{Op: "grow", Err: err}
		}
	}

	if _, err := io.Copy(io.NewOffsetWriter(f, start), io.NewSectionReader(stage, 0, staged)); err != nil {
		return &types.IoError{Op: "write patched tail", Err: err}
	}

	if p.NewSize() < p.SourceSize() {
		if err := f.Truncate(p.NewSize()); err != nil {
			return &types.IoError{Op: "truncate", Err: err}
		}
	}
	return nil
}
