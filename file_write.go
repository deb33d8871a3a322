package audiotag

import (
	"fmt"
	"io"
	"os"

	"github.com/simonhull/audiotag/internal/aiff"
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/flac"
	"github.com/simonhull/audiotag/internal/monkey"
	"github.com/simonhull/audiotag/internal/mp4"
	"github.com/simonhull/audiotag/internal/mpeg"
	"github.com/simonhull/audiotag/internal/ogg"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/wav"
)

// File is a byte store that can be patched in place. *os.File satisfies
// it.
type File = patch.File

// WriteTag writes tag into the file at path, replacing any tag of the
// same type. An empty tag removes it.
//
// Only the tag's own block and the container fields that reference it
// change. The new content is written to a temporary file next to path,
// synced and renamed over it, so a failure leaves path untouched.
//
// Returns UnsupportedTagError, before anything is written, when the file
// type cannot carry tag.
func WriteTag(path string, tag *Tag, opts ...SaveOption) error {
	_, err := writeTag(path, tag, applySaveOptions(opts))
	return err
}

// writeTag reports whether the file was replaced. A tag that leaves the
// file unchanged writes nothing and takes no backup.
func writeTag(path string, tag *Tag, o *saveOptions) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, &types.IoError{Path: path, Op: "open", Err: err}
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	stat, err := f.Stat()
	if err != nil {
		return false, &types.IoError{Path: path, Op: "stat", Err: err}
	}
	ft, plan, err := planTag(f, stat.Size(), path, tag)
	if err != nil {
		return false, err
	}
	o.logger.Debug("write", "path", path, "type", ft, "tag", tag.Type(), "edits", len(plan.Edits()), "delta", plan.Delta())
	if plan.Empty() {
		return false, nil
	}

	err = patch.ReplaceFile(path, f, plan, patch.ReplaceOptions{
		BackupSuffix:    o.backupSuffix,
		PreserveModTime: o.preserveModTime,
	})
	if err != nil {
		return false, err
	}

	if o.validate {
		if err := validateWrittenFile(path, tag); err != nil {
			return true, fmt.Errorf("validation failed: %w", err)
		}
	}
	return true, nil
}

// WriteTagTo writes tag into f in place. The bytes from the first change
// to the end of the file are staged before f is modified.
func WriteTagTo(f File, tag *Tag, opts ...SaveOption) error {
	o := applySaveOptions(opts)

	stat, err := f.Stat()
	if err != nil {
		return &types.IoError{Op: "stat", Err: err}
	}
	ft, plan, err := planTag(f, stat.Size(), stat.Name(), tag)
	if err != nil {
		return err
	}
	o.logger.Debug("write in place", "name", stat.Name(), "type", ft, "tag", tag.Type(), "edits", len(plan.Edits()), "delta", plan.Delta())
	return patch.ApplyInPlace(f, plan)
}

// RemoveTag strips the tag of type t from the file at path.
func RemoveTag(path string, t TagType, opts ...SaveOption) error {
	return WriteTag(path, types.NewTag(t), opts...)
}

// RemoveTagFrom strips the tag of type t from f in place.
func RemoveTagFrom(f File, t TagType, opts ...SaveOption) error {
	return WriteTagTo(f, types.NewTag(t), opts...)
}

// planTag identifies the file and plans the edit for tag.
func planTag(r io.ReaderAt, size int64, name string, tag *Tag) (FileType, *patch.Plan, error) {
	p := NewProbe(r, size, name)
	if err := p.detect(); err != nil {
		return FileTypeUnknown, nil, err
	}
	ft := p.FileType()
	if !ft.SupportsTagType(tag.Type()) {
		return ft, nil, &types.UnsupportedTagError{FileType: ft, TagType: tag.Type()}
	}
	plan, err := writeContainer(ft, binutil.NewSafeReader(r, size, name), tag)
	if err != nil {
		return ft, nil, fmt.Errorf("write %s tag to %s: %w", tag.Type(), ft, err)
	}
	return ft, plan, nil
}

// writeContainer dispatches to the writer for ft.
func writeContainer(ft FileType, sr *binutil.SafeReader, tag *Tag) (*patch.Plan, error) {
	switch ft {
	case FileTypeAIFF:
		return aiff.Write(sr, tag)
	case FileTypeAPE:
		return monkey.Write(sr, tag)
	case FileTypeFLAC:
		return flac.Write(sr, tag)
	case FileTypeMP3:
		return mpeg.Write(sr, tag)
	case FileTypeMP4:
		return mp4.Write(sr, tag)
	case FileTypeOpus, FileTypeVorbis:
		return ogg.Write(sr, tag)
	case FileTypeWAV:
		return wav.Write(sr, tag)
	case FileTypeUnknown:
		return nil, &types.UnknownFormatError{Path: sr.Path(), Reason: "file type not identified"}
	default:
		return nil, &types.UnknownFormatError{Path: sr.Path(), Reason: fmt.Sprintf("no writer for %s", ft)}
	}
}

// validateWrittenFile re-reads the file and compares key fields of the
// tag of the written type.
func validateWrittenFile(path string, want *Tag) error {
	written, err := ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-read: %w", err)
	}
	got := written.Tag(want.Type())
	switch {
	case want.IsEmpty() && got != nil:
		return fmt.Errorf("%s tag still present", want.Type())
	case want.IsEmpty():
		return nil
	case got == nil:
		return fmt.Errorf("%s tag missing", want.Type())
	}

	if got.Title() != want.Title() {
		return fmt.Errorf("title mismatch: got %q, want %q", got.Title(), want.Title())
	}
	if got.Artist() != want.Artist() {
		return fmt.Errorf("artist mismatch: got %q, want %q", got.Artist(), want.Artist())
	}
	if got.Album() != want.Album() {
		return fmt.Errorf("album mismatch: got %q, want %q", got.Album(), want.Album())
	}
	return nil
}
