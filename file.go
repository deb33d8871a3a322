package audiotag

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag/internal/types"
)

// TaggedFile is the result of reading an audio file: its type, stream
// properties and every tag found, in file order.
//
// Tags are edited in memory; nothing reaches the file until Save (or one
// of the WriteTag functions) is called.
type TaggedFile struct {
	// Path the file was read from
	Path string

	// Audio stream properties
	Properties FileProperties

	// Warnings encountered during parsing (non-fatal issues)
	Warnings []Warning

	fileType FileType
	tags     []*Tag
	removed  []TagType // removed since the read, stripped on Save
}

// FileType returns the type the file was read as.
func (f *TaggedFile) FileType() FileType {
	return f.fileType
}

// PrimaryTagType returns the tag type preferred for this file type.
func (f *TaggedFile) PrimaryTagType() TagType {
	return f.fileType.PrimaryTagType()
}

// PrimaryTag returns the tag of the primary type, or nil.
func (f *TaggedFile) PrimaryTag() *Tag {
	return f.Tag(f.PrimaryTagType())
}

// FirstTag returns the first tag found, or nil.
func (f *TaggedFile) FirstTag() *Tag {
	if len(f.tags) == 0 {
		return nil
	}
	return f.tags[0]
}

// Tag returns the tag of type t, or nil.
func (f *TaggedFile) Tag(t TagType) *Tag {
	for _, tag := range f.tags {
		if tag.Type() == t {
			return tag
		}
	}
	return nil
}

// Tags returns every tag in file order. The slice is a copy; the tags
// are not.
func (f *TaggedFile) Tags() []*Tag {
	return slices.Clone(f.tags)
}

// SupportsTagType reports whether the file can carry tags of type t.
func (f *TaggedFile) SupportsTagType(t TagType) bool {
	return f.fileType.SupportsTagType(t)
}

// InsertTag adds tag, replacing a held tag of the same type, which is
// returned. A tag type the file cannot carry is refused.
func (f *TaggedFile) InsertTag(tag *Tag) (*Tag, error) {
	if !f.SupportsTagType(tag.Type()) {
		return nil, &types.UnsupportedTagError{FileType: f.fileType, TagType: tag.Type()}
	}
	f.removed = slices.DeleteFunc(f.removed, func(t TagType) bool { return t == tag.Type() })
	for i, old := range f.tags {
		if old.Type() == tag.Type() {
			f.tags[i] = tag
			return old, nil
		}
	}
	f.tags = append(f.tags, tag)
	return nil, nil
}

// RemoveTag drops the tag of type t and returns it, or nil when none was
// held. The next Save strips it from the file.
func (f *TaggedFile) RemoveTag(t TagType) *Tag {
	for i, tag := range f.tags {
		if tag.Type() == t {
			f.tags = slices.Delete(f.tags, i, i+1)
			f.removed = append(f.removed, t)
			return tag
		}
	}
	return nil
}

// Save writes every held tag back to f.Path and strips the tags removed
// since the read. Each tag is written as its own atomic replacement; a
// backup, when requested, holds the file as it was before the first write
// that changed it.
func (f *TaggedFile) Save(opts ...SaveOption) error {
	var tags []*Tag
	for _, t := range f.removed {
		tags = append(tags, types.NewTag(t))
	}
	tags = append(tags, f.tags...)

	o := applySaveOptions(opts)
	for _, tag := range tags {
		wrote, err := writeTag(f.Path, tag, o)
		if err != nil {
			return fmt.Errorf("save %s tag: %w", tag.Type(), err)
		}
		if wrote {
			o.backupSuffix = ""
		}
	}
	f.removed = nil
	return nil
}

// ReadMany reads multiple audio files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. The first
// failure cancels the remaining reads and is returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := audiotag.ReadMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %s\n", f.FileType(), f.Properties)
//	}
func ReadMany(ctx context.Context, paths []string, opts ...Option) ([]*TaggedFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*TaggedFile, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := ReadFile(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
