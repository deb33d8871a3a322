package audiotag

import (
	"errors"
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
	"github.com/simonhull/audiotag/internal/types"
	"github.com/simonhull/audiotag/internal/wav"
)

// Probe decides how a byte source is read.
//
// A Probe starts with the file type implied by the path's extension;
// GuessFileType replaces it with the one found in the leading bytes.
//
//	p, err := audiotag.Open("song.mp3")
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//	if _, err := p.GuessFileType(); err != nil {
//		return err
//	}
//	file, err := p.Read(true)
type Probe struct {
	path     string
	r        io.ReaderAt
	size     int64
	closer   io.Closer
	fileType FileType
	opts     *readOptions
}

// Open opens path and returns a Probe typed by its extension. An unknown
// extension leaves the type FileTypeUnknown; Read then fails unless
// GuessFileType or SetFileType identifies it.
func Open(path string, opts ...Option) (*Probe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.IoError{Path: path, Op: "open", Err: err}
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &types.IoError{Path: path, Op: "stat", Err: err}
	}
	p := NewProbe(f, stat.Size(), path, opts...)
	p.closer = f
	return p, nil
}

// NewProbe returns a Probe over r, typed by the extension of path. path
// is only used for the extension and in errors.
func NewProbe(r io.ReaderAt, size int64, path string, opts ...Option) *Probe {
	ft, _ := types.FileTypeFromExtension(path)
	return &Probe{path: path, r: r, size: size, fileType: ft, opts: applyOptions(opts)}
}

// FileType returns the file type the Probe will read as.
func (p *Probe) FileType() FileType {
	return p.fileType
}

// SetFileType overrides the file type.
func (p *Probe) SetFileType(ft FileType) {
	p.fileType = ft
}

// GuessFileType identifies the file type from the leading bytes,
// overriding the extension. When no signature matches the extension-based
// type is kept and the UnknownFormatError is returned.
func (p *Probe) GuessFileType() (FileType, error) {
	ft, err := types.GuessFileType(p.r, p.size, p.path)
	if err != nil {
		return p.fileType, err
	}
	p.fileType = ft
	return ft, nil
}

// Read parses the source as the Probe's file type. With parseTags false
// tag blocks are skipped and only the stream properties are read.
func (p *Probe) Read(parseTags bool) (*TaggedFile, error) {
	log := p.opts.logger.With("path", p.path)
	sr := binutil.NewSafeReader(p.r, p.size, p.path)
	parsed, err := readContainer(p.fileType, sr, types.ReadOptions{
		ParseTags:      parseTags,
		MaxPictureSize: p.opts.maxPictureSize,
	})
	if err != nil {
		log.Debug("read failed", "type", p.fileType, "err", err)
		return nil, fmt.Errorf("read %s: %w", p.fileType, err)
	}
	parsed.FilterPictures(p.opts.maxPictureSize)
	log.Debug("read", "type", p.fileType, "tags", len(parsed.Tags), "warnings", len(parsed.Warnings))
	for _, w := range parsed.Warnings {
		log.Warn(w.Message, "stage", w.Stage, "offset", w.Offset)
	}

	if p.opts.strictParsing && len(parsed.Warnings) > 0 {
		w := parsed.Warnings[0]
		if w.Err != nil {
			return nil, fmt.Errorf("strict parsing failed: %s: %w", w.Stage, w.Err)
		}
		return nil, fmt.Errorf("strict parsing failed: %s", w)
	}
	if p.opts.ignoreWarnings {
		parsed.Warnings = nil
	}

	return &TaggedFile{
		Path:       p.path,
		Properties: parsed.Properties,
		Warnings:   parsed.Warnings,
		fileType:   p.fileType,
		tags:       parsed.Tags,
	}, nil
}

// Close releases the file opened by Open. It is a no-op for a Probe
// built with NewProbe.
func (p *Probe) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// ReadFile opens path, identifies it by signature (falling back to its
// extension) and reads it with tags.
//
// Example:
//
//	file, err := audiotag.ReadFile("song.flac")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%s - %s\n", file.PrimaryTag().Artist(), file.PrimaryTag().Title())
func ReadFile(path string, opts ...Option) (*TaggedFile, error) {
	p, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close() //nolint:errcheck // Read-only handle

	if err := p.detect(); err != nil {
		return nil, err
	}
	return p.Read(true)
}

// detect guesses the type by signature and falls back to the extension.
func (p *Probe) detect() error {
	ext := p.fileType
	_, err := p.GuessFileType()
	var unknown *types.UnknownFormatError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &unknown) && ext != FileTypeUnknown:
		p.opts.logger.Debug("no signature match, using extension", "path", p.path, "type", ext)
		return nil
	default:
		return err
	}
}

// readContainer dispatches to the reader for ft.
func readContainer(ft FileType, sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	switch ft {
	case FileTypeAIFF:
		return aiff.Read(sr, opts)
	case FileTypeAPE:
		return monkey.Read(sr, opts)
	case FileTypeFLAC:
		return flac.Read(sr, opts)
	case FileTypeMP3:
		return mpeg.Read(sr, opts)
	case FileTypeMP4:
		return mp4.Read(sr, opts)
	case FileTypeOpus, FileTypeVorbis:
		return ogg.Read(sr, opts)
	case FileTypeWAV:
		return wav.Read(sr, opts)
	case FileTypeUnknown:
		return nil, &types.UnknownFormatError{Path: sr.Path(), Reason: "file type not identified"}
	default:
		return nil, &types.UnknownFormatError{Path: sr.Path(), Reason: fmt.Sprintf("no reader for %s", ft)}
	}
}
