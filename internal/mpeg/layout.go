package mpeg

import (
	"github.com/simonhull/audiotag/internal/ape"
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/types"
)

// Layout is where the tags of an MP3 or Monkey's Audio file sit: ID3v2
// at the start, then the audio, then APE and ID3v1 at the end.
type Layout struct {
	ID3v2End int64 // end of the leading ID3v2 tags, 0 when absent
	APE      ape.Location
	HasAPE   bool
	ID3v1    int64
	HasID3v1 bool

	id3v2Err error
	apeErr   error
	size     int64
}

// AudioEnd returns the offset where the trailing tags begin.
func (l Layout) AudioEnd() int64 {
	switch {
	case l.HasAPE:
		return l.APE.Offset
	case l.HasID3v1:
		return l.ID3v1
	default:
		return l.size
	}
}

// trailerStart returns where an APE tag goes: before any ID3v1 tag.
func (l Layout) trailerStart() int64 {
	if l.HasID3v1 {
		return l.ID3v1
	}
	return l.size
}

// LocateTags finds the tags of sr without decoding them. A malformed
// ID3v2 or APE header is kept on the layout and reported by ReadTags;
// only I/O failures are returned.
func LocateTags(sr *binutil.SafeReader) (Layout, error) {
	l := Layout{size: sr.Size()}

	end, err := id3v2.Skip(sr, 0)
	switch {
	case isIO(err):
		return Layout{}, err
	case err != nil:
		l.id3v2Err = err
	default:
		l.ID3v2End = end
	}

	if l.ID3v1, l.HasID3v1, err = id3v1.FindBefore(sr, sr.Size()); err != nil {
		return Layout{}, err
	}
	if l.ID3v1 < l.ID3v2End {
		l.HasID3v1 = false
	}

	loc, ok, err := ape.FindBefore(sr, l.trailerStart())
	switch {
	case isIO(err):
		return Layout{}, err
	case err != nil:
		l.apeErr = err
	case ok && loc.Offset >= l.ID3v2End:
		l.APE, l.HasAPE = loc, true
	}
	return l, nil
}

func isIO(err error) bool {
	if err == nil {
		return false
	}
	_, malformed := err.(*types.MalformedHeaderError)
	return !malformed
}

// ReadTags decodes the tags found by LocateTags into parsed, in file
// order. A tag that fails to decode is reported and skipped.
func ReadTags(sr *binutil.SafeReader, l Layout, parsed *types.Parsed) error {
	if l.id3v2Err != nil {
		parsed.TagFailed(types.TagID3v2, 0, l.id3v2Err)
	} else if l.ID3v2End > 0 {
		tag, warnings, size, err := id3v2.Read(sr, 0)
		switch {
		case isIO(err):
			return err
		case err != nil:
			parsed.TagFailed(types.TagID3v2, 0, err)
		default:
			parsed.Warnings = append(parsed.Warnings, warnings...)
			addTag(parsed, tag)
			if size < l.ID3v2End {
				parsed.Warn("tag", size, "ignored %d bytes of additional ID3v2 tags", l.ID3v2End-size)
			}
		}
	}

	if l.apeErr != nil {
		parsed.TagFailed(types.TagAPE, l.trailerStart(), l.apeErr)
	} else if l.HasAPE {
		tag, warnings, err := ape.Read(sr, l.APE)
		switch {
		case isIO(err):
			return err
		case err != nil:
			parsed.TagFailed(types.TagAPE, l.APE.Offset, err)
		default:
			parsed.Warnings = append(parsed.Warnings, warnings...)
			addTag(parsed, tag)
		}
	}

	if l.HasID3v1 {
		tag, err := id3v1.Read(sr, l.ID3v1)
		if err != nil {
			return err
		}
		addTag(parsed, tag)
	}
	return nil
}

func addTag(parsed *types.Parsed, tag *types.Tag) {
	if !tag.IsEmpty() {
		parsed.AddTag(tag)
	}
}

// WriteTags plans replacing the tag of tag's type; an empty tag removes
// it. ID3v2 goes at offset 0, APE before any ID3v1 tag and ID3v1 in the
// last 128 bytes.
func WriteTags(sr *binutil.SafeReader, l Layout, ft types.FileType, tag *types.Tag) (*patch.Plan, error) {
	plan := patch.NewPlan(sr.Size())
	switch tag.Type() {
	case types.TagID3v2:
		if l.id3v2Err != nil {
			return nil, l.id3v2Err
		}
		data, err := id3v2.Encode(tag)
		if err != nil {
			return nil, err
		}
		plan.Replace(0, l.ID3v2End, data)
	case types.TagAPE:
		if l.apeErr != nil {
			return nil, l.apeErr
		}
		data, err := ape.Encode(tag)
		if err != nil {
			return nil, err
		}
		if l.HasAPE {
			plan.Replace(l.APE.Offset, l.APE.Size, data)
		} else {
			plan.Insert(l.trailerStart(), data)
		}
	case types.TagID3v1:
		var n int64
		if l.HasID3v1 {
			n = id3v1.Size
		}
		if id3v1.IsEmpty(tag) {
			plan.Delete(l.trailerStart(), n)
		} else {
			plan.Replace(l.trailerStart(), n, id3v1.Encode(tag))
		}
	default:
		return nil, &types.UnsupportedTagError{FileType: ft, TagType: tag.Type()}
	}
	return plan, nil
}
