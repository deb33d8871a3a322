package mp4

import (
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Read parses an MP4 file: stream properties from the moov atom and the
// ilst tag when present.
func Read(sr *binutil.SafeReader, opts types.ReadOptions) (*types.Parsed, error) {
	root, err := ReadTree(sr)
	if err != nil {
		return nil, err
	}
	moov := root.Child("moov")
	if moov == nil {
		return nil, &types.MalformedHeaderError{Path: sr.Path(), Format: "MP4", Reason: "missing moov atom"}
	}

	parsed := &types.Parsed{}
	if props, err := readProperties(sr, root, moov); err != nil {
		parsed.PropertiesFailed(moov.Offset, err)
	} else {
		parsed.Properties = props
	}

	if !opts.ParseTags {
		return parsed, nil
	}
	ilst := moov.Find("udta", "meta", "ilst")
	if ilst == nil {
		return parsed, nil
	}
	b, err := sr.ReadBytes(ilst.DataOffset(), int(ilst.DataSize()), "ilst")
	if err != nil {
		return nil, err
	}
	tag, warnings, err := ParseIlst(b, ilst.DataOffset())
	if err != nil {
		parsed.TagFailed(types.TagMP4Ilst, ilst.Offset, err)
		return parsed, nil
	}
	parsed.Warnings = append(parsed.Warnings, warnings...)
	if !tag.IsEmpty() {
		parsed.AddTag(tag)
	}
	return parsed, nil
}
