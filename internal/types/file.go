// Package types provides the format-independent model shared by every
// container reader and tag codec: file and tag types, canonical item keys,
// tags, stream properties and errors.
package types

// ReadOptions control a container read.
type ReadOptions struct {
	// ParseTags enables tag parsing; when false tag blocks are skipped
	// by their declared length and never buffered.
	ParseTags bool

	// MaxPictureSize drops pictures larger than this many bytes with a
	// warning (0 = no limit).
	MaxPictureSize int
}

// Parsed is the result of reading one container.
type Parsed struct {
	Tags       []*Tag
	Warnings   []Warning
	Properties FileProperties
}

// AddTag appends a parsed tag.
func (p *Parsed) AddTag(t *Tag) {
	if t != nil {
		p.Tags = append(p.Tags, t)
	}
}

// Warn records a non-fatal issue.
func (p *Parsed) Warn(stage string, offset int64, format string, args ...any) {
	p.Warnings = append(p.Warnings, Warning{
		Stage:   stage,
		Message: sprintf(format, args...),
		Offset:  offset,
	})
}

// TagFailed records a tag that could not be parsed.
func (p *Parsed) TagFailed(t TagType, offset int64, err error) {
	p.Warnings = append(p.Warnings, TagWarning(t, offset, err))
}

// PropertiesFailed records a stream-info failure; properties stay unknown.
func (p *Parsed) PropertiesFailed(offset int64, err error) {
	p.Properties = FileProperties{}
	p.Warnings = append(p.Warnings, Warning{
		Err:     err,
		Stage:   "properties",
		Message: err.Error(),
		Offset:  offset,
	})
}

// FilterPictures drops pictures larger than limit from every tag.
func (p *Parsed) FilterPictures(limit int) {
	if limit <= 0 {
		return
	}
	for _, tag := range p.Tags {
		kept := tag.items[:0]
		for _, item := range tag.items {
			if pic, ok := item.Value.(*Picture); ok && len(pic.Data) > limit {
				p.Warnings = append(p.Warnings, Warning{
					Stage:   "picture",
					Message: sprintf("skipped %s: %d bytes exceeds limit of %d", pic.Type, len(pic.Data), limit),
					Tag:     tag.typ,
					HasTag:  true,
				})
				continue
			}
			kept = append(kept, item)
		}
		tag.items = kept
	}
}
