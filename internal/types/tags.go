package types

import (
	"iter"
	"slices"
	"strings"
)

// TagItem is a single field of a Tag.
type TagItem struct {
	// Value of the item
	Value Value

	// Physical key, set only when Key is KeyUnknown
	Raw string

	// Canonical key
	Key ItemKey

	// ReadOnly mirrors the APE item read-only flag. Other formats ignore it.
	ReadOnly bool
}

// NewItem creates an item with a canonical key.
func NewItem(key ItemKey, v Value) TagItem {
	return TagItem{Key: key, Value: v}
}

// NewUnknownItem creates an item carrying a raw, format-specific key.
func NewUnknownItem(raw string, v Value) TagItem {
	return TagItem{Key: KeyUnknown, Raw: raw, Value: v}
}

// KeyName returns the canonical key name, or the raw key for unknown items.
func (i TagItem) KeyName() string {
	if i.Key == KeyUnknown {
		return i.Raw
	}
	return i.Key.String()
}

// sameKey reports whether two items address the same field.
func (i TagItem) sameKey(o TagItem) bool {
	if i.Key != o.Key {
		return false
	}
	return i.Key != KeyUnknown || strings.EqualFold(i.Raw, o.Raw)
}

// Tag is an ordered collection of items encoded in one TagType.
//
// Items keep insertion order, which is the serialization order for formats
// that define one (ID3v2 frames, Vorbis comments, MP4 ilst children).
type Tag struct {
	items []TagItem
	typ   TagType
}

// NewTag creates an empty tag of the given type.
func NewTag(t TagType) *Tag {
	return &Tag{typ: t}
}

// Type returns the tag's physical encoding.
func (t *Tag) Type() TagType {
	return t.typ
}

// Len returns the number of items. A nil tag has none.
func (t *Tag) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// IsEmpty reports whether the tag holds no items.
func (t *Tag) IsEmpty() bool {
	return t.Len() == 0
}

// Items returns a copy of the items in order.
func (t *Tag) Items() []TagItem {
	if t == nil {
		return nil
	}
	return slices.Clone(t.items)
}

// All returns an iterator over the items in order.
//
// Example:
//
//	for item := range tag.All() {
//		fmt.Println(item.KeyName(), types.ValueString(item.Value))
//	}
func (t *Tag) All() iter.Seq[TagItem] {
	return func(yield func(TagItem) bool) {
		if t == nil {
			return
		}
		for _, item := range t.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Get returns the first item with the given canonical key.
func (t *Tag) Get(key ItemKey) (TagItem, bool) {
	for _, item := range t.items {
		if item.Key == key && key != KeyUnknown {
			return item, true
		}
	}
	return TagItem{}, false
}

// GetAll returns every item with the given canonical key.
func (t *Tag) GetAll(key ItemKey) []TagItem {
	var out []TagItem
	for _, item := range t.items {
		if item.Key == key && key != KeyUnknown {
			out = append(out, item)
		}
	}
	return out
}

// GetUnknown returns the first item whose raw key matches raw,
// case-insensitively.
func (t *Tag) GetUnknown(raw string) (TagItem, bool) {
	want := NewUnknownItem(raw, nil)
	for _, item := range t.items {
		if item.sameKey(want) {
			return item, true
		}
	}
	return TagItem{}, false
}

// GetText returns the first Text or Locator value stored under key.
func (t *Tag) GetText(key ItemKey) (string, bool) {
	for _, item := range t.items {
		if item.Key != key || key == KeyUnknown {
			continue
		}
		switch v := item.Value.(type) {
		case Text:
			return string(v), true
		case Locator:
			return string(v), true
		}
	}
	return "", false
}

// Insert stores item, replacing any existing items with the same key
// unless the key is multi-valued (Picture), in which case it is appended.
//
// Insert returns false and leaves the tag unchanged when the item cannot
// be represented in this tag type.
func (t *Tag) Insert(item TagItem) bool {
	if !t.CanStore(item) {
		return false
	}
	if item.Key.multiValued() {
		t.items = append(t.items, item)
		return true
	}

	for i, existing := range t.items {
		if existing.sameKey(item) {
			rest := t.removeAfter(i, item)
			t.items = append(t.items[:i:i], item)
			t.items = append(t.items, rest...)
			return true
		}
	}
	t.items = append(t.items, item)
	return true
}

// removeAfter returns the items after index i that do not share item's key.
func (t *Tag) removeAfter(i int, item TagItem) []TagItem {
	var rest []TagItem
	for _, existing := range t.items[i+1:] {
		if !existing.sameKey(item) {
			rest = append(rest, existing)
		}
	}
	return rest
}

// Push appends item without replacing existing values. Codecs use it to
// keep repeated fields; APE tags still overwrite on duplicate keys.
func (t *Tag) Push(item TagItem) bool {
	if t.typ == TagAPE {
		return t.Insert(item)
	}
	if !t.CanStore(item) {
		return false
	}
	t.items = append(t.items, item)
	return true
}

// SetText inserts a Text value under key.
func (t *Tag) SetText(key ItemKey, value string) bool {
	return t.Insert(NewItem(key, Text(value)))
}

// Remove deletes every item with the given canonical key and returns how
// many were removed.
func (t *Tag) Remove(key ItemKey) int {
	before := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(item TagItem) bool {
		return item.Key == key && key != KeyUnknown
	})
	return before - len(t.items)
}

// RemoveUnknown deletes every item with the given raw key.
func (t *Tag) RemoveUnknown(raw string) int {
	probe := NewUnknownItem(raw, nil)
	before := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(item TagItem) bool {
		return item.sameKey(probe)
	})
	return before - len(t.items)
}

// Clear removes every item.
func (t *Tag) Clear() {
	t.items = nil
}

// Pictures returns every picture in the tag.
func (t *Tag) Pictures() []*Picture {
	var out []*Picture
	for item := range t.All() {
		if p, ok := item.Value.(*Picture); ok {
			out = append(out, p)
		}
	}
	return out
}

// CanStore reports whether item is representable in this tag type: its key
// has a physical mapping (or its raw key is valid) and its value kind is
// supported.
func (t *Tag) CanStore(item TagItem) bool {
	if item.Value == nil {
		return false
	}
	_, isPicture := item.Value.(*Picture)
	if isPicture != (item.Key == KeyPicture) {
		return false
	}
	if !t.typ.supportsValue(item.Value) {
		return false
	}
	if item.Key == KeyUnknown {
		return ValidRawKey(t.typ, item.Raw)
	}
	_, ok := PhysicalKey(t.typ, item.Key)
	return ok
}

// Clone creates a deep copy of the tag.
func (t *Tag) Clone() *Tag {
	if t == nil {
		return nil
	}
	clone := &Tag{typ: t.typ, items: make([]TagItem, len(t.items))}
	for i, item := range t.items {
		item.Value = cloneValue(item.Value)
		clone.items[i] = item
	}
	return clone
}

// Equal reports whether two tags have the same type and items.
//
// The relative order of items sharing a key is significant; the order of
// different keys is not, since some formats combine fields (TRCK holds both
// track number and total).
func (t *Tag) Equal(other *Tag) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.typ != other.typ || len(t.items) != len(other.items) {
		return false
	}

	used := make([]bool, len(other.items))
	for _, a := range t.items {
		found := false
		for j, b := range other.items {
			if used[j] || !a.sameKey(b) {
				continue
			}
			// First unused item with this key must match
			if !ValuesEqual(a.Value, b.Value) {
				return false
			}
			used[j] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
