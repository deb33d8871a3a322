package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// Title returns the track title.
func (t *Tag) Title() string { return t.text(KeyTrackTitle) }

// Artist returns the track artist.
func (t *Tag) Artist() string { return t.text(KeyTrackArtist) }

// Album returns the album title.
func (t *Tag) Album() string { return t.text(KeyAlbumTitle) }

// AlbumArtist returns the album artist.
func (t *Tag) AlbumArtist() string { return t.text(KeyAlbumArtist) }

// Genre returns the genre.
func (t *Tag) Genre() string { return t.text(KeyGenre) }

// Comment returns the comment.
func (t *Tag) Comment() string { return t.text(KeyComment) }

// SetTitle sets the track title.
func (t *Tag) SetTitle(v string) bool { return t.SetText(KeyTrackTitle, v) }

// SetArtist sets the track artist.
func (t *Tag) SetArtist(v string) bool { return t.SetText(KeyTrackArtist, v) }

// SetAlbum sets the album title.
func (t *Tag) SetAlbum(v string) bool { return t.SetText(KeyAlbumTitle, v) }

// SetGenre sets the genre.
func (t *Tag) SetGenre(v string) bool { return t.SetText(KeyGenre, v) }

// SetComment sets the comment.
func (t *Tag) SetComment(v string) bool { return t.SetText(KeyComment, v) }

func (t *Tag) text(key ItemKey) string {
	s, _ := t.GetText(key)
	return s
}

// Year returns the release year from the Year item, falling back to the
// recording date.
func (t *Tag) Year() (int, bool) {
	for _, key := range []ItemKey{KeyYear, KeyRecordingDate} {
		if s, ok := t.GetText(key); ok {
			if y, ok := ParseYear(s); ok {
				n, _ := strconv.Atoi(y)
				return n, true
			}
		}
	}
	return 0, false
}

// Track returns the track number and total; zero means absent.
func (t *Tag) Track() (number, total int) {
	return t.number(KeyTrackNumber), t.number(KeyTrackTotal)
}

// Disc returns the disc number and total; zero means absent.
func (t *Tag) Disc() (number, total int) {
	return t.number(KeyDiscNumber), t.number(KeyDiscTotal)
}

// SetTrack sets the track number and, when non-zero, the total.
func (t *Tag) SetTrack(number, total int) {
	t.setNumber(KeyTrackNumber, number)
	t.setNumber(KeyTrackTotal, total)
}

// SetDisc sets the disc number and, when non-zero, the total.
func (t *Tag) SetDisc(number, total int) {
	t.setNumber(KeyDiscNumber, number)
	t.setNumber(KeyDiscTotal, total)
}

func (t *Tag) number(key ItemKey) int {
	s, ok := t.GetText(key)
	if !ok {
		return 0
	}
	n, _ := ParseNumber(s)
	return n
}

func (t *Tag) setNumber(key ItemKey, n int) {
	if n <= 0 {
		t.Remove(key)
		return
	}
	t.SetText(key, strconv.Itoa(n))
}

// ParseNumber parses the leading integer of s, accepting "3" and "3/12".
func ParseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SplitPair splits "n/total" text into its parts; either may be empty.
func SplitPair(s string) (number, total string) {
	number, total, _ = strings.Cut(s, "/")
	return strings.TrimSpace(number), strings.TrimSpace(total)
}

// ParseYear extracts a four-digit year from date text such as "2004",
// "2004-05-06", "May 6, 2004" or "2004-05-06T10:00:00".
func ParseYear(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 4 && allDigits(s[:4]) && (len(s) == 4 || !isDigit(s[4])) {
		return s[:4], true
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil || parsed.Year() <= 0 || parsed.Year() > 9999 {
		return "", false
	}
	return fmt.Sprintf("%04d", parsed.Year()), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// PairItems splits "n/total" text into number and total items; empty
// parts yield no item.
func PairItems(s string, numberKey, totalKey ItemKey) []TagItem {
	number, total := SplitPair(s)
	var items []TagItem
	if number != "" {
		items = append(items, NewItem(numberKey, Text(number)))
	}
	if total != "" {
		items = append(items, NewItem(totalKey, Text(total)))
	}
	return items
}

// PairText joins the number and total items of tag as "n/total", "n" or
// "/total". ok is false when both are absent.
func PairText(t *Tag, numberKey, totalKey ItemKey) (string, bool) {
	number, hasNumber := t.GetText(numberKey)
	total, hasTotal := t.GetText(totalKey)
	switch {
	case !hasNumber && !hasTotal:
		return "", false
	case total == "":
		return number, true
	}
	return number + "/" + total, true
}

// PairKeys returns the number and total keys of a paired key, or false
// when key is not part of a pair.
func PairKeys(key ItemKey) (number, total ItemKey, ok bool) {
	switch key {
	case KeyTrackNumber, KeyTrackTotal:
		return KeyTrackNumber, KeyTrackTotal, true
	case KeyDiscNumber, KeyDiscTotal:
		return KeyDiscNumber, KeyDiscTotal, true
	}
	return 0, 0, false
}
