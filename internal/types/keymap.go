package types

import (
	"strings"
)

// keyMapping binds a canonical key to its physical keys in one tag type.
// The first physical key is the one written.
type keyMapping struct {
	physical []string
	key      ItemKey
}

func m(key ItemKey, physical ...string) keyMapping {
	return keyMapping{key: key, physical: physical}
}

const itunesPrefix = "----:com.apple.iTunes:"

var id3v1Keys = []keyMapping{
	m(KeyTrackTitle, "Title"),
	m(KeyTrackArtist, "Artist"),
	m(KeyAlbumTitle, "Album"),
	m(KeyYear, "Year"),
	m(KeyComment, "Comment"),
	m(KeyTrackNumber, "Track"),
	m(KeyGenre, "Genre"),
}

var id3v2Keys = []keyMapping{
	m(KeyAlbumTitle, "TALB"),
	m(KeySetSubtitle, "TSST"),
	m(KeyContentGroup, "TIT1", "GRP1"),
	m(KeyTrackTitle, "TIT2"),
	m(KeyTrackSubtitle, "TIT3"),
	m(KeyOriginalAlbumTitle, "TOAL"),
	m(KeyOriginalArtist, "TOPE"),
	m(KeyOriginalLyricist, "TOLY"),
	m(KeyAlbumTitleSortOrder, "TSOA"),
	m(KeyAlbumArtistSortOrder, "TSO2"),
	m(KeyTrackTitleSortOrder, "TSOT"),
	m(KeyTrackArtistSortOrder, "TSOP"),
	m(KeyComposerSortOrder, "TSOC"),
	m(KeyAlbumArtist, "TPE2"),
	m(KeyTrackArtist, "TPE1"),
	m(KeyWriter, "TEXT"),
	m(KeyComposer, "TCOM"),
	m(KeyConductor, "TPE3"),
	m(KeyInvolvedPeople, "TIPL"),
	m(KeyLyricist, "TXXX:LYRICIST"),
	m(KeyMusicianCredits, "TMCL"),
	m(KeyProducer, "TXXX:PRODUCER"),
	m(KeyEngineer, "TXXX:ENGINEER"),
	m(KeyArranger, "TXXX:ARRANGER"),
	m(KeyMixDJ, "TXXX:DJMIXER"),
	m(KeyMixEngineer, "TXXX:MIXER"),
	m(KeyPublisher, "TPUB"),
	m(KeyLabel, "TXXX:LABEL"),
	m(KeyInternetRadioStationName, "TRSN"),
	m(KeyInternetRadioStationOwner, "TRSO"),
	m(KeyRemixer, "TPE4"),
	m(KeyDiscNumber, "TPOS"),
	m(KeyDiscTotal, "TPOS"),
	m(KeyTrackNumber, "TRCK"),
	m(KeyTrackTotal, "TRCK"),
	m(KeyPopularimeter, "POPM"),
	m(KeyRecordingDate, "TDRC"),
	m(KeyOriginalReleaseDate, "TDOR"),
	m(KeyISRC, "TSRC"),
	m(KeyBarcode, "TXXX:BARCODE"),
	m(KeyCatalogNumber, "TXXX:CATALOGNUMBER"),
	m(KeyMovement, "MVNM"),
	m(KeyMovementIndex, "MVIN"),
	m(KeyFlagCompilation, "TCMP"),
	m(KeyFlagPodcast, "PCST"),
	m(KeyFileType, "TFLT"),
	m(KeyFileOwner, "TOWN"),
	m(KeyTaggingTime, "TDTG"),
	m(KeyLength, "TLEN"),
	m(KeyOriginalFileName, "TOFN"),
	m(KeyOriginalMediaType, "TMED"),
	m(KeyEncodedBy, "TENC"),
	m(KeyEncoderSoftware, "TSSE"),
	m(KeyEncoderSettings, "TXXX:ENCODERSETTINGS"),
	m(KeyEncodingTime, "TDEN"),
	m(KeyAudioFileURL, "WOAF"),
	m(KeyAudioSourceURL, "WOAS"),
	m(KeyCommercialInformationURL, "WCOM"),
	m(KeyCopyrightURL, "WCOP"),
	m(KeyTrackArtistURL, "WOAR"),
	m(KeyRadioStationURL, "WORS"),
	m(KeyPaymentURL, "WPAY"),
	m(KeyPublisherURL, "WPUB"),
	m(KeyGenre, "TCON"),
	m(KeyInitialKey, "TKEY"),
	m(KeyMood, "TMOO"),
	m(KeyBPM, "TBPM"),
	m(KeyCopyrightMessage, "TCOP"),
	m(KeyLicense, "TXXX:LICENSE"),
	m(KeyPodcastDescription, "TDES"),
	m(KeyPodcastSeriesCategory, "TCAT"),
	m(KeyPodcastURL, "WFED"),
	m(KeyPodcastReleaseDate, "TDRL"),
	m(KeyPodcastGlobalUniqueID, "TGID"),
	m(KeyPodcastKeywords, "TKWD"),
	m(KeyComment, "COMM"),
	m(KeyDescription, "TXXX:DESCRIPTION"),
	m(KeyLanguage, "TLAN"),
	m(KeyScript, "TXXX:SCRIPT"),
	m(KeyLyrics, "USLT"),
	m(KeyPicture, "APIC"),
}

var apeKeys = []keyMapping{
	m(KeyAlbumTitle, "Album"),
	m(KeySetSubtitle, "DiscSubtitle"),
	m(KeyContentGroup, "Grouping"),
	m(KeyTrackTitle, "Title"),
	m(KeyTrackSubtitle, "Subtitle"),
	m(KeyAlbumTitleSortOrder, "ALBUMSORT"),
	m(KeyAlbumArtistSortOrder, "ALBUMARTISTSORT"),
	m(KeyTrackTitleSortOrder, "TITLESORT"),
	m(KeyTrackArtistSortOrder, "ARTISTSORT"),
	m(KeyAlbumArtist, "Album Artist", "ALBUMARTIST"),
	m(KeyTrackArtist, "Artist"),
	m(KeyArranger, "Arranger"),
	m(KeyWriter, "Writer"),
	m(KeyComposer, "Composer"),
	m(KeyConductor, "Conductor"),
	m(KeyEngineer, "Engineer"),
	m(KeyLyricist, "Lyricist"),
	m(KeyMixDJ, "DjMixer"),
	m(KeyMixEngineer, "Mixer"),
	m(KeyPerformer, "Performer"),
	m(KeyProducer, "Producer"),
	m(KeyPublisher, "Publisher"),
	m(KeyLabel, "Label"),
	m(KeyRemixer, "MixArtist"),
	m(KeyDiscNumber, "Disc"),
	m(KeyDiscTotal, "Disc"),
	m(KeyTrackNumber, "Track"),
	m(KeyTrackTotal, "Track"),
	m(KeyYear, "Year"),
	m(KeyRecordingDate, "Record Date"),
	m(KeyISRC, "ISRC"),
	m(KeyBarcode, "Barcode"),
	m(KeyCatalogNumber, "CatalogNumber"),
	m(KeyFlagCompilation, "Compilation"),
	m(KeyOriginalMediaType, "Media"),
	m(KeyEncodedBy, "EncodedBy"),
	m(KeyEncoderSoftware, "Tool Name"),
	m(KeyGenre, "Genre"),
	m(KeyMood, "Mood"),
	m(KeyBPM, "BPM"),
	m(KeyCopyrightMessage, "Copyright"),
	m(KeyComment, "Comment"),
	m(KeyLanguage, "Language"),
	m(KeyScript, "Script"),
	m(KeyLyrics, "Lyrics"),
	m(KeyPicture, "Cover Art (Front)"),
}

var ilstKeys = []keyMapping{
	m(KeyAlbumTitle, "©alb"),
	m(KeySetSubtitle, itunesPrefix+"DISCSUBTITLE"),
	m(KeyShowName, "tvsh"),
	m(KeyContentGroup, "©grp"),
	m(KeyTrackTitle, "©nam"),
	m(KeyTrackSubtitle, itunesPrefix+"SUBTITLE"),
	m(KeyAlbumTitleSortOrder, "soal"),
	m(KeyAlbumArtistSortOrder, "soaa"),
	m(KeyTrackTitleSortOrder, "sonm"),
	m(KeyTrackArtistSortOrder, "soar"),
	m(KeyShowNameSortOrder, "sosn"),
	m(KeyComposerSortOrder, "soco"),
	m(KeyAlbumArtist, "aART"),
	m(KeyTrackArtist, "©ART"),
	m(KeyComposer, "©wrt"),
	m(KeyConductor, itunesPrefix+"CONDUCTOR"),
	m(KeyEngineer, itunesPrefix+"ENGINEER"),
	m(KeyLyricist, itunesPrefix+"LYRICIST"),
	m(KeyMixDJ, itunesPrefix+"DJMIXER"),
	m(KeyMixEngineer, itunesPrefix+"MIXER"),
	m(KeyProducer, itunesPrefix+"PRODUCER"),
	m(KeyLabel, itunesPrefix+"LABEL"),
	m(KeyRemixer, itunesPrefix+"REMIXER"),
	m(KeyDiscNumber, "disk"),
	m(KeyDiscTotal, "disk"),
	m(KeyTrackNumber, "trkn"),
	m(KeyTrackTotal, "trkn"),
	m(KeyLawRating, "rate"),
	m(KeyRecordingDate, "©day"),
	m(KeyISRC, itunesPrefix+"ISRC"),
	m(KeyBarcode, itunesPrefix+"BARCODE"),
	m(KeyCatalogNumber, itunesPrefix+"CATALOGNUMBER"),
	m(KeyFlagCompilation, "cpil"),
	m(KeyFlagPodcast, "pcst"),
	m(KeyOriginalMediaType, itunesPrefix+"MEDIA"),
	m(KeyEncoderSoftware, "©too"),
	m(KeyGenre, "©gen"),
	m(KeyMood, itunesPrefix+"MOOD"),
	m(KeyBPM, "tmpo"),
	m(KeyCopyrightMessage, "cprt"),
	m(KeyLicense, itunesPrefix+"LICENSE"),
	m(KeyPodcastDescription, "ldes"),
	m(KeyPodcastSeriesCategory, "catg"),
	m(KeyPodcastURL, "purl"),
	m(KeyPodcastGlobalUniqueID, "egid"),
	m(KeyPodcastKeywords, "keyw"),
	m(KeyComment, "©cmt"),
	m(KeyDescription, "desc"),
	m(KeyLanguage, itunesPrefix+"LANGUAGE"),
	m(KeyScript, itunesPrefix+"SCRIPT"),
	m(KeyLyrics, "©lyr"),
	m(KeyPicture, "covr"),
}

var riffInfoKeys = []keyMapping{
	m(KeyAlbumTitle, "IPRD"),
	m(KeyTrackTitle, "INAM"),
	m(KeyTrackArtist, "IART"),
	m(KeyWriter, "IWRI"),
	m(KeyComposer, "IMUS"),
	m(KeyProducer, "IPRO"),
	m(KeyTrackNumber, "IPRT", "ITRK"),
	m(KeyTrackTotal, "IFRM"),
	m(KeyLawRating, "IRTD"),
	m(KeyRecordingDate, "ICRD"),
	m(KeyOriginalMediaType, "ISRF"),
	m(KeyEncodedBy, "ITCH"),
	m(KeyEncoderSoftware, "ISFT"),
	m(KeyGenre, "IGNR"),
	m(KeyCopyrightMessage, "ICOP"),
	m(KeyComment, "ICMT"),
	m(KeyLanguage, "ILNG"),
}

var vorbisKeys = []keyMapping{
	m(KeyAlbumTitle, "ALBUM"),
	m(KeySetSubtitle, "DISCSUBTITLE"),
	m(KeyContentGroup, "GROUPING"),
	m(KeyTrackTitle, "TITLE"),
	m(KeyTrackSubtitle, "SUBTITLE"),
	m(KeyAlbumTitleSortOrder, "ALBUMSORT"),
	m(KeyAlbumArtistSortOrder, "ALBUMARTISTSORT"),
	m(KeyTrackTitleSortOrder, "TITLESORT"),
	m(KeyTrackArtistSortOrder, "ARTISTSORT"),
	m(KeyComposerSortOrder, "COMPOSERSORT"),
	m(KeyAlbumArtist, "ALBUMARTIST"),
	m(KeyTrackArtist, "ARTIST"),
	m(KeyArranger, "ARRANGER"),
	m(KeyWriter, "AUTHOR", "WRITER"),
	m(KeyComposer, "COMPOSER"),
	m(KeyConductor, "CONDUCTOR"),
	m(KeyEngineer, "ENGINEER"),
	m(KeyLyricist, "LYRICIST"),
	m(KeyMixDJ, "DJMIXER"),
	m(KeyMixEngineer, "MIXER"),
	m(KeyPerformer, "PERFORMER"),
	m(KeyProducer, "PRODUCER"),
	m(KeyPublisher, "PUBLISHER"),
	m(KeyLabel, "LABEL"),
	m(KeyRemixer, "REMIXER"),
	m(KeyDiscNumber, "DISCNUMBER"),
	m(KeyDiscTotal, "DISCTOTAL", "TOTALDISCS"),
	m(KeyTrackNumber, "TRACKNUMBER"),
	m(KeyTrackTotal, "TRACKTOTAL", "TOTALTRACKS"),
	m(KeyRecordingDate, "DATE"),
	m(KeyYear, "YEAR"),
	m(KeyOriginalReleaseDate, "ORIGINALDATE"),
	m(KeyISRC, "ISRC"),
	m(KeyBarcode, "BARCODE"),
	m(KeyCatalogNumber, "CATALOGNUMBER"),
	m(KeyMovement, "MOVEMENTNAME"),
	m(KeyMovementIndex, "MOVEMENT"),
	m(KeyFlagCompilation, "COMPILATION"),
	m(KeyOriginalMediaType, "MEDIA"),
	m(KeyEncodedBy, "ENCODED-BY"),
	m(KeyEncoderSoftware, "ENCODER"),
	m(KeyEncoderSettings, "ENCODING", "ENCODERSETTINGS"),
	m(KeyGenre, "GENRE"),
	m(KeyMood, "MOOD"),
	m(KeyBPM, "BPM"),
	m(KeyCopyrightMessage, "COPYRIGHT"),
	m(KeyLicense, "LICENSE"),
	m(KeyComment, "COMMENT", "DESCRIPTION"),
	m(KeyLanguage, "LANGUAGE"),
	m(KeyScript, "SCRIPT"),
	m(KeyLyrics, "LYRICS"),
	m(KeyPicture, "METADATA_BLOCK_PICTURE"),
}

var aiffTextKeys = []keyMapping{
	m(KeyTrackTitle, "NAME"),
	m(KeyTrackArtist, "AUTH"),
	m(KeyCopyrightMessage, "(c) "),
	m(KeyComment, "ANNO"),
}

// keyTable is the bidirectional lookup for one tag type.
type keyTable struct {
	physical  map[ItemKey]string
	canonical map[string]ItemKey // lower-cased physical key
}

// keyTables is indexed by TagType and built once at init.
var keyTables [len(tagTypeTables)]keyTable

var tagTypeTables = [...][]keyMapping{
	TagID3v1:          id3v1Keys,
	TagID3v2:          id3v2Keys,
	TagAPE:            apeKeys,
	TagMP4Ilst:        ilstKeys,
	TagRIFFInfo:       riffInfoKeys,
	TagVorbisComments: vorbisKeys,
	TagAIFFText:       aiffTextKeys,
}

func init() {
	for t, mappings := range tagTypeTables {
		table := keyTable{
			physical:  make(map[ItemKey]string, len(mappings)),
			canonical: make(map[string]ItemKey, len(mappings)),
		}
		for _, mapping := range mappings {
			if _, ok := table.physical[mapping.key]; !ok {
				table.physical[mapping.key] = mapping.physical[0]
			}
			for _, p := range mapping.physical {
				lower := strings.ToLower(p)
				if _, ok := table.canonical[lower]; !ok {
					table.canonical[lower] = mapping.key
				}
			}
		}
		keyTables[t] = table
	}
}

// PhysicalKey returns the key written for a canonical key in tag type t.
func PhysicalKey(t TagType, key ItemKey) (string, bool) {
	if t < 0 || int(t) >= len(keyTables) {
		return "", false
	}
	p, ok := keyTables[t].physical[key]
	return p, ok
}

// CanonicalKey maps a physical key of tag type t to its canonical key.
// The lookup is case-insensitive.
func CanonicalKey(t TagType, physical string) (ItemKey, bool) {
	if t < 0 || int(t) >= len(keyTables) {
		return KeyUnknown, false
	}
	k, ok := keyTables[t].canonical[strings.ToLower(physical)]
	return k, ok
}

// ValidRawKey reports whether raw may be written as an unmapped key in tag
// type t.
func ValidRawKey(t TagType, raw string) bool { //nolint:gocyclo // One rule set per tag type
	switch t {
	case TagID3v2:
		id, desc, hasDesc := strings.Cut(raw, ":")
		if !validFrameID(id) {
			return false
		}
		if hasDesc {
			return id == "TXXX" || id == "WXXX" || id == "COMM" || id == "USLT"
		}
		return id != "TXXX" && id != "WXXX" && desc == ""
	case TagAPE:
		if len(raw) < 2 || len(raw) > 255 {
			return false
		}
		switch strings.ToUpper(raw) {
		case "ID3", "TAG", "OGGS", "MP+":
			return false
		}
		for i := 0; i < len(raw); i++ {
			if raw[i] < 0x20 || raw[i] > 0x7E {
				return false
			}
		}
		return true
	case TagMP4Ilst:
		if rest, ok := strings.CutPrefix(raw, "----:"); ok {
			mean, name, found := strings.Cut(rest, ":")
			return found && mean != "" && name != ""
		}
		runes := []rune(raw)
		if len(runes) != 4 {
			return false
		}
		for _, r := range runes {
			if r > 0xFF {
				return false
			}
		}
		return true
	case TagRIFFInfo:
		if len(raw) != 4 {
			return false
		}
		for i := 0; i < 4; i++ {
			if raw[i] < 0x20 || raw[i] > 0x7E {
				return false
			}
		}
		return true
	case TagVorbisComments:
		if raw == "" {
			return false
		}
		for i := 0; i < len(raw); i++ {
			if raw[i] < 0x20 || raw[i] > 0x7D || raw[i] == '=' {
				return false
			}
		}
		return true
	case TagID3v1, TagAIFFText:
		return false
	}
	return false
}

func validFrameID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// userDefinedName extracts the free-form field name from a raw key of
// tag type t: the TXXX description, the iTunes freeform name, or the key
// itself for APE and Vorbis comments.
func userDefinedName(t TagType, raw string) (string, bool) {
	switch t {
	case TagID3v2:
		name, ok := strings.CutPrefix(raw, "TXXX:")
		return name, ok && name != ""
	case TagMP4Ilst:
		rest, ok := strings.CutPrefix(raw, "----:")
		if !ok {
			return "", false
		}
		_, name, found := strings.Cut(rest, ":")
		return name, found && name != ""
	case TagAPE, TagVorbisComments:
		return raw, raw != ""
	case TagID3v1, TagRIFFInfo, TagAIFFText:
		return "", false
	}
	return "", false
}

// userDefinedKey builds the raw key tag type t uses for a free-form field.
func userDefinedKey(t TagType, name string) (string, bool) {
	switch t {
	case TagID3v2:
		return "TXXX:" + name, true
	case TagMP4Ilst:
		return itunesPrefix + name, true
	case TagAPE:
		return name, true
	case TagVorbisComments:
		return strings.ToUpper(name), true
	case TagID3v1, TagRIFFInfo, TagAIFFText:
		return "", false
	}
	return "", false
}

// keyFallbacks name the key an item is converted to when the target tag
// type cannot store the original key.
var keyFallbacks = map[ItemKey]ItemKey{
	KeyYear:          KeyRecordingDate,
	KeyRecordingDate: KeyYear,
}

// Convert builds a new tag of the target type by translating every item
// through the target's key table.
//
// Items with no representation in the target are dropped; Binary and
// Picture values survive only into tag types that can store them, and
// Locators degrade to Text where locators are not supported. Conversion is
// deterministic. Converting to the tag's own type returns a clone.
func (t *Tag) Convert(target TagType) *Tag {
	if t.typ == target {
		return t.Clone()
	}

	out := NewTag(target)
	for _, item := range t.items {
		converted, ok := t.convertItem(item, target)
		if !ok {
			continue
		}
		out.Push(converted)
	}
	return out
}

func (t *Tag) convertItem(item TagItem, target TagType) (TagItem, bool) {
	item.Value = cloneValue(item.Value)
	if l, ok := item.Value.(Locator); ok && !target.supportsValue(l) {
		item.Value = Text(l)
	}

	if item.Key == KeyUnknown {
		name, ok := userDefinedName(t.typ, item.Raw)
		if !ok {
			return TagItem{}, false
		}
		raw, ok := userDefinedKey(target, name)
		if !ok {
			return TagItem{}, false
		}
		if key, ok := CanonicalKey(target, raw); ok {
			item = NewItem(key, item.Value)
		} else {
			item.Raw = raw
		}
	} else if _, ok := PhysicalKey(target, item.Key); !ok {
		fallback, ok := keyFallbacks[item.Key]
		if !ok {
			return TagItem{}, false
		}
		if _, ok := PhysicalKey(target, fallback); !ok {
			return TagItem{}, false
		}
		if fallback == KeyYear {
			text, isText := item.Value.(Text)
			if !isText {
				return TagItem{}, false
			}
			year, ok := ParseYear(string(text))
			if !ok {
				return TagItem{}, false
			}
			item.Value = Text(year)
		}
		item.Key = fallback
	}

	probe := NewTag(target)
	return item, probe.CanStore(item)
}
