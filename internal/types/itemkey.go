package types

import "strings"

// ItemKey is a canonical, container-independent field name.
//
// KeyUnknown marks an item whose physical key has no canonical mapping;
// the raw key is carried in TagItem.Raw.
type ItemKey int

const (
	KeyUnknown ItemKey = iota
	KeyAlbumTitle
	KeySetSubtitle
	KeyShowName
	KeyContentGroup
	KeyTrackTitle
	KeyTrackSubtitle
	KeyOriginalAlbumTitle
	KeyOriginalArtist
	KeyOriginalLyricist
	KeyAlbumTitleSortOrder
	KeyAlbumArtistSortOrder
	KeyTrackTitleSortOrder
	KeyTrackArtistSortOrder
	KeyShowNameSortOrder
	KeyComposerSortOrder
	KeyAlbumArtist
	KeyTrackArtist
	KeyArranger
	KeyWriter
	KeyComposer
	KeyConductor
	KeyEngineer
	KeyInvolvedPeople
	KeyLyricist
	KeyMixDJ
	KeyMixEngineer
	KeyMusicianCredits
	KeyPerformer
	KeyProducer
	KeyPublisher
	KeyLabel
	KeyInternetRadioStationName
	KeyInternetRadioStationOwner
	KeyRemixer
	KeyDiscNumber
	KeyDiscTotal
	KeyTrackNumber
	KeyTrackTotal
	KeyPopularimeter
	KeyLawRating
	KeyRecordingDate
	KeyYear
	KeyOriginalReleaseDate
	KeyISRC
	KeyBarcode
	KeyCatalogNumber
	KeyMovement
	KeyMovementIndex
	KeyFlagCompilation
	KeyFlagPodcast
	KeyFileType
	KeyFileOwner
	KeyTaggingTime
	KeyLength
	KeyOriginalFileName
	KeyOriginalMediaType
	KeyEncodedBy
	KeyEncoderSoftware
	KeyEncoderSettings
	KeyEncodingTime
	KeyAudioFileURL
	KeyAudioSourceURL
	KeyCommercialInformationURL
	KeyCopyrightURL
	KeyTrackArtistURL
	KeyRadioStationURL
	KeyPaymentURL
	KeyPublisherURL
	KeyGenre
	KeyInitialKey
	KeyMood
	KeyBPM
	KeyCopyrightMessage
	KeyLicense
	KeyPodcastDescription
	KeyPodcastSeriesCategory
	KeyPodcastURL
	KeyPodcastReleaseDate
	KeyPodcastGlobalUniqueID
	KeyPodcastKeywords
	KeyComment
	KeyDescription
	KeyLanguage
	KeyScript
	KeyLyrics
	KeyPicture
)

var itemKeyNames = [...]string{
	KeyUnknown:                   "Unknown",
	KeyAlbumTitle:                "AlbumTitle",
	KeySetSubtitle:               "SetSubtitle",
	KeyShowName:                  "ShowName",
	KeyContentGroup:              "ContentGroup",
	KeyTrackTitle:                "TrackTitle",
	KeyTrackSubtitle:             "TrackSubtitle",
	KeyOriginalAlbumTitle:        "OriginalAlbumTitle",
	KeyOriginalArtist:            "OriginalArtist",
	KeyOriginalLyricist:          "OriginalLyricist",
	KeyAlbumTitleSortOrder:       "AlbumTitleSortOrder",
	KeyAlbumArtistSortOrder:      "AlbumArtistSortOrder",
	KeyTrackTitleSortOrder:       "TrackTitleSortOrder",
	KeyTrackArtistSortOrder:      "TrackArtistSortOrder",
	KeyShowNameSortOrder:         "ShowNameSortOrder",
	KeyComposerSortOrder:         "ComposerSortOrder",
	KeyAlbumArtist:               "AlbumArtist",
	KeyTrackArtist:               "TrackArtist",
	KeyArranger:                  "Arranger",
	KeyWriter:                    "Writer",
	KeyComposer:                  "Composer",
	KeyConductor:                 "Conductor",
	KeyEngineer:                  "Engineer",
	KeyInvolvedPeople:            "InvolvedPeople",
	KeyLyricist:                  "Lyricist",
	KeyMixDJ:                     "MixDJ",
	KeyMixEngineer:               "MixEngineer",
	KeyMusicianCredits:           "MusicianCredits",
	KeyPerformer:                 "Performer",
	KeyProducer:                  "Producer",
	KeyPublisher:                 "Publisher",
	KeyLabel:                     "Label",
	KeyInternetRadioStationName:  "InternetRadioStationName",
	KeyInternetRadioStationOwner: "InternetRadioStationOwner",
	KeyRemixer:                   "Remixer",
	KeyDiscNumber:                "DiscNumber",
	KeyDiscTotal:                 "DiscTotal",
	KeyTrackNumber:               "TrackNumber",
	KeyTrackTotal:                "TrackTotal",
	KeyPopularimeter:             "Popularimeter",
	KeyLawRating:                 "LawRating",
	KeyRecordingDate:             "RecordingDate",
	KeyYear:                      "Year",
	KeyOriginalReleaseDate:       "OriginalReleaseDate",
	KeyISRC:                      "ISRC",
	KeyBarcode:                   "Barcode",
	KeyCatalogNumber:             "CatalogNumber",
	KeyMovement:                  "Movement",
	KeyMovementIndex:             "MovementIndex",
	KeyFlagCompilation:           "FlagCompilation",
	KeyFlagPodcast:               "FlagPodcast",
	KeyFileType:                  "FileType",
	KeyFileOwner:                 "FileOwner",
	KeyTaggingTime:               "TaggingTime",
	KeyLength:                    "Length",
	KeyOriginalFileName:          "OriginalFileName",
	KeyOriginalMediaType:         "OriginalMediaType",
	KeyEncodedBy:                 "EncodedBy",
	KeyEncoderSoftware:           "EncoderSoftware",
	KeyEncoderSettings:           "EncoderSettings",
	KeyEncodingTime:              "EncodingTime",
	KeyAudioFileURL:              "AudioFileURL",
	KeyAudioSourceURL:            "AudioSourceURL",
	KeyCommercialInformationURL:  "CommercialInformationURL",
	KeyCopyrightURL:              "CopyrightURL",
	KeyTrackArtistURL:            "TrackArtistURL",
	KeyRadioStationURL:           "RadioStationURL",
	KeyPaymentURL:                "PaymentURL",
	KeyPublisherURL:              "PublisherURL",
	KeyGenre:                     "Genre",
	KeyInitialKey:                "InitialKey",
	KeyMood:                      "Mood",
	KeyBPM:                       "BPM",
	KeyCopyrightMessage:          "CopyrightMessage",
	KeyLicense:                   "License",
	KeyPodcastDescription:        "PodcastDescription",
	KeyPodcastSeriesCategory:     "PodcastSeriesCategory",
	KeyPodcastURL:                "PodcastURL",
	KeyPodcastReleaseDate:        "PodcastReleaseDate",
	KeyPodcastGlobalUniqueID:     "PodcastGlobalUniqueID",
	KeyPodcastKeywords:           "PodcastKeywords",
	KeyComment:                   "Comment",
	KeyDescription:               "Description",
	KeyLanguage:                  "Language",
	KeyScript:                    "Script",
	KeyLyrics:                    "Lyrics",
	KeyPicture:                   "Picture",
}

func (k ItemKey) String() string {
	if k >= 0 && int(k) < len(itemKeyNames) {
		return itemKeyNames[k]
	}
	return "Unknown"
}

// ItemKeys returns every canonical key in declaration order.
func ItemKeys() []ItemKey {
	keys := make([]ItemKey, 0, len(itemKeyNames)-1)
	for k := KeyUnknown + 1; int(k) < len(itemKeyNames); k++ {
		keys = append(keys, k)
	}
	return keys
}

// keyAliases are the short names accepted by ParseItemKey.
var keyAliases = map[string]ItemKey{
	"title":       KeyTrackTitle,
	"artist":      KeyTrackArtist,
	"album":       KeyAlbumTitle,
	"track":       KeyTrackNumber,
	"disc":        KeyDiscNumber,
	"date":        KeyRecordingDate,
	"copyright":   KeyCopyrightMessage,
	"compilation": KeyFlagCompilation,
	"cover":       KeyPicture,
}

// ParseItemKey resolves a canonical key name case-insensitively. Short
// aliases such as "title" and "artist" are accepted.
func ParseItemKey(name string) (ItemKey, bool) {
	lower := strings.ToLower(name)
	if k, ok := keyAliases[lower]; ok {
		return k, true
	}
	for i, n := range itemKeyNames {
		if i != int(KeyUnknown) && strings.ToLower(n) == lower {
			return ItemKey(i), true
		}
	}
	return KeyUnknown, false
}

// multiValued reports whether a key may appear more than once in a tag
// when inserted through Tag.Insert.
func (k ItemKey) multiValued() bool {
	return k == KeyPicture
}
