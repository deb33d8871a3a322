package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// Tag is an ordered list of canonically keyed items of one TagType.
type Tag = types.Tag

// TagItem is a single key/value pair of a Tag.
type TagItem = types.TagItem

// ItemKey is a canonical, container-independent field name.
type ItemKey = types.ItemKey

// Value is the payload of a TagItem: Text, Locator, Binary or *Picture.
type Value = types.Value

// Value kinds.
type (
	Text    = types.Text
	Locator = types.Locator
	Binary  = types.Binary
)

// NewTag returns an empty tag of type t.
func NewTag(t TagType) *Tag {
	return types.NewTag(t)
}

// NewItem returns an item with a canonical key.
func NewItem(key ItemKey, v Value) TagItem {
	return types.NewItem(key, v)
}

// NewUnknownItem returns an item carrying a raw, format-specific key.
func NewUnknownItem(raw string, v Value) TagItem {
	return types.NewUnknownItem(raw, v)
}

// ParseItemKey resolves a canonical key name such as "TrackTitle", or a
// short alias such as "title". The lookup is case-insensitive.
func ParseItemKey(name string) (ItemKey, bool) {
	return types.ParseItemKey(name)
}

// ItemKeys returns every canonical key in declaration order.
func ItemKeys() []ItemKey {
	return types.ItemKeys()
}

// Re-export all item key constants
const (
	KeyUnknown                   = types.KeyUnknown
	KeyAlbumTitle                = types.KeyAlbumTitle
	KeySetSubtitle               = types.KeySetSubtitle
	KeyShowName                  = types.KeyShowName
	KeyContentGroup              = types.KeyContentGroup
	KeyTrackTitle                = types.KeyTrackTitle
	KeyTrackSubtitle             = types.KeyTrackSubtitle
	KeyOriginalAlbumTitle        = types.KeyOriginalAlbumTitle
	KeyOriginalArtist            = types.KeyOriginalArtist
	KeyOriginalLyricist          = types.KeyOriginalLyricist
	KeyAlbumTitleSortOrder       = types.KeyAlbumTitleSortOrder
	KeyAlbumArtistSortOrder      = types.KeyAlbumArtistSortOrder
	KeyTrackTitleSortOrder       = types.KeyTrackTitleSortOrder
	KeyTrackArtistSortOrder      = types.KeyTrackArtistSortOrder
	KeyShowNameSortOrder         = types.KeyShowNameSortOrder
	KeyComposerSortOrder         = types.KeyComposerSortOrder
	KeyAlbumArtist               = types.KeyAlbumArtist
	KeyTrackArtist               = types.KeyTrackArtist
	KeyArranger                  = types.KeyArranger
	KeyWriter                    = types.KeyWriter
	KeyComposer                  = types.KeyComposer
	KeyConductor                 = types.KeyConductor
	KeyEngineer                  = types.KeyEngineer
	KeyInvolvedPeople            = types.KeyInvolvedPeople
	KeyLyricist                  = types.KeyLyricist
	KeyMixDJ                     = types.KeyMixDJ
	KeyMixEngineer               = types.KeyMixEngineer
	KeyMusicianCredits           = types.KeyMusicianCredits
	KeyPerformer                 = types.KeyPerformer
	KeyProducer                  = types.KeyProducer
	KeyPublisher                 = types.KeyPublisher
	KeyLabel                     = types.KeyLabel
	KeyInternetRadioStationName  = types.KeyInternetRadioStationName
	KeyInternetRadioStationOwner = types.KeyInternetRadioStationOwner
	KeyRemixer                   = types.KeyRemixer
	KeyDiscNumber                = types.KeyDiscNumber
	KeyDiscTotal                 = types.KeyDiscTotal
	KeyTrackNumber               = types.KeyTrackNumber
	KeyTrackTotal                = types.KeyTrackTotal
	KeyPopularimeter             = types.KeyPopularimeter
	KeyLawRating                 = types.KeyLawRating
	KeyRecordingDate             = types.KeyRecordingDate
	KeyYear                      = types.KeyYear
	KeyOriginalReleaseDate       = types.KeyOriginalReleaseDate
	KeyISRC                      = types.KeyISRC
	KeyBarcode                   = types.KeyBarcode
	KeyCatalogNumber             = types.KeyCatalogNumber
	KeyMovement                  = types.KeyMovement
	KeyMovementIndex             = types.KeyMovementIndex
	KeyFlagCompilation           = types.KeyFlagCompilation
	KeyFlagPodcast               = types.KeyFlagPodcast
	KeyFileType                  = types.KeyFileType
	KeyFileOwner                 = types.KeyFileOwner
	KeyTaggingTime               = types.KeyTaggingTime
	KeyLength                    = types.KeyLength
	KeyOriginalFileName          = types.KeyOriginalFileName
	KeyOriginalMediaType         = types.KeyOriginalMediaType
	KeyEncodedBy                 = types.KeyEncodedBy
	KeyEncoderSoftware           = types.KeyEncoderSoftware
	KeyEncoderSettings           = types.KeyEncoderSettings
	KeyEncodingTime              = types.KeyEncodingTime
	KeyAudioFileURL              = types.KeyAudioFileURL
	KeyAudioSourceURL            = types.KeyAudioSourceURL
	KeyCommercialInformationURL  = types.KeyCommercialInformationURL
	KeyCopyrightURL              = types.KeyCopyrightURL
	KeyTrackArtistURL            = types.KeyTrackArtistURL
	KeyRadioStationURL           = types.KeyRadioStationURL
	KeyPaymentURL                = types.KeyPaymentURL
	KeyPublisherURL              = types.KeyPublisherURL
	KeyGenre                     = types.KeyGenre
	KeyInitialKey                = types.KeyInitialKey
	KeyMood                      = types.KeyMood
	KeyBPM                       = types.KeyBPM
	KeyCopyrightMessage          = types.KeyCopyrightMessage
	KeyLicense                   = types.KeyLicense
	KeyPodcastDescription        = types.KeyPodcastDescription
	KeyPodcastSeriesCategory     = types.KeyPodcastSeriesCategory
	KeyPodcastURL                = types.KeyPodcastURL
	KeyPodcastReleaseDate        = types.KeyPodcastReleaseDate
	KeyPodcastGlobalUniqueID     = types.KeyPodcastGlobalUniqueID
	KeyPodcastKeywords           = types.KeyPodcastKeywords
	KeyComment                   = types.KeyComment
	KeyDescription               = types.KeyDescription
	KeyLanguage                  = types.KeyLanguage
	KeyScript                    = types.KeyScript
	KeyLyrics                    = types.KeyLyrics
	KeyPicture                   = types.KeyPicture
)
