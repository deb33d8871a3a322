// Package audiotag reads and writes audio metadata across containers.
//
// One tag model covers ID3v1, ID3v2, APE, MP4 ilst, RIFF INFO, Vorbis
// comments and AIFF text chunks, in MP3, Monkey's Audio, FLAC, Ogg
// Vorbis, Ogg Opus, MP4, WAV and AIFF files.
//
// # Quick Start
//
// Reading metadata from an audio file:
//
//	file, err := audiotag.ReadFile("song.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if tag := file.PrimaryTag(); tag != nil {
//		fmt.Printf("%s - %s\n", tag.Artist(), tag.Title())
//	}
//	fmt.Printf("Duration: %s\n", file.Properties.Duration)
//
// Writing a tag:
//
//	tag := audiotag.NewTag(audiotag.TagID3v2)
//	tag.SetTitle("New Title")
//	tag.SetTrack(3, 12)
//	err := audiotag.WriteTag("song.mp3", tag, audiotag.WithBackup(".bak"))
//
// # Tags
//
// A Tag is an ordered list of items keyed by canonical ItemKeys such as
// KeyTrackTitle or KeyAlbumArtist. Each TagType maps canonical keys to its
// own physical keys (TIT2, ©nam, TITLE, INAM, ...); items whose key has no
// canonical mapping keep their raw key and round-trip unchanged.
//
// Convert copies a tag into another TagType, dropping what the target
// cannot represent:
//
//	v1 := file.Tag(audiotag.TagID3v2).Convert(audiotag.TagID3v1)
//
// # Probing
//
// ReadFile identifies a file by its signature and falls back to its
// extension. Probe exposes both steps:
//
//	p, err := audiotag.Open("mislabelled.mp3")
//	...
//	ft, err := p.GuessFileType() // FileTypeVorbis when it starts with OggS
//	file, err := p.Read(false)   // properties only, tags skipped
//
// # Writing
//
// A write re-serializes one tag and leaves every other byte alone: the
// audio payload, unknown chunks and other tags are copied unchanged, and
// container fields that reference the rewritten region (RIFF and FORM
// sizes, MP4 atom sizes and chunk offsets, Ogg page sequence numbers and
// checksums, FLAC last-block flags) are patched. WriteTag replaces the
// file atomically; WriteTagTo patches an open file in place.
//
// # Error Handling
//
// Fatal errors are typed and inspected with errors.As: IoError,
// OutOfBoundsError, UnknownFormatError, UnsupportedTagError,
// MalformedHeaderError and EncodingError.
//
// A tag that fails to parse, or a corrupt stream header, is not fatal:
// the rest of the file is returned and the issue is recorded in
// TaggedFile.Warnings.
//
//	for _, w := range file.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// # Concurrency
//
// Reads and writes are synchronous and hold no shared state. ReadMany
// reads many files in parallel.
package audiotag
