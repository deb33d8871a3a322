package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiotag"
)

type saveFlags struct {
	backup   string
	validate bool
	keepTime bool
}

func (s *saveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.backup, "backup", "", "Keep the original file with this suffix (e.g. .bak)")
	cmd.Flags().BoolVar(&s.validate, "validate", false, "Re-read the file and compare the written tag")
	cmd.Flags().BoolVar(&s.keepTime, "preserve-mtime", false, "Keep the original modification time")
}

func (s *saveFlags) options(a *app) []audiotag.SaveOption {
	opts := []audiotag.SaveOption{audiotag.WithSaveLogger(a.logger)}
	if s.backup != "" {
		opts = append(opts, audiotag.WithBackup(s.backup))
	}
	if s.validate {
		opts = append(opts, audiotag.WithValidation())
	}
	if s.keepTime {
		opts = append(opts, audiotag.WithPreserveModTime())
	}
	return opts
}

func parseTagType(name string) (audiotag.TagType, error) {
	t, ok := audiotag.ParseTagType(name)
	if !ok {
		return 0, fmt.Errorf("unknown tag type %q", name)
	}
	return t, nil
}

func (a *app) setCmd() *cobra.Command {
	var (
		tagType string
		save    saveFlags
	)
	cmd := &cobra.Command{
		Use:   "set FILE KEY=VALUE...",
		Short: "Set tag items; an empty value removes the key",
		Long: `Set items in the file's primary tag, or in the tag chosen with --type.

KEY is a canonical key name (TrackTitle, AlbumArtist, ...), a short alias
(title, artist, album, track, disc, date, cover) or a raw format key such as
TXXX:MOOD. "track" and "disc" accept "n/total". The value of "cover" is the
path of an image file.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := audiotag.ReadFile(path, audiotag.WithLogger(a.logger))
			if err != nil {
				return err
			}

			typ := f.PrimaryTagType()
			if tagType != "" {
				if typ, err = parseTagType(tagType); err != nil {
					return err
				}
			}
			if !f.SupportsTagType(typ) {
				return &audiotag.UnsupportedTagError{FileType: f.FileType(), TagType: typ}
			}

			tag := f.Tag(typ)
			if tag == nil {
				tag = audiotag.NewTag(typ)
			} else {
				tag = tag.Clone()
			}
			for _, arg := range args[1:] {
				if err := applyAssignment(tag, arg); err != nil {
					return err
				}
			}

			if err := audiotag.WriteTag(path, tag, save.options(a)...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %s tag (%d items)\n", path, typ, tag.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&tagType, "type", "t", "", "Tag type to edit (default: the file's primary tag type)")
	save.register(cmd)
	return cmd
}

// applyAssignment applies one KEY=VALUE argument to tag.
func applyAssignment(tag *audiotag.Tag, arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return fmt.Errorf("invalid assignment %q: want KEY=VALUE", arg)
	}

	key, known := audiotag.ParseItemKey(name)
	if !known {
		if value == "" {
			tag.RemoveUnknown(name)
			return nil
		}
		if !tag.Insert(audiotag.NewUnknownItem(name, audiotag.Text(value))) {
			return fmt.Errorf("%s tags cannot store key %q", tag.Type(), name)
		}
		return nil
	}

	if value == "" {
		tag.Remove(key)
		if key == audiotag.KeyTrackNumber {
			tag.Remove(audiotag.KeyTrackTotal)
		}
		if key == audiotag.KeyDiscNumber {
			tag.Remove(audiotag.KeyDiscTotal)
		}
		return nil
	}

	switch key {
	case audiotag.KeyTrackNumber, audiotag.KeyDiscNumber:
		n, total, err := parsePair(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if key == audiotag.KeyTrackNumber {
			tag.SetTrack(n, total)
		} else {
			tag.SetDisc(n, total)
		}
		if _, ok := tag.Get(key); !ok {
			return fmt.Errorf("%s tags cannot store %s", tag.Type(), key)
		}
		return nil
	case audiotag.KeyPicture:
		data, err := os.ReadFile(value)
		if err != nil {
			return err
		}
		mime := audiotag.SniffImageMIME(data)
		if mime == "" {
			return fmt.Errorf("%s: unrecognized image format", value)
		}
		// A new cover replaces the old one
		tag.Remove(audiotag.KeyPicture)
		pic := &audiotag.Picture{MIMEType: mime, Type: audiotag.PictureFrontCover, Data: data}
		if !tag.Insert(audiotag.NewItem(audiotag.KeyPicture, pic)) {
			return fmt.Errorf("%s tags cannot store pictures", tag.Type())
		}
		return nil
	}

	if !tag.SetText(key, value) {
		return fmt.Errorf("%s tags cannot store %s", tag.Type(), key)
	}
	return nil
}

func parsePair(s string) (n, total int, err error) {
	num, tot, _ := strings.Cut(s, "/")
	if n, err = strconv.Atoi(strings.TrimSpace(num)); err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("invalid number %q", s)
	}
	if tot == "" {
		return n, 0, nil
	}
	if total, err = strconv.Atoi(strings.TrimSpace(tot)); err != nil || total < 0 {
		return 0, 0, fmt.Errorf("invalid total %q", s)
	}
	return n, total, nil
}

func (a *app) rmCmd() *cobra.Command {
	var save saveFlags
	cmd := &cobra.Command{
		Use:   "rm FILE TAGTYPE",
		Short: "Strip a tag from a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseTagType(args[1])
			if err != nil {
				return err
			}
			if err := audiotag.RemoveTag(args[0], typ, save.options(a)...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %s tag\n", args[0], typ)
			return nil
		},
	}
	save.register(cmd)
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var (
		move bool
		save saveFlags
	)
	cmd := &cobra.Command{
		Use:   "convert FILE FROM TO",
		Short: "Copy a tag into another tag type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseTagType(args[1])
			if err != nil {
				return err
			}
			to, err := parseTagType(args[2])
			if err != nil {
				return err
			}

			f, err := audiotag.ReadFile(args[0], audiotag.WithLogger(a.logger))
			if err != nil {
				return err
			}
			src := f.Tag(from)
			if src == nil {
				return fmt.Errorf("%s: no %s tag", args[0], from)
			}
			converted := src.Convert(to)
			if _, err := f.InsertTag(converted); err != nil {
				return err
			}
			if move && from != to {
				f.RemoveTag(from)
			}
			if err := f.Save(save.options(a)...); err != nil {
				return err
			}

			dropped := src.Len() - converted.Len()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: converted %s to %s (%d items, %d dropped)\n",
				args[0], from, to, converted.Len(), max(dropped, 0))
			return nil
		},
	}
	cmd.Flags().BoolVar(&move, "move", false, "Remove the source tag after converting")
	save.register(cmd)
	return cmd
}
