package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiotag"
	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/mp4"
)

func (a *app) probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Report the file type by extension and by signature",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				byExt, _ := audiotag.FileTypeFromExtension(path)
				p, err := audiotag.Open(path, audiotag.WithLogger(a.logger))
				if err != nil {
					return err
				}
				bySig, err := p.GuessFileType()
				p.Close()

				sig := bySig.String()
				var unknown *audiotag.UnknownFormatError
				switch {
				case errors.As(err, &unknown):
					sig = "Unknown (" + unknown.Reason + ")"
				case err != nil:
					return err
				}
				fmt.Fprintf(out, "%s\textension=%s\tsignature=%s\n", path, byExt, sig)
			}
			return nil
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	var (
		strict     bool
		maxPicture int
	)
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print stream properties and every tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []audiotag.Option{audiotag.WithLogger(a.logger), audiotag.WithMaxPictureSize(maxPicture)}
			if strict {
				opts = append(opts, audiotag.WithStrictParsing())
			}
			f, err := audiotag.ReadFile(args[0], opts...)
			if err != nil {
				return err
			}
			printFile(cmd.OutOrStdout(), f)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first warning")
	cmd.Flags().IntVar(&maxPicture, "max-picture-size", 0, "Skip pictures larger than this many bytes (0 = no limit)")
	return cmd
}

func printFile(w io.Writer, f *audiotag.TaggedFile) {
	fmt.Fprintf(w, "file:       %s\n", f.Path)
	fmt.Fprintf(w, "type:       %s\n", f.FileType())
	fmt.Fprintf(w, "properties: %s\n", f.Properties)
	if f.Properties.OverallBitrate > 0 {
		fmt.Fprintf(w, "bitrate:    %d kbps overall\n", f.Properties.OverallBitrate/1000)
	}
	for _, tag := range f.Tags() {
		fmt.Fprintf(w, "\n[%s] %d items\n", tag.Type(), tag.Len())
		for item := range tag.All() {
			fmt.Fprintf(w, "  %-24s %s\n", item.KeyName(), valueString(item.Value))
		}
	}
	if len(f.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range f.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
	}
}

func valueString(v audiotag.Value) string {
	switch v := v.(type) {
	case audiotag.Text:
		return strings.ReplaceAll(string(v), "\n", `\n`)
	case audiotag.Locator:
		return string(v)
	case audiotag.Binary:
		return fmt.Sprintf("<binary: %d bytes>", len(v))
	case *audiotag.Picture:
		return v.String()
	}
	return ""
}

func (a *app) atomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "atoms FILE",
		Short: "Print the atom tree of an MP4 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			stat, err := f.Stat()
			if err != nil {
				return err
			}

			root, err := mp4.ReadTree(binutil.NewSafeReader(f, stat.Size(), args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			mp4.Walk(root, func(n *mp4.Node, depth int) {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), n.Atom)
			})
			a.logger.Debug("atoms", "path", args[0], "top_level", len(root.Children))
			return nil
		},
	}
}
