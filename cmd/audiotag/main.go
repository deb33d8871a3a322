// Command audiotag inspects and edits audio file metadata.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiotag"
)

type app struct {
	verbose bool
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	rootCmd := &cobra.Command{
		Use:           "audiotag",
		Short:         "Read and write audio file metadata",
		Long:          `Reads and rewrites ID3v1, ID3v2, APE, MP4, RIFF INFO, Vorbis comment and AIFF text tags in MP3, FLAC, Ogg, Opus, MP4, WAV, AIFF and Monkey's Audio files.`,
		Version:       audiotag.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	rootCmd.SetVersionTemplate(versionString() + "\n")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		a.probeCmd(),
		a.dumpCmd(),
		a.atomsCmd(),
		a.setCmd(),
		a.rmCmd(),
		a.convertCmd(),
		a.scanCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	info := audiotag.GetVersionInfo()
	return fmt.Sprintf("audiotag %s (commit %s, built %s, %s)", info.Version, info.Commit, info.BuildDate, info.GoVersion)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
