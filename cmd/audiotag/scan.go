package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag"
)

// typeSummary aggregates scan results for one file type.
type typeSummary struct {
	files    int
	tagged   int
	warnings int
	duration time.Duration
}

type scanResult struct {
	byType   map[audiotag.FileType]*typeSummary
	failures map[string]error
}

func (a *app) scanCmd() *cobra.Command {
	var (
		jobs       int
		noProgress bool
	)
	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Read every audio file below DIR and summarize by type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectAudioFiles(args[0])
			if err != nil {
				return err
			}

			var progress io.Writer
			if !noProgress {
				progress = cmd.ErrOrStderr()
			}
			res, err := a.scan(cmd.Context(), paths, jobs, progress)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of files read in parallel")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// collectAudioFiles lists the files below root with a known audio
// extension, in lexical order.
func collectAudioFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			if _, ok := audiotag.FileTypeFromExtension(path); ok {
				paths = append(paths, path)
			}
		}
		return nil
	})
	return paths, err
}

// scan reads paths with at most jobs concurrent reads. Unreadable files
// are recorded as failures; only cancellation aborts the scan.
func (a *app) scan(ctx context.Context, paths []string, jobs int, progress io.Writer) (*scanResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p := mpb.NewWithContext(ctx, mpb.WithOutput(progress), mpb.WithWidth(48))
	bar := p.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("scan "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
	)

	res := &scanResult{
		byType:   make(map[audiotag.FileType]*typeSummary),
		failures: make(map[string]error),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for _, path := range paths {
		g.Go(func() error {
			defer bar.Increment()
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := audiotag.ReadFile(path, audiotag.WithLogger(a.logger))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("scan failed", "path", path, "error", err)
				res.failures[path] = err
				return nil
			}
			s := res.byType[f.FileType()]
			if s == nil {
				s = &typeSummary{}
				res.byType[f.FileType()] = s
			}
			s.files++
			s.warnings += len(f.Warnings)
			s.duration += f.Properties.Duration
			if len(f.Tags()) > 0 {
				s.tagged++
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return nil, err
	}
	return res, nil
}

func printSummary(w io.Writer, res *scanResult) {
	types := make([]audiotag.FileType, 0, len(res.byType))
	for t := range res.byType {
		types = append(types, t)
	}
	slices.Sort(types)

	total := 0
	fmt.Fprintf(w, "%-8s %6s %6s %8s %12s\n", "TYPE", "FILES", "TAGGED", "WARNINGS", "DURATION")
	for _, t := range types {
		s := res.byType[t]
		total += s.files
		fmt.Fprintf(w, "%-8s %6d %6d %8d %12s\n", t, s.files, s.tagged, s.warnings, s.duration.Round(time.Second))
	}
	fmt.Fprintf(w, "%d files read, %d failed\n", total, len(res.failures))

	failed := make([]string, 0, len(res.failures))
	for path := range res.failures {
		failed = append(failed, path)
	}
	slices.Sort(failed)
	for _, path := range failed {
		fmt.Fprintf(w, "failed: %s: %v\n", path, res.failures[path])
	}
}
