package audiotag_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/simonhull/audiotag"
)

func TestReadManyPreservesOrder(t *testing.T) {
	paths := []string{
		writeTemp(t, "a.wav", wavFile()),
		writeTemp(t, "b.flac", flacFile()),
		writeTemp(t, "c.mp3", mp3Frames(10)),
	}
	files, err := audiotag.ReadMany(context.Background(), paths)
	if err != nil {
		t.Fatalf("ReadMany() error = %v", err)
	}
	want := []audiotag.FileType{audiotag.FileTypeWAV, audiotag.FileTypeFLAC, audiotag.FileTypeMP3}
	for i, f := range files {
		if f.FileType() != want[i] || f.Path != paths[i] {
			t.Errorf("files[%d] = %s %v, want %s %v", i, f.Path, f.FileType(), paths[i], want[i])
		}
	}
}

func TestReadManyEmpty(t *testing.T) {
	files, err := audiotag.ReadMany(context.Background(), nil)
	if files != nil || err != nil {
		t.Errorf("ReadMany(nil) = %v, %v", files, err)
	}
}

// TestReadManyCancellation verifies that a cancelled context stops the reads
func TestReadManyCancellation(t *testing.T) {
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = writeTemp(t, "a.wav", wavFile())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, err := audiotag.ReadMany(ctx, paths)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ReadMany() error = %v, want context.Canceled", err)
	}
	if files != nil {
		t.Error("expected nil files on error")
	}
}

// TestReadManyPartialFailure verifies that one failing path fails the batch
func TestReadManyPartialFailure(t *testing.T) {
	valid := writeTemp(t, "a.wav", wavFile())
	missing := filepath.Join(t.TempDir(), "missing.wav")

	files, err := audiotag.ReadMany(context.Background(), []string{valid, missing, valid})
	var ioErr *audiotag.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("ReadMany() error = %v, want IoError", err)
	}
	if files != nil {
		t.Error("expected nil files on partial failure")
	}
}
