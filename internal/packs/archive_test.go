package packs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sadmanHT/porakhela-sync/internal/packs"
	"github.com/sadmanHT/porakhela-sync/internal/testutil"
)

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := testutil.CreateTestArchive(t, dir, "lesson.zip", map[string]string{
		"story.png":       "image bytes",
		"audio/story.mp3": "audio bytes",
	})

	destDir := filepath.Join(dir, "extracted")
	files, err := packs.ExtractArchive(context.Background(), archivePath, destDir)
	if err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 extracted files, got %d", len(files))
	}

	byName := make(map[string]packs.ExtractedFile)
	for _, f := range files {
		byName[f.Name] = f
	}

	img, ok := byName["story.png"]
	if !ok {
		t.Fatal("story.png missing from extraction result")
	}
	content, err := os.ReadFile(img.Path)
	if err != nil {
		t.Fatalf("Extracted file unreadable: %v", err)
	}
	if string(content) != "image bytes" {
		t.Errorf("Extracted content mismatch: %q", content)
	}
	if img.Size != int64(len("image bytes")) {
		t.Errorf("Expected size %d, got %d", len("image bytes"), img.Size)
	}

	// Nested directories are preserved under the destination.
	audio, ok := byName[filepath.Join("audio", "story.mp3")]
	if !ok {
		t.Fatal("audio/story.mp3 missing from extraction result")
	}
	if _, err := os.Stat(audio.Path); err != nil {
		t.Errorf("Nested extracted file missing: %v", err)
	}
}

func TestExtractArchiveRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "not-an-archive.bin")
	os.WriteFile(bogus, []byte("just some bytes"), 0644)

	if _, err := packs.ExtractArchive(context.Background(), bogus, dir); err == nil {
		t.Error("Expected error for non-archive input")
	}
}
