package packs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// ExtractedFile describes one file written to disk by ExtractArchive.
type ExtractedFile struct {
	Name string // name inside the archive
	Path string // absolute path on disk
	Size int64
}

// ExtractArchive unpacks a lesson archive into destDir and returns the list
// of extracted files. Entry names are cleaned and confined to destDir so a
// malicious archive cannot write outside the content directory.
func ExtractArchive(ctx context.Context, archivePath, destDir string) ([]ExtractedFile, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	format, input, err := archives.Identify(ctx, archivePath, f)
	if err != nil {
		return nil, fmt.Errorf("unrecognized archive format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("format %s does not support extraction", format.Extension())
	}

	var extracted []ExtractedFile
	err = extractor.Extract(ctx, input, func(ctx context.Context, fi archives.FileInfo) error {
		if fi.IsDir() {
			return nil
		}

		name := filepath.Clean(fi.NameInArchive)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("archive entry %q escapes destination", fi.NameInArchive)
		}

		destPath := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
			return err
		}

		src, err := fi.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.Create(destPath)
		if err != nil {
			return err
		}
		written, err := io.Copy(dst, src)
		closeErr := dst.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}

		extracted = append(extracted, ExtractedFile{
			Name: name,
			Path: destPath,
			Size: written,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return extracted, nil
}
