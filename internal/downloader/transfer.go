package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
)

// TransferResult reports the outcome of one asset transfer.
type TransferResult struct {
	BytesWritten int64
	Checksum     string // hex sha256 of the written bytes
}

// Executor performs a single asset transfer to a local file. onProgress is
// called with the cumulative byte count for this transfer; implementations
// may call it as often as they like but must call it monotonically.
type Executor interface {
	Fetch(ctx context.Context, url, destPath string, onProgress func(written int64)) (*TransferResult, error)
}

// ContentSource resolves a download job to the list of assets it needs. The
// manifest client implements this against the content server.
type ContentSource interface {
	AssetsForJob(ctx context.Context, job *models.DownloadJob) ([]models.AssetSpec, error)
}

// HTTPExecutor is the production Executor: it streams the response body to
// the destination file while hashing it, so checksum verification never
// needs a second read of the file.
type HTTPExecutor struct {
	Client *http.Client
}

func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{Client: &http.Client{Timeout: 10 * time.Minute}}
}

func (e *HTTPExecutor) Fetch(ctx context.Context, url, destPath string, onProgress func(written int64)) (*TransferResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}

	// Write to a temp file next to the destination and rename on success so
	// a crashed transfer never leaves a half-written asset at the real path.
	tmpPath := destPath + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset file: %w", err)
	}

	hasher := sha256.New()
	written, err := copyWithProgress(f, io.TeeReader(resp.Body, hasher), onProgress)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write asset: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	return &TransferResult{
		BytesWritten: written,
		Checksum:     hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// copyWithProgress copies src to dst in fixed-size chunks, reporting the
// cumulative byte count after each chunk.
func copyWithProgress(dst io.Writer, src io.Reader, onProgress func(written int64)) (int64, error) {
	buf := make([]byte, 64*1024)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
			if onProgress != nil {
				onProgress(written)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
