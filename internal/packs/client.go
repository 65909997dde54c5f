package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
)

// Client talks to the content server's manifest endpoint. It also serves as
// the download workers' content source: it resolves a download job to the
// asset list the job must fetch.
type Client struct {
	endpoint string
	st       *store.Store
	http     *http.Client
}

func NewClient(endpoint string, st *store.Store) *Client {
	return &Client{
		endpoint: endpoint,
		st:       st,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchManifest retrieves the current manifest for one grade.
func (c *Client) FetchManifest(ctx context.Context, grade int) (*models.Manifest, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("manifest endpoint is not configured")
	}

	url := fmt.Sprintf("%s/grades/%d/manifest", c.endpoint, grade)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for grade %d: %w", grade, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest request for grade %d returned status %d", grade, resp.StatusCode)
	}

	var manifest models.Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for grade %d: %w", grade, err)
	}
	return &manifest, nil
}

// AssetsForJob resolves a download job to the assets it must transfer. For
// "lesson" jobs that is the lesson's individual asset list; for "pack" jobs
// it is the lesson's bundled archive, when the server offers one.
func (c *Client) AssetsForJob(ctx context.Context, job *models.DownloadJob) ([]models.AssetSpec, error) {
	lesson, err := c.st.GetLesson(job.LessonID)
	if err != nil {
		return nil, fmt.Errorf("lesson %s is not known locally, run a manifest check first: %w", job.LessonID, err)
	}

	manifest, err := c.FetchManifest(ctx, lesson.Grade)
	if err != nil {
		return nil, err
	}

	for _, ml := range manifest.Lessons {
		if ml.ID != job.LessonID {
			continue
		}
		if job.ContentType == "pack" {
			if ml.Archive == nil {
				return nil, fmt.Errorf("lesson %s has no archive in the grade %d manifest", job.LessonID, lesson.Grade)
			}
			archive := *ml.Archive
			archive.Type = "pack_archive"
			return []models.AssetSpec{archive}, nil
		}
		return ml.Assets, nil
	}
	return nil, fmt.Errorf("lesson %s is missing from the grade %d manifest", job.LessonID, lesson.Grade)
}
