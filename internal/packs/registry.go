// Package packs tracks per-grade lesson packs: which version the content
// server currently offers, which version is fully downloaded, and whether
// an update is pending. A pack version is only ever recorded as downloaded
// when every one of its lessons is materialized locally.
package packs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
)

// Registry applies manifest check results and pack completion bookkeeping
// to the store.
type Registry struct {
	st     *store.Store
	client *Client
}

func NewRegistry(st *store.Store, client *Client) *Registry {
	return &Registry{st: st, client: client}
}

// CheckGrade fetches the manifest for one grade, records its lessons and
// recomputes the update flag against the locally downloaded version.
func (r *Registry) CheckGrade(ctx context.Context, grade int) (*models.Manifest, error) {
	manifest, err := r.client.FetchManifest(ctx, grade)
	if err != nil {
		return nil, err
	}

	var totalSize int64
	lessonIDs := make([]string, 0, len(manifest.Lessons))
	for _, ml := range manifest.Lessons {
		for _, a := range ml.Assets {
			totalSize += a.SizeBytes
		}
		lesson := &models.Lesson{
			ID:          ml.ID,
			Grade:       grade,
			PackVersion: manifest.Version,
			Title:       ml.Title,
			Subject:     ml.Subject,
		}
		if err := r.st.UpsertLesson(lesson); err != nil {
			return nil, fmt.Errorf("failed to record lesson %s: %w", ml.ID, err)
		}
		lessonIDs = append(lessonIDs, ml.ID)
	}

	// Lessons the server dropped from the manifest would otherwise linger
	// forever and keep the pack from ever counting as complete.
	if err := r.st.PruneLessonsForGrade(grade, lessonIDs); err != nil {
		return nil, fmt.Errorf("failed to prune removed lessons: %w", err)
	}

	updateAvailable, err := r.updateAvailable(grade, manifest.Version)
	if err != nil {
		return nil, err
	}

	err = r.st.RecordManifestCheck(grade, manifest.Version, len(manifest.Lessons), totalSize, updateAvailable, time.Now())
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// CheckAllGrades runs CheckGrade for every grade the device knows about. A
// failing grade is logged and skipped so one unreachable manifest does not
// block the others.
func (r *Registry) CheckAllGrades(ctx context.Context) error {
	grades, err := r.st.KnownGrades()
	if err != nil {
		return err
	}
	for _, grade := range grades {
		if _, err := r.CheckGrade(ctx, grade); err != nil {
			log.Printf("Manifest check failed for grade %d: %v", grade, err)
		}
	}
	return nil
}

// MarkLessonMaterialized is called after a lesson download completes. It
// stamps the lesson with the pack version its assets now reflect; when every
// lesson of the grade carries the current version, the whole pack is
// recorded as downloaded in one step. Counting stamped lessons rather than
// completed jobs keeps the step all-or-nothing: duplicate jobs for one
// lesson, or lessons still holding an older version's assets, never push
// the pack over the line.
func (r *Registry) MarkLessonMaterialized(lessonID string) error {
	lesson, err := r.st.GetLesson(lessonID)
	if err == sql.ErrNoRows {
		// Ad-hoc downloads of lessons outside any known pack are fine;
		// there is just no pack state to advance.
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.st.MarkLessonDownloaded(lessonID, lesson.PackVersion); err != nil {
		return err
	}

	pack, err := r.st.GetPack(lesson.Grade)
	if err == sql.ErrNoRows {
		// No manifest check has run for this grade yet.
		return nil
	}
	if err != nil {
		return err
	}

	lessons, err := r.st.LessonsForGrade(lesson.Grade)
	if err != nil {
		return err
	}
	downloaded, err := r.st.CountLessonsDownloadedAt(lesson.Grade, pack.CurrentVersion)
	if err != nil {
		return err
	}
	if len(lessons) == 0 || downloaded < len(lessons) {
		return nil
	}
	return r.st.RecordPackDownloadComplete(lesson.Grade, pack.CurrentVersion, len(lessons), pack.TotalSize)
}

// updateAvailable decides whether the server version is newer than the
// locally downloaded one. A pack that was never downloaded, or whose
// version does not parse as semver, is compared by inequality.
func (r *Registry) updateAvailable(grade int, serverVersion string) (bool, error) {
	pack, err := r.st.GetPack(grade)
	if err == sql.ErrNoRows {
		// No pack row yet: anything the server offers counts as an update.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if pack.DownloadedVersion == "" {
		return true, nil
	}
	if newer, err := IsNewerVersion(pack.DownloadedVersion, serverVersion); err == nil {
		return newer, nil
	}
	return pack.DownloadedVersion != serverVersion, nil
}
