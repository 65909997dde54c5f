package store

import (
	"database/sql"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
)

const assetColumns = `id, lesson_id, asset_id, asset_type, original_url, local_path, size_bytes, checksum, is_valid, thumbnail, cached_at, last_accessed_at, expires_at`

func scanAsset(row interface{ Scan(...interface{}) error }) (*models.CachedAsset, error) {
	var a models.CachedAsset
	var thumb sql.NullString
	err := row.Scan(&a.ID, &a.LessonID, &a.AssetID, &a.AssetType, &a.OriginalURL, &a.LocalPath,
		&a.SizeBytes, &a.Checksum, &a.IsValid, &thumb, &a.CachedAt, &a.LastAccessedAt, &a.ExpiresAt)
	if err != nil {
		return nil, err
	}
	a.Thumbnail = thumb.String
	return &a, nil
}

// PutAsset registers a downloaded asset. Puts are de-duplicated by original
// URL: a second put for the same URL returns the existing record untouched,
// so a shared asset is never re-registered under a second path.
func (s *Store) PutAsset(a *models.CachedAsset) (*models.CachedAsset, error) {
	return putAsset(s.db, a)
}

// PutAssetTx is PutAsset inside an existing transaction. Used by the download
// manager so a whole job's assets register atomically.
func (s *Store) PutAssetTx(tx *sql.Tx, a *models.CachedAsset) (*models.CachedAsset, error) {
	return putAsset(tx, a)
}

type execQuerier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func putAsset(q execQuerier, a *models.CachedAsset) (*models.CachedAsset, error) {
	existing, err := scanAsset(q.QueryRow(`SELECT `+assetColumns+` FROM cached_assets WHERE original_url = ?`, a.OriginalURL))
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	if a.CachedAt.IsZero() {
		a.CachedAt = now
	}
	if a.LastAccessedAt.IsZero() {
		a.LastAccessedAt = now
	}
	res, err := q.Exec(`
        INSERT INTO cached_assets
        (lesson_id, asset_id, asset_type, original_url, local_path, size_bytes, checksum, is_valid, thumbnail, cached_at, last_accessed_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)`,
		a.LessonID, a.AssetID, a.AssetType, a.OriginalURL, a.LocalPath, a.SizeBytes, a.Checksum,
		nullIfEmpty(a.Thumbnail), a.CachedAt, a.LastAccessedAt, a.ExpiresAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *a
	stored.ID = id
	stored.IsValid = true
	return &stored, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetAsset retrieves one cached asset by its (lesson, asset) key.
func (s *Store) GetAsset(lessonID, assetID string) (*models.CachedAsset, error) {
	row := s.db.QueryRow(`SELECT `+assetColumns+` FROM cached_assets WHERE lesson_id = ? AND asset_id = ?`,
		lessonID, assetID)
	return scanAsset(row)
}

// AssetsForLesson returns all cached assets belonging to a lesson.
func (s *Store) AssetsForLesson(lessonID string) ([]*models.CachedAsset, error) {
	rows, err := s.db.Query(`SELECT `+assetColumns+` FROM cached_assets WHERE lesson_id = ? ORDER BY asset_id ASC`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.CachedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// AllValidAssets returns every asset currently marked valid. Used by the
// verification pass.
func (s *Store) AllValidAssets() ([]*models.CachedAsset, error) {
	rows, err := s.db.Query(`SELECT ` + assetColumns + ` FROM cached_assets WHERE is_valid = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.CachedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// InvalidateAsset flips is_valid to false without touching the file. Used
// when a checksum mismatch or corruption is detected after registration.
func (s *Store) InvalidateAsset(id int64) error {
	_, err := s.db.Exec(`UPDATE cached_assets SET is_valid = 0 WHERE id = ?`, id)
	return err
}

// InvalidateAssetByPath flips is_valid for the asset stored at a local path.
// Called by the content watcher when a file disappears from disk.
func (s *Store) InvalidateAssetByPath(localPath string) (bool, error) {
	res, err := s.db.Exec(`UPDATE cached_assets SET is_valid = 0 WHERE local_path = ? AND is_valid = 1`, localPath)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// TotalAssetSize sums size_bytes across all valid assets. The download policy
// uses this for storage-quota decisions.
func (s *Store) TotalAssetSize() (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(size_bytes) FROM cached_assets WHERE is_valid = 1`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// DeleteAssetsForLesson removes all ledger rows for one lesson and returns
// the file paths that backed them, leaving other lessons' assets untouched.
func (s *Store) DeleteAssetsForLesson(lessonID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT local_path FROM cached_assets WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`DELETE FROM cached_assets WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return nil, err
	}
	return paths, nil
}
