package store

import (
	"database/sql"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
)

// Cache ledger operations: access tracking and expiry. These work on the
// same cached_assets rows as the asset store but form a separate contract,
// driven by reads and by the sweeper instead of by downloads.

// RecordAccess updates last_accessed_at for an asset. Called on every read
// hit so the ledger reflects real usage.
func (s *Store) RecordAccess(lessonID, assetID string) error {
	_, err := s.db.Exec(`UPDATE cached_assets SET last_accessed_at = ? WHERE lesson_id = ? AND asset_id = ?`,
		time.Now(), lessonID, assetID)
	return err
}

// ExpiredAsOf returns the cached assets whose expires_at is strictly before
// now. This is a pure query; eviction is a separate explicit step.
func (s *Store) ExpiredAsOf(now time.Time) ([]*models.CachedAsset, error) {
	rows, err := s.db.Query(`SELECT `+assetColumns+` FROM cached_assets WHERE expires_at < ? ORDER BY expires_at ASC`, now)
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

// EvictAsset deletes the ledger entry for one asset and returns the file
// path that backed it. Removing the ledger row must never be blocked by file
// deletion problems: a dangling file is a reconcilable leak, a dangling
// ledger entry is a correctness bug. The caller removes the file afterwards
// and is free to just log a failure.
func (s *Store) EvictAsset(lessonID, assetID string) (string, error) {
	var path string
	err := s.db.QueryRow(`SELECT local_path FROM cached_assets WHERE lesson_id = ? AND asset_id = ?`,
		lessonID, assetID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`DELETE FROM cached_assets WHERE lesson_id = ? AND asset_id = ?`, lessonID, assetID)
	if err != nil {
		return "", err
	}
	return path, nil
}
