// Package cache keeps the on-disk asset cache healthy: it evicts expired
// assets, verifies checksums against the files on disk, and watches the
// content directory for files that vanish behind the app's back.
package cache

import (
	"log"
	"os"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/util"
)

// Sweeper evicts expired cache entries and verifies asset integrity.
type Sweeper struct {
	st *store.Store
}

func NewSweeper(st *store.Store) *Sweeper {
	return &Sweeper{st: st}
}

// SweepExpired evicts every asset whose expiry has passed. The ledger row
// is removed first and the file second: a file that outlives its row is
// invisible garbage, but a row that outlives its file would claim content
// the device no longer has.
func (s *Sweeper) SweepExpired(now time.Time) (int, error) {
	expired, err := s.st.ExpiredAsOf(now)
	if err != nil {
		return 0, err
	}

	evicted := 0
	for _, asset := range expired {
		path, err := s.st.EvictAsset(asset.LessonID, asset.AssetID)
		if err != nil {
			log.Printf("Error evicting asset %s/%s: %v", asset.LessonID, asset.AssetID, err)
			continue
		}
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Evicted asset %d but could not remove file %s: %v", asset.ID, path, err)
		}
		evicted++
	}
	return evicted, nil
}

// VerifyAssets re-hashes every valid asset file and invalidates entries
// whose file is missing or whose content no longer matches the recorded
// checksum. Invalidated lessons show up as not-downloaded again.
func (s *Sweeper) VerifyAssets() (int, error) {
	assets, err := s.st.AllValidAssets()
	if err != nil {
		return 0, err
	}

	invalidated := 0
	for _, asset := range assets {
		sum, err := util.FileChecksum(asset.LocalPath)
		if err == nil && sum == asset.Checksum {
			continue
		}
		if err != nil {
			log.Printf("Asset %d file %s unreadable: %v", asset.ID, asset.LocalPath, err)
		} else {
			log.Printf("Asset %d file %s failed checksum verification", asset.ID, asset.LocalPath)
		}
		if err := s.st.InvalidateAsset(asset.ID); err != nil {
			log.Printf("Error invalidating asset %d: %v", asset.ID, err)
			continue
		}
		invalidated++
	}
	return invalidated, nil
}
