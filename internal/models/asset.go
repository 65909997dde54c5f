package models

import "time"

// CachedAsset is one downloaded binary asset (image/audio/video), keyed by
// (lesson_id, asset_id) and de-duplicated by original_url. The local file at
// LocalPath must match Checksum, otherwise IsValid is flipped to false by the
// verification pass.
type CachedAsset struct {
	ID             int64     `json:"id"`
	LessonID       string    `json:"lesson_id"`
	AssetID        string    `json:"asset_id"`
	AssetType      string    `json:"asset_type"` // "image", "audio", "video", "pack_archive"
	OriginalURL    string    `json:"original_url"`
	LocalPath      string    `json:"local_path"`
	SizeBytes      int64     `json:"size_bytes"`
	Checksum       string    `json:"checksum"` // hex sha256
	IsValid        bool      `json:"is_valid"`
	Thumbnail      string    `json:"thumbnail,omitempty"` // data URI, image assets only
	CachedAt       time.Time `json:"cached_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
