package models

import "time"

// LessonPackInfo tracks, per grade, the latest content version known from the
// server against the version fully materialized on disk. DownloadedVersion
// only advances when every lesson of a manifest version is present locally,
// so no partial pack is ever reported as downloaded.
type LessonPackInfo struct {
	Grade             int        `json:"grade"`
	CurrentVersion    string     `json:"current_version"`
	DownloadedVersion string     `json:"downloaded_version"`
	TotalLessons      int        `json:"total_lessons"`
	DownloadedLessons int        `json:"downloaded_lessons"`
	TotalSize         int64      `json:"total_size"`
	DownloadedSize    int64      `json:"downloaded_size"`
	IsUpdateAvailable bool       `json:"is_update_available"`
	LastCheckedAt     *time.Time `json:"last_checked_at,omitempty"`
}

// Lesson is the minimal local record of a lesson belonging to a pack. The
// lesson content itself lives in asset files; this row anchors cached assets
// and progress records for cascade deletion. PackVersion is the manifest
// version the lesson currently belongs to; DownloadedVersion is the version
// its assets were last materialized under, empty if never downloaded.
type Lesson struct {
	ID                string    `json:"id"`
	Grade             int       `json:"grade"`
	PackVersion       string    `json:"pack_version"`
	DownloadedVersion string    `json:"downloaded_version"`
	Title             string    `json:"title"`
	Subject           string    `json:"subject"`
	CreatedAt         time.Time `json:"created_at"`
}
