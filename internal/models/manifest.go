package models

// Manifest is the per-grade content listing returned by the manifest
// endpoint: the current pack version and every lesson with its assets.
type Manifest struct {
	Grade   int              `json:"grade"`
	Version string           `json:"version"`
	Lessons []ManifestLesson `json:"lessons"`
}

// ManifestLesson describes one lesson in a pack manifest. Archive, when the
// server provides one, points at a single bundled archive of the lesson's
// assets; clients may download it instead of the individual files.
type ManifestLesson struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Subject string      `json:"subject"`
	Assets  []AssetSpec `json:"assets"`
	Archive *AssetSpec  `json:"archive,omitempty"`
}

// AssetSpec describes one downloadable asset of a lesson. SizeBytes is the
// server-reported size used for progress totals; Checksum, when present, is
// verified after the transfer.
type AssetSpec struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum,omitempty"`
}
