package store

import (
	"database/sql"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
)

const packColumns = `grade, current_version, downloaded_version, total_lessons, downloaded_lessons, total_size, downloaded_size, is_update_available, last_checked_at`

func scanPack(row interface{ Scan(...interface{}) error }) (*models.LessonPackInfo, error) {
	var p models.LessonPackInfo
	var lastChecked sql.NullTime
	err := row.Scan(&p.Grade, &p.CurrentVersion, &p.DownloadedVersion, &p.TotalLessons,
		&p.DownloadedLessons, &p.TotalSize, &p.DownloadedSize, &p.IsUpdateAvailable, &lastChecked)
	if err != nil {
		return nil, err
	}
	if lastChecked.Valid {
		p.LastCheckedAt = &lastChecked.Time
	}
	return &p, nil
}

// GetPack retrieves the pack info for one grade.
func (s *Store) GetPack(grade int) (*models.LessonPackInfo, error) {
	row := s.db.QueryRow(`SELECT `+packColumns+` FROM lesson_packs WHERE grade = ?`, grade)
	return scanPack(row)
}

// GetAllPacks returns the pack info rows for every known grade.
func (s *Store) GetAllPacks() ([]*models.LessonPackInfo, error) {
	rows, err := s.db.Query(`SELECT ` + packColumns + ` FROM lesson_packs ORDER BY grade ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []*models.LessonPackInfo
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// RecordManifestCheck updates the latest server-side version for a grade,
// stamps last_checked_at, and stores the recomputed update flag. The semver
// comparison lives in the packs package; the store only persists its result.
func (s *Store) RecordManifestCheck(grade int, serverVersion string, totalLessons int, totalSize int64, updateAvailable bool, now time.Time) error {
	_, err := s.db.Exec(`
        INSERT INTO lesson_packs (grade, current_version, total_lessons, total_size, is_update_available, last_checked_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(grade) DO UPDATE SET
            current_version = excluded.current_version,
            total_lessons = excluded.total_lessons,
            total_size = excluded.total_size,
            is_update_available = excluded.is_update_available,
            last_checked_at = excluded.last_checked_at`,
		grade, serverVersion, totalLessons, totalSize, updateAvailable, now)
	return err
}

// RecordPackDownloadComplete advances the downloaded version for a grade.
// Only called once ALL lessons of the manifest version are materialized
// locally; there is deliberately no way to persist a partial version.
func (s *Store) RecordPackDownloadComplete(grade int, version string, lessonCount int, totalSize int64) error {
	_, err := s.db.Exec(`
        INSERT INTO lesson_packs (grade, current_version, downloaded_version, total_lessons, downloaded_lessons, total_size, downloaded_size, is_update_available)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0)
        ON CONFLICT(grade) DO UPDATE SET
            downloaded_version = excluded.downloaded_version,
            downloaded_lessons = excluded.downloaded_lessons,
            downloaded_size = excluded.downloaded_size,
            is_update_available = (lesson_packs.current_version != excluded.downloaded_version)`,
		grade, version, version, lessonCount, lessonCount, totalSize, totalSize)
	return err
}

// UpsertLesson records a lesson belonging to a pack version.
func (s *Store) UpsertLesson(l *models.Lesson) error {
	_, err := s.db.Exec(`
        INSERT INTO lessons (id, grade, pack_version, title, subject, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            grade = excluded.grade,
            pack_version = excluded.pack_version,
            title = excluded.title,
            subject = excluded.subject`,
		l.ID, l.Grade, l.PackVersion, l.Title, l.Subject, time.Now())
	return err
}

const lessonColumns = `id, grade, pack_version, downloaded_version, title, subject, created_at`

func scanLesson(row interface{ Scan(...interface{}) error }) (*models.Lesson, error) {
	var l models.Lesson
	err := row.Scan(&l.ID, &l.Grade, &l.PackVersion, &l.DownloadedVersion, &l.Title, &l.Subject, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLesson retrieves one lesson row.
func (s *Store) GetLesson(id string) (*models.Lesson, error) {
	return scanLesson(s.db.QueryRow(`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id))
}

// LessonsForGrade lists the lessons known for a grade.
func (s *Store) LessonsForGrade(grade int) ([]*models.Lesson, error) {
	rows, err := s.db.Query(`SELECT `+lessonColumns+` FROM lessons WHERE grade = ? ORDER BY id ASC`, grade)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []*models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// MarkLessonDownloaded records which pack version a lesson's assets were
// materialized under.
func (s *Store) MarkLessonDownloaded(id, version string) error {
	_, err := s.db.Exec(`UPDATE lessons SET downloaded_version = ? WHERE id = ?`, version, id)
	return err
}

// PruneLessonsForGrade deletes the lessons of a grade that are absent from
// the latest manifest. Cached assets of a pruned lesson stay on disk until
// the sweeper expires them or the lesson cache is cleared explicitly.
func (s *Store) PruneLessonsForGrade(grade int, keepIDs []string) error {
	if len(keepIDs) == 0 {
		_, err := s.db.Exec(`DELETE FROM lessons WHERE grade = ?`, grade)
		return err
	}
	args := []interface{}{grade}
	for _, id := range keepIDs {
		args = append(args, id)
	}
	_, err := s.db.Exec(`DELETE FROM lessons WHERE grade = ? AND id NOT IN (?`+repeatPlaceholder(len(keepIDs)-1)+`)`, args...)
	return err
}

// KnownGrades returns every grade seen in either the pack table or a child
// profile. The manifest check job iterates these.
func (s *Store) KnownGrades() ([]int, error) {
	rows, err := s.db.Query(`
        SELECT grade FROM lesson_packs
        UNION
        SELECT grade FROM child_profiles
        ORDER BY grade ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// CountLessonsDownloadedAt counts the lessons of a grade that were
// materialized under the given pack version. Counting lesson rows, not
// download jobs, means a lesson downloaded through several jobs (say a
// "lesson" and a "pack" job) is still one lesson, and lessons carried over
// from an older manifest version do not count toward the new one.
func (s *Store) CountLessonsDownloadedAt(grade int, version string) (int, error) {
	var count int
	err := s.db.QueryRow(`
        SELECT COUNT(*) FROM lessons
        WHERE grade = ? AND downloaded_version != '' AND downloaded_version = ?`,
		grade, version).Scan(&count)
	return count, err
}
