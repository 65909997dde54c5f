package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/sadmanHT/porakhela-sync/internal/models"
)

// CreateProfile inserts a new child profile and returns it.
func (s *Store) CreateProfile(name string, grade int, pinHash string) (*models.ChildProfile, error) {
	p := &models.ChildProfile{
		ID:        uuid.NewString(),
		Name:      name,
		Grade:     grade,
		PinHash:   pinHash,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(`INSERT INTO child_profiles (id, name, grade, pin_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Grade, p.PinHash, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile retrieves one child profile by id.
func (s *Store) GetProfile(id string) (*models.ChildProfile, error) {
	var p models.ChildProfile
	err := s.db.QueryRow(`SELECT id, name, grade, COALESCE(pin_hash, ''), created_at FROM child_profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Grade, &p.PinHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfiles returns all child profiles on the device.
func (s *Store) ListProfiles() ([]*models.ChildProfile, error) {
	rows, err := s.db.Query(`SELECT id, name, grade, COALESCE(pin_hash, ''), created_at FROM child_profiles ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.ChildProfile
	for rows.Next() {
		var p models.ChildProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Grade, &p.PinHash, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
