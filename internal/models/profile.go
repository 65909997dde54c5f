package models

import "time"

// ChildProfile is a local child account. The PIN hash (if any) protects the
// parent-gated actions; it never leaves the device.
type ChildProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grade     int       `json:"grade"`
	PinHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
