package models

import "time"

// Dose is an append-only intake record.
type Dose struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DoseType  string    `json:"dose_type"`
	TakenAt   time.Time `json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}
