// Package medication implements the medication schedule: CRUD over a user's
// medications, marking doses taken, and intake log retrieval.
package medication

// Medication is one entry in a user's schedule.
type Medication struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Log records that a medication was taken on a calendar date. TakenAt is a
// date string (YYYY-MM-DD); at most one log exists per medication and date.
type Log struct {
	ID           int64   `json:"id"`
	MedicationID int64   `json:"medication_id"`
	UserID       int64   `json:"user_id"`
	TakenAt      string  `json:"taken_at"`
	PhotoURL     *string `json:"photo_url"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// UpsertRequest is the payload for creating or updating a medication.
type UpsertRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}
