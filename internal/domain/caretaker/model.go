// Package caretaker implements the caretaker side of the patient link:
// managing linked patients, viewing their schedules, and marking doses taken
// on their behalf.
package caretaker

// Patient is the caretaker-facing view of a linked patient.
type Patient struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AddPatientRequest is the payload for linking a patient by username.
type AddPatientRequest struct {
	PatientUsername string `json:"patientUsername"`
}

// TakenLog is the log entry returned when a caretaker marks a patient's dose.
// It is attributed to the caretaker who recorded it.
type TakenLog struct {
	ID                int64  `json:"id"`
	MedicationID      int64  `json:"medication_id"`
	UserID            int64  `json:"user_id"`
	TakenAt           string `json:"taken_at"`
	MarkedByCaretaker bool   `json:"marked_by_caretaker"`
	CaretakerID       int64  `json:"caretaker_id"`
	CaretakerUsername string `json:"caretaker_username"`
}
