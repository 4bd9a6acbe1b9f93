package caretaker

import (
	"context"

	"github.com/medtrack/medtrack/internal/domain/medication"
	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/pkg/validate"
)

// ValidationError carries a user-facing message for a rejected request.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type Service struct {
	links    Repository
	meds     medication.Repository
	notifier medication.Notifier
}

func NewService(links Repository, meds medication.Repository, notifier medication.Notifier) *Service {
	return &Service{links: links, meds: meds, notifier: notifier}
}

// ListPatients returns the patients linked to the caretaker.
func (s *Service) ListPatients(ctx context.Context, caretakerID int64) ([]*Patient, error) {
	return s.links.ListPatients(ctx, caretakerID)
}

// AddPatient links the caretaker to the patient with the given username and
// notifies the patient's channel.
func (s *Service) AddPatient(ctx context.Context, actor auth.Identity, patientUsername string) (*Patient, error) {
	patientUsername = validate.Sanitize(patientUsername)
	if patientUsername == "" {
		return nil, ValidationError("Patient username is required")
	}

	p, err := s.links.FindPatientByUsername(ctx, patientUsername)
	if err != nil {
		return nil, err
	}

	linked, err := s.links.LinkExists(ctx, p.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if linked {
		return nil, ErrAlreadyLinked
	}

	if err := s.links.CreateLink(ctx, p.ID, actor.ID); err != nil {
		return nil, err
	}

	s.notifier.NotifyPatient(ctx, p.ID, "caretaker_added", map[string]any{
		"caretaker_id":       actor.ID,
		"caretaker_username": actor.Username,
	})
	return p, nil
}

// RemovePatient unlinks the caretaker from the patient and notifies the
// patient's channel.
func (s *Service) RemovePatient(ctx context.Context, actor auth.Identity, patientID int64) error {
	if err := s.links.RemoveLink(ctx, patientID, actor.ID); err != nil {
		return err
	}

	s.notifier.NotifyPatient(ctx, patientID, "caretaker_removed", map[string]any{
		"caretaker_id":       actor.ID,
		"caretaker_username": actor.Username,
	})
	return nil
}

// PatientMedications returns a linked patient's schedule, newest first.
func (s *Service) PatientMedications(ctx context.Context, actor auth.Identity, patientID int64) ([]*medication.Medication, error) {
	linked, err := s.links.LinkExists(ctx, patientID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotLinked
	}

	return s.meds.ListByUser(ctx, patientID)
}

// MarkTaken records a dose for a linked patient's medication on the given
// date. The log is attributed to the caretaker and the patient's channel is
// notified; the caretaker's other peers are not.
func (s *Service) MarkTaken(ctx context.Context, actor auth.Identity, patientID, medicationID int64, date string) (*TakenLog, error) {
	if date == "" {
		return nil, ValidationError("Date is required")
	}

	linked, err := s.links.LinkExists(ctx, patientID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotLinked
	}

	m, err := s.meds.GetByIDForUser(ctx, medicationID, patientID)
	if err != nil {
		return nil, err
	}

	l := &medication.Log{
		MedicationID: medicationID,
		UserID:       patientID,
		TakenAt:      date,
	}
	if err := s.meds.UpsertLog(ctx, l); err != nil {
		return nil, err
	}

	entry := &TakenLog{
		ID:                l.ID,
		MedicationID:      medicationID,
		UserID:            patientID,
		TakenAt:           date,
		MarkedByCaretaker: true,
		CaretakerID:       actor.ID,
		CaretakerUsername: actor.Username,
	}

	s.notifier.NotifyPatient(ctx, patientID, "medication_taken_by_caretaker", map[string]any{
		"id":                  entry.ID,
		"medication_id":       entry.MedicationID,
		"user_id":             entry.UserID,
		"taken_at":            entry.TakenAt,
		"marked_by_caretaker": true,
		"caretaker_id":        entry.CaretakerID,
		"caretaker_username":  entry.CaretakerUsername,
		"medication_name":     m.Name,
	})
	return entry, nil
}
