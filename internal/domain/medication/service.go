package medication

import (
	"context"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/pkg/validate"
)

// ValidationError carries a user-facing message for a rejected request.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Notifier publishes medication events to the affected users' realtime
// channels. Satisfied by realtime.Notifier.
type Notifier interface {
	NotifyPatient(ctx context.Context, patientID int64, eventType string, payload map[string]any)
	NotifyPatientAndCaretakers(ctx context.Context, patientID int64, patientUsername, eventType string, payload map[string]any)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// List returns the user's medications, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]*Medication, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create validates and stores a new medication for the actor, then notifies
// the actor's channel and, for patients, their caretakers.
func (s *Service) Create(ctx context.Context, actor auth.Identity, req UpsertRequest) (*Medication, error) {
	if !validate.Medication(req.Name, req.Dosage, req.Frequency) {
		return nil, ValidationError("All fields are required")
	}

	m := &Medication{
		UserID:    actor.ID,
		Name:      validate.Sanitize(req.Name),
		Dosage:    validate.Sanitize(req.Dosage),
		Frequency: validate.Sanitize(req.Frequency),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.notify(ctx, actor, "medication_added", medicationPayload(m))
	return m, nil
}

// Update validates and saves changes to a medication the actor owns.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id int64, req UpsertRequest) (*Medication, error) {
	if !validate.Medication(req.Name, req.Dosage, req.Frequency) {
		return nil, ValidationError("All fields are required")
	}

	if _, err := s.repo.GetByIDForUser(ctx, id, actor.ID); err != nil {
		return nil, err
	}

	m := &Medication{
		ID:        id,
		UserID:    actor.ID,
		Name:      validate.Sanitize(req.Name),
		Dosage:    validate.Sanitize(req.Dosage),
		Frequency: validate.Sanitize(req.Frequency),
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.notify(ctx, actor, "medication_updated", medicationPayload(m))
	return m, nil
}

// Delete removes a medication the actor owns together with its logs.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id, actor.ID); err != nil {
		return err
	}

	s.notify(ctx, actor, "medication_deleted", map[string]any{"id": id})
	return nil
}

// MarkTaken records that the actor took a medication on the given date,
// optionally attaching a photo URL. Marking the same date twice replaces the
// earlier log.
func (s *Service) MarkTaken(ctx context.Context, actor auth.Identity, id int64, date string, photoURL *string) (*Log, error) {
	if date == "" {
		return nil, ValidationError("Date is required")
	}

	m, err := s.repo.GetByIDForUser(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}

	l := &Log{
		MedicationID: id,
		UserID:       actor.ID,
		TakenAt:      date,
		PhotoURL:     photoURL,
	}
	if err := s.repo.UpsertLog(ctx, l); err != nil {
		return nil, err
	}

	payload := logPayload(l)
	payload["medication_name"] = m.Name
	s.notify(ctx, actor, "medication_taken", payload)
	return l, nil
}

// Logs returns the intake history for a medication the owner holds, newest
// date first.
func (s *Service) Logs(ctx context.Context, ownerID, medicationID int64) ([]*Log, error) {
	return s.repo.ListLogs(ctx, medicationID, ownerID)
}

// notify fans the event out. Caretakers only follow patients, so events by a
// caretaker on their own schedule stay on their own channel.
func (s *Service) notify(ctx context.Context, actor auth.Identity, eventType string, payload map[string]any) {
	if actor.IsPatient() {
		s.notifier.NotifyPatientAndCaretakers(ctx, actor.ID, actor.Username, eventType, payload)
		return
	}
	s.notifier.NotifyPatient(ctx, actor.ID, eventType, payload)
}

func medicationPayload(m *Medication) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"user_id":   m.UserID,
		"name":      m.Name,
		"dosage":    m.Dosage,
		"frequency": m.Frequency,
	}
}

func logPayload(l *Log) map[string]any {
	return map[string]any{
		"id":            l.ID,
		"medication_id": l.MedicationID,
		"user_id":       l.UserID,
		"taken_at":      l.TakenAt,
		"photo_url":     l.PhotoURL,
	}
}
