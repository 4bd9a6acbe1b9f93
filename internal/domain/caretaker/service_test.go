package caretaker

import (
	"context"
	"errors"
	"testing"

	"github.com/medtrack/medtrack/internal/domain/medication"
	"github.com/medtrack/medtrack/internal/platform/auth"
)

type mockLinkRepo struct {
	patients map[int64]*Patient
	links    map[[2]int64]bool // patientID, caretakerID
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{patients: map[int64]*Patient{}, links: map[[2]int64]bool{}}
}

func (m *mockLinkRepo) ListPatients(_ context.Context, caretakerID int64) ([]*Patient, error) {
	out := []*Patient{}
	for key := range m.links {
		if key[1] == caretakerID {
			out = append(out, m.patients[key[0]])
		}
	}
	return out, nil
}

func (m *mockLinkRepo) FindPatientByUsername(_ context.Context, username string) (*Patient, error) {
	for _, p := range m.patients {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockLinkRepo) LinkExists(_ context.Context, patientID, caretakerID int64) (bool, error) {
	return m.links[[2]int64{patientID, caretakerID}], nil
}

func (m *mockLinkRepo) CreateLink(_ context.Context, patientID, caretakerID int64) error {
	key := [2]int64{patientID, caretakerID}
	if m.links[key] {
		return ErrAlreadyLinked
	}
	m.links[key] = true
	return nil
}

func (m *mockLinkRepo) RemoveLink(_ context.Context, patientID, caretakerID int64) error {
	key := [2]int64{patientID, caretakerID}
	if !m.links[key] {
		return ErrNotLinked
	}
	delete(m.links, key)
	return nil
}

func (m *mockLinkRepo) CaretakerIDs(_ context.Context, patientID int64) ([]int64, error) {
	ids := []int64{}
	for key := range m.links {
		if key[0] == patientID {
			ids = append(ids, key[1])
		}
	}
	return ids, nil
}

type mockMedRepo struct {
	meds   map[int64]*medication.Medication
	logs   map[int64]*medication.Log
	nextID int64
}

func newMockMedRepo() *mockMedRepo {
	return &mockMedRepo{meds: map[int64]*medication.Medication{}, logs: map[int64]*medication.Log{}, nextID: 1}
}

func (m *mockMedRepo) Create(_ context.Context, med *medication.Medication) error {
	med.ID = m.nextID
	m.nextID++
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedRepo) ListByUser(_ context.Context, userID int64) ([]*medication.Medication, error) {
	out := []*medication.Medication{}
	for _, med := range m.meds {
		if med.UserID == userID {
			out = append(out, med)
		}
	}
	return out, nil
}

func (m *mockMedRepo) GetByIDForUser(_ context.Context, id, userID int64) (*medication.Medication, error) {
	med, ok := m.meds[id]
	if !ok || med.UserID != userID {
		return nil, medication.ErrNotFound
	}
	return med, nil
}

func (m *mockMedRepo) Update(_ context.Context, med *medication.Medication) error {
	existing, ok := m.meds[med.ID]
	if !ok || existing.UserID != med.UserID {
		return medication.ErrNotFound
	}
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedRepo) Delete(_ context.Context, id, userID int64) error {
	med, ok := m.meds[id]
	if !ok || med.UserID != userID {
		return medication.ErrNotFound
	}
	delete(m.meds, id)
	return nil
}

func (m *mockMedRepo) UpsertLog(_ context.Context, l *medication.Log) error {
	for _, existing := range m.logs {
		if existing.MedicationID == l.MedicationID && existing.TakenAt == l.TakenAt {
			existing.UserID = l.UserID
			existing.PhotoURL = l.PhotoURL
			l.ID = existing.ID
			return nil
		}
	}
	l.ID = m.nextID
	m.nextID++
	m.logs[l.ID] = l
	return nil
}

func (m *mockMedRepo) ListLogs(_ context.Context, medicationID, ownerID int64) ([]*medication.Log, error) {
	out := []*medication.Log{}
	for _, l := range m.logs {
		if l.MedicationID == medicationID {
			out = append(out, l)
		}
	}
	return out, nil
}

type notification struct {
	patientID int64
	eventType string
	payload   map[string]any
	fannedOut bool
}

type mockNotifier struct {
	sent []notification
}

func (n *mockNotifier) NotifyPatient(_ context.Context, patientID int64, eventType string, payload map[string]any) {
	n.sent = append(n.sent, notification{patientID: patientID, eventType: eventType, payload: payload})
}

func (n *mockNotifier) NotifyPatientAndCaretakers(_ context.Context, patientID int64, _ string, eventType string, payload map[string]any) {
	n.sent = append(n.sent, notification{patientID: patientID, eventType: eventType, payload: payload, fannedOut: true})
}

var cara = auth.Identity{ID: 2, Username: "cara", Role: "caretaker"}

func newTestService() (*Service, *mockLinkRepo, *mockMedRepo, *mockNotifier) {
	links := newMockLinkRepo()
	meds := newMockMedRepo()
	notifier := &mockNotifier{}
	return NewService(links, meds, notifier), links, meds, notifier
}

func seedPatient(links *mockLinkRepo, id int64, username string) *Patient {
	p := &Patient{ID: id, Username: username, Email: username + "@example.com"}
	links.patients[id] = p
	return p
}

func TestService_AddPatient(t *testing.T) {
	svc, links, _, notifier := newTestService()
	seedPatient(links, 1, "alice")

	p, err := svc.AddPatient(context.Background(), cara, "alice")
	if err != nil {
		t.Fatalf("AddPatient: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("unexpected patient: %+v", p)
	}
	if !links.links[[2]int64{1, cara.ID}] {
		t.Error("link not created")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0]
	if sent.eventType != "caretaker_added" || sent.fannedOut {
		t.Errorf("unexpected notification: %+v", sent)
	}
	if sent.payload["caretaker_username"] != "cara" {
		t.Errorf("unexpected payload: %v", sent.payload)
	}
}

func TestService_AddPatientRequiresUsername(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.AddPatient(context.Background(), cara, "")
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_AddPatientUnknownUsername(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.AddPatient(context.Background(), cara, "nobody")
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestService_AddPatientTwice(t *testing.T) {
	svc, links, _, _ := newTestService()
	seedPatient(links, 1, "alice")

	if _, err := svc.AddPatient(context.Background(), cara, "alice"); err != nil {
		t.Fatalf("first AddPatient: %v", err)
	}
	_, err := svc.AddPatient(context.Background(), cara, "alice")
	if !errors.Is(err, ErrAlreadyLinked) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}
}

func TestService_RemovePatient(t *testing.T) {
	svc, links, _, notifier := newTestService()
	seedPatient(links, 1, "alice")
	links.links[[2]int64{1, cara.ID}] = true

	if err := svc.RemovePatient(context.Background(), cara, 1); err != nil {
		t.Fatalf("RemovePatient: %v", err)
	}
	if links.links[[2]int64{1, cara.ID}] {
		t.Error("link not removed")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].eventType != "caretaker_removed" {
		t.Errorf("unexpected notifications: %+v", notifier.sent)
	}
}

func TestService_RemovePatientNotLinked(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.RemovePatient(context.Background(), cara, 1)
	if !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
}

func TestService_PatientMedications(t *testing.T) {
	svc, links, meds, _ := newTestService()
	seedPatient(links, 1, "alice")
	links.links[[2]int64{1, cara.ID}] = true
	meds.meds[1] = &medication.Medication{ID: 1, UserID: 1, Name: "Aspirin", Dosage: "100mg", Frequency: "daily"}
	meds.nextID = 2

	list, err := svc.PatientMedications(context.Background(), cara, 1)
	if err != nil {
		t.Fatalf("PatientMedications: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Aspirin" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestService_PatientMedicationsRequiresLink(t *testing.T) {
	svc, links, _, _ := newTestService()
	seedPatient(links, 1, "alice")

	_, err := svc.PatientMedications(context.Background(), cara, 1)
	if !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
}

func TestService_MarkTaken(t *testing.T) {
	svc, links, meds, notifier := newTestService()
	seedPatient(links, 1, "alice")
	links.links[[2]int64{1, cara.ID}] = true
	meds.meds[1] = &medication.Medication{ID: 1, UserID: 1, Name: "Aspirin", Dosage: "100mg", Frequency: "daily"}
	meds.nextID = 2

	l, err := svc.MarkTaken(context.Background(), cara, 1, 1, "2026-09-01")
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if !l.MarkedByCaretaker || l.CaretakerUsername != "cara" {
		t.Errorf("expected caretaker attribution, got %+v", l)
	}
	if l.UserID != 1 {
		t.Errorf("log must belong to the patient, got %+v", l)
	}
	if stored := meds.logs[l.ID]; stored == nil || stored.PhotoURL != nil {
		t.Errorf("unexpected stored log: %+v", stored)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0]
	if sent.eventType != "medication_taken_by_caretaker" || sent.fannedOut {
		t.Errorf("unexpected notification: %+v", sent)
	}
	if sent.patientID != 1 {
		t.Errorf("notification must target the patient, got %d", sent.patientID)
	}
	if sent.payload["medication_name"] != "Aspirin" {
		t.Errorf("unexpected payload: %v", sent.payload)
	}
}

func TestService_MarkTakenRequiresDate(t *testing.T) {
	svc, links, _, _ := newTestService()
	seedPatient(links, 1, "alice")
	links.links[[2]int64{1, cara.ID}] = true

	_, err := svc.MarkTaken(context.Background(), cara, 1, 1, "")
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_MarkTakenRequiresLink(t *testing.T) {
	svc, links, meds, _ := newTestService()
	seedPatient(links, 1, "alice")
	meds.meds[1] = &medication.Medication{ID: 1, UserID: 1, Name: "Aspirin", Dosage: "100mg", Frequency: "daily"}
	meds.nextID = 2

	_, err := svc.MarkTaken(context.Background(), cara, 1, 1, "2026-09-01")
	if !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
}

func TestService_MarkTakenForeignMedication(t *testing.T) {
	svc, links, meds, _ := newTestService()
	seedPatient(links, 1, "alice")
	links.links[[2]int64{1, cara.ID}] = true
	meds.meds[1] = &medication.Medication{ID: 1, UserID: 99, Name: "Aspirin", Dosage: "100mg", Frequency: "daily"}
	meds.nextID = 2

	_, err := svc.MarkTaken(context.Background(), cara, 1, 1, "2026-09-01")
	if !errors.Is(err, medication.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign medication, got %v", err)
	}
}
