package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockRepo struct {
	meds []MedicationRef
	logs []LogEntry
}

func (m *mockRepo) CountMedications(_ context.Context, _ int64) (int64, error) {
	return int64(len(m.meds)), nil
}

func (m *mockRepo) CountTakenOn(_ context.Context, _ int64, date string) (int64, error) {
	var n int64
	for _, l := range m.logs {
		if l.TakenAt == date {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) DailyCounts(_ context.Context, _ int64, since string) ([]DailyCount, error) {
	byDate := map[string]int64{}
	order := []string{}
	for _, l := range m.logs {
		if l.TakenAt >= since {
			if _, seen := byDate[l.TakenAt]; !seen {
				order = append(order, l.TakenAt)
			}
			byDate[l.TakenAt]++
		}
	}
	counts := []DailyCount{}
	for _, date := range order {
		counts = append(counts, DailyCount{TakenAt: date, Count: byDate[date]})
	}
	return counts, nil
}

func (m *mockRepo) Medications(_ context.Context, _ int64) ([]MedicationRef, error) {
	return m.meds, nil
}

func (m *mockRepo) LogsSince(_ context.Context, _ int64, since string) ([]LogEntry, error) {
	out := []LogEntry{}
	for _, l := range m.logs {
		if l.TakenAt >= since {
			out = append(out, l)
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestDashboardStats_Empty(t *testing.T) {
	svc := newTestService(&mockRepo{})

	stats, err := svc.DashboardStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalMedications != 0 || stats.TakenToday != 0 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.AdherenceRate != 0 {
		t.Errorf("expected 0 adherence with no medications, got %d", stats.AdherenceRate)
	}
	if stats.Streak != 0 {
		t.Errorf("expected 0 streak with no medications, got %d", stats.Streak)
	}
	if len(stats.DailyLogs) != 0 {
		t.Errorf("expected empty daily logs, got %+v", stats.DailyLogs)
	}
}

func TestDashboardStats_AdherenceAndDailyLogs(t *testing.T) {
	repo := &mockRepo{
		meds: []MedicationRef{{ID: 1, Name: "Aspirin"}, {ID: 2, Name: "Ibuprofen"}},
		logs: []LogEntry{
			{MedicationID: 1, TakenAt: "2026-08-31"},
			{MedicationID: 2, TakenAt: "2026-08-31"},
			{MedicationID: 1, TakenAt: "2026-09-01"},
		},
	}
	svc := newTestService(repo)

	stats, err := svc.DashboardStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalMedications != 2 || stats.TakenToday != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	// 1 of 2 taken today.
	if stats.AdherenceRate != 50 {
		t.Errorf("expected 50, got %d", stats.AdherenceRate)
	}
	if len(stats.DailyLogs) != 2 {
		t.Fatalf("expected 2 daily entries, got %+v", stats.DailyLogs)
	}
	if stats.DailyLogs[0].TakenAt != "2026-08-31" || stats.DailyLogs[0].Count != 2 {
		t.Errorf("unexpected daily logs: %+v", stats.DailyLogs)
	}
}

func TestDashboardStats_Streak(t *testing.T) {
	repo := &mockRepo{
		meds: []MedicationRef{{ID: 1, Name: "Aspirin"}, {ID: 2, Name: "Ibuprofen"}},
		logs: []LogEntry{
			// Today and yesterday fully taken, the day before only half.
			{MedicationID: 1, TakenAt: "2026-09-01"},
			{MedicationID: 2, TakenAt: "2026-09-01"},
			{MedicationID: 1, TakenAt: "2026-08-31"},
			{MedicationID: 2, TakenAt: "2026-08-31"},
			{MedicationID: 1, TakenAt: "2026-08-30"},
		},
	}
	svc := newTestService(repo)

	stats, err := svc.DashboardStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.Streak != 2 {
		t.Errorf("expected streak 2, got %d", stats.Streak)
	}
}

func TestDashboardStats_StreakBrokenToday(t *testing.T) {
	repo := &mockRepo{
		meds: []MedicationRef{{ID: 1, Name: "Aspirin"}},
		logs: []LogEntry{{MedicationID: 1, TakenAt: "2026-08-31"}},
	}
	svc := newTestService(repo)

	stats, err := svc.DashboardStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.Streak != 0 {
		t.Errorf("streak must end at the first incomplete day, got %d", stats.Streak)
	}
}

func TestAdherence_InvalidPeriod(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.Adherence(context.Background(), 1, "decade")
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestAdherence_NoMedications(t *testing.T) {
	svc := newTestService(&mockRepo{})

	report, err := svc.Adherence(context.Background(), 1, "week")
	if err != nil {
		t.Fatalf("Adherence: %v", err)
	}
	if report.AdherenceRate != 0 {
		t.Errorf("expected 0 rate, got %d", report.AdherenceRate)
	}
	if len(report.MedicationAdherence) != 0 || len(report.DailyAdherence) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestAdherence_Week(t *testing.T) {
	repo := &mockRepo{
		meds: []MedicationRef{{ID: 1, Name: "Aspirin"}, {ID: 2, Name: "Ibuprofen"}},
		logs: []LogEntry{
			{MedicationID: 1, TakenAt: "2026-08-26"},
			{MedicationID: 1, TakenAt: "2026-08-27"},
			{MedicationID: 1, TakenAt: "2026-08-28"},
			{MedicationID: 1, TakenAt: "2026-08-29"},
			{MedicationID: 1, TakenAt: "2026-08-30"},
			{MedicationID: 1, TakenAt: "2026-08-31"},
			{MedicationID: 1, TakenAt: "2026-09-01"},
			{MedicationID: 2, TakenAt: "2026-09-01"},
		},
	}
	svc := newTestService(repo)

	report, err := svc.Adherence(context.Background(), 1, "week")
	if err != nil {
		t.Fatalf("Adherence: %v", err)
	}

	if len(report.MedicationAdherence) != 2 {
		t.Fatalf("expected 2 medications, got %+v", report.MedicationAdherence)
	}
	aspirin := report.MedicationAdherence[0]
	if aspirin.TotalTaken != 7 || aspirin.ExpectedTaken != 7 || aspirin.AdherenceRate != 100 {
		t.Errorf("unexpected aspirin adherence: %+v", aspirin)
	}
	ibuprofen := report.MedicationAdherence[1]
	if ibuprofen.TotalTaken != 1 || ibuprofen.AdherenceRate != 14 {
		t.Errorf("unexpected ibuprofen adherence: %+v", ibuprofen)
	}

	// 8 of 14 expected doses.
	if report.AdherenceRate != 57 {
		t.Errorf("expected 57, got %d", report.AdherenceRate)
	}

	// Inclusive walk from 7 days ago through today.
	if len(report.DailyAdherence) != 8 {
		t.Fatalf("expected 8 days, got %d", len(report.DailyAdherence))
	}
	first := report.DailyAdherence[0]
	if first.Date != "2026-08-25" || first.Taken != 0 {
		t.Errorf("unexpected first day: %+v", first)
	}
	last := report.DailyAdherence[len(report.DailyAdherence)-1]
	if last.Date != "2026-09-01" || last.Taken != 2 || last.AdherenceRate != 100 {
		t.Errorf("unexpected last day: %+v", last)
	}
}
