package analytics

import (
	"context"
	"errors"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidPeriod is returned for an unrecognized report period.
var ErrInvalidPeriod = errors.New("invalid period")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// DashboardStats builds the dashboard summary: medication count, today's
// doses, today's adherence rate, the current streak, and the last week's
// per-day log counts.
func (s *Service) DashboardStats(ctx context.Context, userID int64) (*DashboardStats, error) {
	total, err := s.repo.CountMedications(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := now.Format(dateLayout)
	taken, err := s.repo.CountTakenOn(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7).Format(dateLayout)
	daily, err := s.repo.DailyCounts(ctx, userID, weekAgo)
	if err != nil {
		return nil, err
	}

	rate := 0
	if total > 0 {
		rate = roundRate(float64(taken), float64(total))
	}

	streak, err := s.streak(ctx, userID, total, now)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalMedications: total,
		TakenToday:       taken,
		AdherenceRate:    rate,
		Streak:           streak,
		DailyLogs:        daily,
	}, nil
}

// streak counts consecutive days, ending today, on which every medication
// was logged. The dose log is unique per medication and day, so the day's
// row count equals the number of distinct medications taken.
func (s *Service) streak(ctx context.Context, userID, total int64, now time.Time) (int, error) {
	if total == 0 {
		return 0, nil
	}

	streak := 0
	for day := now; ; day = day.AddDate(0, 0, -1) {
		taken, err := s.repo.CountTakenOn(ctx, userID, day.Format(dateLayout))
		if err != nil {
			return 0, err
		}
		if taken < total {
			return streak, nil
		}
		streak++
	}
}

// Adherence builds the adherence report for the given period ("week",
// "month", or "year").
func (s *Service) Adherence(ctx context.Context, userID int64, period string) (*AdherenceReport, error) {
	now := s.now().UTC()

	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	case "year":
		start = now.AddDate(-1, 0, 0)
	default:
		return nil, ErrInvalidPeriod
	}

	meds, err := s.repo.Medications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(meds) == 0 {
		return &AdherenceReport{
			MedicationAdherence: []MedicationAdherence{},
			DailyAdherence:      []DailyAdherence{},
		}, nil
	}

	logs, err := s.repo.LogsSince(ctx, userID, start.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	days := int(math.Ceil(now.Sub(start).Hours() / 24))

	perMed := make([]MedicationAdherence, 0, len(meds))
	for _, m := range meds {
		taken := 0
		for _, l := range logs {
			if l.MedicationID == m.ID {
				taken++
			}
		}
		perMed = append(perMed, MedicationAdherence{
			ID:            m.ID,
			Name:          m.Name,
			AdherenceRate: roundRate(float64(taken), float64(days)),
			TotalTaken:    taken,
			ExpectedTaken: days,
		})
	}

	dailyByDate := map[string]int{}
	for _, l := range logs {
		dailyByDate[l.TakenAt]++
	}
	daily := []DailyAdherence{}
	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		taken := dailyByDate[date]
		daily = append(daily, DailyAdherence{
			Date:          date,
			AdherenceRate: roundRate(float64(taken), float64(len(meds))),
			Taken:         taken,
			Total:         len(meds),
		})
	}

	overall := 0
	if expected := len(meds) * days; expected > 0 {
		overall = roundRate(float64(len(logs)), float64(expected))
	}

	return &AdherenceReport{
		AdherenceRate:       overall,
		MedicationAdherence: perMed,
		DailyAdherence:      daily,
	}, nil
}

func roundRate(taken, expected float64) int {
	return int(math.Round(taken / expected * 100))
}
