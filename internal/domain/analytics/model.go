// Package analytics computes adherence statistics over medication logs:
// dashboard counters, streaks, and per-period adherence reports.
package analytics

// DailyCount is the number of doses logged on a single day.
type DailyCount struct {
	TakenAt string `json:"taken_at"`
	Count   int64  `json:"count"`
}

// DashboardStats is the payload for the dashboard summary.
type DashboardStats struct {
	TotalMedications int64        `json:"totalMedications"`
	TakenToday       int64        `json:"takenToday"`
	AdherenceRate    int          `json:"adherenceRate"`
	Streak           int          `json:"streak"`
	DailyLogs        []DailyCount `json:"dailyLogs"`
}

// MedicationRef identifies a medication in a report.
type MedicationRef struct {
	ID   int64
	Name string
}

// LogEntry is a dose record as seen by the report queries.
type LogEntry struct {
	MedicationID int64
	TakenAt      string
}

// MedicationAdherence is the per-medication slice of an adherence report.
type MedicationAdherence struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	AdherenceRate int    `json:"adherenceRate"`
	TotalTaken    int    `json:"totalTaken"`
	ExpectedTaken int    `json:"expectedTaken"`
}

// DailyAdherence is one day of an adherence report.
type DailyAdherence struct {
	Date          string `json:"date"`
	AdherenceRate int    `json:"adherenceRate"`
	Taken         int    `json:"taken"`
	Total         int    `json:"total"`
}

// AdherenceReport is the payload for the adherence endpoint.
type AdherenceReport struct {
	AdherenceRate       int                   `json:"adherenceRate"`
	MedicationAdherence []MedicationAdherence `json:"medicationAdherence"`
	DailyAdherence      []DailyAdherence      `json:"dailyAdherence"`
}
