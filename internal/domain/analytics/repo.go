package analytics

import "context"

// Repository exposes the aggregate queries the reports are built from. All
// dates are YYYY-MM-DD strings, matching the log storage format.
type Repository interface {
	CountMedications(ctx context.Context, userID int64) (int64, error)
	CountTakenOn(ctx context.Context, userID int64, date string) (int64, error)
	DailyCounts(ctx context.Context, userID int64, since string) ([]DailyCount, error)
	Medications(ctx context.Context, userID int64) ([]MedicationRef, error)
	LogsSince(ctx context.Context, userID int64, since string) ([]LogEntry, error)
}
