package analytics

import (
	"context"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type RepoSQLite struct {
	db *db.DB
}

func NewRepoSQLite(d *db.DB) *RepoSQLite {
	return &RepoSQLite{db: d}
}

func (r *RepoSQLite) CountMedications(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM medications WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *RepoSQLite) CountTakenOn(ctx context.Context, userID int64, date string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM medication_logs ml
		 JOIN medications m ON ml.medication_id = m.id
		 WHERE m.user_id = ? AND ml.taken_at = ?`,
		userID, date).Scan(&n)
	return n, err
}

func (r *RepoSQLite) DailyCounts(ctx context.Context, userID int64, since string) ([]DailyCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ml.taken_at, COUNT(*) FROM medication_logs ml
		 JOIN medications m ON ml.medication_id = m.id
		 WHERE m.user_id = ? AND ml.taken_at >= ?
		 GROUP BY ml.taken_at
		 ORDER BY ml.taken_at ASC`,
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []DailyCount{}
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.TakenAt, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *RepoSQLite) Medications(ctx context.Context, userID int64) ([]MedicationRef, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name FROM medications WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := []MedicationRef{}
	for rows.Next() {
		var m MedicationRef
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *RepoSQLite) LogsSince(ctx context.Context, userID int64, since string) ([]LogEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ml.medication_id, ml.taken_at FROM medication_logs ml
		 JOIN medications m ON ml.medication_id = m.id
		 WHERE m.user_id = ? AND ml.taken_at >= ?
		 ORDER BY ml.taken_at ASC`,
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []LogEntry{}
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.MedicationID, &l.TakenAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
