package medication

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type RepoSQLite struct {
	db *db.DB
}

func NewRepoSQLite(d *db.DB) *RepoSQLite {
	return &RepoSQLite{db: d}
}

const medCols = `id, user_id, name, dosage, frequency, created_at`

func (r *RepoSQLite) Create(ctx context.Context, m *Medication) error {
	res, err := r.db.Exec(ctx,
		`INSERT INTO medications (user_id, name, dosage, frequency) VALUES (?, ?, ?, ?)`,
		m.UserID, m.Name, m.Dosage, m.Frequency)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (r *RepoSQLite) ListByUser(ctx context.Context, userID int64) ([]*Medication, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+medCols+` FROM medications WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := []*Medication{}
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.CreatedAt); err != nil {
			return nil, err
		}
		meds = append(meds, &m)
	}
	return meds, rows.Err()
}

func (r *RepoSQLite) GetByIDForUser(ctx context.Context, id, userID int64) (*Medication, error) {
	var m Medication
	err := r.db.QueryRow(ctx,
		`SELECT `+medCols+` FROM medications WHERE id = ? AND user_id = ?`,
		id, userID).
		Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *RepoSQLite) Update(ctx context.Context, m *Medication) error {
	res, err := r.db.Exec(ctx,
		`UPDATE medications SET name = ?, dosage = ?, frequency = ? WHERE id = ? AND user_id = ?`,
		m.Name, m.Dosage, m.Frequency, m.ID, m.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the medication and its logs in one transaction so a failure
// partway leaves both intact. Logs go first: the foreign key on
// medication_logs rejects deleting a medication that still has logs. An
// ownership miss on the medication rolls the log delete back.
func (r *RepoSQLite) Delete(ctx context.Context, id, userID int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM medication_logs WHERE medication_id = ?`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM medications WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertLog records a dose for a date. Marking the same medication and date
// again replaces the earlier log, so retries and photo updates are safe.
func (r *RepoSQLite) UpsertLog(ctx context.Context, l *Log) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO medication_logs (medication_id, user_id, taken_at, photo_url)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (medication_id, taken_at)
		 DO UPDATE SET user_id = excluded.user_id, photo_url = excluded.photo_url`,
		l.MedicationID, l.UserID, l.TakenAt, l.PhotoURL)
	if err != nil {
		return err
	}

	// LastInsertId is unreliable after ON CONFLICT; read the row id back.
	return r.db.QueryRow(ctx,
		`SELECT id FROM medication_logs WHERE medication_id = ? AND taken_at = ?`,
		l.MedicationID, l.TakenAt).Scan(&l.ID)
}

func (r *RepoSQLite) ListLogs(ctx context.Context, medicationID, ownerID int64) ([]*Log, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ml.id, ml.medication_id, ml.user_id, ml.taken_at, ml.photo_url, ml.created_at
		 FROM medication_logs ml
		 JOIN medications m ON ml.medication_id = m.id
		 WHERE ml.medication_id = ? AND m.user_id = ?
		 ORDER BY ml.taken_at DESC`,
		medicationID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*Log{}
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.MedicationID, &l.UserID, &l.TakenAt, &l.PhotoURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
