package caretaker

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type RepoSQLite struct {
	db *db.DB
}

func NewRepoSQLite(d *db.DB) *RepoSQLite {
	return &RepoSQLite{db: d}
}

func (r *RepoSQLite) ListPatients(ctx context.Context, caretakerID int64) ([]*Patient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.username, u.email FROM users u
		 JOIN patient_caretaker pc ON u.id = pc.patient_id
		 WHERE pc.caretaker_id = ?
		 ORDER BY u.username`,
		caretakerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Username, &p.Email); err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func (r *RepoSQLite) FindPatientByUsername(ctx context.Context, username string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx,
		`SELECT id, username, email FROM users WHERE username = ? AND role = 'patient'`,
		username).Scan(&p.ID, &p.Username, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepoSQLite) LinkExists(ctx context.Context, patientID, caretakerID int64) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM patient_caretaker WHERE patient_id = ? AND caretaker_id = ?`,
		patientID, caretakerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RepoSQLite) CreateLink(ctx context.Context, patientID, caretakerID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO patient_caretaker (patient_id, caretaker_id) VALUES (?, ?)`,
		patientID, caretakerID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrAlreadyLinked
	}
	return err
}

func (r *RepoSQLite) RemoveLink(ctx context.Context, patientID, caretakerID int64) error {
	res, err := r.db.Exec(ctx,
		`DELETE FROM patient_caretaker WHERE patient_id = ? AND caretaker_id = ?`,
		patientID, caretakerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotLinked
	}
	return nil
}

// CaretakerIDs satisfies realtime.CaretakerDirectory.
func (r *RepoSQLite) CaretakerIDs(ctx context.Context, patientID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT caretaker_id FROM patient_caretaker WHERE patient_id = ?`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
