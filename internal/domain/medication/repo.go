package medication

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no medication matches the id for the given
// owner. Callers cannot tell a foreign medication from a missing one.
var ErrNotFound = errors.New("medication not found")

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	ListByUser(ctx context.Context, userID int64) ([]*Medication, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id, userID int64) error
	UpsertLog(ctx context.Context, l *Log) error
	ListLogs(ctx context.Context, medicationID, ownerID int64) ([]*Log, error)
}
