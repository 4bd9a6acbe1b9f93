package caretaker

import (
	"context"
	"errors"
)

var (
	// ErrPatientNotFound is returned when no patient account matches.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrAlreadyLinked is returned when the caretaker already follows the patient.
	ErrAlreadyLinked = errors.New("caretaker already linked to patient")
	// ErrNotLinked is returned when the caretaker does not follow the patient.
	ErrNotLinked = errors.New("caretaker not linked to patient")
)

type Repository interface {
	ListPatients(ctx context.Context, caretakerID int64) ([]*Patient, error)
	FindPatientByUsername(ctx context.Context, username string) (*Patient, error)
	LinkExists(ctx context.Context, patientID, caretakerID int64) (bool, error)
	CreateLink(ctx context.Context, patientID, caretakerID int64) error
	RemoveLink(ctx context.Context, patientID, caretakerID int64) error
	CaretakerIDs(ctx context.Context, patientID int64) ([]int64, error)
}
