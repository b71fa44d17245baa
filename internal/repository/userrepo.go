package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/ecosort/smartbin/internal/model"
)

// Users provides read access to account reward counters. Account creation
// and credentials belong to the external auth service.
type Users interface {
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Summary returns the top users ordered by lifetime earnings.
	Summary(ctx context.Context, limit int) ([]model.User, error)
}

// DetectionLog appends resolved detection outcomes for offline analysis.
type DetectionLog interface {
	// Append stores one resolved detection summary.
	Append(ctx context.Context, wasteType model.Category, confidence float64, destination string) error
}
