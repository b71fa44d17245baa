package postgres

import (
	"context"

	"github.com/ecosort/smartbin/internal/model"
)

// DetectionLogRepo implements repository.DetectionLog using PostgreSQL.
// Rows are append-only summaries; raw device payloads are never stored.
type DetectionLogRepo struct{ db *DB }

// NewDetectionLogRepo constructs a detection log repository.
func NewDetectionLogRepo(db *DB) *DetectionLogRepo { return &DetectionLogRepo{db: db} }

// Append stores one resolved detection summary.
func (r *DetectionLogRepo) Append(ctx context.Context, wasteType model.Category, confidence float64, destination string) error {
	const q = `INSERT INTO detection_logs (waste_type, confidence, destination) VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, string(wasteType), confidence, destination)
	return err
}
