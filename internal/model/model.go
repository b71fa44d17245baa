// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Category is the canonical waste bucket used for eligibility and reward sizing.
type Category string

const (
	CategoryDry        Category = "dry"
	CategoryWet        Category = "wet"
	CategoryElectronic Category = "electronic"
	CategoryNone       Category = "none"
)

// Eligible reports whether disposals of this category earn credits.
func (c Category) Eligible() bool {
	return c == CategoryDry || c == CategoryElectronic
}

// Points returns the credit value of a single disposal of this category.
func (c Category) Points() int64 {
	switch c {
	case CategoryDry:
		return 5
	case CategoryElectronic:
		return 10
	default:
		return 0
	}
}

// DetectedObject is a single classified object within a detection event.
type DetectedObject struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// DetectionEvent is one classification report from the bin's sensors.
// It is transient: only summaries of it are ever persisted.
type DetectionEvent struct {
	EventID     string           `json:"event_id,omitempty"`
	Count       int              `json:"count"`
	Objects     []DetectedObject `json:"objects"`
	Destination string           `json:"destination"`
	Label       string           `json:"label,omitempty"`
	Confidence  *float64         `json:"confidence,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

// Rejected reports whether the event is disqualified from earning credits:
// the device routed it to reject, or the overall confidence (when reported)
// is below minConfidence.
func (e *DetectionEvent) Rejected(minConfidence float64) bool {
	if e.Destination == "reject" {
		return true
	}
	return e.Confidence != nil && *e.Confidence < minConfidence
}

// User is an account stored on the server. Credentials live in the external
// auth service; this side only tracks reward counters.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Credits          int64     `json:"credits"`
	BottlesSubmitted int64     `json:"bottles_submitted"`
	TotalEarned      int64     `json:"total_earned"`
	CreatedAt        time.Time `json:"created_at"`
}

// Balance reports post-mutation user counters returned by ledger operations.
type Balance struct {
	Credits          int64 `json:"credits"`
	BottlesSubmitted int64 `json:"bottles_submitted"`
	TotalEarned      int64 `json:"total_earned"`
}

// CreditTransaction is one append-only row per successful award.
type CreditTransaction struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	WasteType     string    `json:"waste_type"`
	CreditsEarned int64     `json:"credits_earned"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Redemption is one append-only row per successful redemption.
type Redemption struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ItemName   string    `json:"item_name"`
	ItemCost   int64     `json:"item_cost"`
	Quantity   int64     `json:"quantity"`
	TotalCost  int64     `json:"total_cost"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// StatsSnapshot is a consistent point-in-time copy of ingestion counters.
type StatsSnapshot struct {
	TotalDetections      int64              `json:"totalDetections"`
	ByClass              map[Category]int64 `json:"byClass"`
	MultiObjectEvents    int64              `json:"multiObjectEvents"`
	ProcessingRouted     int64              `json:"processingChamberUsage"`
	ProcessingPercentage float64            `json:"processingChamberPercentage"`
}

// CreditUpdate is the payload fanned out to observers after a balance change.
type CreditUpdate struct {
	UserID    string `json:"user_id"`
	WasteType string `json:"waste_type"`
	Credits   int64  `json:"credits"`
}
