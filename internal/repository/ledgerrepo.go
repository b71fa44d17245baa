// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/ecosort/smartbin/internal/model"
)

// Ledger provides transactional credit mutation and history reads. Award,
// Submit and Redeem are atomic units: the appended row and the balance
// change commit together or not at all.
type Ledger interface {
	// Award credits an eligible disposal and returns the updated counters.
	Award(ctx context.Context, userID uuid.UUID, category model.Category) (model.Balance, error)

	// Submit records a manual bottle submission with a flat credit amount.
	Submit(ctx context.Context, userID uuid.UUID) (model.Balance, error)

	// Redeem deducts credits only if the balance covers the total cost at
	// commit time; otherwise nothing is written.
	Redeem(ctx context.Context, userID uuid.UUID, itemName string, itemCost, quantity int64) (remaining int64, err error)

	// RedemptionHistory returns the most recent redemptions for a user.
	RedemptionHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.Redemption, error)

	// CreditHistory returns the most recent credit transactions for a user.
	CreditHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error)
}
