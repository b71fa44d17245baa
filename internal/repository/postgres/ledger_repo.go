package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/ecosort/smartbin/internal/errs"
	"github.com/ecosort/smartbin/internal/model"
)

// SubmitCredits is the flat award for the legacy manual submission path.
const SubmitCredits = 100

// wasteTypeManual tags credit rows created by manual submissions rather than
// bin detections.
const wasteTypeManual = "manual"

// LedgerRepo implements repository.Ledger using PostgreSQL.
type LedgerRepo struct{ db *DB }

// NewLedgerRepo constructs a ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Award credits an eligible disposal atomically: counter bump plus one
// credit_transactions row commit together or not at all.
func (r *LedgerRepo) Award(ctx context.Context, userID uuid.UUID, category model.Category) (model.Balance, error) {
	return r.credit(ctx, userID, string(category), category.Points())
}

// Submit records a manual bottle submission with the flat award amount.
func (r *LedgerRepo) Submit(ctx context.Context, userID uuid.UUID) (model.Balance, error) {
	return r.credit(ctx, userID, wasteTypeManual, SubmitCredits)
}

func (r *LedgerRepo) credit(ctx context.Context, userID uuid.UUID, wasteType string, amount int64) (bal model.Balance, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Balance{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE users
SET credits = credits + $2, total_earned = total_earned + $2, bottles_submitted = bottles_submitted + 1
WHERE id = $1
RETURNING credits, bottles_submitted, total_earned`
	if err = tx.QueryRow(ctx, upd, userID, amount).Scan(&bal.Credits, &bal.BottlesSubmitted, &bal.TotalEarned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrNotFound
		}
		return model.Balance{}, err
	}

	const ins = `INSERT INTO credit_transactions (user_id, waste_type, credits_earned) VALUES ($1, $2, $3)`
	if _, err = tx.Exec(ctx, ins, userID, wasteType, amount); err != nil {
		return model.Balance{}, err
	}
	return bal, nil
}

// Redeem deducts credits with a conditional decrement: the UPDATE commits
// only if the row still holds enough balance, so two concurrent redemptions
// for the same user can never both succeed on one affordable balance.
func (r *LedgerRepo) Redeem(ctx context.Context, userID uuid.UUID, itemName string, itemCost, quantity int64) (remaining int64, err error) {
	totalCost := itemCost * quantity

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE users
SET credits = credits - $2
WHERE id = $1 AND credits >= $2
RETURNING credits`
	err = tx.QueryRow(ctx, upd, userID, totalCost).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish an unknown user from an unaffordable item.
		const sel = `SELECT credits FROM users WHERE id = $1`
		var have int64
		if scanErr := tx.QueryRow(ctx, sel, userID).Scan(&have); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				err = errs.ErrNotFound
				return 0, err
			}
			err = scanErr
			return 0, err
		}
		err = errs.ErrInsufficientCredit
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	const ins = `
INSERT INTO redemptions (user_id, item_name, item_cost, quantity, total_cost)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.Exec(ctx, ins, userID, itemName, itemCost, quantity, totalCost); err != nil {
		return 0, err
	}
	return remaining, nil
}

// RedemptionHistory returns the most recent redemptions, newest first.
func (r *LedgerRepo) RedemptionHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.Redemption, error) {
	const q = `
SELECT id, user_id, item_name, item_cost, quantity, total_cost, redeemed_at
FROM redemptions
WHERE user_id = $1
ORDER BY redeemed_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Redemption
	for rows.Next() {
		var rec model.Redemption
		if err = rows.Scan(&rec.ID, &rec.UserID, &rec.ItemName, &rec.ItemCost, &rec.Quantity, &rec.TotalCost, &rec.RedeemedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreditHistory returns the most recent credit transactions, newest first.
func (r *LedgerRepo) CreditHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error) {
	const q = `
SELECT id, user_id, waste_type, credits_earned, submitted_at
FROM credit_transactions
WHERE user_id = $1
ORDER BY submitted_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CreditTransaction
	for rows.Next() {
		var rec model.CreditTransaction
		if err = rows.Scan(&rec.ID, &rec.UserID, &rec.WasteType, &rec.CreditsEarned, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
