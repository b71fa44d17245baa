// Package service contains application services for check-in and rewards.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gofrs/uuid/v5"

	"github.com/ecosort/smartbin/internal/metrics"
	"github.com/ecosort/smartbin/internal/model"
	"github.com/ecosort/smartbin/internal/repository"
	"github.com/ecosort/smartbin/internal/session"
	"github.com/ecosort/smartbin/internal/ws"
)

// historyLimit caps history reads exposed to users.
const historyLimit = 50

// Emitter pushes events to connected observers.
type Emitter interface {
	Emit(event string, data any)
}

// RewardsService defines the operator-facing reward operations. Each method
// maps 1:1 to a request from the authenticated surface.
type RewardsService interface {
	// CheckIn makes the user the sole receiver of bin credits, replacing any
	// current occupant.
	CheckIn(userID uuid.UUID) error
	// CheckOut vacates the slot.
	CheckOut()
	// CheckedIn reports whether the user currently occupies the slot.
	CheckedIn(userID uuid.UUID) bool
	// SubmitBottle applies the flat manual award and returns updated counters.
	SubmitBottle(ctx context.Context, userID uuid.UUID) (model.Balance, error)
	// Redeem exchanges credits for a catalog item and returns the remaining balance.
	Redeem(ctx context.Context, userID uuid.UUID, itemName string, itemCost, quantity int64) (int64, error)
	// RedemptionHistory returns the user's recent redemptions.
	RedemptionHistory(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error)
	// CreditHistory returns the user's recent credit transactions.
	CreditHistory(ctx context.Context, userID uuid.UUID) ([]model.CreditTransaction, error)
}

type RewardsServiceImpl struct {
	ledger   repository.Ledger
	sessions *session.Registry
	emitter  Emitter
}

// NewRewardsService constructs RewardsService with required dependencies.
func NewRewardsService(ledger repository.Ledger, sessions *session.Registry, emitter Emitter) *RewardsServiceImpl {
	return &RewardsServiceImpl{ledger: ledger, sessions: sessions, emitter: emitter}
}

// CheckIn occupies the single session slot for this user.
func (s *RewardsServiceImpl) CheckIn(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errors.New("validation: empty userID")
	}
	s.sessions.SetActive(userID)
	return nil
}

// CheckOut vacates the slot regardless of occupant.
func (s *RewardsServiceImpl) CheckOut() {
	s.sessions.Clear()
}

// CheckedIn reports whether userID holds the slot.
func (s *RewardsServiceImpl) CheckedIn(userID uuid.UUID) bool {
	return s.sessions.IsActive(userID)
}

// SubmitBottle applies the flat manual award and broadcasts the new balance.
func (s *RewardsServiceImpl) SubmitBottle(ctx context.Context, userID uuid.UUID) (model.Balance, error) {
	if userID == uuid.Nil {
		return model.Balance{}, errors.New("validation: empty userID")
	}
	bal, err := s.ledger.Submit(ctx, userID)
	if err != nil {
		return model.Balance{}, err
	}
	s.emitter.Emit(ws.EventCreditUpdate, model.CreditUpdate{
		UserID:    userID.String(),
		WasteType: "manual",
		Credits:   bal.Credits,
	})
	return bal, nil
}

// Redeem validates the request and delegates the atomic conditional
// deduction to the ledger.
func (s *RewardsServiceImpl) Redeem(ctx context.Context, userID uuid.UUID, itemName string, itemCost, quantity int64) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New("validation: empty userID")
	}
	if itemName == "" {
		return 0, errors.New("validation: empty item name")
	}
	if itemCost <= 0 {
		return 0, fmt.Errorf("validation: non-positive item cost %d", itemCost)
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("validation: non-positive quantity %d", quantity)
	}
	// The total cost must stay a positive int64; a wrapped product would turn
	// the ledger's conditional deduction into a credit grant.
	if itemCost > math.MaxInt64/quantity {
		return 0, fmt.Errorf("validation: redemption cost %d x %d overflows", itemCost, quantity)
	}

	remaining, err := s.ledger.Redeem(ctx, userID, itemName, itemCost, quantity)
	if err != nil {
		return 0, err
	}
	metrics.RedemptionsTotal.Inc()
	s.emitter.Emit(ws.EventCreditUpdate, model.CreditUpdate{
		UserID:    userID.String(),
		WasteType: "redemption",
		Credits:   remaining,
	})
	return remaining, nil
}

// RedemptionHistory returns the user's most recent redemptions.
func (s *RewardsServiceImpl) RedemptionHistory(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.ledger.RedemptionHistory(ctx, userID, historyLimit)
}

// CreditHistory returns the user's most recent credit transactions.
func (s *RewardsServiceImpl) CreditHistory(ctx context.Context, userID uuid.UUID) ([]model.CreditTransaction, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.ledger.CreditHistory(ctx, userID, historyLimit)
}
