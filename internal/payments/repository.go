package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

// Repository wires together payment persistence helpers. Transitions are
// conditional updates; the WHERE clause is the idempotency barrier, so a
// replayed webhook touches zero rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert creates the pending payment row.
func (r *Repository) Insert(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByID loads the payment without filters.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByStripeIntentID locates the payment the reconciler should transition.
func (r *Repository) FindByStripeIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		First(&payment, "stripe_intent_id = ?", intentID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByTxHash locates a crypto-flow payment by its chain transaction hash.
func (r *Repository) FindByTxHash(ctx context.Context, txHash string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		First(&payment, "tx_hash = ?", txHash).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkCompleted flips a pending payment to completed, stamps completed_at
// exactly once, and seeds the payout sub-state. Returns rows affected; zero
// means the payment already left pending and the caller should no-op.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, txHash *string, completedAt time.Time) (int64, error) {
	updates := map[string]any{
		"status":        enums.PaymentStatusCompleted,
		"completed_at":  completedAt,
		"payout_status": enums.PayoutStatusInitiated,
	}
	if txHash != nil {
		updates["tx_hash"] = *txHash
	}
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkFailed flips a pending payment to failed. Terminal states are never
// overwritten.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Update("status", enums.PaymentStatusFailed)
	return res.RowsAffected, res.Error
}

// MarkCancelled flips a pending payment to cancelled.
func (r *Repository) MarkCancelled(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Update("status", enums.PaymentStatusCancelled)
	return res.RowsAffected, res.Error
}

// SetRefund attaches a refund sub-state to a completed payment. A completed
// refund outcome is never overwritten.
func (r *Repository) SetRefund(ctx context.Context, id uuid.UUID, status enums.RefundStatus, amountUSDC *string, reason *string) (int64, error) {
	updates := map[string]any{"refund_status": status}
	if amountUSDC != nil {
		updates["refund_amount_usdc"] = *amountUSDC
	}
	if reason != nil {
		updates["refund_reason"] = *reason
	}
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusCompleted).
		Where("refund_status IS NULL OR refund_status <> ?", enums.RefundStatusCompleted).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListBySeller pages a seller's payments, newest first, optionally filtered
// by status.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PaymentStatus, params pagination.Params) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("seller_id = ?", sellerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := query.
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(params.Limit)).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CompletedAmountsBySeller plucks the fixed-point USDC amounts of completed
// payments. Summation stays in the service on big.Int, never floats.
func (r *Repository) CompletedAmountsBySeller(ctx context.Context, sellerID uuid.UUID) ([]string, error) {
	var amounts []string
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("seller_id = ? AND status = ?", sellerID, enums.PaymentStatusCompleted).
		Pluck("amount_usdc", &amounts).Error
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

// ListCompletedBySellerInRange loads completed payments inside the window for
// in-memory day bucketing.
func (r *Repository) ListCompletedBySellerInRange(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ?", sellerID, enums.PaymentStatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Order("completed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPayoutCandidates picks completed payments still owed a payout and under
// the retry budget.
func (r *Repository) ListPayoutCandidates(ctx context.Context, maxAttempts, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PaymentStatusCompleted).
		Where("payout_status IN ?", []enums.PayoutStatus{enums.PayoutStatusInitiated, enums.PayoutStatusRetrying}).
		Where("payout_retry_count < ?", maxAttempts).
		Order("completed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPayoutCompleted records the custodian transfer id. The IN clause keeps
// an already-completed payout from ever being overwritten.
func (r *Repository) MarkPayoutCompleted(ctx context.Context, id uuid.UUID, payoutTxID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND payout_status IN ?", id, []enums.PayoutStatus{enums.PayoutStatusInitiated, enums.PayoutStatusRetrying}).
		Updates(map[string]any{
			"payout_status": enums.PayoutStatusCompleted,
			"payout_tx_id":  payoutTxID,
		})
	return res.RowsAffected, res.Error
}

// MarkPayoutFailure bumps the retry counter with the failure reason; terminal
// marks the payout failed once the budget is spent.
func (r *Repository) MarkPayoutFailure(ctx context.Context, id uuid.UUID, reason string, terminal bool) (int64, error) {
	status := enums.PayoutStatusRetrying
	if terminal {
		status = enums.PayoutStatusFailed
	}
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND payout_status IN ?", id, []enums.PayoutStatus{enums.PayoutStatusInitiated, enums.PayoutStatusRetrying}).
		Updates(map[string]any{
			"payout_status":       status,
			"payout_retry_count":  gorm.Expr("payout_retry_count + 1"),
			"payout_retry_reason": reason,
		})
	return res.RowsAffected, res.Error
}
