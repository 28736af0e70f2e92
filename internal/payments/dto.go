package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

// IntentDTO is the checkout payload handed to the client SDK.
type IntentDTO struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// EarningsDTO aggregates a seller's completed revenue.
type EarningsDTO struct {
	TotalEarningsUSD  string `json:"totalEarningsUSD"`
	TotalEarningsUSDC string `json:"totalEarningsUSDC"`
	CompletedCount    int    `json:"completedCount"`
}

// TransactionDTO is one payment row in the seller dashboard.
type TransactionDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	PaymentLinkID  uuid.UUID  `json:"payment_link_id"`
	AmountUSDC     string     `json:"amount_usdc"`
	AmountUSD      *string    `json:"amount_usd,omitempty"`
	StripeIntentID *string    `json:"stripe_intent_id,omitempty"`
	TxHash         *string    `json:"tx_hash,omitempty"`
	Status         string     `json:"status"`
	PayoutStatus   *string    `json:"payout_status,omitempty"`
	RefundStatus   *string    `json:"refund_status,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TransactionListResult bundles a page of transactions with its pagination
// block.
type TransactionListResult struct {
	Transactions []TransactionDTO `json:"transactions"`
	Page         pagination.Page  `json:"pagination"`
}

// HeatmapBucket is one day of completed sales.
type HeatmapBucket struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	AmountUSDC string `json:"amount_usdc"`
	AmountUSD  string `json:"amount_usd"`
}

// HeatmapDTO is the per-day sales series for the requested window.
type HeatmapDTO struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Buckets []HeatmapBucket `json:"buckets"`
}

// NewTransactionDTO builds a DTO from the persisted model.
func NewTransactionDTO(payment *models.Payment) TransactionDTO {
	dto := TransactionDTO{
		ID:             payment.ID,
		ProductID:      payment.ProductID,
		PaymentLinkID:  payment.PaymentLinkID,
		AmountUSDC:     payment.AmountUSDC,
		StripeIntentID: payment.StripeIntentID,
		TxHash:         payment.TxHash,
		Status:         payment.Status.String(),
		CompletedAt:    payment.CompletedAt,
		CreatedAt:      payment.CreatedAt,
	}
	if payment.AmountUSD != nil {
		usd := payment.AmountUSD.StringFixed(2)
		dto.AmountUSD = &usd
	}
	if payment.PayoutStatus != nil {
		payout := payment.PayoutStatus.String()
		dto.PayoutStatus = &payout
	}
	if payment.RefundStatus != nil {
		refund := payment.RefundStatus.String()
		dto.RefundStatus = &refund
	}
	return dto
}

// NewTransactionDTOs maps a slice of models into DTOs.
func NewTransactionDTOs(payments []models.Payment) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(payments))
	for i := range payments {
		out = append(out, NewTransactionDTO(&payments[i]))
	}
	return out
}
