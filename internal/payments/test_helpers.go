package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	"github.com/oxbryte/openly-backend/pkg/stripe"
)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	paymentLinks := `
CREATE TABLE IF NOT EXISTS payment_links (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  link_type TEXT NOT NULL,
  product_id TEXT,
  seller_id TEXT NOT NULL,
  amount_usd NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  status TEXT NOT NULL DEFAULT 'active',
  stripe_intent_id TEXT,
  client_secret TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  product_id TEXT,
  payment_link_id TEXT NOT NULL,
  buyer_id TEXT,
  seller_id TEXT NOT NULL,
  amount_usdc TEXT NOT NULL,
  amount_usd NUMERIC,
  stripe_intent_id TEXT UNIQUE,
  tx_hash TEXT UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  completed_at DATETIME,
  payout_status TEXT,
  payout_retry_count INTEGER NOT NULL DEFAULT 0,
  payout_retry_reason TEXT,
  payout_tx_id TEXT,
  refund_status TEXT,
  refund_amount_usdc TEXT,
  refund_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(paymentLinks).Error)
	require.NoError(t, conn.Exec(payments).Error)
	return conn
}

func mustCreateTestLink(t *testing.T, conn *gorm.DB, slug string, amountUSD string) *models.PaymentLink {
	t.Helper()
	productID := uuid.New()
	link := &models.PaymentLink{
		ID:        uuid.New(),
		Slug:      slug,
		LinkType:  enums.LinkTypeProduct,
		ProductID: &productID,
		SellerID:  uuid.New(),
		AmountUSD: decimal.RequireFromString(amountUSD),
		Currency:  enums.CurrencyUSD,
		Status:    enums.LinkStatusActive,
	}
	require.NoError(t, conn.Create(link).Error)
	return link
}

func mustCreateTestPayment(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, amountUSDC string, status enums.PaymentStatus) *models.Payment {
	t.Helper()
	intentID := "pi_" + uuid.NewString()
	row := &models.Payment{
		ID:             uuid.New(),
		PaymentLinkID:  uuid.New(),
		SellerID:       sellerID,
		AmountUSDC:     amountUSDC,
		StripeIntentID: &intentID,
		Status:         status,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

// stubIntentCreator captures the params it was called with and returns a
// canned intent or error.
type stubIntentCreator struct {
	lastParams stripe.IntentParams
	intent     *stripe.Intent
	err        error
}

func (s *stubIntentCreator) CreateIntent(_ context.Context, params stripe.IntentParams) (*stripe.Intent, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	if s.intent != nil {
		return s.intent, nil
	}
	return &stripe.Intent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "cs_test_secret",
		Amount:       params.AmountMinor,
		Currency:     params.Currency,
	}, nil
}
