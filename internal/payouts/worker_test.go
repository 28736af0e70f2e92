package payout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	payment "github.com/oxbryte/openly-backend/internal/payments"
	user "github.com/oxbryte/openly-backend/internal/users"
	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/custody"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/outbox"
)

func setupPayoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:payouts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  clerk_id TEXT UNIQUE,
  username TEXT NOT NULL UNIQUE,
  email TEXT,
  pin_hash TEXT NOT NULL,
  wallet_address TEXT UNIQUE,
  unique_name TEXT UNIQUE,
  onboarding_complete INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0,
  deleted_at DATETIME,
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
	paymentEvents := `
CREATE TABLE IF NOT EXISTS payment_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  payment_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(payments).Error)
	require.NoError(t, conn.Exec(paymentEvents).Error)
	return conn
}

func seedSeller(t *testing.T, conn *gorm.DB, wallet *string) *models.User {
	t.Helper()
	seller := &models.User{
		ID:            uuid.New(),
		Username:      "seller_" + uuid.NewString()[:8],
		PinHash:       "hash",
		WalletAddress: wallet,
	}
	require.NoError(t, conn.Create(seller).Error)
	return seller
}

func seedPayoutCandidate(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, retryCount int) *models.Payment {
	t.Helper()
	now := time.Now().UTC()
	intentID := "pi_" + uuid.NewString()
	status := enums.PayoutStatusInitiated
	if retryCount > 0 {
		status = enums.PayoutStatusRetrying
	}
	row := &models.Payment{
		ID:               uuid.New(),
		PaymentLinkID:    uuid.New(),
		SellerID:         sellerID,
		AmountUSDC:       "12500000",
		StripeIntentID:   &intentID,
		Status:           enums.PaymentStatusCompleted,
		CompletedAt:      &now,
		PayoutStatus:     &status,
		PayoutRetryCount: retryCount,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

type stubCustodian struct {
	calls int
	err   error
	txID  string
}

func (s *stubCustodian) RequestWithdrawal(_ context.Context, _ custody.WithdrawalRequest) (*custody.Withdrawal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &custody.Withdrawal{TransactionID: s.txID, Status: "submitted"}, nil
}

func newTestWorker(t *testing.T, conn *gorm.DB, custodyStub *stubCustodian, maxAttempts int) *Worker {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "payout-test", Output: io.Discard})
	worker, err := NewWorker(WorkerParams{
		Logger:            logg,
		PaymentRepo:       payment.NewRepository(conn),
		Sellers:           user.NewRepository(conn),
		Custody:           custodyStub,
		Outbox:            outbox.NewService(outbox.NewRepository(conn), logg),
		TransactionRunner: db.NewFromConn(conn),
		Config: config.PayoutConfig{
			Interval:    time.Minute,
			MaxAttempts: maxAttempts,
			BackoffBase: time.Millisecond,
			BackoffCap:  2 * time.Millisecond,
			BatchSize:   10,
		},
	})
	require.NoError(t, err)
	return worker
}

func TestRunOnceCompletesPayout(t *testing.T) {
	conn := setupPayoutTestDB(t)
	wallet := "0xseller"
	seller := seedSeller(t, conn, &wallet)
	row := seedPayoutCandidate(t, conn, seller.ID, 0)
	custodyStub := &stubCustodian{txID: "cust_tx_1"}
	worker := newTestWorker(t, conn, custodyStub, 5)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Equal(t, 1, custodyStub.calls)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutStatus)
	assert.Equal(t, enums.PayoutStatusCompleted, *stored.PayoutStatus)
	require.NotNil(t, stored.PayoutTxID)
	assert.Equal(t, "cust_tx_1", *stored.PayoutTxID)

	var events []models.PaymentEvent
	require.NoError(t, conn.Where("payment_id = ?", row.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.PaymentEventPayoutCompleted, events[0].EventType)
}

func TestRunOnceRecordsRetryableFailure(t *testing.T) {
	conn := setupPayoutTestDB(t)
	wallet := "0xseller"
	seller := seedSeller(t, conn, &wallet)
	row := seedPayoutCandidate(t, conn, seller.ID, 0)
	custodyStub := &stubCustodian{err: errors.New("custodian unavailable")}
	worker := newTestWorker(t, conn, custodyStub, 5)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Greater(t, custodyStub.calls, 0)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutStatus)
	assert.Equal(t, enums.PayoutStatusRetrying, *stored.PayoutStatus)
	assert.Equal(t, 1, stored.PayoutRetryCount)
	require.NotNil(t, stored.PayoutRetryReason)
	assert.Contains(t, *stored.PayoutRetryReason, "custodian withdrawal")
	assert.Contains(t, *stored.PayoutRetryReason, "custodian unavailable")

	var count int64
	require.NoError(t, conn.Model(&models.PaymentEvent{}).Where("payment_id = ?", row.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunOnceTerminalFailureEmitsEvent(t *testing.T) {
	conn := setupPayoutTestDB(t)
	wallet := "0xseller"
	seller := seedSeller(t, conn, &wallet)
	row := seedPayoutCandidate(t, conn, seller.ID, 2)
	custodyStub := &stubCustodian{err: errors.New("custodian unavailable")}
	worker := newTestWorker(t, conn, custodyStub, 3)

	require.NoError(t, worker.RunOnce(context.Background()))

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutStatus)
	assert.Equal(t, enums.PayoutStatusFailed, *stored.PayoutStatus)
	assert.Equal(t, 3, stored.PayoutRetryCount)

	var events []models.PaymentEvent
	require.NoError(t, conn.Where("payment_id = ?", row.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.PaymentEventPayoutFailed, events[0].EventType)
}

func TestRunOnceSkipsExhaustedCandidates(t *testing.T) {
	conn := setupPayoutTestDB(t)
	wallet := "0xseller"
	seller := seedSeller(t, conn, &wallet)
	seedPayoutCandidate(t, conn, seller.ID, 3)
	custodyStub := &stubCustodian{txID: "cust_tx_2"}
	worker := newTestWorker(t, conn, custodyStub, 3)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Zero(t, custodyStub.calls)
}

func TestRunOnceMissingWalletRecordsFailure(t *testing.T) {
	conn := setupPayoutTestDB(t)
	seller := seedSeller(t, conn, nil)
	row := seedPayoutCandidate(t, conn, seller.ID, 0)
	custodyStub := &stubCustodian{txID: "cust_tx_3"}
	worker := newTestWorker(t, conn, custodyStub, 5)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Zero(t, custodyStub.calls)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutRetryReason)
	assert.Contains(t, *stored.PayoutRetryReason, "wallet")
}
