package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
)

func TestMarkCompletedIsConditional(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	row := mustCreateTestPayment(t, conn, uuid.New(), "9990000", enums.PaymentStatusPending)

	stamp := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	affected, err := repo.MarkCompleted(context.Background(), row.ID, nil, stamp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, enums.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	require.NotNil(t, stored.PayoutStatus)
	assert.Equal(t, enums.PayoutStatusInitiated, *stored.PayoutStatus)
	firstStamp := *stored.CompletedAt

	// replay touches zero rows and leaves completed_at untouched
	affected, err = repo.MarkCompleted(context.Background(), row.ID, nil, stamp.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, affected)

	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, firstStamp.Equal(*stored.CompletedAt))
}

func TestMarkFailedDoesNotDowngradeCompleted(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	row := mustCreateTestPayment(t, conn, uuid.New(), "9990000", enums.PaymentStatusPending)

	_, err := repo.MarkCompleted(context.Background(), row.ID, nil, time.Now().UTC())
	require.NoError(t, err)

	affected, err := repo.MarkFailed(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, enums.PaymentStatusCompleted, stored.Status)
}

func TestSetRefundRequiresCompletedPayment(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	pending := mustCreateTestPayment(t, conn, uuid.New(), "5000000", enums.PaymentStatusPending)

	affected, err := repo.SetRefund(context.Background(), pending.ID, enums.RefundStatusInitiated, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestSetRefundNeverOverwritesCompletedRefund(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	row := mustCreateTestPayment(t, conn, uuid.New(), "5000000", enums.PaymentStatusPending)
	_, err := repo.MarkCompleted(context.Background(), row.ID, nil, time.Now().UTC())
	require.NoError(t, err)

	amount := "5000000"
	affected, err := repo.SetRefund(context.Background(), row.ID, enums.RefundStatusCompleted, &amount, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.SetRefund(context.Background(), row.ID, enums.RefundStatusFailed, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.RefundStatus)
	assert.Equal(t, enums.RefundStatusCompleted, *stored.RefundStatus)
}

func TestListPayoutCandidatesHonorsRetryBudget(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)

	eligible := mustCreateTestPayment(t, conn, uuid.New(), "1000000", enums.PaymentStatusPending)
	_, err := repo.MarkCompleted(context.Background(), eligible.ID, nil, time.Now().UTC())
	require.NoError(t, err)

	exhausted := mustCreateTestPayment(t, conn, uuid.New(), "1000000", enums.PaymentStatusPending)
	_, err = repo.MarkCompleted(context.Background(), exhausted.ID, nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Payment{}).
		Where("id = ?", exhausted.ID).
		Updates(map[string]any{
			"payout_status":      enums.PayoutStatusRetrying,
			"payout_retry_count": 5,
		}).Error)

	rows, err := repo.ListPayoutCandidates(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, eligible.ID, rows[0].ID)
}

func TestMarkPayoutCompletedNeverOverwrites(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	row := mustCreateTestPayment(t, conn, uuid.New(), "1000000", enums.PaymentStatusPending)
	_, err := repo.MarkCompleted(context.Background(), row.ID, nil, time.Now().UTC())
	require.NoError(t, err)

	affected, err := repo.MarkPayoutCompleted(context.Background(), row.ID, "tx_first")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.MarkPayoutCompleted(context.Background(), row.ID, "tx_second")
	require.NoError(t, err)
	assert.Zero(t, affected)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutTxID)
	assert.Equal(t, "tx_first", *stored.PayoutTxID)
}

func TestMarkPayoutFailureBumpsCounter(t *testing.T) {
	conn := setupPaymentTestDB(t)
	repo := NewRepository(conn)
	row := mustCreateTestPayment(t, conn, uuid.New(), "1000000", enums.PaymentStatusPending)
	_, err := repo.MarkCompleted(context.Background(), row.ID, nil, time.Now().UTC())
	require.NoError(t, err)

	_, err = repo.MarkPayoutFailure(context.Background(), row.ID, "custodian timeout", false)
	require.NoError(t, err)

	var stored models.Payment
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PayoutStatus)
	assert.Equal(t, enums.PayoutStatusRetrying, *stored.PayoutStatus)
	assert.Equal(t, 1, stored.PayoutRetryCount)
	require.NotNil(t, stored.PayoutRetryReason)
	assert.Equal(t, "custodian timeout", *stored.PayoutRetryReason)

	_, err = repo.MarkPayoutFailure(context.Background(), row.ID, "custodian timeout", true)
	require.NoError(t, err)
	require.NoError(t, conn.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, enums.PayoutStatusFailed, *stored.PayoutStatus)
	assert.Equal(t, 2, stored.PayoutRetryCount)
}
