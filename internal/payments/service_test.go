package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	paymentlink "github.com/oxbryte/openly-backend/internal/paymentlinks"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/pagination"
)

func newTestService(t *testing.T, conn *gorm.DB, intents *stubIntentCreator) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		LinkRepo: paymentlink.NewRepository(conn),
		Intents:  intents,
	})
	require.NoError(t, err)
	return svc
}

func TestCreateIntentIssuesAndRecordsPending(t *testing.T) {
	conn := setupPaymentTestDB(t)
	link := mustCreateTestLink(t, conn, "sticker-pack", "12.50")
	intents := &stubIntentCreator{}
	svc := newTestService(t, conn, intents)

	dto, err := svc.CreateIntent(context.Background(), "sticker-pack")
	require.NoError(t, err)

	assert.Equal(t, int64(1250), intents.lastParams.AmountMinor)
	assert.Equal(t, "usd", intents.lastParams.Currency)
	assert.Equal(t, "sticker-pack", intents.lastParams.Metadata["slug"])
	assert.Equal(t, link.SellerID.String(), intents.lastParams.Metadata["sellerId"])
	assert.Equal(t, "product", intents.lastParams.Metadata["type"])

	assert.Equal(t, int64(1250), dto.Amount)
	assert.NotEmpty(t, dto.ClientSecret)

	var row models.Payment
	require.NoError(t, conn.First(&row, "stripe_intent_id = ?", dto.PaymentIntentID).Error)
	assert.Equal(t, enums.PaymentStatusPending, row.Status)
	assert.Equal(t, "12500000", row.AmountUSDC)
	assert.Equal(t, link.SellerID, row.SellerID)
	assert.Nil(t, row.CompletedAt)

	var stored models.PaymentLink
	require.NoError(t, conn.First(&stored, "id = ?", link.ID).Error)
	require.NotNil(t, stored.StripeIntentID)
	assert.Equal(t, dto.PaymentIntentID, *stored.StripeIntentID)
}

func TestCreateIntentUnknownSlugNotFound(t *testing.T) {
	conn := setupPaymentTestDB(t)
	svc := newTestService(t, conn, &stubIntentCreator{})

	_, err := svc.CreateIntent(context.Background(), "missing")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateIntentInactiveLinkNotFound(t *testing.T) {
	conn := setupPaymentTestDB(t)
	link := mustCreateTestLink(t, conn, "retired", "9.99")
	require.NoError(t, conn.Model(&models.PaymentLink{}).
		Where("id = ?", link.ID).
		Update("status", enums.LinkStatusInactive).Error)
	svc := newTestService(t, conn, &stubIntentCreator{})

	_, err := svc.CreateIntent(context.Background(), "retired")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateIntentStripeFailureIsDependencyError(t *testing.T) {
	conn := setupPaymentTestDB(t)
	mustCreateTestLink(t, conn, "flaky", "5.00")
	svc := newTestService(t, conn, &stubIntentCreator{err: errors.New("stripe unavailable")})

	_, err := svc.CreateIntent(context.Background(), "flaky")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	var count int64
	require.NoError(t, conn.Model(&models.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateIntentRoundsMinorUnitsHalfUp(t *testing.T) {
	conn := setupPaymentTestDB(t)
	mustCreateTestLink(t, conn, "edge", "12.495")
	intents := &stubIntentCreator{}
	svc := newTestService(t, conn, intents)

	_, err := svc.CreateIntent(context.Background(), "edge")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), intents.lastParams.AmountMinor)
}

func TestEarningsSumsCompletedOnly(t *testing.T) {
	conn := setupPaymentTestDB(t)
	sellerID := uuid.New()
	mustCreateTestPayment(t, conn, sellerID, "9990000", enums.PaymentStatusCompleted)
	mustCreateTestPayment(t, conn, sellerID, "12500000", enums.PaymentStatusCompleted)
	mustCreateTestPayment(t, conn, sellerID, "5000000", enums.PaymentStatusPending)
	mustCreateTestPayment(t, conn, uuid.New(), "7000000", enums.PaymentStatusCompleted)
	svc := newTestService(t, conn, &stubIntentCreator{})

	earnings, err := svc.Earnings(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, "22490000", earnings.TotalEarningsUSDC)
	assert.Equal(t, "22.49", earnings.TotalEarningsUSD)
	assert.Equal(t, 2, earnings.CompletedCount)
}

func TestEarningsEmptySeller(t *testing.T) {
	conn := setupPaymentTestDB(t)
	svc := newTestService(t, conn, &stubIntentCreator{})

	earnings, err := svc.Earnings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "0", earnings.TotalEarningsUSDC)
	assert.Equal(t, "0.00", earnings.TotalEarningsUSD)
	assert.Zero(t, earnings.CompletedCount)
}

func TestTransactionsFiltersAndPages(t *testing.T) {
	conn := setupPaymentTestDB(t)
	sellerID := uuid.New()
	for i := 0; i < 3; i++ {
		mustCreateTestPayment(t, conn, sellerID, "1000000", enums.PaymentStatusCompleted)
	}
	mustCreateTestPayment(t, conn, sellerID, "1000000", enums.PaymentStatusFailed)
	svc := newTestService(t, conn, &stubIntentCreator{})

	completed := enums.PaymentStatusCompleted
	result, err := svc.Transactions(context.Background(), sellerID, &completed, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, int64(3), result.Page.Total)
	for _, tx := range result.Transactions {
		assert.Equal(t, "completed", tx.Status)
	}

	all, err := svc.Transactions(context.Background(), sellerID, nil, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Page.Total)

	// a non-aligned offset serves the exact window, not a page boundary
	window, err := svc.Transactions(context.Background(), sellerID, nil, pagination.Params{RowOffset: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, window.Transactions, 1)
	assert.Equal(t, int64(4), window.Page.Total)
}

func TestSalesHeatmapBucketsByDay(t *testing.T) {
	conn := setupPaymentTestDB(t)
	sellerID := uuid.New()

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)

	for _, stamp := range []time.Time{day1, day1.Add(2 * time.Hour), day2} {
		row := mustCreateTestPayment(t, conn, sellerID, "1000000", enums.PaymentStatusCompleted)
		require.NoError(t, conn.Model(&models.Payment{}).
			Where("id = ?", row.ID).
			Update("completed_at", stamp).Error)
	}

	svc := newTestService(t, conn, &stubIntentCreator{})
	heatmap, err := svc.SalesHeatmap(context.Background(), sellerID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, heatmap.Buckets, 2)
	assert.Equal(t, "2026-03-02", heatmap.Buckets[0].Date)
	assert.Equal(t, 2, heatmap.Buckets[0].Count)
	assert.Equal(t, "2000000", heatmap.Buckets[0].AmountUSDC)
	assert.Equal(t, "2026-03-04", heatmap.Buckets[1].Date)
	assert.Equal(t, 1, heatmap.Buckets[1].Count)
}

func TestSalesHeatmapRejectsInvertedRange(t *testing.T) {
	conn := setupPaymentTestDB(t)
	svc := newTestService(t, conn, &stubIntentCreator{})

	_, err := svc.SalesHeatmap(context.Background(), uuid.New(),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
