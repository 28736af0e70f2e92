package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/money"
	"github.com/oxbryte/openly-backend/pkg/pagination"
	"github.com/oxbryte/openly-backend/pkg/stripe"
)

const heatmapDayFormat = "2006-01-02"

// Service exposes intent issuance and the seller payment read surface.
type Service interface {
	CreateIntent(ctx context.Context, slug string) (*IntentDTO, error)
	Earnings(ctx context.Context, sellerID uuid.UUID) (*EarningsDTO, error)
	Transactions(ctx context.Context, sellerID uuid.UUID, status *enums.PaymentStatus, params pagination.Params) (*TransactionListResult, error)
	SalesHeatmap(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (*HeatmapDTO, error)
}

type linkRepository interface {
	FindActiveBySlug(ctx context.Context, slug string) (*models.PaymentLink, error)
	SetIntent(ctx context.Context, linkID uuid.UUID, intentID, clientSecret string) error
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo     *Repository
	LinkRepo linkRepository
	Intents  stripe.IntentCreator
	Logger   *logger.Logger
}

// service implements the payment service.
type service struct {
	repo     *Repository
	linkRepo linkRepository
	intents  stripe.IntentCreator
	logg     *logger.Logger
}

// NewService constructs a payment service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.LinkRepo == nil {
		return nil, fmt.Errorf("payment link repository required")
	}
	if params.Intents == nil {
		return nil, fmt.Errorf("stripe intent creator required")
	}
	return &service{
		repo:     params.Repo,
		linkRepo: params.LinkRepo,
		intents:  params.Intents,
		logg:     params.Logger,
	}, nil
}

// CreateIntent issues a Stripe PaymentIntent for the active link behind the
// slug and records the pending payment carrying the intent id.
func (s *service) CreateIntent(ctx context.Context, slug string) (*IntentDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentLink is required")
	}

	link, err := s.linkRepo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment link not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment link")
	}

	amountMinor := money.USDMinorUnits(link.AmountUSD)
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment link amount must be positive")
	}

	intent, err := s.intents.CreateIntent(ctx, stripe.IntentParams{
		AmountMinor: amountMinor,
		Currency:    link.Currency.String(),
		Metadata: map[string]string{
			"slug":     link.Slug,
			"sellerId": link.SellerID.String(),
			"type":     link.LinkType.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create payment intent")
	}

	if err := s.linkRepo.SetIntent(ctx, link.ID, intent.ID, intent.ClientSecret); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: persist intent on link")
	}

	amountUSD := link.AmountUSD
	row := &models.Payment{
		ID:             uuid.New(),
		ProductID:      link.ProductID,
		PaymentLinkID:  link.ID,
		SellerID:       link.SellerID,
		AmountUSDC:     money.USDToUSDC(link.AmountUSD),
		AmountUSD:      &amountUSD,
		StripeIntentID: &intent.ID,
		Status:         enums.PaymentStatusPending,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert pending payment")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"slug":       link.Slug,
			"payment_id": row.ID.String(),
			"intent_id":  intent.ID,
		})
		s.logg.Info(logCtx, "payment intent issued")
	}

	return &IntentDTO{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}, nil
}

// Earnings sums a seller's completed revenue over the stored fixed-point
// strings.
func (s *service) Earnings(ctx context.Context, sellerID uuid.UUID) (*EarningsDTO, error) {
	amounts, err := s.repo.CompletedAmountsBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load completed amounts")
	}

	total, err := money.SumUSDC(amounts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum completed amounts")
	}

	return &EarningsDTO{
		TotalEarningsUSD:  money.USDCToUSD(total),
		TotalEarningsUSDC: total.String(),
		CompletedCount:    len(amounts),
	}, nil
}

// Transactions pages the seller's payments with an optional status filter.
func (s *service) Transactions(ctx context.Context, sellerID uuid.UUID, status *enums.PaymentStatus, params pagination.Params) (*TransactionListResult, error) {
	rows, total, err := s.repo.ListBySeller(ctx, sellerID, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payments")
	}
	return &TransactionListResult{
		Transactions: NewTransactionDTOs(rows),
		Page:         pagination.BuildPage(params, total),
	}, nil
}

// SalesHeatmap buckets completed payments per UTC day inside [from, to].
func (s *service) SalesHeatmap(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (*HeatmapDTO, error) {
	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}

	end := to.Add(24 * time.Hour)
	rows, err := s.repo.ListCompletedBySellerInRange(ctx, sellerID, from, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load completed payments")
	}

	type bucket struct {
		count int
		sum   []string
	}
	byDay := map[string]*bucket{}
	for i := range rows {
		if rows[i].CompletedAt == nil {
			continue
		}
		day := rows[i].CompletedAt.UTC().Format(heatmapDayFormat)
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
		}
		b.count++
		b.sum = append(b.sum, rows[i].AmountUSDC)
	}

	buckets := make([]HeatmapBucket, 0, len(byDay))
	for day := from; day.Before(end); day = day.Add(24 * time.Hour) {
		key := day.Format(heatmapDayFormat)
		b, ok := byDay[key]
		if !ok {
			continue
		}
		sum, err := money.SumUSDC(b.sum)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum day bucket")
		}
		buckets = append(buckets, HeatmapBucket{
			Date:       key,
			Count:      b.count,
			AmountUSDC: sum.String(),
			AmountUSD:  money.USDCToUSD(sum),
		})
	}

	return &HeatmapDTO{
		From:    from.Format(heatmapDayFormat),
		To:      to.Format(heatmapDayFormat),
		Buckets: buckets,
	}, nil
}
