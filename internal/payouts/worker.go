package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	payment "github.com/oxbryte/openly-backend/internal/payments"
	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/custody"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/metrics"
	"github.com/oxbryte/openly-backend/pkg/outbox"
)

const workerName = "payout"

// Attempts per cycle against the custodian before the payment goes back to
// retrying and waits for the next tick.
const withdrawalCallRetries = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type custodian interface {
	RequestWithdrawal(ctx context.Context, req custody.WithdrawalRequest) (*custody.Withdrawal, error)
}

type sellerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WorkerParams configures the payout worker.
type WorkerParams struct {
	Logger            *logger.Logger
	PaymentRepo       *payment.Repository
	Sellers           sellerDirectory
	Custody           custodian
	Outbox            *outbox.Service
	TransactionRunner txRunner
	Metrics           *metrics.WorkerMetrics
	Config            config.PayoutConfig
}

// Worker drains the payout backlog: completed payments whose payout sub-state
// is still initiated or retrying, bounded by the persistent retry budget.
type Worker struct {
	logg        *logger.Logger
	paymentRepo *payment.Repository
	sellers     sellerDirectory
	custody     custodian
	outbox      *outbox.Service
	txRunner    txRunner
	metrics     *metrics.WorkerMetrics
	cfg         config.PayoutConfig
	now         func() time.Time
}

// NewWorker builds the payout worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PaymentRepo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller directory required")
	}
	if params.Custody == nil {
		return nil, fmt.Errorf("custody client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	cfg := params.Config
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 10 * time.Minute
	}
	return &Worker{
		logg:        params.Logger,
		paymentRepo: params.PaymentRepo,
		sellers:     params.Sellers,
		custody:     params.Custody,
		outbox:      params.Outbox,
		txRunner:    params.TransactionRunner,
		metrics:     params.Metrics,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// Run executes payout cycles until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w.runCycle(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "payout worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	start := w.now()
	err := w.RunOnce(ctx)
	duration := time.Since(start)
	if w.metrics != nil {
		w.metrics.ObserveDuration(workerName, duration)
	}
	logCtx := w.logg.WithField(ctx, "duration_ms", duration.Milliseconds())
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncFailure(workerName)
		}
		w.logg.Error(logCtx, "payout cycle failed", err)
		return
	}
	if w.metrics != nil {
		w.metrics.IncSuccess(workerName)
	}
	w.logg.Info(logCtx, "payout cycle complete")
}

// RunOnce processes a single batch of payout candidates. Per-payment failures
// are aggregated so one bad payout never starves the rest of the batch.
func (w *Worker) RunOnce(ctx context.Context) error {
	candidates, err := w.paymentRepo.ListPayoutCandidates(ctx, w.cfg.MaxAttempts, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list payout candidates: %w", err)
	}

	var errs []error
	for _, candidate := range candidates {
		if err := w.processPayment(ctx, candidate); err != nil {
			errs = append(errs, fmt.Errorf("payment %s: %w", candidate.ID, err))
		}
	}
	return multierr.Combine(errs...)
}

func (w *Worker) processPayment(ctx context.Context, row models.Payment) error {
	logCtx := w.logg.WithPaymentID(ctx, row.ID.String())

	withdrawal, withdrawErr := w.requestWithdrawal(ctx, row)
	if withdrawErr != nil {
		if err := w.recordFailure(ctx, row, withdrawErr); err != nil {
			return err
		}
		w.logg.Warn(w.logg.WithField(logCtx, "reason", withdrawErr.Error()), "payout attempt failed")
		return nil
	}

	if err := w.recordSuccess(ctx, row, withdrawal.TransactionID); err != nil {
		return err
	}
	w.logg.Info(w.logg.WithField(logCtx, "payout_tx_id", withdrawal.TransactionID), "payout completed")
	return nil
}

// requestWithdrawal resolves the seller wallet and calls the custodian with a
// short in-cycle exponential backoff. The persistent retry budget lives on
// the payment row, not here.
func (w *Worker) requestWithdrawal(ctx context.Context, row models.Payment) (*custody.Withdrawal, error) {
	seller, err := w.sellers.FindByID(ctx, row.SellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if seller.WalletAddress == nil || *seller.WalletAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller wallet not configured")
	}

	backoff := retry.WithMaxRetries(withdrawalCallRetries,
		retry.WithCappedDuration(w.cfg.BackoffCap, retry.NewExponential(w.cfg.BackoffBase)))

	var withdrawal *custody.Withdrawal
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, callErr := w.custody.RequestWithdrawal(ctx, custody.WithdrawalRequest{
			WalletID:   *seller.WalletAddress,
			AmountUSDC: row.AmountUSDC,
			Reference:  row.ID.String(),
		})
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		withdrawal = result
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "custodian withdrawal")
	}
	if withdrawal == nil || withdrawal.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "custodian returned no transaction id")
	}
	return withdrawal, nil
}

func (w *Worker) recordSuccess(ctx context.Context, row models.Payment, payoutTxID string) error {
	return w.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := w.paymentRepo.WithTx(tx).MarkPayoutCompleted(ctx, row.ID, payoutTxID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete payout")
		}
		if affected == 0 {
			// lost the race to a concurrent worker, nothing to record
			return nil
		}
		if w.metrics != nil {
			w.metrics.IncProcessed(workerName, "completed")
		}
		return w.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.PaymentEventPayoutCompleted,
			PaymentID: row.ID,
			Data: map[string]any{
				"paymentId":  row.ID.String(),
				"sellerId":   row.SellerID.String(),
				"amountUsdc": row.AmountUSDC,
				"payoutTxId": payoutTxID,
			},
		})
	})
}

func (w *Worker) recordFailure(ctx context.Context, row models.Payment, cause error) error {
	terminal := row.PayoutRetryCount+1 >= w.cfg.MaxAttempts
	reason := failureReason(cause)

	return w.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := w.paymentRepo.WithTx(tx).MarkPayoutFailure(ctx, row.ID, reason, terminal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: record payout failure")
		}
		if affected == 0 {
			return nil
		}
		outcome := "retrying"
		if terminal {
			outcome = "failed"
		}
		if w.metrics != nil {
			w.metrics.IncProcessed(workerName, outcome)
		}
		if !terminal {
			return nil
		}
		return w.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.PaymentEventPayoutFailed,
			PaymentID: row.ID,
			Data: map[string]any{
				"paymentId":  row.ID.String(),
				"sellerId":   row.SellerID.String(),
				"amountUsdc": row.AmountUSDC,
				"reason":     reason,
				"attempts":   row.PayoutRetryCount + 1,
			},
		})
	})
}

// failureReason renders the stored retry reason. The coded error type prints
// only code and message, so the custodian's underlying error has to be pulled
// off the chain explicitly.
func failureReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err.Error()
	}
	cause := typed.Unwrap()
	if cause == nil {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", typed.Error(), cause)
}
