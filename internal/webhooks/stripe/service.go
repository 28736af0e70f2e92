package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	payment "github.com/oxbryte/openly-backend/internal/payments"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	"github.com/oxbryte/openly-backend/pkg/enums"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams collects the reconciler dependencies.
type ServiceParams struct {
	PaymentRepo       *payment.Repository
	Outbox            *outbox.Service
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service applies Stripe events to the payment ledger. Every transition is a
// conditional update, so replays and out-of-order deliveries settle as
// no-ops.
type Service struct {
	paymentRepo *payment.Repository
	outbox      *outbox.Service
	txRunner    txRunner
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the webhook reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.PaymentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repo required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		paymentRepo: params.PaymentRepo,
		outbox:      params.Outbox,
		txRunner:    params.TransactionRunner,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

// HandleEvent dispatches one verified Stripe event. Unknown kinds are logged
// and acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.completePayment(ctx, intent.ID, txHashFromMetadata(intent.Metadata))

	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.failPayment(ctx, intent.ID, enums.PaymentStatusFailed)

	case stripe.EventTypePaymentIntentCanceled:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.failPayment(ctx, intent.ID, enums.PaymentStatusCancelled)

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "charge missing payment intent")
		}
		return s.applyRefund(ctx, charge.PaymentIntent.ID, charge.AmountRefunded)

	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		intentID := ""
		if session.PaymentIntent != nil {
			intentID = session.PaymentIntent.ID
		}
		return s.completePayment(ctx, intentID, txHashFromMetadata(session.Metadata))

	default:
		if s.logg != nil {
			s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		}
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &intent, nil
}

func txHashFromMetadata(metadata map[string]string) *string {
	if metadata == nil {
		return nil
	}
	if hash, ok := metadata["txHash"]; ok && hash != "" {
		return &hash
	}
	return nil
}

// locate finds the ledger row an event refers to. Intent id wins; the chain
// transaction hash covers the crypto flow where no intent exists.
func (s *Service) locate(ctx context.Context, intentID string, txHash *string) (*models.Payment, error) {
	if intentID != "" {
		row, err := s.paymentRepo.FindByStripeIntentID(ctx, intentID)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment by intent")
		}
	}
	if txHash != nil {
		row, err := s.paymentRepo.FindByTxHash(ctx, *txHash)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment by tx hash")
		}
	}
	return nil, nil
}

func (s *Service) completePayment(ctx context.Context, intentID string, txHash *string) error {
	row, err := s.locate(ctx, intentID, txHash)
	if err != nil {
		return err
	}
	if row == nil {
		s.logAnomaly(ctx, intentID, txHash)
		return nil
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.paymentRepo.WithTx(tx)
		affected, err := txRepo.MarkCompleted(ctx, row.ID, txHash, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete payment")
		}
		if affected == 0 {
			// already settled, replay or out-of-order delivery
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.PaymentEventCompleted,
			PaymentID: row.ID,
			Data:      eventPayload(row, enums.PaymentStatusCompleted, txHash),
		})
	})
}

func (s *Service) failPayment(ctx context.Context, intentID string, terminal enums.PaymentStatus) error {
	row, err := s.locate(ctx, intentID, nil)
	if err != nil {
		return err
	}
	if row == nil {
		s.logAnomaly(ctx, intentID, nil)
		return nil
	}

	eventType := enums.PaymentEventFailed
	if terminal == enums.PaymentStatusCancelled {
		eventType = enums.PaymentEventCancelled
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.paymentRepo.WithTx(tx)
		var affected int64
		var err error
		if terminal == enums.PaymentStatusCancelled {
			affected, err = txRepo.MarkCancelled(ctx, row.ID)
		} else {
			affected, err = txRepo.MarkFailed(ctx, row.ID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: transition payment")
		}
		if affected == 0 {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: eventType,
			PaymentID: row.ID,
			Data:      eventPayload(row, terminal, nil),
		})
	})
}

func (s *Service) applyRefund(ctx context.Context, intentID string, amountRefundedMinor int64) error {
	row, err := s.locate(ctx, intentID, nil)
	if err != nil {
		return err
	}
	if row == nil {
		s.logAnomaly(ctx, intentID, nil)
		return nil
	}

	var amountUSDC *string
	if amountRefundedMinor > 0 {
		// minor units carry 2 decimals, the fixed-point strings carry 6
		micros := new(big.Int).Mul(big.NewInt(amountRefundedMinor), big.NewInt(10_000))
		encoded := micros.String()
		amountUSDC = &encoded
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.paymentRepo.WithTx(tx)
		affected, err := txRepo.SetRefund(ctx, row.ID, enums.RefundStatusCompleted, amountUSDC, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply refund")
		}
		if affected == 0 {
			// not completed yet, or refund outcome already final
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType: enums.PaymentEventRefundCompleted,
			PaymentID: row.ID,
			Data: map[string]any{
				"paymentId":        row.ID.String(),
				"sellerId":         row.SellerID.String(),
				"refundAmountUsdc": amountUSDC,
			},
		})
	})
}

func (s *Service) logAnomaly(ctx context.Context, intentID string, txHash *string) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"intent_id": intentID}
	if txHash != nil {
		fields["tx_hash"] = *txHash
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "stripe event references unknown payment")
}

func eventPayload(row *models.Payment, status enums.PaymentStatus, txHash *string) map[string]any {
	payload := map[string]any{
		"paymentId":  row.ID.String(),
		"sellerId":   row.SellerID.String(),
		"amountUsdc": row.AmountUSDC,
		"status":     status.String(),
	}
	if row.StripeIntentID != nil {
		payload["intentId"] = *row.StripeIntentID
	}
	if txHash != nil {
		payload["txHash"] = *txHash
	}
	return payload
}
