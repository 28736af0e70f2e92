package user

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
)

// Identity lifecycle event kinds delivered by the provider.
const (
	IdentityEventUserCreated = "user.created"
	IdentityEventUserUpdated = "user.updated"
	IdentityEventUserDeleted = "user.deleted"
)

// IdentityEvent is the provider's lifecycle envelope.
type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

// IdentityEventData carries the provider-side user snapshot.
type IdentityEventData struct {
	ID       string  `json:"id"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// VerifyIdentitySignature checks the lifecycle delivery against the shared
// secret. The signature is hex-encoded HMAC-SHA256 of the raw body. The check
// runs before any payload decoding or store mutation.
func VerifyIdentitySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "identity webhook secret not configured")
	}
	signature = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing identity webhook signature")
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "malformed identity webhook signature")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity webhook signature mismatch")
	}
	return nil
}

// WebhookService reconciles identity lifecycle events into local users.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte) error
}

// WebhookServiceParams collects the webhook service dependencies.
type WebhookServiceParams struct {
	Repo   *Repository
	DB     *db.Client
	Logger *logger.Logger
}

type webhookService struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewWebhookService constructs the identity webhook service.
func NewWebhookService(params WebhookServiceParams) (WebhookService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &webhookService{
		repo:     params.Repo,
		dbClient: params.DB,
		logg:     params.Logger,
	}, nil
}

// HandleEvent applies one lifecycle delivery. Unknown event kinds are
// acknowledged without effect so the provider stops retrying them.
func (s *webhookService) HandleEvent(ctx context.Context, payload []byte) error {
	var event IdentityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode identity event")
	}
	if strings.TrimSpace(event.Data.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity event missing subject id")
	}

	switch event.Type {
	case IdentityEventUserCreated:
		return s.provision(ctx, event.Data)
	case IdentityEventUserUpdated:
		return s.update(ctx, event.Data)
	case IdentityEventUserDeleted:
		return s.softDelete(ctx, event.Data.ID)
	default:
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "event_type", event.Type),
				"unhandled identity event acknowledged")
		}
		return nil
	}
}

// provision links the provider subject to an existing local account when one
// matches by clerk id or email, otherwise creates a fresh row. Webhook-created
// accounts carry no pin until the user completes signup.
func (s *webhookService) provision(ctx context.Context, data IdentityEventData) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByClerkID(ctx, data.ID); err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by clerk id")
		}

		var email *string
		if data.Email != nil {
			normalized := strings.ToLower(strings.TrimSpace(*data.Email))
			if normalized != "" {
				email = &normalized
			}
		}

		if email != nil {
			existing, err := repo.FindByEmail(ctx, *email)
			if err == nil {
				clerkID := data.ID
				existing.ClerkID = &clerkID
				if err := repo.Update(ctx, existing); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link clerk id")
				}
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by email")
			}
		}

		clerkID := data.ID
		username := usernameFromEvent(data)
		created := &models.User{
			ID:       uuid.New(),
			ClerkID:  &clerkID,
			Username: username,
			Email:    email,
		}
		if err := repo.Insert(ctx, created); err != nil {
			if db.IsUniqueViolation(err, "clerk_id") {
				// Concurrent delivery of the same event already provisioned it.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision user")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "user provisioned from identity event")
		}
		return nil
	})
}

func (s *webhookService) update(ctx context.Context, data IdentityEventData) error {
	existing, err := s.repo.FindByClerkID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Update can land before create under provider retries.
			return s.provision(ctx, data)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by clerk id")
	}

	if data.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*data.Email))
		if normalized != "" {
			existing.Email = &normalized
		}
	}
	if data.Username != nil && strings.TrimSpace(*data.Username) != "" {
		existing.Username = strings.TrimSpace(*data.Username)
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user from identity event")
	}
	return nil
}

func (s *webhookService) softDelete(ctx context.Context, clerkID string) error {
	err := s.repo.SoftDeleteByClerkID(ctx, clerkID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "soft delete user")
	}
	return nil
}

func usernameFromEvent(data IdentityEventData) string {
	if data.Username != nil && strings.TrimSpace(*data.Username) != "" {
		return strings.TrimSpace(*data.Username)
	}
	return "user-" + uuid.NewString()[:8]
}
