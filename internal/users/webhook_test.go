package user

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
)

func newTestWebhookService(t *testing.T, conn *gorm.DB) WebhookService {
	t.Helper()
	svc, err := NewWebhookService(WebhookServiceParams{
		Repo: NewRepository(conn),
		DB:   db.NewFromConn(conn),
	})
	require.NoError(t, err)
	return svc
}

func identityPayload(t *testing.T, eventType, subject string, mutate func(*IdentityEventData)) []byte {
	t.Helper()
	data := IdentityEventData{ID: subject}
	if mutate != nil {
		mutate(&data)
	}
	payload, err := json.Marshal(IdentityEvent{Type: eventType, Data: data})
	require.NoError(t, err)
	return payload
}

func signIdentity(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyIdentitySignature(t *testing.T) {
	secret := "whsec_local"
	body := []byte(`{"type":"user.created"}`)
	valid := signIdentity(secret, body)

	require.NoError(t, VerifyIdentitySignature(secret, body, valid))
	require.NoError(t, VerifyIdentitySignature(secret, body, "sha256="+valid))

	for name, sig := range map[string]string{
		"missing":     "",
		"not hex":     "zzzz",
		"wrong value": signIdentity("other-secret", body),
	} {
		t.Run(name, func(t *testing.T) {
			err := VerifyIdentitySignature(secret, body, sig)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}

	err := VerifyIdentitySignature("", body, valid)
	require.Error(t, err)
}

func TestHandleUserCreatedProvisionsUser(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)

	payload := identityPayload(t, IdentityEventUserCreated, "clerk_abc", func(d *IdentityEventData) {
		name := "gumdrop"
		email := "Gumdrop@Example.com"
		d.Username = &name
		d.Email = &email
	})
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var stored models.User
	require.NoError(t, conn.First(&stored, "clerk_id = ?", "clerk_abc").Error)
	assert.Equal(t, "gumdrop", stored.Username)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "gumdrop@example.com", *stored.Email)
	assert.False(t, stored.Deleted)

	// Redelivery of the same event leaves a single row.
	require.NoError(t, svc.HandleEvent(context.Background(), payload))
	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("clerk_id = ?", "clerk_abc").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleUserCreatedLinksExistingAccountByEmail(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)
	seeded := mustSeedUser(t, conn, func(u *models.User) {
		email := "linked@example.com"
		u.Email = &email
	})

	payload := identityPayload(t, IdentityEventUserCreated, "clerk_link", func(d *IdentityEventData) {
		email := "linked@example.com"
		d.Email = &email
	})
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", seeded.ID).Error)
	require.NotNil(t, stored.ClerkID)
	assert.Equal(t, "clerk_link", *stored.ClerkID)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleUserUpdatedMutatesProfile(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)
	seeded := mustSeedUser(t, conn, func(u *models.User) {
		clerkID := "clerk_upd"
		u.ClerkID = &clerkID
	})

	payload := identityPayload(t, IdentityEventUserUpdated, "clerk_upd", func(d *IdentityEventData) {
		name := "renamed"
		email := "new@example.com"
		d.Username = &name
		d.Email = &email
	})
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", seeded.ID).Error)
	assert.Equal(t, "renamed", stored.Username)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "new@example.com", *stored.Email)
}

func TestHandleUserUpdatedBeforeCreateProvisions(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)

	payload := identityPayload(t, IdentityEventUserUpdated, "clerk_early", nil)
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var stored models.User
	require.NoError(t, conn.First(&stored, "clerk_id = ?", "clerk_early").Error)
	assert.NotEmpty(t, stored.Username)
}

func TestHandleUserDeletedSoftDeletes(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)
	seeded := mustSeedUser(t, conn, func(u *models.User) {
		clerkID := "clerk_del"
		u.ClerkID = &clerkID
	})

	payload := identityPayload(t, IdentityEventUserDeleted, "clerk_del", nil)
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", seeded.ID).Error)
	assert.True(t, stored.Deleted)
	require.NotNil(t, stored.DeletedAt)

	// The access guard must no longer resolve the subject.
	repo := NewRepository(conn)
	_, err := repo.FindActiveByClerkID(context.Background(), "clerk_del")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHandleUnknownEventKindAcked(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)

	payload := identityPayload(t, "session.created", "clerk_abc", nil)
	require.NoError(t, svc.HandleEvent(context.Background(), payload))

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	conn := setupUserTestDB(t)
	svc := newTestWebhookService(t, conn)

	for name, payload := range map[string][]byte{
		"not json":   []byte("{"),
		"no subject": []byte(`{"type":"user.created","data":{}}`),
	} {
		t.Run(name, func(t *testing.T) {
			err := svc.HandleEvent(context.Background(), payload)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}
