package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	require.NoError(t, conn.Exec(users).Error)
	return conn
}

func mustSeedUser(t *testing.T, conn *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: "user_" + uuid.NewString()[:8],
		PinHash:  "hash",
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}
