package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price_usd NUMERIC NOT NULL,
  price_usdc TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  is_active INTEGER NOT NULL DEFAULT 1,
  image_url TEXT,
  category TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
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
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(paymentLinks).Error)
	return conn
}

func mustCreateTestSeller(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: "seller_" + uuid.NewString()[:8],
		PinHash:  "hash",
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}
