package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pg := errors.New(`ERROR: duplicate key value violates unique constraint "ux_products_slug" (SQLSTATE 23505)`)
	sqlite := errors.New("UNIQUE constraint failed: users.wallet_address")

	assert.True(t, IsUniqueViolation(pg, ""))
	assert.True(t, IsUniqueViolation(pg, "slug"))
	assert.False(t, IsUniqueViolation(pg, "username"))

	assert.True(t, IsUniqueViolation(sqlite, "wallet_address"))
	assert.False(t, IsUniqueViolation(sqlite, "username"))

	assert.False(t, IsUniqueViolation(nil, "slug"))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), "slug"))
}
