package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxbryte/openly-backend/pkg/config"
)

func testPinConfig() config.PinConfig {
	return config.PinConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPin(t *testing.T) {
	hash, err := HashPin("4921", testPinConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPin("4921", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPin("0000", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPinEmpty(t *testing.T) {
	_, err := HashPin("", testPinConfig())
	require.Error(t, err)
}

func TestHashPinUniqueSalts(t *testing.T) {
	cfg := testPinConfig()
	first, err := HashPin("4921", cfg)
	require.NoError(t, err)
	second, err := HashPin("4921", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPinMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plainly-not-a-hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1$c2FsdA$aGFzaA",
	} {
		_, err := VerifyPin("4921", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}
}
