package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/earnings-backend/internal/models"
)

func testKey(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestSealer_SealOpen(t *testing.T) {
	s := NewSealer(testKey(7))
	details := models.AccountDetails{RoutingNumber: "110000000", AccountNumber: "000123456789"}

	sealed, err := s.Seal(details)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "000123456789")

	var got models.AccountDetails
	require.NoError(t, s.Open(sealed, &got))
	assert.Equal(t, details, got)
}

func TestSealer_WrongKey(t *testing.T) {
	sealed, err := NewSealer(testKey(1)).Seal(models.AccountDetails{PaypalEmail: "a@b.com"})
	require.NoError(t, err)

	var got models.AccountDetails
	assert.ErrorIs(t, NewSealer(testKey(2)).Open(sealed, &got), ErrDecrypt)
	assert.ErrorIs(t, NewSealer(testKey(2)).Open([]byte("short"), &got), ErrDecrypt)
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s := NewSealer(testKey(3))
	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
