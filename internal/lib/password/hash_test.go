package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHashAndCompare(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode password", password: "пароль-для-теста"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password, bcrypt.MinCost)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, CompareHash(hash, tt.password))
			assert.ErrorIs(t, CompareHash(hash, tt.password+"x"), ErrMismatch)
		})
	}
}

func TestGetHash_CostOutOfRange(t *testing.T) {
	hash, err := GetHash("secret-pass", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestCompareHash_MalformedHash(t *testing.T) {
	err := CompareHash("not-a-bcrypt-hash", "secret")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
