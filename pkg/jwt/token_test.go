package jwtPkg

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignAndParseBearer(t *testing.T) {
	token, exp, err := Sign(map[string]interface{}{
		"id":       "01HZX",
		"email":    "chef@example.com",
		"username": "chef",
	}, testSecret, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	parsed, err := ParseBearer("Bearer "+token, testSecret)
	require.NoError(t, err)

	data, err := LoginDataFromToken(parsed)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", data.ID)
	assert.Equal(t, "chef@example.com", data.Email)
	assert.Equal(t, "chef", data.Username)
}

func TestParseBearerRejectsBadInput(t *testing.T) {
	_, err := ParseBearer("", testSecret)
	assert.ErrorIs(t, err, ErrEmptyHeader)

	_, err = ParseBearer("Basic abc", testSecret)
	assert.ErrorIs(t, err, ErrInvalidHeaderFormat)

	token, _, err := Sign(map[string]interface{}{"id": "1"}, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseBearer("Bearer "+token, "other-secret")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, _, err := Sign(map[string]interface{}{"id": "1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestLoginDataFromTokenMissingClaims(t *testing.T) {
	token, _, err := Sign(map[string]interface{}{"id": "1"}, testSecret, time.Hour)
	require.NoError(t, err)

	parsed, err := Parse(token, testSecret)
	require.NoError(t, err)

	_, err = LoginDataFromToken(parsed)
	assert.ErrorIs(t, err, ErrMissingClaims)
}

func TestSignWithoutSecret(t *testing.T) {
	_, _, err := Sign(nil, "", time.Hour)
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}
