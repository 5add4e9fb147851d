package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
)

const testSecret = "test-signing-secret"

func TestSignAndVerifyAccessToken(t *testing.T) {
	userID := uuid.NewString()

	token, err := auth.SignAccessToken(userID, "seller@example.com", testSecret, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auth.VerifyAccessToken(token, testSecret)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, "seller@example.com", claims.Email)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	token, err := auth.SignAccessToken(uuid.NewString(), "", testSecret, -time.Minute)
	assert.NoError(t, err)

	_, err = auth.VerifyAccessToken(token, testSecret)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired), "expiry must be detectable through wrapping")
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	token, err := auth.SignAccessToken(uuid.NewString(), "", testSecret, time.Hour)
	assert.NoError(t, err)

	_, err = auth.VerifyAccessToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestVerifyAccessToken_EmptySubject(t *testing.T) {
	token, err := auth.SignAccessToken("", "", testSecret, time.Hour)
	assert.NoError(t, err)

	_, err = auth.VerifyAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	_, err := auth.VerifyAccessToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}
