package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters"

func TestValidator_RoundTrip(t *testing.T) {
	generator, err := NewGenerator(testSecret, "mnemo", time.Hour)
	require.NoError(t, err)
	validator, err := NewValidator(testSecret, "mnemo")
	require.NoError(t, err)

	token, err := generator.GenerateToken("user-1", "user@example.com", []string{"user"})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestValidator_StripsBearerPrefix(t *testing.T) {
	generator, _ := NewGenerator(testSecret, "mnemo", time.Hour)
	validator, _ := NewValidator(testSecret, "mnemo")

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	claims, err := validator.ValidateToken("Bearer " + token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestValidator_ExpiredToken(t *testing.T) {
	generator, _ := NewGenerator(testSecret, "mnemo", -time.Minute)
	validator, _ := NewValidator(testSecret, "mnemo")

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidator_WrongSecret(t *testing.T) {
	generator, _ := NewGenerator("completely-different-secret-value", "mnemo", time.Hour)
	validator, _ := NewValidator(testSecret, "mnemo")

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)

	assert.Error(t, err)
}

func TestValidator_WrongIssuer(t *testing.T) {
	generator, _ := NewGenerator(testSecret, "someone-else", time.Hour)
	validator, _ := NewValidator(testSecret, "mnemo")

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)

	assert.True(t, errors.Is(err, ErrInvalidClaims))
}

func TestValidator_MissingToken(t *testing.T) {
	validator, _ := NewValidator(testSecret, "mnemo")

	_, err := validator.ValidateToken("")

	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidator_RequiresSecret(t *testing.T) {
	_, err := NewValidator("", "mnemo")
	assert.Error(t, err)
}

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	_, err := GetUserFromContext(ctx)
	assert.Error(t, err)

	user := &UserContext{UserID: "user-1", Email: "user@example.com"}
	ctx = SetUserInContext(ctx, user)

	got, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}
