package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testValidator(t *testing.T) *JWTValidator {
	t.Helper()
	validator, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "nexus",
	})
	require.NoError(t, err)
	return validator
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		UserID: "user-1",
		Email:  "alice@example.com",
		Roles:  []string{"member"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "nexus",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
}

func TestJWTValidator_ValidateToken_Success(t *testing.T) {
	validator := testValidator(t)
	token := signToken(t, testSecret, validClaims())

	claims, err := validator.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"member"}, claims.Roles)
}

func TestJWTValidator_ValidateToken_Expired(t *testing.T) {
	validator := testValidator(t)
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signToken(t, testSecret, claims)

	_, err := validator.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTValidator_ValidateToken_WrongSecret(t *testing.T) {
	validator := testValidator(t)
	token := signToken(t, "someone-elses-secret", validClaims())

	_, err := validator.ValidateToken(token)

	assert.Error(t, err)
}

func TestJWTValidator_ValidateToken_MissingSubject(t *testing.T) {
	validator := testValidator(t)
	claims := validClaims()
	claims.UserID = ""
	token := signToken(t, testSecret, claims)

	_, err := validator.ValidateToken(token)

	assert.ErrorIs(t, err, ErrMissingClaims)
}

func TestJWTValidator_ValidateToken_WrongIssuer(t *testing.T) {
	validator := testValidator(t)
	claims := validClaims()
	claims.Issuer = "someone-else"
	token := signToken(t, testSecret, claims)

	_, err := validator.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTValidator_ValidateToken_Garbage(t *testing.T) {
	validator := testValidator(t)

	_, err := validator.ValidateToken("not-a-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserContext_RoundTrip(t *testing.T) {
	user := &UserContext{UserID: "user-1", Email: "alice@example.com"}

	ctx := SetUserInContext(context.Background(), user)

	loaded, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, loaded)

	_, err = GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUserInContext)
}
