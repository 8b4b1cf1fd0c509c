package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/memstore"
	"github.com/ajcoder25/bookverse/pkg/models"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret")

	signed, err := tokens.Issue("user-1")
	require.NoError(t, err)

	subject, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret")
	signed, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokens("other").Verify(signed)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "wrong secret")

	_, err = tokens.Verify("not-a-token")
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "garbage")

	expired := NewTokens("secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
	old, err := expired.Issue("user-1")
	require.NoError(t, err)
	_, err = tokens.Verify(old)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(unsigned)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "alg none")
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), NewTokens("secret"))

	user, err := svc.Register(ctx, &models.RegisterRequest{Name: " Ada ", Email: "Ada@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.Password)

	token, loggedIn, err := svc.Login(ctx, &models.LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	subject, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), subject)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), NewTokens("secret"))

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &models.RegisterRequest{Name: "Ada 2", Email: "ADA@example.com", Password: "password2"})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), NewTokens("secret"))
	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}
