package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

func TestUpdateCart_FailedMutateWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveCart(ctx, &models.Cart{UserID: "u", Items: []models.CartLine{{ItemKey: "a", Quantity: 1}}}))

	boom := errors.New("boom")
	_, err := s.UpdateCart(ctx, "u", func(c *models.Cart) error {
		c.Items = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
}

func TestUpdateAddresses_AppliesListAtomically(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.UpdateAddresses(ctx, "u", func(existing []models.Address) ([]models.Address, error) {
		return append(existing, models.Address{Street: "a", IsDefault: true}, models.Address{Street: "b"}), nil
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.False(t, created[0].ID.IsZero())
	assert.Equal(t, "u", created[1].UserID)

	boom := errors.New("boom")
	_, err = s.UpdateAddresses(ctx, "u", func(existing []models.Address) ([]models.Address, error) {
		existing[0].IsDefault = false
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	kept, err := s.UpdateAddresses(ctx, "u", func(existing []models.Address) ([]models.Address, error) {
		require.True(t, existing[0].IsDefault)
		return existing[1:], nil
	})
	require.NoError(t, err)
	require.Len(t, kept, 1)

	stored, err := s.LoadAddresses(ctx, "u")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "b", stored[0].Street)
}

func TestLoadCart_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveCart(ctx, &models.Cart{UserID: "u", Items: []models.CartLine{{ItemKey: "a", Quantity: 1}}}))

	first, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	first.Items[0].Quantity = 99

	second, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Items[0].Quantity)
	assert.Equal(t, first.ID, second.ID)
}

func TestUsers_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "Ada@Example.com"}))
	err := s.CreateUser(ctx, &models.User{Email: "ada@example.com"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	u, err := s.FindUserByEmail(ctx, "ADA@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, u)

	missing, err := s.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().LoadCart(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
}
