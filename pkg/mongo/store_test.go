package mongo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/models"
)

// newTestStore connects to MONGODB_URI, which must point at a replica set
// since the stores use transactions. Each test gets its own database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB test in short mode")
	}
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := Connect(ctx, uri, "bookverse_test_"+bson.NewObjectID().Hex())
	require.NoError(t, err)
	require.NoError(t, store.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.db.Drop(ctx)
		_ = store.Disconnect(ctx)
	})
	return store
}

func seedCart(t *testing.T, s *Store, userID string, keys ...string) {
	t.Helper()
	c := models.NewCart(userID)
	for _, k := range keys {
		c.Items = append(c.Items, models.CartLine{ItemKey: k, Quantity: 1})
	}
	require.NoError(t, s.SaveCart(context.Background(), c))
}

func itemKeys(c *models.Cart) []string {
	keys := []string{}
	for _, line := range c.Items {
		keys = append(keys, line.ItemKey)
	}
	return keys
}

func TestUpdateCart_RemoveCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, "u", "a", "b")

	engine := cart.NewEngine(s)
	updated, err := engine.Remove(ctx, "u", cart.Ref("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemKeys(updated))

	_, err = engine.Remove(ctx, "u", cart.Ref("a"))
	assert.True(t, apperr.Is(err, apperr.ItemNotFound))

	stored, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemKeys(stored))
}

func TestUpdateCart_ConflictAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, "u", "a", "b")

	_, err := s.UpdateCart(ctx, "u", func(c *models.Cart) error {
		// A write outside the transaction lands after its snapshot was taken.
		outside := models.NewCart("u")
		outside.ID = c.ID
		outside.Items = []models.CartLine{{ItemKey: "c", Quantity: 3}}
		require.NoError(t, s.SaveCart(context.Background(), outside))

		c.Items = c.Items[1:]
		return nil
	})
	require.Error(t, err)

	stored, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, itemKeys(stored))
}

func TestUpdateCart_FailedMutateWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCart(t, s, "u", "a")

	_, err := s.UpdateCart(ctx, "u", func(c *models.Cart) error {
		c.Items = nil
		return apperr.New(apperr.ItemNotFound, "gone")
	})
	assert.True(t, apperr.Is(err, apperr.ItemNotFound))

	stored, err := s.LoadCart(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, itemKeys(stored))
}

func TestUpdateAddresses_ConcurrentCallsNeverDoubleDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateAddresses(ctx, "u", func(existing []models.Address) ([]models.Address, error) {
				return append(existing, models.Address{
					Street:    bson.NewObjectID().Hex(),
					IsDefault: len(existing) == 0,
				}), nil
			})
		}()
	}
	wg.Wait()

	stored, err := s.LoadAddresses(ctx, "u")
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	defaults := 0
	for _, a := range stored {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestBooks_GoogleIDIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.Book{GoogleID: "g1", Title: "First"}
	require.NoError(t, s.InsertBook(ctx, first))
	assert.Equal(t, first.ObjectID.Hex(), first.ID)

	err := s.InsertBook(ctx, &models.Book{GoogleID: "g1", Title: "Second"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	// Local books have no google_id and do not collide.
	require.NoError(t, s.InsertBook(ctx, &models.Book{Title: "Local A"}))
	require.NoError(t, s.InsertBook(ctx, &models.Book{Title: "Local B"}))

	found, err := s.FindBook(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}
