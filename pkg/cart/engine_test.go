package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/memstore"
	"github.com/ajcoder25/bookverse/pkg/models"
)

const user = "user-1"

func details(price int64, title string) cart.LineDetails {
	return cart.LineDetails{UnitPrice: decimal.NewFromInt(price), Title: title}
}

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	c, err := engine.Add(ctx, user, cart.Ref("book-42"), 2, details(300, "X"))
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "book-42", c.Items[0].ItemKey)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(c.Items[0].UnitPrice))

	c, err = engine.UpdateQuantity(ctx, user, cart.Ref("book-42"), 5)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)

	c, err = engine.Remove(ctx, user, cart.Ref("book-42"))
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = engine.Remove(ctx, user, cart.Ref("book-42"))
	assert.True(t, apperr.Is(err, apperr.ItemNotFound))
}

func TestEngine_AddReplacesQuantity(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	_, err := engine.Add(ctx, user, cart.Ref("k"), 3, details(10, "First"))
	require.NoError(t, err)
	c, err := engine.Add(ctx, user, cart.ObjectRef(cart.IDFields{BookID: "k"}), 5, details(99, "Second"))
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	// Snapshot from the first add is kept.
	assert.Equal(t, "First", c.Items[0].Title)
	assert.True(t, decimal.NewFromInt(10).Equal(c.Items[0].UnitPrice))
	assert.Equal(t, 5, c.ItemCount())
	assert.True(t, decimal.NewFromInt(50).Equal(c.Total()))
}

func TestEngine_AddMarksExternalItems(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	_, err := engine.Add(ctx, user, cart.Ref("65f1c0ffee0000000000abcd"), 1, details(5, "Native"))
	require.NoError(t, err)
	c, err := engine.Add(ctx, user, cart.Ref("zyTCAlFPjgYC"), 1, details(5, "External"))
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.False(t, c.Items[0].IsExternal)
	assert.True(t, c.Items[1].IsExternal)
}

func TestEngine_AddValidation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	engine := cart.NewEngine(store)

	_, err := engine.Add(ctx, user, cart.ItemRef{}, 1, details(1, "t"))
	assert.True(t, apperr.Is(err, apperr.InvalidReference))

	_, err = engine.Add(ctx, user, cart.Ref("   "), 1, details(1, "t"))
	assert.True(t, apperr.Is(err, apperr.InvalidReference))

	for _, qty := range []int{0, -1} {
		_, err = engine.Add(ctx, user, cart.Ref("k"), qty, details(1, "t"))
		assert.True(t, apperr.Is(err, apperr.InvalidQuantity))
	}

	_, err = engine.Add(ctx, user, cart.Ref("k"), 1, details(-1, "t"))
	assert.True(t, apperr.Is(err, apperr.InvalidPrice))

	stored, err := store.LoadCart(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, stored, "rejected adds must not create a cart")
}

func TestEngine_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	_, err := engine.UpdateQuantity(ctx, user, cart.Ref("k"), 2)
	assert.True(t, apperr.Is(err, apperr.ItemNotFound), "absent cart")

	_, err = engine.Add(ctx, user, cart.Ref("k"), 1, details(1, "t"))
	require.NoError(t, err)

	_, err = engine.UpdateQuantity(ctx, user, cart.Ref("k"), 0)
	assert.True(t, apperr.Is(err, apperr.InvalidQuantity))

	_, err = engine.UpdateQuantity(ctx, user, cart.Ref("other"), 2)
	assert.True(t, apperr.Is(err, apperr.ItemNotFound))

	_, err = engine.UpdateQuantity(ctx, user, cart.ItemRef{}, 2)
	assert.True(t, apperr.Is(err, apperr.InvalidReference))
}

func TestEngine_RemoveMissingLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	engine := cart.NewEngine(store)

	_, err := engine.Add(ctx, user, cart.Ref("a"), 1, details(1, "A"))
	require.NoError(t, err)
	before, err := store.LoadCart(ctx, user)
	require.NoError(t, err)

	_, err = engine.Remove(ctx, user, cart.Ref("b"))
	require.True(t, apperr.Is(err, apperr.ItemNotFound))

	after, err := store.LoadCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEngine_RemoveOnAbsentCart(t *testing.T) {
	store := memstore.New()
	engine := cart.NewEngine(store)

	_, err := engine.Remove(context.Background(), user, cart.Ref("a"))
	assert.True(t, apperr.Is(err, apperr.ItemNotFound))

	stored, err := store.LoadCart(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEngine_Clear(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	engine := cart.NewEngine(store)

	c, err := engine.Clear(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	stored, err := store.LoadCart(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, stored, "clearing an absent cart must not create one")

	_, err = engine.Add(ctx, user, cart.Ref("a"), 2, details(3, "A"))
	require.NoError(t, err)
	c, err = engine.Clear(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.ItemCount())
}

func TestEngine_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	_, err := engine.Add(ctx, "alice", cart.Ref("k"), 1, details(1, "t"))
	require.NoError(t, err)

	bob, err := engine.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.Items)
}

func TestEngine_ConcurrentRemovesOfDifferentItems(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, k := range keys {
		_, err := engine.Add(ctx, user, cart.Ref(k), 1, details(1, k))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(keys))
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_, err := engine.Remove(ctx, user, cart.Ref(k))
			errs <- err
		}(k)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	final, err := engine.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, final.Items)
}

func TestEngine_ConcurrentRemovesOfSameItem(t *testing.T) {
	ctx := context.Background()
	engine := cart.NewEngine(memstore.New())

	_, err := engine.Add(ctx, user, cart.Ref("a"), 1, details(1, "A"))
	require.NoError(t, err)
	_, err = engine.Add(ctx, user, cart.Ref("b"), 1, details(1, "B"))
	require.NoError(t, err)

	const racers = 10
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Remove(ctx, user, cart.Ref("a"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, notFound int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.ItemNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, notFound)

	final, err := engine.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, final.Items, 1)
	assert.Equal(t, "b", final.Items[0].ItemKey)
}

type failingStore struct{ err error }

func (f failingStore) LoadCart(context.Context, string) (*models.Cart, error) { return nil, f.err }
func (f failingStore) SaveCart(context.Context, *models.Cart) error          { return f.err }
func (f failingStore) UpdateCart(context.Context, string, func(*models.Cart) error) (*models.Cart, error) {
	return nil, f.err
}

func TestEngine_StoreFailuresArePersistenceUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	engine := cart.NewEngine(failingStore{err: cause})

	_, err := engine.Get(ctx, user)
	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))
	assert.ErrorIs(t, err, cause)

	_, err = engine.Add(ctx, user, cart.Ref("k"), 1, details(1, "t"))
	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))

	_, err = engine.UpdateQuantity(ctx, user, cart.Ref("k"), 1)
	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))

	_, err = engine.Remove(ctx, user, cart.Ref("k"))
	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))

	_, err = engine.Clear(ctx, user)
	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))
}

type hangingStore struct{ failingStore }

func (hangingStore) LoadCart(ctx context.Context, _ string) (*models.Cart, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEngine_StoreCallsAreBounded(t *testing.T) {
	engine := cart.NewEngine(hangingStore{}, cart.WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := engine.Get(context.Background(), user)

	assert.True(t, apperr.Is(err, apperr.PersistenceUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
