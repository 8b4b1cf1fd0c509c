package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

// DefaultTimeout bounds every store call made by an operation.
const DefaultTimeout = 10 * time.Second

// Store is the persistence the engine needs. Implementations live in
// pkg/mongo and pkg/memstore.
type Store interface {
	// LoadCart returns the user's cart, or nil and no error if none exists.
	LoadCart(ctx context.Context, userID string) (*models.Cart, error)

	// SaveCart upserts the cart keyed by its user.
	SaveCart(ctx context.Context, cart *models.Cart) error

	// UpdateCart loads the cart, applies mutate and saves the result as one
	// atomic unit. An absent cart is passed to mutate as an empty one and is
	// only created if mutate succeeds. If mutate returns an error nothing is
	// written and that error is returned unchanged. Conflicts abort the
	// transaction without retrying.
	UpdateCart(ctx context.Context, userID string, mutate func(*models.Cart) error) (*models.Cart, error)
}

// LineDetails is the price and display snapshot taken when a line is added.
type LineDetails struct {
	UnitPrice decimal.Decimal
	Title     string
	Author    string
	ImageURL  string
}

// Engine applies cart mutations against the stored cart. Add and
// UpdateQuantity are plain read-modify-write and therefore last-write-wins
// under concurrent requests for the same user; Remove is transactional.
type Engine struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		timeout: DefaultTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns the user's cart, or an empty unsaved cart.
func (e *Engine) Get(ctx context.Context, userID string) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	current, err := e.store.LoadCart(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load cart", err)
	}
	if current == nil {
		return models.NewCart(userID), nil
	}
	return current, nil
}

// Add puts ref in the cart. If the item is already present its quantity is
// replaced by quantity, not incremented; the original snapshot is kept.
func (e *Engine) Add(ctx context.Context, userID string, ref ItemRef, quantity int, details LineDetails) (*models.Cart, error) {
	key, ok := Normalize(ref)
	if !ok {
		return nil, apperr.New(apperr.InvalidReference, "item reference does not resolve to an id")
	}
	if quantity < 1 {
		return nil, apperr.New(apperr.InvalidQuantity, "quantity must be at least 1")
	}
	if details.UnitPrice.IsNegative() {
		return nil, apperr.New(apperr.InvalidPrice, "price must not be negative")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	current, err := e.store.LoadCart(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load cart", err)
	}
	if current == nil {
		current = models.NewCart(userID)
	}

	now := e.now()
	if i := current.Find(key); i >= 0 {
		current.Items[i].Quantity = quantity
	} else {
		current.Items = append(current.Items, models.CartLine{
			ItemKey:    key,
			Quantity:   quantity,
			UnitPrice:  details.UnitPrice,
			Title:      details.Title,
			Author:     details.Author,
			ImageURL:   details.ImageURL,
			IsExternal: !IsNativeKey(key),
			AddedAt:    now,
		})
	}
	current.SetTimestamps(now)

	if err := e.store.SaveCart(ctx, current); err != nil {
		return nil, apperr.Unavailable("save cart", err)
	}
	return current, nil
}

// Remove deletes the line for ref inside a single store transaction.
func (e *Engine) Remove(ctx context.Context, userID string, ref ItemRef) (*models.Cart, error) {
	key, ok := Normalize(ref)
	if !ok {
		return nil, apperr.New(apperr.InvalidReference, "item reference does not resolve to an id")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	updated, err := e.store.UpdateCart(ctx, userID, func(c *models.Cart) error {
		i := c.Find(key)
		if i < 0 {
			return itemNotFound(key)
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.SetTimestamps(e.now())
		return nil
	})
	if err != nil {
		return nil, apperr.Unavailable("remove cart item", err)
	}
	return updated, nil
}

// UpdateQuantity sets the quantity of an existing line. Zero is rejected;
// removal is always explicit.
func (e *Engine) UpdateQuantity(ctx context.Context, userID string, ref ItemRef, quantity int) (*models.Cart, error) {
	key, ok := Normalize(ref)
	if !ok {
		return nil, apperr.New(apperr.InvalidReference, "item reference does not resolve to an id")
	}
	if quantity < 1 {
		return nil, apperr.New(apperr.InvalidQuantity, "quantity must be at least 1")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	current, err := e.store.LoadCart(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load cart", err)
	}
	if current == nil {
		return nil, itemNotFound(key)
	}
	i := current.Find(key)
	if i < 0 {
		return nil, itemNotFound(key)
	}

	current.Items[i].Quantity = quantity
	current.SetTimestamps(e.now())

	if err := e.store.SaveCart(ctx, current); err != nil {
		return nil, apperr.Unavailable("save cart", err)
	}
	return current, nil
}

// Clear empties the cart. An absent cart is not created.
func (e *Engine) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	current, err := e.store.LoadCart(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load cart", err)
	}
	if current == nil {
		return models.NewCart(userID), nil
	}

	current.Items = []models.CartLine{}
	current.SetTimestamps(e.now())

	if err := e.store.SaveCart(ctx, current); err != nil {
		return nil, apperr.Unavailable("save cart", err)
	}
	return current, nil
}

func itemNotFound(key string) error {
	return &apperr.Error{
		Kind:    apperr.ItemNotFound,
		Message: "item " + key + " is not in the cart",
		Fields:  []string{"item_key"},
	}
}
