package checkout

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/events"
	"github.com/ajcoder25/bookverse/pkg/models"
)

type OrderStore interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

type AddressBook interface {
	Find(ctx context.Context, userID string, id bson.ObjectID) (*models.Address, error)
	Default(ctx context.Context, userID string) (*models.Address, error)
}

// Service turns a cart into an order. Orders are append-only.
type Service struct {
	carts     *cart.Engine
	addresses AddressBook
	orders    OrderStore
	publisher events.Publisher
	timeout   time.Duration
	now       func() time.Time
}

func NewService(carts *cart.Engine, addresses AddressBook, orders OrderStore, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		publisher: publisher,
		timeout:   cart.DefaultTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout snapshots the cart and the chosen address into a pending order,
// then empties the cart. A zero addressID selects the default address.
func (s *Service) Checkout(ctx context.Context, userID string, addressID bson.ObjectID) (*models.Order, error) {
	current, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(current.Items) == 0 {
		return nil, apperr.New(apperr.EmptyCart, "cart is empty")
	}

	var shipTo *models.Address
	if addressID.IsZero() {
		shipTo, err = s.addresses.Default(ctx, userID)
	} else {
		shipTo, err = s.addresses.Find(ctx, userID, addressID)
	}
	if err != nil {
		return nil, err
	}

	order := models.NewOrder(current, shipTo, s.now())

	insertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.orders.InsertOrder(insertCtx, order); err != nil {
		return nil, apperr.Unavailable("save order", err)
	}

	// The order is durable from here on; a failed clear leaves a stale cart
	// the user can empty, which is preferable to failing the checkout.
	if _, err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("Warning: order %s placed but cart for user %s not cleared: %v", order.OrderNumber, userID, err)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		log.Printf("Warning: Failed to publish event for order %s: %v", order.OrderNumber, err)
	}

	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	orders, err := s.orders.ListOrders(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("list orders", err)
	}
	return orders, nil
}
