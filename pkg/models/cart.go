package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartLine is one distinct purchasable item in a user's cart.
// Display fields and UnitPrice are snapshotted when the line is first added.
type CartLine struct {
	ItemKey    string          `json:"item_key" bson:"item_key"`
	Quantity   int             `json:"quantity" bson:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Title      string          `json:"title" bson:"title"`
	Author     string          `json:"author,omitempty" bson:"author,omitempty"`
	ImageURL   string          `json:"image_url,omitempty" bson:"image_url,omitempty"`
	IsExternal bool            `json:"is_external_catalog_item" bson:"is_external_catalog_item"`
	AddedAt    time.Time       `json:"added_at" bson:"added_at"`
}

// Subtotal returns UnitPrice * Quantity.
func (l *CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is owned 1:1 by a user. It is created on first add and emptied, never
// deleted, on clear or checkout.
type Cart struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string        `json:"user_id" bson:"user_id"`
	Items     []CartLine    `json:"items" bson:"items"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// NewCart returns an empty, unsaved cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartLine{}}
}

// Find returns the index of the line with itemKey, or -1.
func (c *Cart) Find(itemKey string) int {
	for i := range c.Items {
		if c.Items[i].ItemKey == itemKey {
			return i
		}
	}
	return -1
}

// Total sums the line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// ItemCount sums the line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// SetTimestamps sets created_at on first call and always updates updated_at
func (c *Cart) SetTimestamps(now time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// Clone returns a deep copy so stores never share line slices with callers.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]CartLine, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}

// CartView is the response shape for a cart, with derived totals.
type CartView struct {
	*Cart
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (c *Cart) View() CartView {
	return CartView{Cart: c, Total: c.Total(), ItemCount: c.ItemCount()}
}

// AddToCartRequest carries the non-identity part of an add. The item
// reference itself is parsed from the raw body, since clients send it in
// several shapes (bookId, id, _id, or a nested book object).
type AddToCartRequest struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Title    string          `json:"title" binding:"required"`
	Author   string          `json:"author"`
	Image    string          `json:"image"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
