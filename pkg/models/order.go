package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine captures a cart line at checkout time.
type OrderLine struct {
	ItemKey   string          `json:"item_key" bson:"item_key"`
	Title     string          `json:"title" bson:"title"`
	Quantity  int             `json:"quantity" bson:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" bson:"subtotal"`
}

// Order is an immutable snapshot of a cart plus a shipping address.
type Order struct {
	ID              bson.ObjectID   `json:"id" bson:"_id,omitempty"`
	OrderNumber     string          `json:"order_number" bson:"order_number"`
	UserID          string          `json:"user_id" bson:"user_id"`
	Items           []OrderLine     `json:"items" bson:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address" bson:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount" bson:"total_amount"`
	Status          OrderStatus     `json:"status" bson:"status"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
}

// NewOrder snapshots cart and address into a pending order.
func NewOrder(cart *Cart, address *Address, now time.Time) *Order {
	lines := make([]OrderLine, len(cart.Items))
	total := decimal.Zero
	for i, item := range cart.Items {
		subtotal := item.Subtotal()
		lines[i] = OrderLine{
			ItemKey:   item.ItemKey,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		}
		total = total.Add(subtotal)
	}

	return &Order{
		OrderNumber:     GenerateOrderNumber(),
		UserID:          cart.UserID,
		Items:           lines,
		ShippingAddress: address.Snapshot(),
		TotalAmount:     total,
		Status:          OrderStatusPending,
		CreatedAt:       now,
	}
}

// GetItemCount returns the total number of items in the order
func (o *Order) GetItemCount() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// GenerateOrderNumber returns ORD-<uuid v7>; v7 keeps numbers roughly time-ordered.
func GenerateOrderNumber() string {
	return "ORD-" + uuid.Must(uuid.NewV7()).String()
}

type CheckoutRequest struct {
	AddressID string `json:"address_id"`
}
