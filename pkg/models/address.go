package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Address represents a shipping address belonging to one user.
type Address struct {
	ID         bson.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     string        `json:"user_id" bson:"user_id"`
	Street     string        `json:"street" bson:"street" validate:"required"`
	City       string        `json:"city" bson:"city" validate:"required"`
	State      string        `json:"state" bson:"state" validate:"required"`
	PostalCode string        `json:"postal_code" bson:"postal_code" validate:"required"`
	Country    string        `json:"country" bson:"country" validate:"required"`
	IsDefault  bool          `json:"is_default" bson:"is_default"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

// Trim strips surrounding whitespace from every text field.
func (a *Address) Trim() {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
}

// SameLocation compares the location fields case-insensitively; postal
// codes are compared after removing spaces.
func (a *Address) SameLocation(other *Address) bool {
	return strings.EqualFold(a.Street, other.Street) &&
		strings.EqualFold(a.City, other.City) &&
		strings.EqualFold(a.State, other.State) &&
		strings.EqualFold(a.Country, other.Country) &&
		strings.EqualFold(compactPostal(a.PostalCode), compactPostal(other.PostalCode))
}

func compactPostal(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// ShippingAddress is the copy of an address embedded in an order, so later
// edits to the user's address book do not alter historical orders.
type ShippingAddress struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

func (a *Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

func (req *AddressRequest) ToAddress(userID string) *Address {
	return &Address{
		UserID:     userID,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
}
