package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type WishlistItem struct {
	ItemKey string    `json:"item_key" bson:"item_key"`
	Title   string    `json:"title,omitempty" bson:"title,omitempty"`
	AddedAt time.Time `json:"added_at" bson:"added_at"`
}

// Wishlist holds at most one entry per item key.
type Wishlist struct {
	ID     bson.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID string         `json:"user_id" bson:"user_id"`
	Items  []WishlistItem `json:"items" bson:"items"`
}

func (w *Wishlist) Contains(itemKey string) bool {
	for _, item := range w.Items {
		if item.ItemKey == itemKey {
			return true
		}
	}
	return false
}

// Titles returns the non-empty titles in insertion order.
func (w *Wishlist) Titles() []string {
	titles := []string{}
	for _, item := range w.Items {
		if item.Title != "" {
			titles = append(titles, item.Title)
		}
	}
	return titles
}

func (w *Wishlist) Clone() *Wishlist {
	if w == nil {
		return nil
	}
	out := *w
	out.Items = make([]WishlistItem, len(w.Items))
	copy(out.Items, w.Items)
	return &out
}
