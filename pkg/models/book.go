package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Book is a catalog entry. Books created through the API carry only a
// database id; volumes fetched from the external catalog also keep their
// upstream id in GoogleID, which is unique across the collection.
type Book struct {
	ObjectID      bson.ObjectID   `json:"-" bson:"_id,omitempty"`
	ID            string          `json:"id" bson:"-"`
	GoogleID      string          `json:"google_id,omitempty" bson:"google_id,omitempty"`
	Title         string          `json:"title" bson:"title"`
	Authors       []string        `json:"authors" bson:"authors"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty"`
	Publisher     string          `json:"publisher,omitempty" bson:"publisher,omitempty"`
	PublishedDate string          `json:"published_date,omitempty" bson:"published_date,omitempty"`
	PageCount     int             `json:"page_count,omitempty" bson:"page_count,omitempty"`
	Categories    []string        `json:"categories,omitempty" bson:"categories,omitempty"`
	Language      string          `json:"language,omitempty" bson:"language,omitempty"`
	Thumbnail     string          `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Price         decimal.Decimal `json:"price" bson:"price"`
	Currency      string          `json:"currency" bson:"currency"`
	CreatedAt     time.Time       `json:"created_at,omitzero" bson:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitzero" bson:"updated_at,omitempty"`
}

// AssignKey sets ID to the reference carts and wishlists use for the book:
// the database id once stored, otherwise the upstream volume id.
func (b *Book) AssignKey() {
	if !b.ObjectID.IsZero() {
		b.ID = b.ObjectID.Hex()
		return
	}
	b.ID = b.GoogleID
}

// Author joins the author list for cart display.
func (b *Book) Author() string {
	return strings.Join(b.Authors, ", ")
}

type CreateBookRequest struct {
	GoogleID      string          `json:"google_id"`
	Title         string          `json:"title" binding:"required"`
	Authors       []string        `json:"authors"`
	Description   string          `json:"description"`
	Publisher     string          `json:"publisher"`
	PublishedDate string          `json:"published_date"`
	PageCount     int             `json:"page_count" binding:"gte=0"`
	Categories    []string        `json:"categories"`
	Language      string          `json:"language"`
	Thumbnail     string          `json:"thumbnail"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
}

func (req *CreateBookRequest) ToBook() *Book {
	authors := req.Authors
	if authors == nil {
		authors = []string{}
	}
	return &Book{
		GoogleID:      strings.TrimSpace(req.GoogleID),
		Title:         strings.TrimSpace(req.Title),
		Authors:       authors,
		Description:   req.Description,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		PageCount:     req.PageCount,
		Categories:    req.Categories,
		Language:      req.Language,
		Thumbnail:     req.Thumbnail,
		Price:         req.Price,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
}
