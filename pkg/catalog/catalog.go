// Package catalog serves books from the local collection and proxies a
// Google-Books-compatible volumes API, reshaping its responses into the
// fields the storefront uses. Volumes fetched upstream are stored locally so
// later lookups and cart lines can use their database id.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type SearchResult struct {
	Query      string        `json:"query"`
	TotalItems int           `json:"total_items"`
	Books      []models.Book `json:"books"`
}

// Cache stores raw upstream responses. A miss is reported as found=false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BookStore is the local book collection.
type BookStore interface {
	// ListBooks returns every book, or those tagged with category when it
	// is not empty.
	ListBooks(ctx context.Context, category string) ([]models.Book, error)
	// FindBook looks key up as a database id, then as a google_id. A missing
	// book is nil with no error.
	FindBook(ctx context.Context, key string) (*models.Book, error)
	// InsertBook assigns the database id. A taken google_id is apperr.Conflict.
	InsertBook(ctx context.Context, book *models.Book) error
	ListCategories(ctx context.Context) ([]string, error)
}

type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	books    BookStore
	now      func() time.Time
}

type Option func(*Client)

// WithAPIKey sends key with every upstream request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithCache caches raw upstream responses for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithBooks enables the local collection. Without it Volume always goes
// upstream and List returns nothing.
func WithBooks(books BookStore) Option {
	return func(c *Client) {
		c.books = books
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &apperr.Error{Kind: apperr.InvalidReference, Message: "query parameter q is required", Fields: []string{"q"}}
	}

	body, err := c.fetch(ctx, "search:"+strings.ToLower(query), "/volumes", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}

	var raw volumesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog search: %w", err)
	}
	result := &SearchResult{Query: query, TotalItems: raw.TotalItems, Books: make([]models.Book, 0, len(raw.Items))}
	for _, v := range raw.Items {
		result.Books = append(result.Books, v.toBook())
	}
	return result, nil
}

// Volume returns a book by database id or upstream volume id. The local
// collection is checked first; a volume found only upstream is stored before
// it is returned. A missing volume is ItemNotFound.
func (c *Client) Volume(ctx context.Context, id string) (*models.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.New(apperr.InvalidReference, "volume id is required")
	}

	if c.books != nil {
		book, err := c.books.FindBook(ctx, id)
		if err != nil {
			return nil, apperr.Unavailable("find book", err)
		}
		if book != nil {
			return book, nil
		}
	}

	body, err := c.fetch(ctx, "volume:"+id, "/volumes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var raw volume
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog volume: %w", err)
	}
	book := raw.toBook()
	if c.books == nil {
		return &book, nil
	}
	return c.store(ctx, &book)
}

// store inserts a fetched volume. When a concurrent request stored the same
// volume first, that copy is returned instead.
func (c *Client) store(ctx context.Context, book *models.Book) (*models.Book, error) {
	now := c.now()
	book.CreatedAt = now
	book.UpdatedAt = now

	err := c.books.InsertBook(ctx, book)
	if err == nil {
		return book, nil
	}
	if !apperr.Is(err, apperr.Conflict) || book.GoogleID == "" {
		return nil, apperr.Unavailable("store book", err)
	}

	existing, findErr := c.books.FindBook(ctx, book.GoogleID)
	if findErr != nil {
		return nil, apperr.Unavailable("find book", findErr)
	}
	if existing == nil {
		return nil, apperr.Unavailable("store book", err)
	}
	return existing, nil
}

// List returns the local books, optionally limited to one category.
func (c *Client) List(ctx context.Context, category string) ([]models.Book, error) {
	if c.books == nil {
		return []models.Book{}, nil
	}
	books, err := c.books.ListBooks(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.Unavailable("list books", err)
	}
	return books, nil
}

// Create adds a book to the local collection.
func (c *Client) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if strings.TrimSpace(book.Title) == "" {
		return nil, &apperr.Error{Kind: apperr.InvalidReference, Message: "title is required", Fields: []string{"title"}}
	}
	if book.Price.IsNegative() {
		return nil, &apperr.Error{Kind: apperr.InvalidPrice, Message: "price must not be negative", Fields: []string{"price"}}
	}
	if c.books == nil {
		return nil, apperr.New(apperr.PersistenceUnavailable, "local catalog is not configured")
	}

	created := *book
	if created.Authors == nil {
		created.Authors = []string{}
	}
	if created.Currency == "" {
		created.Currency = "USD"
	}
	created.ObjectID = bson.NilObjectID
	now := c.now()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := c.books.InsertBook(ctx, &created); err != nil {
		if apperr.Is(err, apperr.Conflict) {
			return nil, err
		}
		return nil, apperr.Unavailable("create book", err)
	}
	return &created, nil
}

// Categories lists the distinct categories of the local books.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	if c.books == nil {
		return []string{}, nil
	}
	categories, err := c.books.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list categories", err)
	}
	return categories, nil
}

var errNotFound = errors.New("catalog: not found")

// fetch serves from cache when possible. Cache failures are logged and
// otherwise ignored.
func (c *Client) fetch(ctx context.Context, cacheKey, path string, query url.Values) ([]byte, error) {
	cacheKey = "catalog:" + cacheKey
	if c.cache != nil {
		if cached, found, err := c.cache.Get(ctx, cacheKey); err != nil {
			log.Printf("Warning: catalog cache read failed for %s: %v", cacheKey, err)
		} else if found {
			return cached, nil
		}
	}

	if c.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("key", c.apiKey)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "catalog unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "read catalog response", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.Wrap(apperr.ItemNotFound, "volume not found", errNotFound)
	case resp.StatusCode >= 300:
		return nil, apperr.New(apperr.PersistenceUnavailable, fmt.Sprintf("catalog returned status %d", resp.StatusCode))
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			log.Printf("Warning: Failed to cache catalog response %s: %v", cacheKey, err)
		}
	}
	return body, nil
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type money struct {
	Amount       *float64 `json:"amount"`
	CurrencyCode string   `json:"currencyCode"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Description   string   `json:"description"`
		Publisher     string   `json:"publisher"`
		PublishedDate string   `json:"publishedDate"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		Language      string   `json:"language"`
		ImageLinks    struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
	SaleInfo struct {
		ListPrice   *money `json:"listPrice"`
		RetailPrice *money `json:"retailPrice"`
	} `json:"saleInfo"`
}

// toBook prefers the retail price, then the list price, then zero.
func (v *volume) toBook() models.Book {
	book := models.Book{
		ID:            v.ID,
		GoogleID:      v.ID,
		Title:         v.VolumeInfo.Title,
		Authors:       v.VolumeInfo.Authors,
		Description:   v.VolumeInfo.Description,
		Publisher:     v.VolumeInfo.Publisher,
		PublishedDate: v.VolumeInfo.PublishedDate,
		PageCount:     v.VolumeInfo.PageCount,
		Categories:    v.VolumeInfo.Categories,
		Language:      v.VolumeInfo.Language,
		Thumbnail:     v.VolumeInfo.ImageLinks.Thumbnail,
		Price:         decimal.Zero,
		Currency:      "USD",
	}
	if book.Authors == nil {
		book.Authors = []string{}
	}
	if book.Thumbnail == "" {
		book.Thumbnail = v.VolumeInfo.ImageLinks.SmallThumbnail
	}
	// Upstream thumbnails are often plain http.
	book.Thumbnail = strings.Replace(book.Thumbnail, "http://", "https://", 1)

	for _, m := range []*money{v.SaleInfo.RetailPrice, v.SaleInfo.ListPrice} {
		if m == nil || m.Amount == nil {
			continue
		}
		book.Price = decimal.NewFromFloat(*m.Amount)
		if m.CurrencyCode != "" {
			book.Currency = m.CurrencyCode
		}
		break
	}
	return book
}
