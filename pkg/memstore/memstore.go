// Package memstore is an in-process implementation of every store interface
// the services consume. It backs STORE_BACKEND=memory and the test suites.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

// Store is safe for concurrent use via an internal RWMutex. UpdateCart and
// UpdateAddresses hold the write lock across load, mutate and save, which
// gives them the same all-or-nothing behaviour as a database transaction.
type Store struct {
	mu        sync.RWMutex
	carts     map[string]*models.Cart
	addresses map[bson.ObjectID]*models.Address
	orders    []*models.Order
	wishlists map[string]*models.Wishlist
	users     map[string]*models.User // keyed by lowercase email
	books     map[bson.ObjectID]*models.Book
}

func New() *Store {
	return &Store{
		carts:     make(map[string]*models.Cart),
		addresses: make(map[bson.ObjectID]*models.Address),
		wishlists: make(map[string]*models.Wishlist),
		users:     make(map[string]*models.User),
		books:     make(map[bson.ObjectID]*models.Book),
	}
}

// Carts

func (s *Store) LoadCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[userID].Clone(), nil
}

func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCartLocked(cart)
	return nil
}

func (s *Store) UpdateCart(ctx context.Context, userID string, mutate func(*models.Cart) error) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.carts[userID].Clone()
	if working == nil {
		working = models.NewCart(userID)
	}
	if err := mutate(working); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.saveCartLocked(working)
	return working.Clone(), nil
}

func (s *Store) saveCartLocked(cart *models.Cart) {
	stored := cart.Clone()
	if stored.ID.IsZero() {
		if existing, ok := s.carts[cart.UserID]; ok {
			stored.ID = existing.ID
		} else {
			stored.ID = bson.NewObjectID()
		}
		cart.ID = stored.ID
	}
	s.carts[cart.UserID] = stored
}

// Addresses

func (s *Store) LoadAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addressesLocked(userID), nil
}

func (s *Store) addressesLocked(userID string) []models.Address {
	out := []models.Address{}
	for _, a := range s.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

// UpdateAddresses holds the write lock across load, mutate and write, so
// calls for one user are serialized and a failed mutate writes nothing.
func (s *Store) UpdateAddresses(ctx context.Context, userID string, mutate func([]models.Address) ([]models.Address, error)) ([]models.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.addressesLocked(userID)
	updated, err := mutate(append([]models.Address{}, existing...))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, a := range existing {
		delete(s.addresses, a.ID)
	}
	for i := range updated {
		a := &updated[i]
		a.UserID = userID
		if a.ID.IsZero() {
			a.ID = bson.NewObjectID()
		}
		stored := *a
		s.addresses[a.ID] = &stored
	}
	return append([]models.Address{}, updated...), nil
}

// Orders

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = bson.NewObjectID()
	}
	stored := *order
	stored.Items = append([]models.OrderLine(nil), order.Items...)
	s.orders = append(s.orders, &stored)
	return nil
}

func (s *Store) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, *s.orders[i])
		}
	}
	return out, nil
}

// Wishlists

func (s *Store) LoadWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishlists[userID].Clone(), nil
}

func (s *Store) SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if wishlist.ID.IsZero() {
		wishlist.ID = bson.NewObjectID()
	}
	s.wishlists[wishlist.UserID] = wishlist.Clone()
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.users[email]; exists {
		return apperr.New(apperr.Conflict, "email already registered")
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	stored := *user
	s.users[email] = &stored
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// Books

func (s *Store) ListBooks(ctx context.Context, category string) ([]models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Book{}
	for _, b := range s.books {
		if category == "" || slices.Contains(b.Categories, category) {
			out = append(out, cloneBook(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) FindBook(ctx context.Context, key string) (*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, err := bson.ObjectIDFromHex(key); err == nil {
		if b, ok := s.books[id]; ok {
			out := cloneBook(b)
			return &out, nil
		}
	}
	if b := s.bookByGoogleIDLocked(key); b != nil {
		out := cloneBook(b)
		return &out, nil
	}
	return nil, nil
}

func (s *Store) InsertBook(ctx context.Context, book *models.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.GoogleID != "" && s.bookByGoogleIDLocked(book.GoogleID) != nil {
		return apperr.New(apperr.Conflict, "book already exists")
	}
	if book.ObjectID.IsZero() {
		book.ObjectID = bson.NewObjectID()
	}
	book.AssignKey()
	stored := cloneBook(book)
	s.books[book.ObjectID] = &stored
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for _, b := range s.books {
		for _, c := range b.Categories {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) bookByGoogleIDLocked(googleID string) *models.Book {
	if googleID == "" {
		return nil
	}
	for _, b := range s.books {
		if b.GoogleID == googleID {
			return b
		}
	}
	return nil
}

func cloneBook(b *models.Book) models.Book {
	out := *b
	out.Authors = slices.Clone(b.Authors)
	out.Categories = slices.Clone(b.Categories)
	return out
}

// Ping always succeeds; it lets the health check treat both backends alike.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
