package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/models"
)

type Store interface {
	// LoadWishlist returns nil and no error when the user has none.
	LoadWishlist(ctx context.Context, userID string) (*models.Wishlist, error)
	SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error
}

type Service struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:   store,
		timeout: cart.DefaultTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.load(ctx, userID)
}

// Add records ref once; adding an item already present is a no-op.
func (s *Service) Add(ctx context.Context, userID string, ref cart.ItemRef, title string) (*models.Wishlist, error) {
	key, ok := cart.Normalize(ref)
	if !ok {
		return nil, apperr.New(apperr.InvalidReference, "item reference does not resolve to an id")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.Contains(key) {
		return w, nil
	}
	w.Items = append(w.Items, models.WishlistItem{ItemKey: key, Title: strings.TrimSpace(title), AddedAt: s.now()})
	if err := s.store.SaveWishlist(ctx, w); err != nil {
		return nil, apperr.Unavailable("save wishlist", err)
	}
	return w, nil
}

func (s *Service) Remove(ctx context.Context, userID string, ref cart.ItemRef) (*models.Wishlist, error) {
	key, ok := cart.Normalize(ref)
	if !ok {
		return nil, apperr.New(apperr.InvalidReference, "item reference does not resolve to an id")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := w.Items[:0]
	for _, item := range w.Items {
		if item.ItemKey != key {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(w.Items) {
		return nil, apperr.New(apperr.ItemNotFound, "item "+key+" is not in the wishlist")
	}
	w.Items = kept
	if err := s.store.SaveWishlist(ctx, w); err != nil {
		return nil, apperr.Unavailable("save wishlist", err)
	}
	return w, nil
}

func (s *Service) load(ctx context.Context, userID string) (*models.Wishlist, error) {
	w, err := s.store.LoadWishlist(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load wishlist", err)
	}
	if w == nil {
		w = &models.Wishlist{UserID: userID, Items: []models.WishlistItem{}}
	}
	return w, nil
}
