package address

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

// Store persists addresses. LoadAddresses need not be ordered.
type Store interface {
	LoadAddresses(ctx context.Context, userID string) ([]models.Address, error)
	// UpdateAddresses loads the user's addresses, applies mutate and writes
	// the returned list as one unit: addresses absent from it are deleted and
	// those with a zero ID are inserted. Nothing is written if mutate fails
	// or the write cannot complete.
	UpdateAddresses(ctx context.Context, userID string, mutate func([]models.Address) ([]models.Address, error)) ([]models.Address, error)
}

// Enforcer keeps exactly one default address per user whenever the user has
// any addresses. Every change to the flags goes through a single
// UpdateAddresses call, so readers never observe zero or two defaults.
type Enforcer struct {
	store    Store
	validate *validator.Validate
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*Enforcer)

func WithTimeout(d time.Duration) Option {
	return func(e *Enforcer) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		e.now = now
	}
}

func NewEnforcer(store Store, opts ...Option) *Enforcer {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	e := &Enforcer{
		store:    store,
		validate: v,
		timeout:  10 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List returns the user's addresses, oldest first.
func (e *Enforcer) List(ctx context.Context, userID string) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.load(ctx, userID)
}

// Default returns the user's default address.
func (e *Enforcer) Default(ctx context.Context, userID string) (*models.Address, error) {
	addresses, err := e.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i], nil
		}
	}
	return nil, apperr.New(apperr.AddressNotFound, "no default address")
}

// Find returns one of the user's addresses by id.
func (e *Enforcer) Find(ctx context.Context, userID string, id bson.ObjectID) (*models.Address, error) {
	addresses, err := e.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := indexOf(addresses, id); i >= 0 {
		return &addresses[i], nil
	}
	return nil, apperr.New(apperr.AddressNotFound, "address not found")
}

// Create adds an address. The first address is always default. An address
// matching an existing one is not stored again; the list is returned as is.
func (e *Enforcer) Create(ctx context.Context, userID string, in *models.Address) ([]models.Address, error) {
	candidate := *in
	candidate.Trim()
	if err := e.check(&candidate); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.update(ctx, userID, "save address", func(existing []models.Address) ([]models.Address, error) {
		for i := range existing {
			if existing[i].SameLocation(&candidate) {
				return existing, nil
			}
		}

		now := e.now()
		created := candidate
		created.ID = bson.NilObjectID
		created.UserID = userID
		created.IsDefault = candidate.IsDefault || len(existing) == 0
		created.CreatedAt = now
		created.UpdatedAt = now
		if created.IsDefault {
			clearDefaults(existing, bson.NilObjectID, now)
		}
		return append(existing, created), nil
	})
}

// Update replaces the fields of an address. Setting it as default clears the
// flag on every other address in the same write. Unsetting the flag on the
// current default is ignored, since the user would otherwise be left without
// one.
func (e *Enforcer) Update(ctx context.Context, userID string, id bson.ObjectID, in *models.Address) ([]models.Address, error) {
	candidate := *in
	candidate.Trim()
	if err := e.check(&candidate); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.update(ctx, userID, "save address", func(existing []models.Address) ([]models.Address, error) {
		i := indexOf(existing, id)
		if i < 0 {
			return nil, apperr.New(apperr.AddressNotFound, "address not found")
		}

		now := e.now()
		target := &existing[i]
		if candidate.IsDefault && !target.IsDefault {
			clearDefaults(existing, id, now)
			target.IsDefault = true
		}
		target.Street = candidate.Street
		target.City = candidate.City
		target.State = candidate.State
		target.PostalCode = candidate.PostalCode
		target.Country = candidate.Country
		target.UpdatedAt = now
		return existing, nil
	})
}

// Delete removes an address. If it was the default, the oldest remaining
// address becomes the default in the same write.
func (e *Enforcer) Delete(ctx context.Context, userID string, id bson.ObjectID) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.update(ctx, userID, "delete address", func(existing []models.Address) ([]models.Address, error) {
		i := indexOf(existing, id)
		if i < 0 {
			return nil, apperr.New(apperr.AddressNotFound, "address not found")
		}
		wasDefault := existing[i].IsDefault

		remaining := append(existing[:i:i], existing[i+1:]...)
		if wasDefault && len(remaining) > 0 {
			// remaining is oldest first
			remaining[0].IsDefault = true
			remaining[0].UpdatedAt = e.now()
		}
		return remaining, nil
	})
}

// update hands mutate the user's addresses oldest first and returns the
// stored result in the same order.
func (e *Enforcer) update(ctx context.Context, userID, op string, mutate func([]models.Address) ([]models.Address, error)) ([]models.Address, error) {
	addresses, err := e.store.UpdateAddresses(ctx, userID, func(existing []models.Address) ([]models.Address, error) {
		sortOldestFirst(existing)
		return mutate(existing)
	})
	if err != nil {
		return nil, apperr.Unavailable(op, err)
	}
	sortOldestFirst(addresses)
	return addresses, nil
}

func clearDefaults(addresses []models.Address, keep bson.ObjectID, now time.Time) {
	for i := range addresses {
		if addresses[i].IsDefault && addresses[i].ID != keep {
			addresses[i].IsDefault = false
			addresses[i].UpdatedAt = now
		}
	}
}

func (e *Enforcer) load(ctx context.Context, userID string) ([]models.Address, error) {
	addresses, err := e.store.LoadAddresses(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("load addresses", err)
	}
	sortOldestFirst(addresses)
	return addresses, nil
}

func (e *Enforcer) check(a *models.Address) error {
	err := e.validate.Struct(a)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.AddressValidationFailed, "invalid address", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &apperr.Error{
		Kind:    apperr.AddressValidationFailed,
		Message: "missing required address fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// sortOldestFirst orders by creation time, then by id so ties are stable.
func sortOldestFirst(addresses []models.Address) {
	sort.SliceStable(addresses, func(i, j int) bool {
		if !addresses[i].CreatedAt.Equal(addresses[j].CreatedAt) {
			return addresses[i].CreatedAt.Before(addresses[j].CreatedAt)
		}
		return addresses[i].ID.Hex() < addresses[j].ID.Hex()
	})
}

func indexOf(addresses []models.Address, id bson.ObjectID) int {
	for i := range addresses {
		if addresses[i].ID == id {
			return i
		}
	}
	return -1
}
