package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajcoder25/bookverse/pkg/models"
)

func (s *Store) LoadCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.collection(cartsCollection).FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart for user %s: %w", userID, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	return &cart, nil
}

// SaveCart replaces the user's cart document, inserting it if absent.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	res, err := s.collection(cartsCollection).ReplaceOne(ctx,
		bson.D{{Key: "user_id", Value: cart.UserID}},
		cart,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save cart for user %s: %w", cart.UserID, err)
	}
	if id, ok := res.UpsertedID.(bson.ObjectID); ok {
		cart.ID = id
	}
	return nil
}

// UpdateCart runs load, mutate and save in one snapshot transaction. A write
// conflict with a concurrent writer aborts the transaction and is returned
// to the caller without retrying.
func (s *Store) UpdateCart(ctx context.Context, userID string, mutate func(*models.Cart) error) (*models.Cart, error) {
	var cart *models.Cart
	err := s.inTransaction(ctx, func(txCtx context.Context) error {
		loaded, err := s.LoadCart(txCtx, userID)
		if err != nil {
			return err
		}
		if loaded == nil {
			loaded = models.NewCart(userID)
		}
		if err := mutate(loaded); err != nil {
			return err
		}
		if err := s.SaveCart(txCtx, loaded); err != nil {
			return err
		}
		cart = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}
