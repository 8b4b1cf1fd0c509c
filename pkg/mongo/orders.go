package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

// Orders

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = bson.NewObjectID()
	}
	if _, err := s.collection(ordersCollection).InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	cursor, err := s.collection(ordersCollection).Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find orders for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// Wishlists

func (s *Store) LoadWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := s.collection(wishlistsCollection).FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&wishlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wishlist for user %s: %w", userID, err)
	}
	if wishlist.Items == nil {
		wishlist.Items = []models.WishlistItem{}
	}
	return &wishlist, nil
}

func (s *Store) SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	res, err := s.collection(wishlistsCollection).ReplaceOne(ctx,
		bson.D{{Key: "user_id", Value: wishlist.UserID}},
		wishlist,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save wishlist for user %s: %w", wishlist.UserID, err)
	}
	if id, ok := res.UpsertedID.(bson.ObjectID); ok {
		wishlist.ID = id
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, err := s.collection(usersCollection).InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.Conflict, "email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.collection(usersCollection).FindOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
