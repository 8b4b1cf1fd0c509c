package mongo

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	cartsCollection           = "carts"
	addressesCollection       = "addresses"
	addressVersionsCollection = "address_versions"
	ordersCollection          = "orders"
	wishlistsCollection       = "wishlists"
	usersCollection           = "users"
	booksCollection           = "books"
)

// Store is the MongoDB implementation of the cart, address, order, wishlist,
// user and book stores. One Store shares a single client and its pool.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates the client and verifies the connection with a ping.
func Connect(ctx context.Context, uri, databaseName string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetRegistry(newRegistry())
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("Connected to MongoDB successfully")
	return &Store{client: client, db: client.Database(databaseName)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}
