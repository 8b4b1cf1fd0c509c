package mongo

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajcoder25/bookverse/pkg/global"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// One cart per user; UpdateCart and SaveCart upsert on it
	{
		CollectionName: cartsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_cart_user_unique"),
		},
	},
	{
		CollectionName: wishlistsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_wishlist_user_unique"),
		},
	},

	// Addresses are listed oldest first for default promotion
	{
		CollectionName: addressesCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_address_user_created"),
		},
	},

	// Orders
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_order_user_history"),
		},
	},
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_order_number_unique"),
		},
	},

	// Volumes fetched upstream are stored once; books created locally have
	// no google_id and are left out of the index
	{
		CollectionName: booksCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_book_google_id_unique"),
		},
	},
	{
		CollectionName: booksCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "categories", Value: 1}, {Key: "title", Value: 1}},
			Options: options.Index().SetName("idx_book_category_title"),
		},
	},

	{
		CollectionName: usersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},
}

// EnsureIndexes creates every required index. Creating an index that already
// exists with the same definition is a no-op on the server.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	log.Println("Starting index creation...")

	for _, idxConfig := range requiredIndexes {
		if err := s.ensureIndex(ctx, idxConfig); err != nil {
			log.Printf("Error creating index on collection %s: %v",
				idxConfig.CollectionName, err)
			return err
		}
	}

	log.Println("All indexes created successfully!")
	return nil
}

func (s *Store) ensureIndex(parent context.Context, idxConfig IndexConfig) error {
	ctx, cancel := global.GetDefaultTimerFrom(parent)
	defer cancel()

	indexName, err := s.collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
	if err != nil {
		return err
	}

	log.Printf("✓ Created index '%s' on collection '%s'", indexName, idxConfig.CollectionName)
	return nil
}
