package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/models"
)

func (s *Store) ListBooks(ctx context.Context, category string) ([]models.Book, error) {
	filter := bson.D{}
	if category != "" {
		filter = bson.D{{Key: "categories", Value: category}}
	}

	cursor, err := s.collection(booksCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []models.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	for i := range books {
		books[i].AssignKey()
	}
	return books, nil
}

// FindBook tries the database id first, then the upstream volume id.
func (s *Store) FindBook(ctx context.Context, key string) (*models.Book, error) {
	if id, err := bson.ObjectIDFromHex(key); err == nil {
		book, err := s.findBook(ctx, bson.D{{Key: "_id", Value: id}})
		if book != nil || err != nil {
			return book, err
		}
	}
	return s.findBook(ctx, bson.D{{Key: "google_id", Value: key}})
}

func (s *Store) findBook(ctx context.Context, filter bson.D) (*models.Book, error) {
	var book models.Book
	err := s.collection(booksCollection).FindOne(ctx, filter).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	book.AssignKey()
	return &book, nil
}

func (s *Store) InsertBook(ctx context.Context, book *models.Book) error {
	if book.ObjectID.IsZero() {
		book.ObjectID = bson.NewObjectID()
	}
	if _, err := s.collection(booksCollection).InsertOne(ctx, book); err != nil {
		book.ObjectID = bson.NilObjectID
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Wrap(apperr.Conflict, "book already exists", err)
		}
		return fmt.Errorf("insert book: %w", err)
	}
	book.AssignKey()
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := s.collection(booksCollection).Distinct(ctx, "categories", bson.D{}).Decode(&categories); err != nil {
		return nil, fmt.Errorf("distinct book categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	sort.Strings(categories)
	return categories, nil
}
