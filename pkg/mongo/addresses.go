package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajcoder25/bookverse/pkg/models"
)

func (s *Store) LoadAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	cursor, err := s.collection(addressesCollection).Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find addresses for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	addresses := []models.Address{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("decode addresses for user %s: %w", userID, err)
	}
	return addresses, nil
}

// UpdateAddresses loads the user's addresses, applies mutate and writes the
// returned list back in one snapshot transaction. Addresses missing from the
// result are deleted and those with a zero ID are inserted.
//
// Every call first bumps the user's row in address_versions, so overlapping
// calls for one user write a common document and all but one abort with a
// write conflict.
func (s *Store) UpdateAddresses(ctx context.Context, userID string, mutate func([]models.Address) ([]models.Address, error)) ([]models.Address, error) {
	var result []models.Address
	err := s.inTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.collection(addressVersionsCollection).UpdateOne(txCtx,
			bson.D{{Key: "_id", Value: userID}},
			bson.D{{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("lock addresses for user %s: %w", userID, err)
		}

		existing, err := s.LoadAddresses(txCtx, userID)
		if err != nil {
			return err
		}
		updated, err := mutate(cloneAddresses(existing))
		if err != nil {
			return err
		}
		if err := s.writeAddresses(txCtx, userID, existing, updated); err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) writeAddresses(ctx context.Context, userID string, before, after []models.Address) error {
	collection := s.collection(addressesCollection)

	kept := make(map[bson.ObjectID]bool, len(after))
	for i := range after {
		a := &after[i]
		a.UserID = userID
		if a.ID.IsZero() {
			a.ID = bson.NewObjectID()
			if _, err := collection.InsertOne(ctx, a); err != nil {
				return fmt.Errorf("insert address: %w", err)
			}
			kept[a.ID] = true
			continue
		}
		kept[a.ID] = true
		if prev := findAddress(before, a.ID); prev != nil && *prev == *a {
			continue
		}
		if _, err := collection.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: a.ID}, {Key: "user_id", Value: userID}},
			a,
		); err != nil {
			return fmt.Errorf("replace address %s: %w", a.ID.Hex(), err)
		}
	}

	for _, a := range before {
		if kept[a.ID] {
			continue
		}
		if _, err := collection.DeleteOne(ctx,
			bson.D{{Key: "_id", Value: a.ID}, {Key: "user_id", Value: userID}},
		); err != nil {
			return fmt.Errorf("delete address %s: %w", a.ID.Hex(), err)
		}
	}
	return nil
}

func cloneAddresses(addresses []models.Address) []models.Address {
	return append([]models.Address{}, addresses...)
}

func findAddress(addresses []models.Address, id bson.ObjectID) *models.Address {
	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i]
		}
	}
	return nil
}
