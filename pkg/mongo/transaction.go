package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// inTransaction runs fn in one snapshot transaction and commits it. Any error
// from fn, including a write conflict with a concurrent writer, aborts the
// transaction and is returned without retrying.
func (s *Store) inTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	abort := func() {
		abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = sess.AbortTransaction(abortCtx)
	}

	txCtx := mongo.NewSessionContext(ctx, sess)
	if err := fn(txCtx); err != nil {
		abort()
		return err
	}
	if err := sess.CommitTransaction(txCtx); err != nil {
		abort()
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
