package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lxrose/internal/forms"
)

// EnsureIndexes creates every index the store relies on. Each collection is
// attempted even when an earlier one fails.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return errors.Join(
		s.EnsureUserIndexes(ctx),
		s.EnsureMessageIndexes(ctx),
		s.EnsureFormIndexes(ctx),
	)
}

func (s *Store) createIndexes(ctx context.Context, collection string, indexes []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names, err := s.db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		slog.Error("index creation failed", "collection", collection, "error", err)
		return fmt.Errorf("indexes on %s: %w", collection, err)
	}
	slog.Info("indexes ensured", "collection", collection, "indexes", names)
	return nil
}

func (s *Store) EnsureUserIndexes(ctx context.Context) error {
	return s.createIndexes(ctx, usersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
}

func (s *Store) EnsureMessageIndexes(ctx context.Context) error {
	return s.createIndexes(ctx, messagesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("conversation_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "toUserId", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("toUserId_read"),
		},
		{
			Keys:    bson.D{{Key: "fromUserId", Value: 1}},
			Options: options.Index().SetName("fromUserId_index"),
		},
	})
}

func (s *Store) EnsureFormIndexes(ctx context.Context) error {
	var errs []error
	for _, kind := range forms.All {
		errs = append(errs, s.createIndexes(ctx, kind.Collection, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("createdAt_desc"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("status_createdAt"),
			},
		}))
	}
	return errors.Join(errs...)
}
