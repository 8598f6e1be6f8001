package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lxrose/internal/models"
)

const messagesCollection = "messages"

type messageDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	models.Message `bson:",inline"`
}

func (d messageDocument) model() models.Message {
	m := d.Message
	m.ID = d.ID.Hex()
	return m
}

// InsertMessage stores an unread message with a server timestamp and
// returns it as persisted.
func (s *Store) InsertMessage(ctx context.Context, fromID, toID, body string) (models.Message, error) {
	coll := s.db.Collection(messagesCollection)
	id, err := insertStamped(ctx, coll, bson.M{
		"fromUserId":     fromID,
		"toUserId":       toID,
		"message":        body,
		"read":           false,
		"conversationId": models.ConversationID(fromID, toID),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	var doc messageDocument
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return models.Message{}, fmt.Errorf("read back message: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) findMessages(ctx context.Context, filter bson.M) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.db.Collection(messagesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	msgs := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, d.model())
	}
	return msgs, nil
}

// MessagesInvolving returns every message sent or received by userID,
// oldest first.
func (s *Store) MessagesInvolving(ctx context.Context, userID string) ([]models.Message, error) {
	return s.findMessages(ctx, bson.M{"$or": bson.A{
		bson.M{"fromUserId": userID},
		bson.M{"toUserId": userID},
	}})
}

func betweenFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"fromUserId": a, "toUserId": b},
		bson.M{"fromUserId": b, "toUserId": a},
	}}
}

// MessagesBetween returns the two-party history in both directions, oldest
// first.
func (s *Store) MessagesBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	return s.findMessages(ctx, betweenFilter(a, b))
}

// MarkMessageRead sets read and readAt once; repeating it is a no-op.
func (s *Store) MarkMessageRead(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	coll := s.db.Collection(messagesCollection)

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "read": bson.M{"$ne": true}},
		bson.M{
			"$set":         bson.M{"read": true},
			"$currentDate": bson.M{"readAt": true},
		},
	)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	err = coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("message %s: %w", id, models.ErrNotFound)
	}
	return err
}

// unreadFromFilter matches messages sent by partnerID to readerID that are
// still unread. The reverse direction is never touched.
func unreadFromFilter(readerID, partnerID string) bson.M {
	return bson.M{
		"fromUserId": partnerID,
		"toUserId":   readerID,
		"read":       false,
	}
}

// MarkConversationRead marks every unread message from partnerID to
// readerID in one transaction and returns how many changed. Servers without
// transaction support get the same single UpdateMany outside a transaction.
func (s *Store) MarkConversationRead(ctx context.Context, readerID, partnerID string) (int64, error) {
	updated, err := s.markConversationReadTx(ctx, readerID, partnerID)
	if transactionsUnsupported(err) {
		slog.Warn("transactions unsupported, marking conversation read without one", "error", err)
		updated, err = s.markConversationRead(ctx, readerID, partnerID)
	}
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return updated, nil
}

func (s *Store) markConversationReadTx(ctx context.Context, readerID, partnerID string) (int64, error) {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	updated, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return s.markConversationRead(sessCtx, readerID, partnerID)
	})
	if err != nil {
		return 0, err
	}
	return updated.(int64), nil
}

func (s *Store) markConversationRead(ctx context.Context, readerID, partnerID string) (int64, error) {
	res, err := s.db.Collection(messagesCollection).UpdateMany(
		ctx,
		unreadFromFilter(readerID, partnerID),
		bson.M{
			"$set":         bson.M{"read": true},
			"$currentDate": bson.M{"readAt": true},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// illegalOperation is the code a standalone mongod returns for commands
// that carry a transaction number.
const illegalOperation = 20

func transactionsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(illegalOperation) {
		return true
	}
	return strings.Contains(err.Error(), "does not support sessions")
}
