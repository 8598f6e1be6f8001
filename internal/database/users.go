package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lxrose/internal/models"
)

const usersCollection = "users"

type userDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	models.User `bson:",inline"`
}

func (d userDocument) model() models.User {
	u := d.User
	u.ID = d.ID.Hex()
	return u
}

// CreateUser inserts u and returns its id. A taken username or email
// yields models.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u models.User) (string, error) {
	doc := bson.M{
		"username":     u.Username,
		"email":        u.Email,
		"passwordHash": u.PasswordHash,
		"role":         u.EffectiveRole(),
		"mailbox":      bson.A{},
		"sentMessages": bson.A{},
	}

	id, err := insertStamped(ctx, s.db.Collection(usersCollection), doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("user %q: %w", u.Username, models.ErrDuplicate)
	}
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id.Hex(), nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.User{}, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// ListUsers returns the directory projection of every user.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"username": 1, "email": 1, "role": 1}).
		SetSort(bson.D{{Key: "username", Value: 1}})

	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

// PushMailboxCopies appends m to the sender's sentMessages and the
// receiver's mailbox.
func (s *Store) PushMailboxCopies(ctx context.Context, m models.Message) error {
	return s.pushToUsers(ctx, "$push", m.FromUserID, m.ToUserID, m.MailboxCopy())
}

// AppendLegacyMessage adds payload to both users' arrays without a
// messages document. Identical payloads are stored once.
func (s *Store) AppendLegacyMessage(ctx context.Context, fromID, toID string, payload map[string]any) error {
	return s.pushToUsers(ctx, "$addToSet", fromID, toID, payload)
}

// pushToUsers checks both users exist before writing, then fills the
// receiver's mailbox ahead of the sender's sentMessages.
func (s *Store) pushToUsers(ctx context.Context, op, fromID, toID string, entry map[string]any) error {
	fromOID, err := parseID(fromID)
	if err != nil {
		return err
	}
	toOID, err := parseID(toID)
	if err != nil {
		return err
	}

	users := s.db.Collection(usersCollection)
	want := int64(2)
	if fromOID == toOID {
		want = 1
	}
	found, err := users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": bson.A{fromOID, toOID}}})
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if found < want {
		return fmt.Errorf("users %s, %s: %w", fromID, toID, models.ErrNotFound)
	}

	targets := []struct {
		id    primitive.ObjectID
		field string
	}{
		{toOID, "mailbox"},
		{fromOID, "sentMessages"},
	}
	for _, t := range targets {
		res, err := users.UpdateOne(ctx, bson.M{"_id": t.id}, bson.M{op: bson.M{t.field: entry}})
		if err != nil {
			return fmt.Errorf("update %s of %s: %w", t.field, t.id.Hex(), err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("user %s: %w", t.id.Hex(), models.ErrNotFound)
		}
	}
	return nil
}
