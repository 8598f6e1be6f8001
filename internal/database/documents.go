package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lxrose/internal/models"
)

// insertStamped inserts doc under a fresh id with createdAt taken from the
// server clock. The upsert always inserts because the id is new.
func insertStamped(ctx context.Context, coll *mongo.Collection, doc bson.M) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	_, err := coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$setOnInsert": doc,
			"$currentDate": bson.M{"createdAt": true},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

// parseID converts a hex id; malformed ids cannot match any document.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("id %q: %w", id, models.ErrNotFound)
	}
	return oid, nil
}

// normalizeDocument flattens driver types for JSON and CSV: _id becomes a
// hex "id" and BSON dates become time.Time.
func normalizeDocument(raw bson.M) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "_id" {
			if oid, ok := value.(primitive.ObjectID); ok {
				out["id"] = oid.Hex()
			} else {
				out["id"] = fmt.Sprint(value)
			}
			continue
		}
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.ObjectID:
		return v.Hex()
	case bson.M:
		return normalizeDocument(v)
	case bson.D:
		return normalizeDocument(v.Map())
	case bson.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
