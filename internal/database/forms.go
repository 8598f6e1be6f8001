package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lxrose/internal/forms"
	"lxrose/internal/models"
)

// InsertForm stores one intake record in the kind's collection with its
// default status and a server createdAt.
func (s *Store) InsertForm(ctx context.Context, kind *forms.Kind, doc map[string]any) (string, error) {
	record := bson.M{}
	for k, v := range doc {
		record[k] = v
	}
	record["status"] = kind.DefaultStatus
	delete(record, "createdAt")
	delete(record, "_id")

	id, err := insertStamped(ctx, s.db.Collection(kind.Collection), record)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", kind.Collection, err)
	}
	return id.Hex(), nil
}

// statusFilter matches records in one of statuses. Records without a status
// count as the kind's default.
func statusFilter(kind *forms.Kind, statuses ...string) bson.M {
	values := bson.A{}
	for _, s := range statuses {
		values = append(values, s)
	}
	if slices.Contains(statuses, kind.DefaultStatus) {
		values = append(values, nil)
	}
	return bson.M{"status": bson.M{"$in": values}}
}

func listFilter(kind *forms.Kind, q forms.Query) bson.M {
	if q.Status == "" {
		return bson.M{}
	}
	return statusFilter(kind, q.Status)
}

// ListForms returns matching records newest first.
func (s *Store) ListForms(ctx context.Context, kind *forms.Kind, q forms.Query) ([]forms.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := s.db.Collection(kind.Collection).Find(ctx, listFilter(kind, q), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind.Collection, err)
	}
	defer cursor.Close(ctx)

	records := make([]forms.Record, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind.Collection, err)
		}
		records = append(records, forms.Record(normalizeDocument(raw)))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", kind.Collection, err)
	}
	return records, nil
}

func transitionUpdate(tr forms.Transition, fields map[string]any) bson.M {
	set := bson.M{"status": tr.Target}
	for k, v := range tr.Set {
		set[k] = v
	}
	for k, v := range fields {
		set[k] = v
	}
	return bson.M{
		"$set":         set,
		"$currentDate": bson.M{tr.StampField: true},
	}
}

// transitionAttempts bounds retries when the status changes between the
// conditional update and the follow-up read.
const transitionAttempts = 3

// TransitionForm applies tr to the record with the given id in one update,
// together with fields. It reports changed=false when the record is already
// in tr.Target, models.ErrNotFound for an unknown id and
// models.ErrInvalidTransition for any other current status.
func (s *Store) TransitionForm(ctx context.Context, kind *forms.Kind, id string, tr forms.Transition, fields map[string]any) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	coll := s.db.Collection(kind.Collection)

	filter := statusFilter(kind, tr.From...)
	filter["_id"] = oid

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		res, err := coll.UpdateOne(ctx, filter, transitionUpdate(tr, fields))
		if err != nil {
			return false, fmt.Errorf("update %s: %w", kind.Collection, err)
		}
		if res.MatchedCount == 1 {
			return true, nil
		}

		var current bson.M
		err = coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"status": 1})).Decode(&current)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, fmt.Errorf("%s %s: %w", kind.Collection, id, models.ErrNotFound)
		}
		if err != nil {
			return false, fmt.Errorf("find %s: %w", kind.Collection, err)
		}

		status := kind.StatusOf(forms.Record(current))
		switch {
		case status == tr.Target:
			return false, nil
		case !tr.Permits(status):
			return false, fmt.Errorf("%s %s from %q to %q: %w", kind.Collection, id, status, tr.Target, models.ErrInvalidTransition)
		}
	}
	return false, fmt.Errorf("%s %s: status kept changing: %w", kind.Collection, id, models.ErrInvalidTransition)
}

// dayWindows returns local midnight of now's day and the instant seven days
// before it.
func dayWindows(now time.Time) (today, weekAgo time.Time) {
	y, m, d := now.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today, today.AddDate(0, 0, -7)
}

// FormStats counts a kind's records on the server.
func (s *Store) FormStats(ctx context.Context, kind *forms.Kind, now time.Time) (forms.Stats, error) {
	coll := s.db.Collection(kind.Collection)
	today, weekAgo := dayWindows(now)

	var stats forms.Stats
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, bson.M{}},
		{&stats.Today, bson.M{"createdAt": bson.M{"$gte": today}}},
		{&stats.ThisWeek, bson.M{"createdAt": bson.M{"$gte": weekAgo}}},
		{&stats.Pending, statusFilter(kind, kind.DefaultStatus)},
	}
	for _, c := range counts {
		n, err := coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return forms.Stats{}, fmt.Errorf("count %s: %w", kind.Collection, err)
		}
		*c.dst = n
	}
	return stats, nil
}
