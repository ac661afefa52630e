package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	FindEventByID(ctx context.Context, id string) (*Event, error)
	FindEvents(ctx context.Context, filter EventFilter) ([]*EventWithCreator, error)
	// AddAttendeeIfAbsent adds userID to the event's attendee set in a single
	// conditional update. added reports whether this call changed the set.
	AddAttendeeIfAbsent(ctx context.Context, eventID string, userID primitive.ObjectID) (event *Event, added bool, err error)
}

func (mdb *MongodbRepo) ensureEventIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("scheduled_at_1"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "scheduled_at", Value: 1},
			},
			Options: options.Index().SetName("category_scheduled_at"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return classifyMongoErr("create event indexes", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := event.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare event for creation: %w", err)
	}
	if err := Validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, classifyMongoErr("insert event", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) FindEventByID(ctx context.Context, id string) (*Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}

	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var event Event
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
		return nil, classifyMongoErr("find event", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) FindEvents(ctx context.Context, filter EventFilter) ([]*EventWithCreator, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: eventMatch(filter)}},
		{{Key: "$sort", Value: bson.D{{Key: "scheduled_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersColName},
			{Key: "localField", Value: "creator_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{{Key: "username", Value: 1}}}},
			}},
			{Key: "as", Value: "creator"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$creator"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classifyMongoErr("find events", err)
	}
	defer cursor.Close(ctx)

	events := make([]*EventWithCreator, 0)
	for cursor.Next(ctx) {
		var ev EventWithCreator
		if err := cursor.Decode(&ev); err != nil {
			return nil, fmt.Errorf("error decoding event: %v", err)
		}
		events = append(events, &ev)
	}
	if err := cursor.Err(); err != nil {
		return nil, classifyMongoErr("iterate events", err)
	}

	return events, nil
}

func eventMatch(filter EventFilter) bson.M {
	match := bson.M{}
	if filter.Category != "" {
		match["category"] = filter.Category
	}

	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		match["scheduled_at"] = dateRange
	}
	return match
}

func (mdb *MongodbRepo) AddAttendeeIfAbsent(ctx context.Context, eventID string, userID primitive.ObjectID) (*Event, bool, error) {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, false, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}

	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, false, fmt.Errorf("error getting collection: %v", err)
	}

	// The $ne guard makes the match itself the membership check, so the
	// read-check-write happens inside one document update.
	filter := bson.M{
		"_id":          oid,
		"attendee_ids": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$addToSet": bson.M{"attendee_ids": userID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event Event
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event)
	if err == nil {
		return &event, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, classifyMongoErr("add attendee", err)
	}

	// No match: either the event is missing or the user already attends.
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
		return nil, false, classifyMongoErr("find event", err)
	}
	return &event, false, nil
}
