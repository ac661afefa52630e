package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventsColName = "events"
	UsersColName  = "users"
)

type Event struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title" validate:"required,max=200"`
	Description string               `bson:"description" json:"description" validate:"required"`
	Location    string               `bson:"location" json:"location" validate:"required"`
	Category    string               `bson:"category" json:"category" validate:"required,max=64"`
	ScheduledAt time.Time            `bson:"scheduled_at" json:"scheduledAt" validate:"required"`
	ImageURL    string               `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	CreatorID   primitive.ObjectID   `bson:"creator_id" json:"creatorId" validate:"required"`
	AttendeeIDs []primitive.ObjectID `bson:"attendee_ids" json:"attendeeIds"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
}

// CreatorSummary is the part of a user exposed next to the events they created.
type CreatorSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
}

// EventWithCreator is an Event with its creator resolved for listing.
type EventWithCreator struct {
	Event   `bson:",inline"`
	Creator *CreatorSummary `bson:"creator,omitempty" json:"creator,omitempty"`
}

// EventFilter narrows FindEvents. Zero values mean "no constraint"; From and
// To are inclusive.
type EventFilter struct {
	Category string
	From     time.Time
	To       time.Time
}

func (e *Event) BeforeCreate() error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.AttendeeIDs == nil {
		e.AttendeeIDs = []primitive.ObjectID{}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (e *Event) AttendeeCount() int {
	return len(e.AttendeeIDs)
}
