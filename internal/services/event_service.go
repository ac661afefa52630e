package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultUploadTimeout = 30 * time.Second

// Publisher is notified after an attendance change has been stored.
type Publisher interface {
	Publish(eventID string, attendeeCount int)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, filename, folder string) (string, error)
}

type EventService struct {
	eventRepo     models.EventRepo
	publisher     Publisher
	uploader      ImageUploader
	uploadTimeout time.Duration
}

func NewEventService(eventRepo models.EventRepo, publisher Publisher, uploader ImageUploader) *EventService {
	return &EventService{
		eventRepo:     eventRepo,
		publisher:     publisher,
		uploader:      uploader,
		uploadTimeout: defaultUploadTimeout,
	}
}

type AttendResult struct {
	Event         *models.Event `json:"event"`
	AttendeeCount int           `json:"attendeeCount"`
}

// Attend records userID as attending eventID. Repeating the call is a
// no-op that still reports the current count; only a call that changed the
// attendee set publishes an update, and only after the store acknowledged it.
func (es *EventService) Attend(ctx context.Context, eventID, userID string) (*AttendResult, error) {
	uid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("attend: %w", models.ErrUnauthorized)
	}

	eventID = helpers.StringTrim(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("attend: event id: %w", models.ErrNotFound)
	}

	event, added, err := es.eventRepo.AddAttendeeIfAbsent(ctx, eventID, uid)
	if err != nil {
		return nil, fmt.Errorf("attend event %s: %w", eventID, err)
	}

	count := event.AttendeeCount()
	if added && es.publisher != nil {
		es.publisher.Publish(event.ID.Hex(), count)
	}

	return &AttendResult{Event: event, AttendeeCount: count}, nil
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	ScheduledAt time.Time
	Image       io.Reader
	ImageName   string
}

func (es *EventService) CreateEvent(ctx context.Context, input CreateEventInput, creatorID string) (*models.Event, error) {
	creator, err := primitive.ObjectIDFromHex(strings.TrimSpace(creatorID))
	if err != nil {
		return nil, fmt.Errorf("create event: %w", models.ErrUnauthorized)
	}

	event := &models.Event{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		ScheduledAt: input.ScheduledAt.UTC(),
		CreatorID:   creator,
	}
	if err := models.Validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: invalid event data provided: %v", models.ErrValidation, err)
	}

	if input.Image != nil {
		url, err := es.uploadImage(ctx, input.Image, input.ImageName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrUpload, err)
		}
		event.ImageURL = url
	}

	created, err := es.eventRepo.CreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (es *EventService) uploadImage(ctx context.Context, file io.Reader, filename string) (string, error) {
	if es.uploader == nil {
		return "", helpers.ErrUploadDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, es.uploadTimeout)
	defer cancel()

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)

	go func() {
		url, err := es.uploader.UploadImage(ctx, file, filename, helpers.EventsFolder)
		done <- result{url: url, err: err}
	}()

	select {
	case res := <-done:
		return res.url, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("image upload timeout: %w", ctx.Err())
	}
}

func (es *EventService) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.EventWithCreator, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: endDate is before startDate", models.ErrValidation)
	}
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))

	return es.eventRepo.FindEvents(ctx, filter)
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	id = helpers.StringTrim(id)
	if id == "" {
		return nil, fmt.Errorf("event id: %w", models.ErrNotFound)
	}
	return es.eventRepo.FindEventByID(ctx, id)
}
