package services

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/krishna100204/EventApp/internal/models"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	args := m.Called(ctx, event)
	if fn, ok := args.Get(0).(func(context.Context, *models.Event) *models.Event); ok {
		return fn(ctx, event), args.Error(1)
	}
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *mockEventRepo) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func (m *mockEventRepo) FindEvents(ctx context.Context, filter models.EventFilter) ([]*models.EventWithCreator, error) {
	args := m.Called(ctx, filter)
	evs, _ := args.Get(0).([]*models.EventWithCreator)
	return evs, args.Error(1)
}

func (m *mockEventRepo) AddAttendeeIfAbsent(ctx context.Context, eventID string, userID primitive.ObjectID) (*models.Event, bool, error) {
	args := m.Called(ctx, eventID, userID)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Bool(1), args.Error(2)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(eventID string, attendeeCount int) {
	m.Called(eventID, attendeeCount)
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) UploadImage(ctx context.Context, file io.Reader, filename, folder string) (string, error) {
	args := m.Called(ctx, file, filename, folder)
	return args.String(0), args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// memEventRepo applies the same conditional-add contract as the Mongo repo,
// serialised by a mutex, so concurrency properties can be exercised.
type memEventRepo struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

func newMemEventRepo(events ...*models.Event) *memEventRepo {
	r := &memEventRepo{events: make(map[string]*models.Event)}
	for _, ev := range events {
		r.events[ev.ID.Hex()] = ev
	}
	return r
}

func (r *memEventRepo) CreateEvent(_ context.Context, event *models.Event) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = event.BeforeCreate()
	r.events[event.ID.Hex()] = event
	return event, nil
}

func (r *memEventRepo) FindEventByID(_ context.Context, id string) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *ev
	cp.AttendeeIDs = append([]primitive.ObjectID(nil), ev.AttendeeIDs...)
	return &cp, nil
}

func (r *memEventRepo) FindEvents(context.Context, models.EventFilter) ([]*models.EventWithCreator, error) {
	return nil, nil
}

func (r *memEventRepo) AddAttendeeIfAbsent(_ context.Context, eventID string, userID primitive.ObjectID) (*models.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[eventID]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	added := false
	if !slices.Contains(ev.AttendeeIDs, userID) {
		ev.AttendeeIDs = append(ev.AttendeeIDs, userID)
		added = true
	}
	cp := *ev
	cp.AttendeeIDs = append([]primitive.ObjectID(nil), ev.AttendeeIDs...)
	return &cp, added, nil
}

// recordingPublisher keeps every publish in call order.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []publishCall
}

type publishCall struct {
	EventID string
	Count   int
}

func (p *recordingPublisher) Publish(eventID string, attendeeCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publishCall{EventID: eventID, Count: attendeeCount})
}

func (p *recordingPublisher) Calls() []publishCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishCall(nil), p.calls...)
}
