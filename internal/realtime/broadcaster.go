package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const (
	TypeJoinEvent      = "joinEvent"
	TypeLeaveEvent     = "leaveEvent"
	TypeAttendeeUpdate = "attendeeUpdate"
	TypeJoined         = "joined"
	TypeLeft           = "left"
	TypeError          = "error"
)

// Message is the envelope for everything the server sends.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type AttendeeUpdate struct {
	EventID       string `json:"eventId"`
	AttendeeCount int    `json:"attendeeCount"`
}

type roomAck struct {
	EventID string `json:"eventId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Broadcaster fans attendee count updates out to the room for an event.
// Delivery is best-effort: a connection whose queue is full is dropped.
// Publishes for one event are serialized; different events do not contend.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger

	mu     sync.Mutex
	events map[string]*eventState
}

// eventState is held while publishing. It is only removed from events by a
// holder of its lock, so a publisher that finds it still mapped after
// locking owns the event until it unlocks.
type eventState struct {
	mu   sync.Mutex
	last int
	sent bool
}

func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broadcaster{
		registry: registry,
		logger:   logger,
		events:   make(map[string]*eventState),
	}
	registry.OnRoomEmpty(b.forget)
	return b
}

// lock returns the current state for eventID with its lock held.
func (b *Broadcaster) lock(eventID string, create bool) *eventState {
	for {
		b.mu.Lock()
		st, ok := b.events[eventID]
		if !ok {
			if !create {
				b.mu.Unlock()
				return nil
			}
			st = &eventState{}
			b.events[eventID] = st
		}
		b.mu.Unlock()

		st.mu.Lock()
		b.mu.Lock()
		current := b.events[eventID] == st
		b.mu.Unlock()
		if current {
			return st
		}
		st.mu.Unlock()
	}
}

// dropLocked removes st; the caller holds st.mu.
func (b *Broadcaster) dropLocked(eventID string, st *eventState) {
	b.mu.Lock()
	if b.events[eventID] == st {
		delete(b.events, eventID)
	}
	b.mu.Unlock()
}

// forget discards the ordering state of an event nobody is watching. Later
// members never saw the old counts, so none can observe a regression.
func (b *Broadcaster) forget(eventID string) {
	st := b.lock(eventID, false)
	if st == nil {
		return
	}
	defer st.mu.Unlock()

	if len(b.registry.MembersOf(eventID)) == 0 {
		b.dropLocked(eventID, st)
	}
}

// Tracked reports how many events currently hold ordering state.
func (b *Broadcaster) Tracked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Publish sends the count to every connection in the room at the moment of
// the call. Attendee sets only grow, so a count not above the last one
// published for the event is stale and is dropped.
func (b *Broadcaster) Publish(eventID string, attendeeCount int) {
	data, err := json.Marshal(Message{
		Type: TypeAttendeeUpdate,
		Data: AttendeeUpdate{EventID: eventID, AttendeeCount: attendeeCount},
	})
	if err != nil {
		b.logger.Error("failed to marshal attendee update", "event_id", eventID, "error", err)
		return
	}

	st := b.lock(eventID, true)

	members := b.registry.MembersOf(eventID)
	if len(members) == 0 {
		b.dropLocked(eventID, st)
		st.mu.Unlock()
		return
	}

	if last := st.last; st.sent && attendeeCount <= last {
		st.mu.Unlock()
		b.logger.Debug("stale attendee update dropped",
			"event_id", eventID,
			"count", attendeeCount,
			"last", last,
		)
		return
	}
	st.last, st.sent = attendeeCount, true

	var failed []Conn
	for _, c := range members {
		if !c.Send(data) {
			failed = append(failed, c)
		}
	}
	st.mu.Unlock()

	// OnDisconnect may empty the room and call back into forget.
	for _, c := range failed {
		b.logger.Debug("ws send failed, removing connection", "event_id", eventID, "conn_id", c.ID())
		b.registry.OnDisconnect(c)
		c.Close()
	}

	b.logger.Debug("attendee update published",
		"event_id", eventID,
		"count", attendeeCount,
		"members", len(members),
		"delivered", len(members)-len(failed),
	)
}
