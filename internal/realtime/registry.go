package realtime

import (
	"log/slog"
	"sync"
)

// Conn is a live subscriber connection. Send must not block: it reports
// false when the message could not be queued.
type Conn interface {
	ID() string
	Send(msg []byte) bool
	Close()
}

// Registry tracks which live connections are watching which events.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{} // eventID -> connections
	conns  map[Conn]map[string]struct{} // connection -> eventIDs
	closed bool
	logger *slog.Logger

	onEmpty func(eventID string)
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]map[Conn]struct{}),
		conns:  make(map[Conn]map[string]struct{}),
		logger: logger,
	}
}

// OnRoomEmpty sets a callback run, outside the registry lock, each time the
// last member leaves a room.
func (r *Registry) OnRoomEmpty(fn func(eventID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEmpty = fn
}

func (r *Registry) notifyEmpty(onEmpty func(string), emptied []string) {
	if onEmpty == nil {
		return
	}
	for _, eventID := range emptied {
		onEmpty(eventID)
	}
}

// Register records a connection that has no rooms yet so Close can reach it.
func (r *Registry) Register(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	if r.conns[c] == nil {
		r.conns[c] = make(map[string]struct{})
	}
	return true
}

// Join adds c to the room for eventID. Joining twice is a no-op.
func (r *Registry) Join(eventID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	if r.rooms[eventID] == nil {
		r.rooms[eventID] = make(map[Conn]struct{})
	}
	r.rooms[eventID][c] = struct{}{}

	if r.conns[c] == nil {
		r.conns[c] = make(map[string]struct{})
	}
	r.conns[c][eventID] = struct{}{}

	r.logger.Debug("room joined", "event_id", eventID, "conn_id", c.ID())
	return true
}

func (r *Registry) Leave(eventID string, c Conn) {
	r.mu.Lock()
	emptied := r.removeLocked(eventID, c)
	if rooms := r.conns[c]; rooms != nil {
		delete(rooms, eventID)
	}
	onEmpty := r.onEmpty
	r.mu.Unlock()

	if emptied {
		r.notifyEmpty(onEmpty, []string{eventID})
	}
}

// OnDisconnect drops c from every room it joined and forgets it.
func (r *Registry) OnDisconnect(c Conn) {
	r.mu.Lock()
	rooms, ok := r.conns[c]
	if !ok {
		r.mu.Unlock()
		return
	}
	var emptied []string
	for eventID := range rooms {
		if r.removeLocked(eventID, c) {
			emptied = append(emptied, eventID)
		}
	}
	delete(r.conns, c)
	onEmpty := r.onEmpty
	r.mu.Unlock()

	r.logger.Debug("connection removed", "conn_id", c.ID(), "rooms", len(rooms))
	r.notifyEmpty(onEmpty, emptied)
}

// removeLocked reports whether the room was deleted because c was its last
// member.
func (r *Registry) removeLocked(eventID string, c Conn) bool {
	members := r.rooms[eventID]
	if members == nil {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, eventID)
		return true
	}
	return false
}

// MembersOf returns a snapshot of the room for eventID.
func (r *Registry) MembersOf(eventID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[eventID]
	out := make([]Conn, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{Rooms: len(r.rooms), Connections: len(r.conns)}
}

// Close closes every known connection and refuses further joins.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	conns := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.rooms = make(map[string]map[Conn]struct{})
	r.conns = make(map[Conn]map[string]struct{})
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	r.logger.Info("realtime registry closed", "connections", len(conns))
}
