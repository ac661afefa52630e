package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeConn struct {
	id     string
	mu     sync.Mutex
	msgs   [][]byte
	full   bool
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) updates(t *testing.T) []AttendeeUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]AttendeeUpdate, 0, len(f.msgs))
	for _, raw := range f.msgs {
		var env struct {
			Type string         `json:"type"`
			Data AttendeeUpdate `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		require.Equal(t, TypeAttendeeUpdate, env.Type)
		out = append(out, env.Data)
	}
	return out
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	r := NewRegistry(discard)
	c := newFakeConn("a")

	assert.True(t, r.Join("e1", c))
	assert.True(t, r.Join("e1", c))

	assert.Len(t, r.MembersOf("e1"), 1)
	assert.Equal(t, Stats{Rooms: 1, Connections: 1}, r.Stats())
}

func TestRegistryLeave(t *testing.T) {
	r := NewRegistry(discard)
	a, b := newFakeConn("a"), newFakeConn("b")

	r.Join("e1", a)
	r.Join("e1", b)
	r.Leave("e1", a)
	r.Leave("e1", a)
	r.Leave("missing", a)

	members := r.MembersOf("e1")
	require.Len(t, members, 1)
	assert.Equal(t, "b", members[0].ID())

	r.Leave("e1", b)
	assert.Empty(t, r.MembersOf("e1"))
	assert.Equal(t, 0, r.Stats().Rooms)
}

func TestRegistryOnDisconnectRemovesAllRooms(t *testing.T) {
	r := NewRegistry(discard)
	a, b := newFakeConn("a"), newFakeConn("b")

	r.Join("e1", a)
	r.Join("e2", a)
	r.Join("e2", b)

	r.OnDisconnect(a)
	r.OnDisconnect(a)

	assert.Empty(t, r.MembersOf("e1"))
	assert.Len(t, r.MembersOf("e2"), 1)
	assert.Equal(t, Stats{Rooms: 1, Connections: 1}, r.Stats())
}

func TestRegistryDoesNotLeakAcrossCycles(t *testing.T) {
	r := NewRegistry(discard)

	for i := 0; i < 1000; i++ {
		c := newFakeConn(fmt.Sprintf("c%d", i))
		r.Register(c)
		r.Join(fmt.Sprintf("e%d", i%7), c)
		r.Join("shared", c)
		r.OnDisconnect(c)
	}

	assert.Equal(t, Stats{}, r.Stats())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(discard)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newFakeConn(fmt.Sprintf("c%d", i))
			for j := 0; j < 20; j++ {
				r.Join("e", c)
				_ = r.MembersOf("e")
				r.Leave("e", c)
			}
			r.Join("e", c)
			if i%2 == 0 {
				r.OnDisconnect(c)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.MembersOf("e"), 25)
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(discard)
	a, idle := newFakeConn("a"), newFakeConn("idle")

	r.Join("e1", a)
	r.Register(idle)
	r.Close()

	assert.True(t, a.isClosed())
	assert.True(t, idle.isClosed())
	assert.False(t, r.Join("e1", newFakeConn("late")))
	assert.False(t, r.Register(newFakeConn("late")))
	assert.Equal(t, Stats{}, r.Stats())

	r.Close()
}

func TestOnRoomEmptyFiresForLastMember(t *testing.T) {
	r := NewRegistry(discard)
	var mu sync.Mutex
	var emptied []string
	r.OnRoomEmpty(func(eventID string) {
		mu.Lock()
		defer mu.Unlock()
		emptied = append(emptied, eventID)
	})

	a, b := newFakeConn("a"), newFakeConn("b")
	r.Join("e1", a)
	r.Join("e1", b)
	r.Join("e2", a)

	r.Leave("e1", a)
	r.Leave("e1", a)
	r.OnDisconnect(a)
	r.Leave("e1", b)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"e2", "e1"}, emptied)
}
