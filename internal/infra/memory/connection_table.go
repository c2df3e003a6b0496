package memory

import (
	"sync"

	"quiz-room-service/internal/app"
)

// ConnectionTable is the in-memory fan-out set: room id -> open connections.
type ConnectionTable struct {
	mu    sync.RWMutex
	rooms map[string]map[app.Conn]struct{}
}

func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{
		rooms: make(map[string]map[app.Conn]struct{}),
	}
}

func (t *ConnectionTable) Add(roomID string, conn app.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns, ok := t.rooms[roomID]
	if !ok {
		conns = make(map[app.Conn]struct{})
		t.rooms[roomID] = conns
	}
	conns[conn] = struct{}{}
}

func (t *ConnectionTable) Remove(roomID string, conn app.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(t.rooms, roomID)
		return true
	}
	return false
}

// ForEach calls fn for every connection of the room while holding the read lock; fn must not
// call back into the table.
func (t *ConnectionTable) ForEach(roomID string, fn func(app.Conn)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for conn := range t.rooms[roomID] {
		fn(conn)
	}
}

func (t *ConnectionTable) Drop(roomID string) []app.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns := t.rooms[roomID]
	delete(t.rooms, roomID)
	out := make([]app.Conn, 0, len(conns))
	for conn := range conns {
		out = append(out, conn)
	}
	return out
}

func (t *ConnectionTable) Count(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[roomID])
}
