package room

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager handles room lifecycle — creation, lookup, membership, cleanup.
// Its lock guards only the registry map; per-room mutation serializes on
// the room's own lock, so unrelated rooms never contend.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// Create mints a fresh room under a short human-typeable code.
func (m *Manager) Create() *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	var id string
	for {
		id = newRoomCode()
		if _, taken := m.rooms[id]; !taken {
			break
		}
	}
	r := NewRoom(id)
	m.rooms[id] = r
	return r
}

func newRoomCode() string {
	return strings.ToUpper(uuid.New().String()[:6])
}

func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Join adds the player to the named room. Returns nil if the room does not
// exist or is full; membership is untouched on failure.
func (m *Manager) Join(id, sessionKey, name string) *Room {
	r, ok := m.Get(id)
	if !ok {
		return nil
	}
	if !r.AddPlayer(sessionKey, name, false) {
		return nil
	}
	return r
}

// Remove deletes the room from the registry. A removed room is no longer
// visible to the tick scheduler.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// FindBySession scans active rooms for the one containing the session key.
// Linear over rooms × players; fine at tens of rooms with ≤4 players each.
func (m *Manager) FindBySession(sessionKey string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		if r.HasPlayer(sessionKey) {
			return r
		}
	}
	return nil
}

func (m *Manager) ListByState(state State) []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Room
	for _, r := range m.rooms {
		if r.CurrentState() == state {
			out = append(out, r)
		}
	}
	return out
}

func (m *Manager) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
