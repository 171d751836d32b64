package room

import (
	"sync"
	"time"
)

// Room holds the full mutable state for a single game instance.
//
// Two writers touch a room: asynchronous command handlers (join, ready,
// movement intent) and the tick scheduler. Both serialize on mu — command
// handlers through the mutating methods below, the scheduler through Update.
type Room struct {
	mu sync.RWMutex

	ID        string
	State     State
	Players   map[string]*Player
	Platforms []Platform
	Pickups   []Pickup

	// ScrollOffset and GameSpeed never move backward once a round is
	// playing.
	ScrollOffset float64
	GameSpeed    float64

	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		State:     StateLobby,
		Players:   make(map[string]*Player),
		GameSpeed: BaseSpeed,
		CreatedAt: time.Now(),
	}
}

// Update runs fn while holding the room's write lock. The tick scheduler
// owns the room for the duration of fn; fn must not call the locking
// methods on the same room.
func (r *Room) Update(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// AddPlayer adds a player if membership is below the cap. Duplicate
// session keys are rejected.
func (r *Room) AddPlayer(sessionKey, name string, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Players) >= MaxPlayers {
		return false
	}
	if _, exists := r.Players[sessionKey]; exists {
		return false
	}
	p := NewPlayer(sessionKey, name)
	p.Ready = ready
	r.Players[sessionKey] = p
	return true
}

// RemovePlayer removes a player. Returns true if the player was in the room.
func (r *Room) RemovePlayer(sessionKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Players[sessionKey]; !ok {
		return false
	}
	delete(r.Players, sessionKey)
	return true
}

func (r *Room) HasPlayer(sessionKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.Players[sessionKey]
	return ok
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players)
}

func (r *Room) CurrentState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// ToggleReady flips the player's ready flag. Returns false if the player
// is not in the room.
func (r *Room) ToggleReady(sessionKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[sessionKey]
	if !ok {
		return false
	}
	p.Ready = !p.Ready
	return true
}

// AllReady reports whether the room is non-empty and every member is ready.
func (r *Room) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// SetMovement applies movement intent. Only keys present in the payload
// are applied, so a nil pointer leaves that flag untouched. Ignored
// unless the room is playing and the player is alive.
func (r *Room) SetMovement(sessionKey string, left, right *bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != StatePlaying {
		return false
	}
	p, ok := r.Players[sessionKey]
	if !ok || p.Dead {
		return false
	}
	if left != nil {
		p.MovingLeft = *left
	}
	if right != nil {
		p.MovingRight = *right
	}
	return true
}

// StartRound transitions LOBBY → PLAYING: resets scroll and speed, reseeds
// the platform stream with a single safe centered platform, clears pickups,
// and respawns every player. No-op outside LOBBY.
func (r *Room) StartRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != StateLobby {
		return false
	}
	r.ScrollOffset = 0
	r.GameSpeed = RoundStartSpeed
	r.Platforms = r.Platforms[:0]
	r.Platforms = append(r.Platforms, Platform{
		X:     SeedPlatformX,
		Y:     SeedPlatformY,
		Width: SeedPlatformWidth,
		Type:  PlatformNormal,
	})
	r.Pickups = nil
	for _, p := range r.Players {
		p.ResetForRound()
	}
	now := time.Now()
	r.StartedAt = &now
	r.EndedAt = nil
	r.State = StatePlaying
	return true
}

// Snapshot is the serializable view broadcast to room subscribers.
type Snapshot struct {
	ID           string            `json:"room_id"`
	State        string            `json:"state"`
	ScrollOffset float64           `json:"scroll_offset"`
	GameSpeed    float64           `json:"game_speed"`
	Players      map[string]Player `json:"players"`
	Platforms    []Platform        `json:"platforms"`
	Pickups      []Pickup          `json:"pickups"`
}

// Snapshot copies the room state under the read lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make(map[string]Player, len(r.Players))
	for k, p := range r.Players {
		players[k] = *p
	}
	snap := Snapshot{
		ID:           r.ID,
		State:        r.State.String(),
		ScrollOffset: r.ScrollOffset,
		GameSpeed:    r.GameSpeed,
		Players:      players,
		Platforms:    make([]Platform, len(r.Platforms)),
		Pickups:      make([]Pickup, len(r.Pickups)),
	}
	copy(snap.Platforms, r.Platforms)
	copy(snap.Pickups, r.Pickups)
	return snap
}

// Results returns name and final floor for every player still in the room,
// for end-of-round recording.
type Result struct {
	Name  string
	Floor int
}

func (r *Room) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Result, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, Result{Name: p.Name, Floor: p.Floor})
	}
	return out
}
