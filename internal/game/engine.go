package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stairfall/stairfall/internal/room"
	"github.com/stairfall/stairfall/internal/server"
)

// EndCallback runs once per round end, after the PLAYING → ENDED
// transition. Persistence inside it is fire-and-forget from the
// simulation's perspective.
type EndCallback func(r *room.Room)

// Engine drives the fixed-rate simulation over all playing rooms and
// handles inbound player commands from the hub.
type Engine struct {
	rooms   *room.Manager
	hub     *server.Hub
	metrics *server.Metrics
	logger  *slog.Logger
	onEnd   EndCallback
	roomTTL time.Duration

	// rng is touched only by the tick goroutine; command handlers never
	// draw from it.
	rng *rand.Rand
}

func NewEngine(rooms *room.Manager, hub *server.Hub, metrics *server.Metrics, logger *slog.Logger, onEnd EndCallback) *Engine {
	return &Engine{
		rooms:   rooms,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		onEnd:   onEnd,
		roomTTL: 60 * time.Second,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetHub sets the WebSocket hub reference (used to break circular init).
func (e *Engine) SetHub(hub *server.Hub) {
	e.hub = hub
}

// SetRoomTTL overrides how long an ended room lingers before removal.
func (e *Engine) SetRoomTTL(ttl time.Duration) {
	e.roomTTL = ttl
}

// Run drives one tick across all playing rooms every TickInterval until
// ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tickAll(time.Now())
		}
	}
}

func (e *Engine) tickAll(now time.Time) {
	for _, r := range e.rooms.ListByState(room.StatePlaying) {
		e.tickRoom(r, now)
	}
}

// tickRoom performs exactly one tick for one room. A fault here must not
// prevent the remaining rooms from ticking in the same cycle.
func (e *Engine) tickRoom(r *room.Room, now time.Time) {
	defer func() {
		if err := recover(); err != nil {
			e.logger.Error("tick panic", "room", r.ID, "err", err)
		}
	}()

	var ended bool
	r.Update(func() {
		ended = Tick(r, e.rng, now)
	})
	e.metrics.IncrTicks()

	e.broadcastRoomState(r)

	if ended {
		e.finishRoom(r)
	}
}

// Tick advances one simulation step: accelerate, scroll, generate terrain,
// step every living player, prune stale pickups, detect round end. Caller
// must hold the room's lock (room.Update). Returns true when the round
// ended on this tick.
func Tick(r *room.Room, rng *rand.Rand, now time.Time) bool {
	if r.State != room.StatePlaying {
		return false
	}

	if r.GameSpeed < MaxSpeed {
		r.GameSpeed += Acceleration
	}
	r.ScrollOffset += r.GameSpeed

	ExtendTerrain(r, rng)
	PruneTerrain(r)

	for _, p := range r.Players {
		StepPlayer(r, p, rng, now)
	}

	PrunePickups(r)

	// A room with no players never auto-ends via this path.
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Dead {
			return false
		}
	}

	r.State = room.StateEnded
	endedAt := now
	r.EndedAt = &endedAt
	return true
}

func (e *Engine) finishRoom(r *room.Room) {
	e.metrics.IncrRoundsEnded()
	e.logger.Info("round ended", "room", r.ID, "players", r.PlayerCount())

	if e.onEnd != nil {
		// Never stall the tick loop on durable writes.
		go e.onEnd(r)
	}

	go func() {
		time.Sleep(e.roomTTL)
		e.rooms.Remove(r.ID)
		e.hub.DropRoom(r.ID)
		e.broadcastLobby()
	}()
}

// HandleMessage implements server.MessageHandler.
func (e *Engine) HandleMessage(ctx context.Context, client *server.Client, msg server.WSMessage) {
	switch msg.Type {
	case "create_room":
		var payload struct {
			PlayerName string `json:"player_name"`
			EchoID     string `json:"echo_id"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		r := e.rooms.Create()
		r.AddPlayer(client.SessionKey, payload.PlayerName, true)
		e.hub.JoinRoom(client.SessionKey, r.ID)

		ack, _ := json.Marshal(map[string]any{
			"echo_id": payload.EchoID,
			"room":    r.Snapshot(),
		})
		e.hub.SendTo(client.SessionKey, server.WSMessage{Type: "room_created", Payload: ack})
		e.broadcastRoomState(r)
		e.broadcastLobby()

	case "join_room":
		var payload struct {
			PlayerName string `json:"player_name"`
			RoomID     string `json:"room_id"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		r := e.rooms.Join(payload.RoomID, client.SessionKey, payload.PlayerName)
		if r == nil {
			// Full or unknown — same failure signal, nothing mutated.
			fail, _ := json.Marshal(map[string]string{"room_id": payload.RoomID})
			e.hub.SendTo(client.SessionKey, server.WSMessage{Type: "join_failed", Payload: fail})
			return
		}
		e.hub.JoinRoom(client.SessionKey, r.ID)
		e.broadcastRoomState(r)
		e.broadcastLobby()

	case "toggle_ready":
		r := e.rooms.FindBySession(client.SessionKey)
		if r == nil {
			return
		}
		if r.ToggleReady(client.SessionKey) {
			e.broadcastRoomState(r)
		}

	case "start_game":
		r := e.rooms.FindBySession(client.SessionKey)
		if r == nil {
			return
		}
		if r.StartRound() {
			e.metrics.IncrRoundsStarted()
			e.logger.Info("round started", "room", r.ID, "players", r.PlayerCount())
			e.broadcastRoomState(r)
		}

	case "set_movement":
		var payload struct {
			Left  *bool `json:"left,omitempty"`
			Right *bool `json:"right,omitempty"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		r := e.rooms.FindBySession(client.SessionKey)
		if r == nil {
			return
		}
		r.SetMovement(client.SessionKey, payload.Left, payload.Right)

	case "list_rooms":
		payload, _ := json.Marshal(e.lobbyListing())
		e.hub.SendTo(client.SessionKey, server.WSMessage{Type: "room_list", Payload: payload})
	}
}

// HandleDisconnect implements server.MessageHandler. The player leaves
// their room; an emptied room is reclaimed immediately.
func (e *Engine) HandleDisconnect(client *server.Client) {
	r := e.rooms.FindBySession(client.SessionKey)
	if r == nil {
		return
	}
	if !r.RemovePlayer(client.SessionKey) {
		return
	}
	if r.PlayerCount() == 0 {
		e.rooms.Remove(r.ID)
		e.hub.DropRoom(r.ID)
	} else {
		e.broadcastRoomState(r)
	}
	e.broadcastLobby()
}

type roomInfo struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

func (e *Engine) lobbyListing() []roomInfo {
	rooms := e.rooms.List()
	list := make([]roomInfo, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, roomInfo{
			ID:         r.ID,
			State:      r.CurrentState().String(),
			Players:    r.PlayerCount(),
			MaxPlayers: room.MaxPlayers,
		})
	}
	return list
}

func (e *Engine) broadcastRoomState(r *room.Room) {
	payload, _ := json.Marshal(r.Snapshot())
	e.hub.BroadcastRoom(r.ID, server.WSMessage{Type: "room_state", Payload: payload})
}

func (e *Engine) broadcastLobby() {
	payload, _ := json.Marshal(e.lobbyListing())
	e.hub.BroadcastAll(server.WSMessage{Type: "room_list", Payload: payload})
}
