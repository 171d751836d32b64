package room

import "time"

// State is the lifecycle phase of a room.
type State int

const (
	StateLobby State = iota
	StatePlaying
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MaxPlayers is the membership cap per room.
const MaxPlayers = 4

const (
	BaseHP         = 10
	BasePlayerSize = 30.0

	// Spawn values applied on round start.
	SpawnX = 400.0
	SpawnY = 250.0

	// Safe centered platform seeded on round start.
	SeedPlatformX     = 300.0
	SeedPlatformY     = 300.0
	SeedPlatformWidth = 200.0

	// A new room idles at the base speed; a round start resets to the
	// round speed. Both values are tuning knobs, not derived.
	BaseSpeed       = 3.0
	RoundStartSpeed = 5.0
)

// PlatformType modifies landing behavior.
type PlatformType string

const (
	PlatformNormal        PlatformType = "normal"
	PlatformSpike         PlatformType = "spike"
	PlatformConveyorLeft  PlatformType = "conveyor_left"
	PlatformConveyorRight PlatformType = "conveyor_right"
)

// Platform is a static landing surface. Positions are absolute world
// coordinates (y grows downward); the appearance of upward motion comes
// from the room's scroll offset at render time, never from moving the
// platform itself.
type Platform struct {
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Width float64      `json:"width"`
	Type  PlatformType `json:"type"`
}

// PickupType identifies a consumable world object.
type PickupType string

// PickupGrowth doubles the player's bounding box for a short time.
const PickupGrowth PickupType = "growth"

// Pickup is a one-time consumable. Removed permanently on contact.
type Pickup struct {
	ID     string     `json:"id"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Type   PickupType `json:"type"`
}

// Player holds one participant's simulation state. Coordinates are
// absolute world-space, same frame as platforms.
type Player struct {
	SessionKey string `json:"session_key"`
	Name       string `json:"name"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	HP    int  `json:"hp"`
	Floor int  `json:"floor"`
	Ready bool `json:"ready"`
	Dead  bool `json:"dead"`

	MovingLeft  bool `json:"moving_left"`
	MovingRight bool `json:"moving_right"`

	// EffectUntil is when the active pickup effect expires. Zero means no
	// effect is active.
	EffectUntil time.Time `json:"-"`
}

// NewPlayer returns a player at lobby defaults.
func NewPlayer(sessionKey, name string) *Player {
	return &Player{
		SessionKey: sessionKey,
		Name:       name,
		X:          200,
		Y:          100,
		Width:      BasePlayerSize,
		Height:     BasePlayerSize,
		HP:         BaseHP,
	}
}

// ResetForRound puts the player back at spawn with full health.
func (p *Player) ResetForRound() {
	p.X = SpawnX
	p.Y = SpawnY
	p.VX = 0
	p.VY = 0
	p.Width = BasePlayerSize
	p.Height = BasePlayerSize
	p.HP = BaseHP
	p.Floor = 0
	p.Dead = false
	p.MovingLeft = false
	p.MovingRight = false
	p.EffectUntil = time.Time{}
}
