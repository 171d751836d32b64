package game

import "time"

// TickInterval is the fixed cadence of the simulation scheduler.
const TickInterval = 50 * time.Millisecond

// World dimensions. The viewport is a fixed window into an absolute
// coordinate frame; y grows downward.
const (
	GameWidth  = 800.0
	GameHeight = 600.0
)

// Physics constants. Speed accelerates every tick up to the cap, gravity
// is constant per tick.
const (
	Gravity      = 0.5
	MoveSpeed    = 5.0
	Acceleration = 0.005
	MaxSpeed     = 15.0
)

// Landing resolution.
const (
	// LandingTolerance is the vertical window below a platform surface
	// within which a falling player's bottom edge counts as contact.
	LandingTolerance = 15.0

	SpikeDamage   = 3
	SpikeBounceVY = -3.0
	ConveyorPush  = 2.0

	// Chance of +1 HP when landing on a normal platform below max health.
	HealChance = 0.05
)

// Boundary effects, relative to the scroll offset.
const (
	CeilingDamage   = 5
	CeilingPushdown = 10.0
	CeilingNudgeVY  = 1.0
)

// Terrain generation. Platforms are appended ahead of the scroll frontier
// and pruned once permanently unreachable behind it.
const (
	GenerationMargin  = 50.0
	PruneBehind       = 100.0
	PickupPruneBehind = 50.0

	MinGap    = 100.0
	GapSpan   = 50.0
	MinWidth  = 80.0
	WidthSpan = 50.0

	// First candidate y when the platform list starts empty.
	FirstPlatformY = 500.0

	// Cascading type rolls, checked in this order. Deliberately not a
	// normalized distribution; the first truthy roll wins.
	SpikeChance    = 0.2
	ConveyorChance = 0.1

	PickupChance = 0.1
	PickupSize   = 20.0
	PickupHover  = 5.0
)

// Pickup effects.
const (
	GrowthFactor   = 2.0
	GrowthDuration = 5000 * time.Millisecond
)

// FloorUnit converts scroll offset into the floor counter (the score).
const FloorUnit = 100.0
