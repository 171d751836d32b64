package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stairfall/stairfall/internal/room"
)

var stepNow = time.Unix(1000, 0)

// player standing 10 units above a 100-wide platform at y=300
func platformScene(typ room.PlatformType) (*room.Room, *room.Player) {
	r := room.NewRoom("PHYS01")
	r.State = room.StatePlaying
	r.Platforms = []room.Platform{{X: 80, Y: 300, Width: 100, Type: typ}}
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y = 100, 260
	p.VX, p.VY = 0, 0
	return r, p
}

func TestToleranceLanding(t *testing.T) {
	r, p := platformScene(room.PlatformNormal)
	p.VY = 10 // bottom edge ends up inside the tolerance window

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Y != 300-p.Height {
		t.Fatalf("player bottom should sit on the surface: y=%v", p.Y)
	}
	if p.VY != 0 {
		t.Fatalf("landing should zero vertical velocity: vy=%v", p.VY)
	}
}

func TestSweptLandingPreventsTunneling(t *testing.T) {
	// Fast enough that the new bottom edge overshoots the tolerance
	// window entirely; only the swept test catches the crossing.
	r, p := platformScene(room.PlatformNormal)
	p.VY = 30

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Y != 300-p.Height {
		t.Fatalf("fast fall tunneled through the platform: y=%v", p.Y)
	}
	if p.VY != 0 {
		t.Fatalf("vy = %v, want 0", p.VY)
	}
}

func TestLargeFallStillLands(t *testing.T) {
	r, p := platformScene(room.PlatformNormal)
	p.VY = 20

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Y != 300-p.Height || p.VY != 0 {
		t.Fatalf("vy=20 fall should land: y=%v vy=%v", p.Y, p.VY)
	}
}

func TestNoLandingWhileRising(t *testing.T) {
	r, p := platformScene(room.PlatformNormal)
	p.VY = -5

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.VY != -4.5 {
		t.Fatalf("rising player should keep velocity: vy=%v", p.VY)
	}
	if p.Y == 300-p.Height {
		t.Fatal("rising player must not snap onto platforms")
	}
}

func TestSpikeLanding(t *testing.T) {
	r, p := platformScene(room.PlatformSpike)
	p.VY = 10

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.HP != room.BaseHP-SpikeDamage {
		t.Fatalf("hp = %d, want %d", p.HP, room.BaseHP-SpikeDamage)
	}
	if p.VY != SpikeBounceVY {
		t.Fatalf("spike should bounce: vy=%v", p.VY)
	}
}

func TestConveyorLanding(t *testing.T) {
	r, p := platformScene(room.PlatformConveyorLeft)
	p.VY = 10
	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)
	if p.X != 100-ConveyorPush {
		t.Fatalf("conveyor left should nudge: x=%v", p.X)
	}

	r, p = platformScene(room.PlatformConveyorRight)
	p.VY = 10
	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)
	if p.X != 100+ConveyorPush {
		t.Fatalf("conveyor right should nudge: x=%v", p.X)
	}
}

func TestNormalLandingHeals(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	heals := 0
	for i := 0; i < 400; i++ {
		r, p := platformScene(room.PlatformNormal)
		p.HP = 5
		p.VY = 10
		StepPlayer(r, p, rng, stepNow)
		if p.HP > 5 {
			heals++
		}
		if p.HP > room.BaseHP {
			t.Fatalf("heal exceeded max hp: %d", p.HP)
		}
	}
	if heals == 0 || heals > 100 {
		t.Fatalf("heal count %d far from the 5%% chance", heals)
	}
}

func TestFirstPlatformInListOrderWins(t *testing.T) {
	r, p := platformScene(room.PlatformSpike)
	// Second overlapping platform at the same height; the spike is first
	// in list order and must win.
	r.Platforms = append(r.Platforms, room.Platform{X: 80, Y: 300, Width: 100, Type: room.PlatformNormal})
	p.VY = 10

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.HP != room.BaseHP-SpikeDamage {
		t.Fatal("resolution should stop at the first matching platform")
	}
}

func TestCeilingBoundary(t *testing.T) {
	r := room.NewRoom("PHYS02")
	r.State = room.StatePlaying
	r.ScrollOffset = 100
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y, p.VY = 100, 90, 0

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.HP != room.BaseHP-CeilingDamage {
		t.Fatalf("hp = %d, want %d", p.HP, room.BaseHP-CeilingDamage)
	}
	if p.Y != r.ScrollOffset+CeilingPushdown {
		t.Fatalf("player should be clamped below the ceiling: y=%v", p.Y)
	}
	if p.VY != CeilingNudgeVY {
		t.Fatalf("vy = %v, want downward nudge", p.VY)
	}
}

func TestBottomFallKills(t *testing.T) {
	r := room.NewRoom("PHYS03")
	r.State = room.StatePlaying
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y, p.VY = 100, GameHeight+10, 0

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if !p.Dead || p.HP != 0 {
		t.Fatalf("fall off the bottom should kill: dead=%v hp=%d", p.Dead, p.HP)
	}
}

func TestHealthZeroImpliesDead(t *testing.T) {
	r, p := platformScene(room.PlatformSpike)
	p.HP = SpikeDamage // this landing drains to exactly zero
	p.VY = 10

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.HP > 0 {
		t.Fatalf("hp = %d, want <= 0", p.HP)
	}
	if !p.Dead {
		t.Fatal("hp <= 0 must imply dead")
	}
}

func TestDeadPlayersAreSkipped(t *testing.T) {
	r, p := platformScene(room.PlatformNormal)
	p.Dead = true
	p.VY = 10
	y := p.Y

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Y != y || p.VY != 10 {
		t.Fatal("dead players must not be integrated")
	}
}

func TestHorizontalIntentAndClamp(t *testing.T) {
	r := room.NewRoom("PHYS04")
	r.State = room.StatePlaying
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y = 2, 250
	p.MovingLeft = true
	p.MovingRight = true // left is checked first and wins

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.VX != -MoveSpeed {
		t.Fatalf("vx = %v, want left to win", p.VX)
	}
	if p.X != 0 {
		t.Fatalf("x = %v, want clamp at left wall", p.X)
	}

	p.MovingLeft = false
	p.X = GameWidth - p.Width - 2
	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)
	if p.X != GameWidth-p.Width {
		t.Fatalf("x = %v, want clamp at right wall", p.X)
	}
}

func TestEffectExpiryRevertsSize(t *testing.T) {
	r := room.NewRoom("PHYS05")
	r.State = room.StatePlaying
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y = 100, 250
	p.Width, p.Height = room.BasePlayerSize*GrowthFactor, room.BasePlayerSize*GrowthFactor
	p.EffectUntil = stepNow.Add(-time.Millisecond)

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Width != room.BasePlayerSize || p.Height != room.BasePlayerSize {
		t.Fatalf("size not reverted: %vx%v", p.Width, p.Height)
	}
	if !p.EffectUntil.IsZero() {
		t.Fatal("expiry timestamp should be cleared")
	}
}

func TestPickupGrowth(t *testing.T) {
	r := room.NewRoom("PHYS06")
	r.State = room.StatePlaying
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y, p.VY = 100, 100, 0
	r.Pickups = []room.Pickup{{
		ID: "it-1", X: 100, Y: 110, Width: PickupSize, Height: PickupSize, Type: room.PickupGrowth,
	}}

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)

	if p.Width != room.BasePlayerSize*GrowthFactor || p.Height != room.BasePlayerSize*GrowthFactor {
		t.Fatalf("growth potion should double the box: %vx%v", p.Width, p.Height)
	}
	if !p.EffectUntil.Equal(stepNow.Add(GrowthDuration)) {
		t.Fatalf("effect expiry = %v, want now+%v", p.EffectUntil, GrowthDuration)
	}
	if len(r.Pickups) != 0 {
		t.Fatal("consumed pickup must be removed")
	}
}

func TestFloorScoreMonotonic(t *testing.T) {
	r := room.NewRoom("PHYS07")
	r.State = room.StatePlaying
	r.ScrollOffset = 250
	r.AddPlayer("p", "tester", true)
	p := r.Players["p"]
	p.X, p.Y = 100, 400

	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)
	if p.Floor != 2 {
		t.Fatalf("floor = %d, want 2", p.Floor)
	}

	p.Floor = 5 // must never decrease
	StepPlayer(r, p, rand.New(rand.NewSource(1)), stepNow)
	if p.Floor != 5 {
		t.Fatalf("floor = %d, decreased", p.Floor)
	}
}
