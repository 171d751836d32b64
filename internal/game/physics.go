package game

import (
	"math/rand"
	"time"

	"github.com/stairfall/stairfall/internal/room"
)

// StepPlayer advances one player by one tick: effect expiry, horizontal
// intent, gravity, platform landing, pickup consumption, boundary checks,
// score. Dead players are skipped. Caller must hold the room's lock.
func StepPlayer(r *room.Room, p *room.Player, rng *rand.Rand, now time.Time) {
	if p.Dead {
		return
	}

	// 1. Effect expiry
	if !p.EffectUntil.IsZero() && now.After(p.EffectUntil) {
		p.Width = room.BasePlayerSize
		p.Height = room.BasePlayerSize
		p.EffectUntil = time.Time{}
	}

	// 2. Horizontal intent, then clamp into the viewport
	if p.MovingLeft {
		p.VX = -MoveSpeed
	} else if p.MovingRight {
		p.VX = MoveSpeed
	} else {
		p.VX = 0
	}
	p.X += p.VX
	if p.X < 0 {
		p.X = 0
	}
	if p.X+p.Width > GameWidth {
		p.X = GameWidth - p.Width
	}

	// 3. Vertical integration
	prevBottom := p.Y + p.Height
	p.VY += Gravity
	p.Y += p.VY

	// 4. Platform collision, only while falling. First match in list
	// order wins.
	if p.VY >= 0 {
		resolveLanding(r, p, prevBottom, rng)
	}

	// 5. Pickup consumption
	collectPickups(r, p, now)

	// 6. Boundary checks against the visible window
	relY := p.Y - r.ScrollOffset
	if relY < 0 {
		p.HP -= CeilingDamage
		p.Y = r.ScrollOffset + CeilingPushdown
		p.VY = CeilingNudgeVY
	}
	if relY > GameHeight {
		p.HP = 0
		p.Dead = true
	}
	if p.HP <= 0 {
		p.Dead = true
	}

	// 7. Floor score, monotonic
	if f := int(r.ScrollOffset / FloorUnit); f > p.Floor {
		p.Floor = f
	}
}

func resolveLanding(r *room.Room, p *room.Player, prevBottom float64, rng *rand.Rand) {
	bottom := p.Y + p.Height
	for i := range r.Platforms {
		pl := &r.Platforms[i]

		overlapX := p.X < pl.X+pl.Width && p.X+p.Width > pl.X
		if !overlapX {
			continue
		}

		// Contact either within the tolerance window below the surface,
		// or when this tick's vertical move crossed the surface — the
		// swept test keeps high fall speeds from tunneling through.
		inWindow := bottom >= pl.Y && bottom <= pl.Y+LandingTolerance
		crossed := prevBottom <= pl.Y && bottom >= pl.Y
		if !inWindow && !crossed {
			continue
		}

		p.Y = pl.Y - p.Height
		p.VY = 0

		switch pl.Type {
		case room.PlatformSpike:
			p.HP -= SpikeDamage
			p.VY = SpikeBounceVY
		case room.PlatformConveyorLeft:
			p.X -= ConveyorPush
		case room.PlatformConveyorRight:
			p.X += ConveyorPush
		case room.PlatformNormal:
			if p.HP < room.BaseHP && rng.Float64() < HealChance {
				p.HP++
			}
		}
		return
	}
}

func collectPickups(r *room.Room, p *room.Player, now time.Time) {
	kept := r.Pickups[:0]
	for _, it := range r.Pickups {
		hit := p.X < it.X+it.Width && p.X+p.Width > it.X &&
			p.Y < it.Y+it.Height && p.Y+p.Height > it.Y
		if !hit {
			kept = append(kept, it)
			continue
		}
		switch it.Type {
		case room.PickupGrowth:
			p.Width = room.BasePlayerSize * GrowthFactor
			p.Height = room.BasePlayerSize * GrowthFactor
			p.EffectUntil = now.Add(GrowthDuration)
		}
	}
	r.Pickups = kept
}
