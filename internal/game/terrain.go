package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/stairfall/stairfall/internal/room"
)

// ExtendTerrain appends platforms until the highest generated y passes the
// scroll frontier plus margin, keeping the list ordered by increasing y.
// Normal platforms may spawn a single pickup centered slightly above them.
// Caller must hold the room's lock.
func ExtendTerrain(r *room.Room, rng *rand.Rand) {
	threshold := r.ScrollOffset + GameHeight + GenerationMargin

	lastY := FirstPlatformY
	if n := len(r.Platforms); n > 0 {
		lastY = r.Platforms[n-1].Y
	}

	for lastY < threshold {
		lastY += MinGap + rng.Float64()*GapSpan
		width := MinWidth + rng.Float64()*WidthSpan
		x := rng.Float64() * (GameWidth - width)

		typ := room.PlatformNormal
		if rng.Float64() < SpikeChance {
			typ = room.PlatformSpike
		} else if rng.Float64() < ConveyorChance {
			typ = room.PlatformConveyorLeft
		} else if rng.Float64() < ConveyorChance {
			typ = room.PlatformConveyorRight
		}

		r.Platforms = append(r.Platforms, room.Platform{
			X:     x,
			Y:     lastY,
			Width: width,
			Type:  typ,
		})

		if typ == room.PlatformNormal && rng.Float64() < PickupChance {
			r.Pickups = append(r.Pickups, room.Pickup{
				ID:     uuid.New().String(),
				X:      x + width/2 - PickupSize/2,
				Y:      lastY - PickupSize - PickupHover,
				Width:  PickupSize,
				Height: PickupSize,
				Type:   room.PickupGrowth,
			})
		}
	}
}

// PruneTerrain drops platforms more than PruneBehind units behind the
// scroll offset. The list is ordered by y, so stale entries are a prefix.
// Caller must hold the room's lock.
func PruneTerrain(r *room.Room) {
	cutoff := r.ScrollOffset - PruneBehind
	i := 0
	for i < len(r.Platforms) && r.Platforms[i].Y < cutoff {
		i++
	}
	if i > 0 {
		r.Platforms = append(r.Platforms[:0], r.Platforms[i:]...)
	}
}

// PrunePickups drops pickups that have scrolled permanently out of reach.
// Caller must hold the room's lock.
func PrunePickups(r *room.Room) {
	cutoff := r.ScrollOffset - PickupPruneBehind
	kept := r.Pickups[:0]
	for _, it := range r.Pickups {
		if it.Y >= cutoff {
			kept = append(kept, it)
		}
	}
	r.Pickups = kept
}
