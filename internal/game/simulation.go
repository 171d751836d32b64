package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/stairfall/stairfall/internal/room"
)

// Move is a scripted movement-intent change. Nil pointers leave the
// corresponding flag untouched, matching the wire payload semantics.
type Move struct {
	Left  *bool
	Right *bool
}

// SimConfig fully describes a deterministic round. Terrain and landing
// rolls come from the seeded source; nothing reads the wall clock.
type SimConfig struct {
	Seed    int64
	Players []string // display names; session keys are sim-0..sim-n

	// MoveScript maps tick number → session key → intent change. Flags
	// persist between scripted changes, like real inbound commands.
	MoveScript map[int]map[string]Move

	MaxTicks int // safety cap; 0 defaults to 2400 (2 min at 50ms)
}

type SimPlayerStat struct {
	Alive  bool
	Floor  int
	HP     int
	DiedAt int // tick of death; 0 if alive at the end of the run
}

type SimResult struct {
	Room        *room.Room
	Ended       bool
	TotalTicks  int
	FinalScroll float64
	FinalSpeed  float64
	PlayerStats map[string]*SimPlayerStat
}

// SimSessionKey returns the session key for the i-th simulated player.
func SimSessionKey(i int) string {
	return fmt.Sprintf("sim-%d", i)
}

// RunSimulation executes a full headless round: start from LOBBY, tick at
// the fixed cadence on a synthetic clock, stop when every player is dead
// or the tick cap is hit.
func RunSimulation(cfg SimConfig) SimResult {
	maxTicks := cfg.MaxTicks
	if maxTicks <= 0 {
		maxTicks = 2400
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	r := room.NewRoom("SIMRM")
	for i, name := range cfg.Players {
		r.AddPlayer(SimSessionKey(i), name, true)
	}
	r.StartRound()

	stats := make(map[string]*SimPlayerStat, len(cfg.Players))
	for i := range cfg.Players {
		stats[SimSessionKey(i)] = &SimPlayerStat{Alive: true, HP: room.BaseHP}
	}

	result := SimResult{Room: r, PlayerStats: stats}

	base := time.Unix(0, 0)
	for tick := 1; tick <= maxTicks; tick++ {
		now := base.Add(time.Duration(tick) * TickInterval)

		if moves, ok := cfg.MoveScript[tick]; ok {
			for key, mv := range moves {
				r.SetMovement(key, mv.Left, mv.Right)
			}
		}

		var ended bool
		r.Update(func() {
			ended = Tick(r, rng, now)
		})
		result.TotalTicks = tick

		snap := r.Snapshot()
		for key, st := range stats {
			p, ok := snap.Players[key]
			if !ok {
				continue
			}
			st.Floor = p.Floor
			st.HP = p.HP
			if p.Dead && st.Alive {
				st.Alive = false
				st.DiedAt = tick
			}
		}

		if ended {
			result.Ended = true
			break
		}
	}

	snap := r.Snapshot()
	result.FinalScroll = snap.ScrollOffset
	result.FinalSpeed = snap.GameSpeed
	return result
}
