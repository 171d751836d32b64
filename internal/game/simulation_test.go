package game

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stairfall/stairfall/internal/room"
)

// ---------------------------------------------------------------------------
// 1. Per-tick invariants: monotonic scroll/speed/floor, hp<=0 ⇒ dead,
//    terrain ordering and coverage
// ---------------------------------------------------------------------------

func TestTickInvariants(t *testing.T) {
	r := room.NewRoom("INV001")
	r.AddPlayer("a", "p1", true)
	r.AddPlayer("b", "p2", true)
	r.StartRound()

	rng := rand.New(rand.NewSource(11))
	base := time.Unix(0, 0)

	prevScroll := r.ScrollOffset
	prevSpeed := r.GameSpeed
	prevFloor := map[string]int{"a": 0, "b": 0}

	for tick := 1; tick <= 600; tick++ {
		now := base.Add(time.Duration(tick) * TickInterval)
		var ended bool
		r.Update(func() {
			ended = Tick(r, rng, now)
		})

		snap := r.Snapshot()
		if snap.ScrollOffset < prevScroll {
			t.Fatalf("tick %d: scroll offset went backward %.3f -> %.3f", tick, prevScroll, snap.ScrollOffset)
		}
		if snap.GameSpeed < prevSpeed {
			t.Fatalf("tick %d: speed went backward", tick)
		}
		if snap.GameSpeed > MaxSpeed {
			t.Fatalf("tick %d: speed %.3f above cap", tick, snap.GameSpeed)
		}
		prevScroll, prevSpeed = snap.ScrollOffset, snap.GameSpeed

		for key, p := range snap.Players {
			if p.HP <= 0 && !p.Dead {
				t.Fatalf("tick %d: player %s has hp %d but is not dead", tick, key, p.HP)
			}
			if p.Floor < prevFloor[key] {
				t.Fatalf("tick %d: player %s floor decreased", tick, key)
			}
			prevFloor[key] = p.Floor
		}

		for i := 1; i < len(snap.Platforms); i++ {
			if snap.Platforms[i].Y < snap.Platforms[i-1].Y {
				t.Fatalf("tick %d: platform list out of order", tick)
			}
			gap := snap.Platforms[i].Y - snap.Platforms[i-1].Y
			if gap >= MinGap+GapSpan {
				t.Fatalf("tick %d: gap %.2f exceeds max", tick, gap)
			}
		}
		if len(snap.Platforms) > 0 {
			if snap.Platforms[0].Y < snap.ScrollOffset-PruneBehind {
				t.Fatalf("tick %d: stale platform survived pruning", tick)
			}
			last := snap.Platforms[len(snap.Platforms)-1]
			if last.Y < snap.ScrollOffset+GameHeight+GenerationMargin {
				t.Fatalf("tick %d: generation did not cover the frontier", tick)
			}
		}

		if ended {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// 2. A round with no surviving input ends, and ends exactly once
// ---------------------------------------------------------------------------

func TestAllDeadEndsRound(t *testing.T) {
	result := RunSimulation(SimConfig{
		Seed:    42,
		Players: []string{"idle-1", "idle-2"},
	})

	if !result.Ended {
		t.Fatalf("round should have ended within %d ticks", result.TotalTicks)
	}
	for key, st := range result.PlayerStats {
		if st.Alive {
			t.Fatalf("player %s survived a round with no input forever", key)
		}
		if st.DiedAt == 0 {
			t.Fatalf("player %s has no death tick", key)
		}
		if st.Floor <= 0 {
			t.Fatalf("player %s should have scored at least one floor", key)
		}
	}
	if result.Room.CurrentState() != room.StateEnded {
		t.Fatalf("room state = %v, want ended", result.Room.CurrentState())
	}
}

func TestRoundEndIsIdempotent(t *testing.T) {
	result := RunSimulation(SimConfig{
		Seed:    42,
		Players: []string{"idle-1"},
	})
	if !result.Ended {
		t.Fatal("round should have ended")
	}

	r := result.Room
	endedAt := r.EndedAt
	rng := rand.New(rand.NewSource(99))

	var again bool
	r.Update(func() {
		again = Tick(r, rng, time.Unix(9999, 0))
	})

	if again {
		t.Fatal("second all-dead detection must not re-trigger the transition")
	}
	if r.CurrentState() != room.StateEnded {
		t.Fatal("ended is terminal")
	}
	if r.EndedAt != endedAt {
		t.Fatal("end timestamp rewritten on a second detection")
	}
}

// ---------------------------------------------------------------------------
// 3. A room with zero players never auto-ends
// ---------------------------------------------------------------------------

func TestEmptyRoomNeverEnds(t *testing.T) {
	r := room.NewRoom("EMPTY1")
	r.AddPlayer("a", "p", true)
	r.StartRound()
	r.RemovePlayer("a")

	rng := rand.New(rand.NewSource(5))
	for tick := 1; tick <= 50; tick++ {
		var ended bool
		r.Update(func() {
			ended = Tick(r, rng, time.Unix(int64(tick), 0))
		})
		if ended {
			t.Fatal("empty room must not auto-end")
		}
	}
	if r.CurrentState() != room.StatePlaying {
		t.Fatalf("state = %v, want playing", r.CurrentState())
	}
}

// ---------------------------------------------------------------------------
// 4. Movement input steers the simulation
// ---------------------------------------------------------------------------

func TestScriptedMovementApplies(t *testing.T) {
	yes, no := true, false
	result := RunSimulation(SimConfig{
		Seed:    13,
		Players: []string{"runner"},
		MoveScript: map[int]map[string]Move{
			1: {SimSessionKey(0): {Left: &yes, Right: &no}},
		},
		MaxTicks: 3,
	})

	snap := result.Room.Snapshot()
	p := snap.Players[SimSessionKey(0)]
	if !p.MovingLeft {
		t.Fatal("scripted intent not applied")
	}
	if p.X >= room.SpawnX {
		t.Fatalf("player did not move left: x=%v", p.X)
	}
}

// ---------------------------------------------------------------------------
// 5. Concurrent rooms tick independently — no cross-room leakage
// ---------------------------------------------------------------------------

func TestConcurrentRoomsIndependent(t *testing.T) {
	const ticks = 500

	run := func(id string, seed int64) float64 {
		r := room.NewRoom(id)
		r.AddPlayer("a", "p", true)
		r.StartRound()
		r.RemovePlayer("a") // keep the room scrolling forever
		rng := rand.New(rand.NewSource(seed))
		for tick := 1; tick <= ticks; tick++ {
			r.Update(func() {
				Tick(r, rng, time.Unix(int64(tick), 0))
			})
		}
		return r.Snapshot().ScrollOffset
	}

	var wg sync.WaitGroup
	var scrollA, scrollB float64
	wg.Add(2)
	go func() { defer wg.Done(); scrollA = run("ROOM-A", 1) }()
	go func() { defer wg.Done(); scrollB = run("ROOM-B", 2) }()
	wg.Wait()

	// scroll(n) = sum of (startSpeed + k*acceleration) for k = 1..n
	n := float64(ticks)
	want := room.RoundStartSpeed*n + Acceleration*n*(n+1)/2
	if math.Abs(scrollA-want) > 1e-6 {
		t.Fatalf("room A scroll %.6f, want %.6f", scrollA, want)
	}
	if math.Abs(scrollB-want) > 1e-6 {
		t.Fatalf("room B scroll %.6f, want %.6f", scrollB, want)
	}
}

// ---------------------------------------------------------------------------
// 6. Determinism: same seed and script, same outcome
// ---------------------------------------------------------------------------

func TestSimulationDeterministic(t *testing.T) {
	cfg := SimConfig{Seed: 77, Players: []string{"a", "b", "c"}}

	r1 := RunSimulation(cfg)
	r2 := RunSimulation(cfg)

	if r1.TotalTicks != r2.TotalTicks || r1.FinalScroll != r2.FinalScroll {
		t.Fatalf("same seed diverged: ticks %d/%d scroll %.3f/%.3f",
			r1.TotalTicks, r2.TotalTicks, r1.FinalScroll, r2.FinalScroll)
	}
	for key, st1 := range r1.PlayerStats {
		st2 := r2.PlayerStats[key]
		if st1.DiedAt != st2.DiedAt || st1.Floor != st2.Floor {
			t.Fatalf("player %s diverged between identical runs", key)
		}
	}
}
