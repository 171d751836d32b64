package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sort"

	"github.com/stairfall/stairfall/internal/game"
)

// Headless batch simulator for balance tuning: runs full rounds with bot
// movement policies and reports survival statistics.

type policy int

const (
	policyCamper policy = iota // never moves
	policyDrifter              // holds one direction, flips occasionally
	policyJitter               // changes intent every few ticks
)

func (p policy) String() string {
	return [...]string{"camper", "drifter", "jitter"}[p]
}

func main() {
	rounds := flag.Int("rounds", 1000, "rounds to simulate")
	players := flag.Int("players", 4, "players per round")
	seed := flag.Int64("seed", 1, "base rng seed")
	flag.Parse()

	type agg struct {
		games      int
		totalTicks int64
		totalFloor int64
		bestFloor  int
	}
	stats := make(map[policy]*agg)
	for p := policyCamper; p <= policyJitter; p++ {
		stats[p] = &agg{}
	}

	var survivalTicks []int

	for round := 0; round < *rounds; round++ {
		rng := rand.New(rand.NewSource(*seed + int64(round)))

		names := make([]string, *players)
		policies := make([]policy, *players)
		for i := range names {
			policies[i] = policy(rng.Intn(3))
			names[i] = fmt.Sprintf("%s-%d", policies[i], i)
		}

		result := game.RunSimulation(game.SimConfig{
			Seed:       *seed + int64(round),
			Players:    names,
			MoveScript: buildScript(rng, *players, policies),
			MaxTicks:   2400,
		})

		survivalTicks = append(survivalTicks, result.TotalTicks)

		for i := range names {
			st := result.PlayerStats[game.SimSessionKey(i)]
			a := stats[policies[i]]
			a.games++
			a.totalFloor += int64(st.Floor)
			if st.Floor > a.bestFloor {
				a.bestFloor = st.Floor
			}
			if st.DiedAt > 0 {
				a.totalTicks += int64(st.DiedAt)
			} else {
				a.totalTicks += int64(result.TotalTicks)
			}
		}
	}

	sort.Ints(survivalTicks)
	fmt.Printf("rounds=%d players=%d\n", *rounds, *players)
	fmt.Printf("round length ticks: p50=%d p90=%d max=%d\n",
		percentile(survivalTicks, 50), percentile(survivalTicks, 90),
		survivalTicks[len(survivalTicks)-1])

	fmt.Println("\npolicy     games  avg_ticks  avg_floor  best_floor")
	for p := policyCamper; p <= policyJitter; p++ {
		a := stats[p]
		if a.games == 0 {
			continue
		}
		fmt.Printf("%-10s %5d  %9.1f  %9.2f  %10d\n",
			p, a.games,
			float64(a.totalTicks)/float64(a.games),
			float64(a.totalFloor)/float64(a.games),
			a.bestFloor)
	}
}

// buildScript pre-rolls every player's movement intent changes for one round.
func buildScript(rng *rand.Rand, players int, policies []policy) map[int]map[string]game.Move {
	script := make(map[int]map[string]game.Move)
	set := func(tick int, key string, mv game.Move) {
		if script[tick] == nil {
			script[tick] = make(map[string]game.Move)
		}
		script[tick][key] = mv
	}
	boolPtr := func(b bool) *bool { return &b }

	for i := 0; i < players; i++ {
		key := game.SimSessionKey(i)
		switch policies[i] {
		case policyCamper:
			// no input at all
		case policyDrifter:
			left := rng.Intn(2) == 0
			set(1, key, game.Move{Left: boolPtr(left), Right: boolPtr(!left)})
			for tick := 40 + rng.Intn(40); tick < 2400; tick += 40 + rng.Intn(40) {
				left = !left
				set(tick, key, game.Move{Left: boolPtr(left), Right: boolPtr(!left)})
			}
		case policyJitter:
			for tick := 1; tick < 2400; tick += 3 + rng.Intn(8) {
				switch rng.Intn(3) {
				case 0:
					set(tick, key, game.Move{Left: boolPtr(true), Right: boolPtr(false)})
				case 1:
					set(tick, key, game.Move{Left: boolPtr(false), Right: boolPtr(true)})
				default:
					set(tick, key, game.Move{Left: boolPtr(false), Right: boolPtr(false)})
				}
			}
		}
	}
	return script
}

func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
