package engine

import (
	"math"
	"sort"
)

// SelectionCount returns how many of the eligible actors engage a waypoint of
// the given difficulty. Any positive difficulty engages at least one actor;
// difficulty zero engages nobody.
func SelectionCount(difficulty float64, eligible int) int {
	if eligible <= 0 || difficulty <= 0 {
		return 0
	}
	n := int(math.Round(difficulty / SelectionScale * SelectionFactor))
	if n < 1 {
		n = 1
	}
	if n > eligible {
		n = eligible
	}
	return n
}

// Allocate selects the strongest actors with remaining capacity to clear a
// waypoint and deducts one capacity unit from each of them. roster is
// modified in place. ErrNoEligibleActors is returned, and nothing changes,
// when every actor is exhausted.
func Allocate(difficulty float64, roster []Actor) (Allocation, error) {
	eligible := make([]int, 0, len(roster))
	for i := range roster {
		if roster[i].Capacity > 0 {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return Allocation{}, ErrNoEligibleActors
	}

	// Stable keeps roster order among equally strong actors
	sort.SliceStable(eligible, func(a, b int) bool {
		return roster[eligible[a]].Power > roster[eligible[b]].Power
	})

	count := SelectionCount(difficulty, len(eligible))
	alloc := Allocation{Selected: make([]string, 0, count)}
	for _, idx := range eligible[:count] {
		actor := &roster[idx]
		alloc.Selected = append(alloc.Selected, actor.Name)
		alloc.TotalPower += actor.Power
		if actor.Capacity > 0 {
			actor.Capacity--
		}
	}

	if alloc.TotalPower > 0 {
		alloc.Duration = difficulty / alloc.TotalPower
	}
	return alloc, nil
}
