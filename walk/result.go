package walk

import (
	"fmt"
	"strings"

	"oxywalk/lattice"
)

// Result is what a run hands to its consumers (plots, views, summaries).
type Result struct {
	RunID string
	// Positions is the log of newly claimed cells, oldest first.
	Positions []lattice.Coord
	// WalkerCounts and CellCounts hold one entry per tick.
	WalkerCounts []int
	CellCounts   []int
	// Grid is the final occupancy lattice.
	Grid   *lattice.Lattice
	Oxygen []float64
}

// Frame is a copy of a run's observable aggregates after one tick. It shares no
// memory with the engine, so it may be handed to other goroutines.
type Frame struct {
	Stats    TickStats
	NumSteps int
	ZCounts  []int
	Oxygen   []float64
}

// Frame snapshots the current state alongside the given tick stats.
func (eng *Engine) Frame(stats TickStats) Frame {
	oxygen := make([]float64, len(eng.state.Oxygen))
	copy(oxygen, eng.state.Oxygen)
	return Frame{
		Stats:    stats,
		NumSteps: eng.cfg.NumSteps,
		ZCounts:  eng.state.Grid.ZCounts(),
		Oxygen:   oxygen,
	}
}

// ZDistribution counts occupied cells per z layer of the final grid.
func (res *Result) ZDistribution() []int {
	return res.Grid.ZCounts()
}

// Summary is a short human readable report of the run's end state.
func (res *Result) Summary() string {
	var sb strings.Builder
	ticks := len(res.WalkerCounts)
	fmt.Fprintf(&sb, "run %s: %d ticks on a %d^3 lattice\n", res.RunID, ticks, res.Grid.Size)
	if ticks > 0 {
		peak := 0
		for _, n := range res.WalkerCounts {
			if n > peak {
				peak = n
			}
		}
		fmt.Fprintf(&sb, "  walkers: final %d, peak %d\n", res.WalkerCounts[ticks-1], peak)
		fmt.Fprintf(&sb, "  cancer cells: final %d\n", res.CellCounts[ticks-1])
	}
	fmt.Fprintf(&sb, "  occupied cells: %d\n", res.Grid.Count())
	fmt.Fprintf(&sb, "  z distribution: %v", res.ZDistribution())
	return sb.String()
}
