// stat_views contains views derived from the Model view-model: per-tick population
// counts and the occupancy profile along the oxygen axis.
package stat_views

import (
	"fmt"
	"strings"

	"oxywalk/walk"
)

// Model accumulates a run's frames into something immediately usable by templates
// and updates. Walkers and Cells hold the full history up to Tick.
type Model struct {
	Tick     int
	NumSteps int
	Walkers  []int
	Cells    []int
	MeanZ    float64
	ZCounts  []int
	Oxygen   []float64
}

// Historian converts frames to models, keeping the count history between calls.
// It is not safe for concurrent use; the view builder calls it from one goroutine.
type Historian struct {
	walkers []int
	cells   []int
}

// Convert folds f into the history. Frames from before the first tick add no history.
func (h *Historian) Convert(f walk.Frame) Model {
	if f.Stats.Tick >= 0 {
		h.walkers = append(h.walkers, f.Stats.Walkers)
		h.cells = append(h.cells, f.Stats.Cells)
	}
	return Model{
		Tick:     f.Stats.Tick,
		NumSteps: f.NumSteps,
		// Capped so later appends never become visible to views holding this model.
		Walkers: h.walkers[:len(h.walkers):len(h.walkers)],
		Cells:   h.cells[:len(h.cells):len(h.cells)],
		MeanZ:   f.Stats.MeanZ,
		ZCounts: f.ZCounts,
		Oxygen:  f.Oxygen,
	}
}

// PeakCount is the largest count in either history, at least 1 so it can divide.
func (m Model) PeakCount() int {
	peak := 1
	for _, series := range [][]int{m.Walkers, m.Cells} {
		for _, n := range series {
			if n > peak {
				peak = n
			}
		}
	}
	return peak
}

// polyline formats values as svg polyline points on a width x height canvas,
// with x spanning span slots and y scaled so yMax touches the top edge.
func polyline(values []float64, span int, yMax float64, width, height float64) string {
	if span < 2 {
		span = 2
	}
	dx := width / float64(span-1)
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", float64(i)*dx, height-v*height/yMax)
	}
	return sb.String()
}

func toFloats(ints []int) []float64 {
	fs := make([]float64, len(ints))
	for i, n := range ints {
		fs[i] = float64(n)
	}
	return fs
}
