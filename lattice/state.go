package lattice

// State is everything a single run owns: the grid, the active walkers in spawn
// order, the log of newly claimed cells, and the read-only oxygen profile.
type State struct {
	Grid      *Lattice
	Walkers   []Coord
	Positions []Coord
	Oxygen    []float64
}

// NewState builds the initial run state: an empty grid of the given size whose
// center cell is occupied by the single initial walker. The center cell is not logged.
func NewState(size int) *State {
	grid := New(size)
	center := grid.Center()
	grid.Claim(center)
	return &State{
		Grid:    grid,
		Walkers: []Coord{center},
		Oxygen:  Linspace(0, 1, size),
	}
}

// Log appends a newly claimed cell to the position log.
func (st *State) Log(c Coord) {
	st.Positions = append(st.Positions, c)
}

// PopLog removes and returns the most recently logged position.
// ok is false when the log is empty.
func (st *State) PopLog() (c Coord, ok bool) {
	n := len(st.Positions)
	if n == 0 {
		return
	}
	c = st.Positions[n-1]
	st.Positions = st.Positions[:n-1]
	return c, true
}

// OxygenAt returns the oxygen concentration of the z layer of c.
func (st *State) OxygenAt(c Coord) float64 {
	return st.Oxygen[c.Z]
}

// MeanZ returns the average z of the active walkers, or 0 for an empty population.
func (st *State) MeanZ() float64 {
	if len(st.Walkers) == 0 {
		return 0
	}
	sum := 0
	for _, w := range st.Walkers {
		sum += w.Z
	}
	return float64(sum) / float64(len(st.Walkers))
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// A single-point profile is just start.
func Linspace(start, stop float64, n int) []float64 {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = start
		return vals
	}
	step := (stop - start) / float64(n-1)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	// pin the endpoint against accumulated rounding
	vals[n-1] = stop
	return vals
}
