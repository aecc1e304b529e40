/*
Package walk runs the oxygen-biased random walk. The step engine advances the
whole walker population one tick at a time. A tick is, per walker in spawn order,
a death draw weighted by hypoxia, then a biased direction draw, then an
occupancy-gated move that deposits a cell into the position log. After the walkers
come one retirement draw (pop and release the newest deposited cell) and
at most one growth draw. Draw order is fixed so seeded runs reproduce exactly:

	death(w0) dir(w0) death(w1) dir(w1) ... retire grow

A walker that dies consumes only its death draw. The growth draw is skipped entirely
when the population is over the cap or no walker survived the tick.
*/
package walk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"oxywalk/lattice"

	"github.com/rs/xid"
)

// Source is the only randomness the engine consumes. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
}

// NewSource returns a seeded generator. A zero seed is replaced by the clock;
// the seed actually used is returned so a run can be replayed.
func NewSource(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// TickStats are the aggregates recorded after a tick.
type TickStats struct {
	// Tick is the zero-based index of the tick, matching the series index.
	Tick    int
	Walkers int
	Cells   int
	MeanZ   float64
}

// ProgressFunc is a callback by which a run reports each completed tick.
// It is synchronous and should complete quickly.
type ProgressFunc func(context.Context, TickStats)

// Engine owns one run: its state, its random source, and the output series.
type Engine struct {
	id      string
	cfg     Config
	rng     Source
	logger  *slog.Logger
	weights [6]float64

	state        *lattice.State
	tick         int
	walkerCounts []int
	cellCounts   []int
}

// NewEngine validates cfg and builds the initial state. A nil logger discards output.
func NewEngine(cfg Config, rng Source, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := xid.New().String()
	return &Engine{
		id:           id,
		cfg:          cfg,
		rng:          rng,
		logger:       logger.With("run", id),
		weights:      DirectionWeights(cfg.OxygenBias),
		state:        lattice.NewState(cfg.GridSize),
		walkerCounts: make([]int, 0, cfg.NumSteps),
		cellCounts:   make([]int, 0, cfg.NumSteps),
	}, nil
}

// ID returns the run identifier.
func (eng *Engine) ID() string {
	return eng.id
}

// State exposes the live run state. Callers must not mutate it while a run is in progress.
func (eng *Engine) State() *lattice.State {
	return eng.state
}

// Done reports whether all NumSteps ticks have run.
func (eng *Engine) Done() bool {
	return eng.tick >= eng.cfg.NumSteps
}

// Current returns stats for the present state. Before the first tick, Tick is -1.
func (eng *Engine) Current() TickStats {
	return TickStats{
		Tick:    eng.tick - 1,
		Walkers: len(eng.state.Walkers),
		Cells:   len(eng.state.Positions),
		MeanZ:   eng.state.MeanZ(),
	}
}

// Step advances the population by one tick and appends one entry to each count series.
// Once all NumSteps ticks have run it is a no-op returning the final stats, so the
// series never grow past NumSteps.
func (eng *Engine) Step() TickStats {
	if eng.Done() {
		return eng.Current()
	}
	st := eng.state

	// Survivors are compacted in place; order is preserved.
	survivors := st.Walkers[:0]
	var anchor lattice.Coord
	anchored := false
	for _, w := range st.Walkers {
		if eng.dies(w) {
			continue
		}
		w = eng.move(w)
		survivors = append(survivors, w)
		anchor, anchored = w, true
	}
	st.Walkers = survivors

	eng.retire()
	if anchored {
		eng.grow(anchor)
	}

	eng.walkerCounts = append(eng.walkerCounts, len(st.Walkers))
	eng.cellCounts = append(eng.cellCounts, len(st.Positions))
	stats := TickStats{
		Tick:    eng.tick,
		Walkers: len(st.Walkers),
		Cells:   len(st.Positions),
		MeanZ:   st.MeanZ(),
	}
	eng.tick++

	if eng.cfg.LogEvery > 0 && eng.tick%eng.cfg.LogEvery == 0 {
		eng.logger.Debug("tick",
			"tick", stats.Tick,
			"walkers", stats.Walkers,
			"cells", stats.Cells,
			"meanZ", stats.MeanZ)
	}
	return stats
}

// dies draws the hypoxic death check: death is likelier at low z where oxygen is low.
func (eng *Engine) dies(w lattice.Coord) bool {
	deathProb := (1 - eng.state.OxygenAt(w)) * DeathRateFactor
	return eng.rng.Float64() < deathProb
}

// move draws a direction and returns the walker's coordinate after the bounds and
// occupancy gate. Rejected moves are not retried; the walker stays put.
func (eng *Engine) move(w lattice.Coord) lattice.Coord {
	dir := chooseDirection(&eng.weights, eng.rng.Float64())
	dest := w.Add(Directions[dir])

	grid := eng.state.Grid
	if !grid.InBounds(dest) || grid.IsOccupied(dest) {
		return w
	}
	grid.Claim(dest)
	eng.state.Log(dest)
	return dest
}

// retire pops the newest deposited cell with fixed probability and releases it.
// The draw is consumed even when the log is empty.
func (eng *Engine) retire() {
	if eng.rng.Float64() >= RetireProb {
		return
	}
	c, ok := eng.state.PopLog()
	if !ok {
		return
	}
	eng.state.Grid.Release(c)
	if eng.cfg.EvictOnRetire {
		eng.evict(c)
	}
}

// evict drops every walker sitting on c.
func (eng *Engine) evict(c lattice.Coord) {
	st := eng.state
	kept := st.Walkers[:0]
	for _, w := range st.Walkers {
		if w != c {
			kept = append(kept, w)
		}
	}
	if n := len(st.Walkers) - len(kept); n > 0 {
		eng.logger.Debug("evicted walkers on retired cell", "cell", c.String(), "count", n)
	}
	st.Walkers = kept
}

// grow spawns at most one walker relative to anchor, the post-move cell of the
// last walker that survived this tick.
func (eng *Engine) grow(anchor lattice.Coord) {
	st := eng.state
	if len(st.Walkers) > eng.cfg.MaxWalkers {
		return
	}
	// An evicted anchor no longer owns its cell; spawning there would recreate the orphan.
	if eng.cfg.EvictOnRetire && !st.Grid.IsOccupied(anchor) {
		return
	}
	if eng.rng.Float64() >= eng.cfg.NwBias {
		return
	}

	switch eng.cfg.SpawnMode {
	case SpawnAdjacent:
		for _, d := range Directions {
			c := anchor.Add(d)
			if st.Grid.InBounds(c) && !st.Grid.IsOccupied(c) {
				st.Grid.Claim(c)
				st.Log(c)
				st.Walkers = append(st.Walkers, c)
				return
			}
		}
	default:
		st.Walkers = append(st.Walkers, anchor)
	}
}

// Result returns the outputs accumulated so far. The slices alias engine state.
func (eng *Engine) Result() *Result {
	return &Result{
		RunID:        eng.id,
		Positions:    eng.state.Positions,
		WalkerCounts: eng.walkerCounts,
		CellCounts:   eng.cellCounts,
		Grid:         eng.state.Grid,
		Oxygen:       eng.state.Oxygen,
	}
}

// Run executes the remaining ticks, reporting each to progressFn (which may be nil).
// The tick loop has no termination condition of its own: an empty population still
// runs to NumSteps. Only ctx cancellation stops a run early, in which case the
// partial result is returned alongside the context error.
func (eng *Engine) Run(ctx context.Context, progressFn ProgressFunc) (*Result, error) {
	eng.logger.Info("run started",
		"gridSize", eng.cfg.GridSize,
		"oxygenBias", eng.cfg.OxygenBias,
		"nwBias", eng.cfg.NwBias,
		"numSteps", eng.cfg.NumSteps,
		"maxWalkers", eng.cfg.MaxWalkers,
		"spawnMode", eng.cfg.SpawnMode)

	for !eng.Done() {
		if err := ctx.Err(); err != nil {
			eng.logger.Warn("run cancelled", "tick", eng.tick, "err", err)
			return eng.Result(), fmt.Errorf("run cancelled at tick %d: %w", eng.tick, err)
		}

		stats := eng.Step()
		if progressFn != nil {
			progressFn(ctx, stats)
		}
	}

	res := eng.Result()
	eng.logger.Info("run finished",
		"walkers", len(eng.state.Walkers),
		"cells", len(res.Positions),
		"occupied", res.Grid.Count())
	return res, nil
}

// Simulate is the one-shot form: build an engine and run it to completion.
func Simulate(cfg Config, rng Source) (*Result, error) {
	eng, err := NewEngine(cfg, rng, nil)
	if err != nil {
		return nil, err
	}
	return eng.Run(context.Background(), nil)
}
