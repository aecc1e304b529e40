// plotting renders a finished run to png figures: the deposited cells, the two count
// series, and the occupancy profile along the oxygen gradient.
package plotting

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"oxywalk/lattice"
	"oxywalk/walk"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure file names, one per plot.
const (
	PositionsFile    = "graph.png"
	WalkerCountFile  = "walkercount.png"
	CellCountFile    = "cellcount.png"
	DistributionFile = "distribution.png"
)

var (
	figWidth  = 8 * vg.Inch
	figHeight = 6 * vg.Inch

	red    = color.RGBA{R: 220, A: 255}
	blue   = color.RGBA{B: 220, A: 255}
	orange = color.RGBA{R: 255, G: 165, A: 255}
	green  = color.RGBA{G: 160, A: 255}
)

// WriteAll saves every figure for res into dir, creating it if needed,
// and returns the written paths in a fixed order.
func WriteAll(dir string, res *walk.Result) (paths []string, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	figures := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{PositionsFile, func() (*plot.Plot, error) { return Positions(res.Positions) }},
		{WalkerCountFile, func() (*plot.Plot, error) {
			return CountSeries("Walker Counts over Time", "Walker Counts", res.WalkerCounts, blue)
		}},
		{CellCountFile, func() (*plot.Plot, error) {
			return CountSeries("Total Cancer Cells Over Time", "Total Cancer Cells", res.CellCounts, orange)
		}},
		{DistributionFile, func() (*plot.Plot, error) { return Distribution(res.ZDistribution(), res.Oxygen) }},
	}

	for _, fig := range figures {
		var p *plot.Plot
		if p, err = fig.build(); err != nil {
			return paths, fmt.Errorf("build %s: %w", fig.name, err)
		}
		path := filepath.Join(dir, fig.name)
		if err = p.Save(figWidth, figHeight, path); err != nil {
			return paths, fmt.Errorf("save %s: %w", fig.name, err)
		}
		paths = append(paths, path)
	}
	return
}

// Positions scatters the logged cells projected onto the x/z plane, so the drift
// along the oxygen axis reads vertically.
func Positions(positions []lattice.Coord) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Biased Cancer Cell Random Walk (x/z projection)"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"
	p.Add(plotter.NewGrid())

	// An empty log leaves just the axes.
	if len(positions) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(positions))
	for i, c := range positions {
		pts[i].X = float64(c.X)
		pts[i].Y = float64(c.Z)
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = red
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	return p, nil
}

// CountSeries plots one per-tick count series as a line over the tick index.
func CountSeries(title, ylabel string, counts []int, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Step"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	if len(counts) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(counts))
	for i, n := range counts {
		pts[i].X = float64(i)
		pts[i].Y = float64(n)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// Distribution draws occupied cells per z layer as bars, overlaid with the oxygen
// profile scaled to the tallest bar.
func Distribution(zCounts []int, oxygen []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cell Distribution Along Oxygen Gradient (Z-axis)"
	p.X.Label.Text = "Z Position"
	p.Y.Label.Text = "Cell Count"
	p.Add(plotter.NewGrid())

	vals := make(plotter.Values, len(zCounts))
	peak := 0.0
	for z, n := range zCounts {
		vals[z] = float64(n)
		if vals[z] > peak {
			peak = vals[z]
		}
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(8))
	if err != nil {
		return nil, err
	}
	bars.Color = green
	bars.LineStyle.Color = color.Black
	p.Add(bars)

	if len(oxygen) == len(zCounts) && peak > 0 {
		pts := make(plotter.XYs, len(oxygen))
		for z, o := range oxygen {
			pts[z].X = float64(z)
			pts[z].Y = o * peak
		}
		profile, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		profile.Color = plotutil.Color(0)
		profile.Dashes = plotutil.Dashes(1)
		p.Add(profile)
		p.Legend.Add("oxygen (scaled)", profile)
		p.Legend.Top = true
	}
	return p, nil
}
