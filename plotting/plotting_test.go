package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"oxywalk/lattice"
	"oxywalk/walk"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteAll(t *testing.T) {
	Convey("Given a finished run", t, func() {
		cfg := walk.DefaultConfig()
		cfg.GridSize = 7
		cfg.NumSteps = 40
		src, _ := walk.NewSource(5)
		res, err := walk.Simulate(cfg, src)
		So(err, ShouldBeNil)

		Convey("Every figure is written into a fresh directory", func() {
			dir := filepath.Join(t.TempDir(), "figs")
			paths, err := WriteAll(dir, res)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{
				filepath.Join(dir, PositionsFile),
				filepath.Join(dir, WalkerCountFile),
				filepath.Join(dir, CellCountFile),
				filepath.Join(dir, DistributionFile),
			})
			for _, path := range paths {
				info, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			}
		})
	})

	Convey("An empty position log still yields a plot", t, func() {
		p, err := Positions(nil)
		So(err, ShouldBeNil)
		So(p, ShouldNotBeNil)
	})

	Convey("The distribution plot tolerates an empty grid", t, func() {
		p, err := Distribution(make([]int, 3), lattice.Linspace(0, 1, 3))
		So(err, ShouldBeNil)
		So(p, ShouldNotBeNil)
	})
}
