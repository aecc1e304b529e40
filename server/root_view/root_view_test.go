package root_view

import (
	"context"
	"html/template"
	"strings"
	"testing"
	"time"

	"oxywalk/server/fastview"
	"oxywalk/server/stat_views"
	"oxywalk/walk"

	. "github.com/smartystreets/goconvey/convey"
)

func textUpdate(id, value string) []fastview.EleUpdate {
	return []fastview.EleUpdate{{EleId: id, Ops: []fastview.Op{{Key: fastview.TextContent, Value: value}}}}
}

func TestBatchify(t *testing.T) {
	Convey("Given a batchify pipeline", t, func() {
		done := make(chan struct{})
		defer close(done)
		source := make(chan []fastview.EleUpdate)
		output := batchify(done, source, time.Millisecond*5)

		Convey("Updates to the same ele-id collapse to the newest", func() {
			for _, v := range []string{"1", "2", "3"} {
				source <- textUpdate("tick", v)
			}
			source <- textUpdate("walkers", "9")
			close(source)

			latest := map[string]string{}
			for batch := range output {
				for _, update := range batch {
					latest[update.EleId] = update.Ops[0].Value
				}
			}
			So(latest, ShouldResemble, map[string]string{"tick": "3", "walkers": "9"})
		})

		Convey("The source is drained while nobody reads the output", func() {
			sent := make(chan struct{})
			go func() {
				for i := 0; i < 100; i++ {
					source <- textUpdate("tick", "x")
				}
				close(sent)
			}()
			select {
			case <-sent:
			case <-time.After(2 * time.Second):
				t.Fatal("source blocked")
			}
			close(source)
			batch := <-output
			So(batch, ShouldHaveLength, 1)
		})
	})
}

func TestRootView(t *testing.T) {
	Convey("Given a root view over a frame stream", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := make(chan walk.Frame)
		var observed []stat_views.Model
		rv, err := NewRootView(ctx, frames, func(m stat_views.Model) {
			observed = append(observed, m)
		})
		So(err, ShouldBeNil)

		Convey("The page template renders every view", func() {
			tmpl := template.New("index.html")
			name, err := rv.Parse(tmpl)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "mainpage")

			var sb strings.Builder
			initial := (&stat_views.Historian{}).Convert(walk.Frame{
				Stats:    walk.TickStats{Tick: -1, Walkers: 1},
				NumSteps: 5,
				ZCounts:  []int{0, 1, 0},
				Oxygen:   []float64{0, 0.5, 1},
			})
			So(tmpl.ExecuteTemplate(&sb, name, initial), ShouldBeNil)
			So(sb.String(), ShouldContainSubstring, `id="counts"`)
			So(sb.String(), ShouldContainSubstring, `id="zprofile"`)
			So(sb.String(), ShouldContainSubstring, "location.host")
		})

		Convey("Frames become element updates and are observed", func() {
			go func() {
				frames <- walk.Frame{
					Stats:    walk.TickStats{Tick: 0, Walkers: 2, Cells: 1},
					NumSteps: 5,
					ZCounts:  []int{0, 1, 0},
					Oxygen:   []float64{0, 0.5, 1},
				}
				close(frames)
			}()

			ids := map[string]bool{}
			for batch := range rv.Updates() {
				for _, update := range batch {
					ids[update.EleId] = true
				}
			}
			So(ids["counts-walkers"], ShouldBeTrue)
			So(ids["zprofile-bar-1"], ShouldBeTrue)
			So(observed, ShouldHaveLength, 1)
			So(observed[0].Walkers, ShouldResemble, []int{2})
		})
	})
}
