package stat_views

import (
	"fmt"
	"html/template"
	"strconv"

	"oxywalk/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const (
	countsWidth  = 600.0
	countsHeight = 240.0
)

// Counts plots the walker and deposited-cell series as two polylines, with the
// latest values as text.
type Counts struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewCounts(
	done <-chan struct{},
	models <-chan Model,
) *Counts {
	cv := &Counts{id: "counts"}
	cv.updates = channerics.Convert(done, models, cv.onUpdate)
	return cv
}

func (cv *Counts) Updates() <-chan []fastview.EleUpdate {
	return cv.updates
}

func (cv *Counts) points(series []int, m Model) string {
	return polyline(toFloats(series), m.NumSteps, float64(m.PeakCount()), countsWidth, countsHeight)
}

func (cv *Counts) onUpdate(m Model) []fastview.EleUpdate {
	text := func(suffix, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: cv.id + "-" + suffix,
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: value}},
		}
	}

	walkers, cells := 0, 0
	if n := len(m.Walkers); n > 0 {
		walkers, cells = m.Walkers[n-1], m.Cells[n-1]
	}

	return []fastview.EleUpdate{
		{
			EleId: cv.id + "-walkers-line",
			Ops:   []fastview.Op{{Key: "points", Value: cv.points(m.Walkers, m)}},
		},
		{
			EleId: cv.id + "-cells-line",
			Ops:   []fastview.Op{{Key: "points", Value: cv.points(m.Cells, m)}},
		},
		text("tick", fmt.Sprintf("%d / %d", m.Tick+1, m.NumSteps)),
		text("walkers", strconv.Itoa(walkers)),
		text("cells", strconv.Itoa(cells)),
		text("meanz", fmt.Sprintf("%.2f", m.MeanZ)),
		text("ymax", strconv.Itoa(m.PeakCount())),
	}
}

// Parse defines the counts template, rendered from the initial Model.
func (cv *Counts) Parse(t *template.Template) (name string, err error) {
	name = cv.id + "view"
	_, err = t.Funcs(template.FuncMap{
		"countsPoints": cv.points,
	}).Parse(`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<div>
				tick <span id="` + cv.id + `-tick">{{ add .Tick 1 }} / {{ .NumSteps }}</span>
				&nbsp; walkers <span id="` + cv.id + `-walkers" style="color:blue;">0</span>
				&nbsp; cancer cells <span id="` + cv.id + `-cells" style="color:darkorange;">0</span>
				&nbsp; mean z <span id="` + cv.id + `-meanz">{{ printf "%.2f" .MeanZ }}</span>
			</div>
			<svg id="` + cv.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprint(countsWidth) + `px" height="` + fmt.Sprint(countsHeight) + `px"
				style="border: 1px solid lightgrey;">
				<polyline id="` + cv.id + `-walkers-line" fill="none" stroke="blue" stroke-width="2"
					points="{{ countsPoints .Walkers . }}"/>
				<polyline id="` + cv.id + `-cells-line" fill="none" stroke="darkorange" stroke-width="2"
					points="{{ countsPoints .Cells . }}"/>
				<text id="` + cv.id + `-ymax" x="4" y="14" font-size="12">{{ .PeakCount }}</text>
			</svg>
		</div>
		{{ end }}`)
	return
}
