package stat_views

import (
	"fmt"
	"html/template"
	"strconv"

	"oxywalk/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const (
	profileWidth  = 600.0
	profileHeight = 200.0
)

// ZProfile draws occupied cells per z layer as bars, under the fixed oxygen profile.
// Low z (hypoxic) is on the left.
type ZProfile struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewZProfile(
	done <-chan struct{},
	models <-chan Model,
) *ZProfile {
	zp := &ZProfile{id: "zprofile"}
	zp.updates = channerics.Convert(done, models, zp.onUpdate)
	return zp
}

func (zp *ZProfile) Updates() <-chan []fastview.EleUpdate {
	return zp.updates
}

// bar is the geometry of one layer's rect.
type bar struct {
	Z             int
	X, Y          float64
	Width, Height float64
}

func (zp *ZProfile) bars(m Model) []bar {
	n := len(m.ZCounts)
	if n == 0 {
		return nil
	}
	peak := 1
	for _, c := range m.ZCounts {
		if c > peak {
			peak = c
		}
	}

	slot := profileWidth / float64(n)
	bars := make([]bar, n)
	for z, c := range m.ZCounts {
		h := float64(c) * profileHeight / float64(peak)
		bars[z] = bar{
			Z:      z,
			X:      float64(z) * slot,
			Y:      profileHeight - h,
			Width:  slot * 0.8,
			Height: h,
		}
	}
	return bars
}

// oxygenPoints centers each oxygen sample over its bar.
func (zp *ZProfile) oxygenPoints(m Model) string {
	n := len(m.Oxygen)
	if n == 0 {
		return ""
	}
	slot := profileWidth / float64(n)
	pts := ""
	for z, o := range m.Oxygen {
		if z > 0 {
			pts += " "
		}
		pts += fmt.Sprintf("%.1f,%.1f", (float64(z)+0.4)*slot, profileHeight-o*profileHeight)
	}
	return pts
}

func (zp *ZProfile) barId(z int) string {
	return zp.id + "-bar-" + strconv.Itoa(z)
}

func (zp *ZProfile) onUpdate(m Model) (ops []fastview.EleUpdate) {
	for _, b := range zp.bars(m) {
		ops = append(ops, fastview.EleUpdate{
			EleId: zp.barId(b.Z),
			Ops: []fastview.Op{
				{Key: "y", Value: fmt.Sprintf("%.1f", b.Y)},
				{Key: "height", Value: fmt.Sprintf("%.1f", b.Height)},
			},
		})
	}
	return
}

// Parse defines the profile template. The oxygen line is static and rendered once.
func (zp *ZProfile) Parse(t *template.Template) (name string, err error) {
	name = zp.id + "view"
	_, err = t.Funcs(template.FuncMap{
		"zBars":        zp.bars,
		"zBarId":       zp.barId,
		"oxygenPoints": zp.oxygenPoints,
	}).Parse(`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<div>occupied cells per z layer (left: hypoxic, right: oxygen rich)</div>
			<svg id="` + zp.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprint(profileWidth) + `px" height="` + fmt.Sprint(profileHeight) + `px"
				style="border: 1px solid lightgrey;">
				{{ range $b := zBars . }}
					<rect id="{{ zBarId $b.Z }}" x="{{ $b.X }}" y="{{ $b.Y }}"
						width="{{ $b.Width }}" height="{{ $b.Height }}" fill="green"/>
				{{ end }}
				<polyline id="` + zp.id + `-oxygen" fill="none" stroke="steelblue"
					stroke-dasharray="4 2" points="{{ oxygenPoints . }}"/>
			</svg>
		</div>
		{{ end }}`)
	return
}
