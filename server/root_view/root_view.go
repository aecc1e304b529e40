package root_view

import (
	"context"
	"html/template"
	"time"

	"oxywalk/server/fastview"
	"oxywalk/server/stat_views"
	"oxywalk/walk"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate is how long updates accumulate before a batch is offered to the client.
const batchRate = time.Millisecond * 20

// RootView is the main page, the container for all the view components and the
// wiring for their channels.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over the frame stream. onModel, if not nil,
// observes every view-model as it is produced.
func NewRootView(
	ctx context.Context,
	frames <-chan walk.Frame,
	onModel func(stat_views.Model),
) (*RootView, error) {
	historian := &stat_views.Historian{}
	convert := func(f walk.Frame) stat_views.Model {
		m := historian.Convert(f)
		if onModel != nil {
			onModel(m)
		}
		return m
	}

	views, err := fastview.NewViewBuilder[walk.Frame, stat_views.Model]().
		WithContext(ctx).
		WithModel(frames, convert).
		WithView(func(
			done <-chan struct{},
			models <-chan stat_views.Model) fastview.ViewComponent {
			return stat_views.NewCounts(done, models)
		}).
		WithView(func(
			done <-chan struct{},
			models <-chan stat_views.Model) fastview.ViewComponent {
			return stat_views.NewZProfile(done, models)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
			"max": func(i, j int) int {
				if i > j {
					return i
				}
				return j
			},
		})

	viewTemplates := []string{}
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			err = parseErr
			return
		}
		viewTemplates = append(viewTemplates, tname)
	}

	var bodySpec string
	for _, tname := range viewTemplates {
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>oxywalk</title>
			<link rel="icon" href="data:,">
			<script>
				const scheme = location.protocol === "https:" ? "wss://" : "ws://";
				const ws = new WebSocket(scheme + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// Apply each pushed update to the element with its id.
				ws.onmessage = function (event) {
					items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (ele === null) {
							continue;
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body style="font-family: sans-serif;">
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify accumulates updates for rate before offering them downstream, keeping
// only the newest update per ele-id. The source is drained even while nobody reads
// the output, so a missing client never stalls the views. Whatever is pending when
// the source closes is sent before the output closes.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		ticker := channerics.NewTicker(done, rate)
		ready := false
		for {
			// A nil channel never sends, so the output case is off until a batch is ready.
			var out chan<- []fastview.EleUpdate
			var batch []fastview.EleUpdate
			if ready && len(data) > 0 {
				out = output
				batch = slicedVals(data)
			}

			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					if len(data) > 0 {
						select {
						case output <- slicedVals(data):
						case <-done:
						}
					}
					return
				}
				// Overwrites pre-existing values for an ele-id within this batch.
				for _, update := range updates {
					data[update.EleId] = update
				}
			case <-ticker:
				ready = true
			case out <- batch:
				data = map[string]fastview.EleUpdate{}
				ready = false
			}
		}
	}()

	return output
}

// returns the values of a map as a slice
func slicedVals[T1 comparable, T2 any](mp map[T1]T2) (sliced []T2) {
	for _, v := range mp {
		sliced = append(sliced, v)
	}
	return
}
