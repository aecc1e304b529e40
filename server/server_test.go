package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oxywalk/server/fastview"
	"oxywalk/walk"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

func testFrame(tick, walkers, cells int) walk.Frame {
	return walk.Frame{
		Stats:    walk.TickStats{Tick: tick, Walkers: walkers, Cells: cells, MeanZ: 1},
		NumSteps: 3,
		ZCounts:  []int{0, 2, 1},
		Oxygen:   []float64{0, 0.5, 1},
	}
}

func getStats(t *testing.T, url string) statsResponse {
	resp, err := http.Get(url + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	return stats
}

func TestServer(t *testing.T) {
	Convey("Given a server over a frame stream", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := make(chan walk.Frame)
		server, err := NewServer(ctx, "", testFrame(-1, 1, 0), frames, nil)
		So(err, ShouldBeNil)
		srv := httptest.NewServer(server.Handler())
		defer srv.Close()

		Convey("The index renders the initial state", func() {
			resp, err := http.Get(srv.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "text/html")
			So(string(body), ShouldContainSubstring, `id="counts"`)
			So(string(body), ShouldContainSubstring, `id="zprofile-bar-2"`)
		})

		Convey("Unknown routes are not found", func() {
			resp, err := http.Get(srv.URL + "/nope")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("Stats start from the initial frame", func() {
			stats := getStats(t, srv.URL)
			So(stats.Tick, ShouldEqual, -1)
			So(stats.NumSteps, ShouldEqual, 3)
			So(stats.WalkerHistory, ShouldBeEmpty)
			So(stats.ZCounts, ShouldResemble, []int{0, 2, 1})
		})

		Convey("A websocket client receives the final state and stats follow the frames", func() {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			go func() {
				frames <- testFrame(0, 2, 1)
				frames <- testFrame(1, 4, 2)
				frames <- testFrame(2, 3, 3)
				close(frames)
			}()

			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			latest := map[string]string{}
			for {
				var updates []fastview.EleUpdate
				if err := conn.ReadJSON(&updates); err != nil {
					break
				}
				for _, update := range updates {
					if update.Ops[0].Key == fastview.TextContent {
						latest[update.EleId] = update.Ops[0].Value
					}
				}
			}
			So(latest["counts-walkers"], ShouldEqual, "3")
			So(latest["counts-tick"], ShouldEqual, "3 / 3")

			stats := getStats(t, srv.URL)
			So(stats.Tick, ShouldEqual, 2)
			So(stats.Walkers, ShouldEqual, 3)
			So(stats.Cells, ShouldEqual, 3)
			So(stats.WalkerHistory, ShouldResemble, []int{2, 4, 3})
		})
	})
}
