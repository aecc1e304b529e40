// server serves a live view of a running walk: an index page rendered from the
// latest view-model, a websocket pushing element updates, and a json stats endpoint.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"oxywalk/server/fastview"
	"oxywalk/server/root_view"
	"oxywalk/server/stat_views"
	"oxywalk/walk"

	"github.com/gorilla/mux"
)

const shutdownGrace = 5 * time.Second

// Server serves a single page over a single update stream. The stream is shared,
// so concurrent websocket clients split the batches between them; one viewer at a
// time is the intended use.
type Server struct {
	addr     string
	ctx      context.Context
	logger   *slog.Logger
	rootView *root_view.RootView

	mu     sync.RWMutex
	latest stat_views.Model
}

// NewServer builds the views over frames. initial is rendered until the first
// frame arrives.
func NewServer(
	ctx context.Context,
	addr string,
	initial walk.Frame,
	frames <-chan walk.Frame,
	logger *slog.Logger,
) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	server := &Server{
		addr:   addr,
		ctx:    ctx,
		logger: logger,
		latest: (&stat_views.Historian{}).Convert(initial),
	}

	rootView, err := root_view.NewRootView(ctx, frames, server.setLatest)
	if err != nil {
		return nil, fmt.Errorf("root view: %w", err)
	}
	server.rootView = rootView
	return server, nil
}

func (server *Server) setLatest(m stat_views.Model) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.latest = m
}

func (server *Server) snapshot() stat_views.Model {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return server.latest
}

// Handler routes the page, the websocket and the stats endpoint.
func (server *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/api/stats", server.serveStats).Methods(http.MethodGet)
	return router
}

// Serve listens on the server's address until its context is cancelled.
func (server *Server) Serve() error {
	httpServer := &http.Server{
		Addr:              server.addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-server.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}()

	server.logger.Info("serving", "addr", server.addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client until either side is done.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		server.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	server.logger.Debug("client connected", "remote", r.RemoteAddr)
	if err := cli.Sync(); err != nil {
		server.logger.Warn("client sync ended", "remote", r.RemoteAddr, "err", err)
		return
	}
	server.logger.Debug("client disconnected", "remote", r.RemoteAddr)
}

// statsResponse is the json shape of /api/stats.
type statsResponse struct {
	Tick          int       `json:"tick"`
	NumSteps      int       `json:"numSteps"`
	Walkers       int       `json:"walkers"`
	Cells         int       `json:"cells"`
	MeanZ         float64   `json:"meanZ"`
	ZCounts       []int     `json:"zCounts"`
	Oxygen        []float64 `json:"oxygen"`
	WalkerHistory []int     `json:"walkerHistory"`
	CellHistory   []int     `json:"cellHistory"`
}

func (server *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	m := server.snapshot()
	resp := statsResponse{
		Tick:          m.Tick,
		NumSteps:      m.NumSteps,
		MeanZ:         m.MeanZ,
		ZCounts:       m.ZCounts,
		Oxygen:        m.Oxygen,
		WalkerHistory: m.Walkers,
		CellHistory:   m.Cells,
	}
	if n := len(m.Walkers); n > 0 {
		resp.Walkers, resp.Cells = m.Walkers[n-1], m.Cells[n-1]
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		server.logger.Warn("encode stats", "err", err)
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	if err := renderTemplate(&page, server.rootView, server.snapshot()); err != nil {
		server.logger.Error("render index", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = page.WriteTo(w)
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
