package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tile-planner/agent"
	"tile-planner/pathfinding"
)

type RouteRequest struct {
	Start   pathfinding.Position `json:"start"`
	Goal    pathfinding.Position `json:"goal"`
	Inspect bool                 `json:"inspect,omitempty"` // include per-node costs
}

type RouteResponse struct {
	Path      []pathfinding.Position `json:"path"`
	Waypoints []Point                `json:"waypoints,omitempty"`
	Success   bool                   `json:"success"`
	Message   string                 `json:"message,omitempty"`
	Cost      float64                `json:"cost"`
	Expanded  int                    `json:"expanded"`
	Truncated bool                   `json:"truncated,omitempty"`
	Trace     []pathfinding.Position `json:"trace"`
	Open      []pathfinding.Position `json:"open"`
	Closed    []pathfinding.Position `json:"closed"`
	Nodes     []pathfinding.NodeInfo `json:"nodes,omitempty"`
}

type MapResponse struct {
	Name     string               `json:"name"`
	Source   string               `json:"source"`
	TileSize float64              `json:"tileSize"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Walkable int                  `json:"walkable"`
	Spawn    pathfinding.Position `json:"spawn"`
	Rows     []string             `json:"rows"`
}

type TargetRequest struct {
	Target Point `json:"target"`
}

type MoveResponse struct {
	Agent    AgentView              `json:"agent"`
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	Path     []pathfinding.Position `json:"path"`
	Cost     float64                `json:"cost"`
	Expanded int                    `json:"expanded"`
}

// Server exposes the world over HTTP
type Server struct {
	world  *World
	cfg    *Config
	logger *slog.Logger

	// reloads are serialized so a watcher event and an HTTP reload
	// cannot interleave
	reloadMu sync.Mutex
}

func NewServer(world *World, cfg *Config, logger *slog.Logger) *Server {
	return &Server{world: world, cfg: cfg, logger: logger}
}

// Handler returns the full HTTP API with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /route", s.routeHandler)
	mux.HandleFunc("GET /map", s.mapHandler)
	mux.HandleFunc("POST /map/reload", s.reloadHandler)
	mux.HandleFunc("GET /agents/{id}", s.agentHandler)
	mux.HandleFunc("POST /agents/{id}/move", s.moveHandler)
	mux.HandleFunc("POST /agents/{id}/teleport", s.teleportHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func cells(nodes []*pathfinding.Node) []pathfinding.Position {
	out := make([]pathfinding.Position, len(nodes))
	for i, n := range nodes {
		out[i] = n.Position
	}
	return out
}

// POST /route - search between two cells of the current map
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid route request", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, m, err := s.world.Route(r.Context(), req.Start, req.Goal)
	if errors.Is(err, errCellOutside) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("route failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "route failed")
		return
	}

	path := cells(result.Path)
	response := RouteResponse{
		Path:      path,
		Success:   result.Found,
		Expanded:  result.Expanded(),
		Truncated: result.Truncated,
		Trace:     cells(result.Trace),
		Open:      cells(result.Open),
		Closed:    cells(result.Closed),
	}
	if result.Found {
		response.Cost = result.Cost
		response.Waypoints = pathWaypoints(path, m.TileSize)
	} else if result.Truncated {
		response.Message = "search stopped at the expansion limit"
	} else {
		response.Message = "goal is not reachable from start"
	}
	if req.Inspect {
		response.Nodes = pathfinding.Inspect(result)
	}

	s.logger.Info("route",
		slog.String("start", req.Start.String()),
		slog.String("goal", req.Goal.String()),
		slog.String("result", searchOutcome(result)),
		slog.Int("path_len", len(path)),
		slog.Int("expanded", response.Expanded),
	)
	writeJSON(w, http.StatusOK, response)
}

// GET /map - the current grid as rows of '.' (walkable) and '#' (blocked)
func (s *Server) mapHandler(w http.ResponseWriter, r *http.Request) {
	m := s.world.Map()
	grid := m.Grid

	rows := make([]string, grid.Height())
	line := make([]byte, grid.Width())
	for y := range rows {
		for x := range line {
			if grid.At(x, y).Walkable {
				line[x] = '.'
			} else {
				line[x] = '#'
			}
		}
		rows[y] = string(line)
	}

	writeJSON(w, http.StatusOK, MapResponse{
		Name:     m.Name,
		Source:   m.Source,
		TileSize: m.TileSize,
		Width:    grid.Width(),
		Height:   grid.Height(),
		Walkable: grid.WalkableCount(),
		Spawn:    m.Spawn,
		Rows:     rows,
	})
}

// reload loads the configured map again and swaps it into the world
func (s *Server) reload() (*TileMap, int, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	m, err := loadConfiguredMap(s.cfg.Map, s.logger)
	if err != nil {
		mapReloads.WithLabelValues("error").Inc()
		return nil, 0, err
	}
	replanned := s.world.ReplaceMap(m)
	mapReloads.WithLabelValues("ok").Inc()
	s.logger.Info("map reloaded", slog.String("map", m.Name), slog.Int("replanned", replanned))
	return m, replanned, nil
}

// POST /map/reload - re-read the map file and replan moving agents
func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	m, replanned, err := s.reload()
	if err != nil {
		s.logger.Error("map reload failed", slog.Any("error", err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"map":       m.Name,
		"replanned": replanned,
	})
}

// GET /agents/{id}
func (s *Server) agentHandler(w http.ResponseWriter, r *http.Request) {
	view, err := s.world.Agent(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func agentStatus(err error) int {
	if errors.Is(err, agent.ErrOutOfBounds) {
		return http.StatusBadRequest
	}
	if errors.Is(err, errUnknownAgent) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// POST /agents/{id}/move - send an agent towards a world position
func (s *Server) moveHandler(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, result, err := s.world.MoveAgent(r.Context(), r.PathValue("id"), req.Target)
	if err != nil {
		writeError(w, agentStatus(err), err.Error())
		return
	}

	response := MoveResponse{
		Agent:    view,
		Success:  result.Found,
		Path:     cells(result.Path),
		Expanded: result.Expanded(),
	}
	if result.Found {
		response.Cost = result.Cost
	} else {
		response.Message = "target is not reachable"
	}
	writeJSON(w, http.StatusOK, response)
}

// POST /agents/{id}/teleport - snap an agent to a cell centre
func (s *Server) teleportHandler(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.world.TeleportAgent(r.PathValue("id"), req.Target)
	if err != nil {
		writeError(w, agentStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	m := s.world.Map()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"map":    m.Name,
		"width":  m.Grid.Width(),
		"height": m.Grid.Height(),
		"agents": s.world.AgentCount(),
	})
}

// watchMap reloads the world whenever the map or obstacle file changes.
// The watcher is rebuilt when a reload points at a different obstacle file.
func (s *Server) watchMap(ctx context.Context) {
	for {
		m := s.world.Map()
		watcher, err := NewMapWatcher(m.Source, m.Obstacles)
		if err != nil {
			s.logger.Error("map watcher failed", slog.Any("error", err))
			return
		}
		s.logger.Info("watching map", slog.String("file", m.Source), slog.String("obstacles", m.Obstacles))

		restart := s.watchOnce(ctx, watcher, m.Obstacles)
		_ = watcher.Close()
		if !restart {
			return
		}
	}
}

func (s *Server) watchOnce(ctx context.Context, watcher *MapWatcher, obstacles string) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case name, ok := <-watcher.Events:
			if !ok {
				return false
			}
			s.logger.Info("map file changed", slog.String("file", name))
			m, _, err := s.reload()
			if err != nil {
				s.logger.Error("map reload failed", slog.Any("error", err))
				continue
			}
			if m.Obstacles != obstacles {
				return true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false
			}
			s.logger.Warn("map watcher error", slog.Any("error", err))
		}
	}
}

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults when empty)")
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			slog.Error("config", slog.Any("error", err))
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	m, err := loadConfiguredMap(cfg.Map, logger)
	if err != nil {
		logger.Error("failed to load map", slog.Any("error", err))
		os.Exit(1)
	}

	world := NewWorld(m, cfg, logger)
	server := NewServer(world, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go world.Run(ctx, cfg.Server.TickRate)
	if cfg.Map.Watch && cfg.Map.Path != "" {
		go server.watchMap(ctx)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("tile planner starting",
		slog.String("addr", httpServer.Addr),
		slog.String("map", m.Name),
		slog.Int("tick_rate", cfg.Server.TickRate),
		slog.Bool("watch", cfg.Map.Watch),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("tile planner stopped")
}
