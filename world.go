package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tile-planner/agent"
	"tile-planner/pathfinding"
)

var (
	errUnknownAgent = errors.New("unknown agent")
	errCellOutside  = errors.New("cell outside map")
)

// World owns the current tile map and the agents walking on it. The grid
// is never mutated in place: a reload swaps in a new map, so searches can
// run on a snapshot outside the lock.
type World struct {
	mu      sync.RWMutex
	tileMap *TileMap
	agents  map[string]*agent.Follower

	cfg    *Config
	logger *slog.Logger
}

// AgentView is a read-only snapshot of one agent
type AgentView struct {
	ID         string                 `json:"id"`
	Position   Point                  `json:"position"`
	Cell       pathfinding.Position   `json:"cell"`
	Facing     string                 `json:"facing"`
	State      string                 `json:"state"`
	Remaining  []pathfinding.Position `json:"remaining"`
	Target     *Point                 `json:"target,omitempty"`
	LastSearch *SearchSummary         `json:"lastSearch,omitempty"`
}

// SearchSummary describes an agent's most recent search
type SearchSummary struct {
	Result    string  `json:"result"`
	Cost      float64 `json:"cost"`
	Expanded  int     `json:"expanded"`
	PathNodes int     `json:"pathNodes"`
}

func NewWorld(m *TileMap, cfg *Config, logger *slog.Logger) *World {
	return &World{
		tileMap: m,
		agents:  make(map[string]*agent.Follower),
		cfg:     cfg,
		logger:  logger,
	}
}

func (w *World) searchOptions() []pathfinding.Option {
	if w.cfg.Search.MaxExpansions > 0 {
		return []pathfinding.Option{pathfinding.WithMaxExpansions(w.cfg.Search.MaxExpansions)}
	}
	return nil
}

// Map returns the current map
func (w *World) Map() *TileMap {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tileMap
}

// Route searches the current map between two cells and returns the map it
// searched, which may already have been replaced when Route returns.
func (w *World) Route(ctx context.Context, start, goal pathfinding.Position) (pathfinding.Result, *TileMap, error) {
	_, span := tracer.Start(ctx, "World.Route",
		trace.WithAttributes(
			attribute.Int("start_x", start.X),
			attribute.Int("start_y", start.Y),
			attribute.Int("goal_x", goal.X),
			attribute.Int("goal_y", goal.Y),
		),
	)
	defer span.End()

	m := w.Map()
	for _, p := range []pathfinding.Position{start, goal} {
		if !m.Grid.InBounds(p.X, p.Y) {
			err := fmt.Errorf("%w: %v not in %dx%d", errCellOutside, p, m.Grid.Width(), m.Grid.Height())
			span.RecordError(err)
			span.SetStatus(codes.Error, "out of bounds")
			return pathfinding.Result{}, m, err
		}
	}

	began := time.Now()
	result := pathfinding.FindPathOnGrid(m.Grid, start, goal, w.searchOptions()...)
	observeSearch("route", result, time.Since(began))

	span.SetAttributes(
		attribute.Bool("found", result.Found),
		attribute.Int("expanded", result.Expanded()),
	)
	span.SetStatus(codes.Ok, searchOutcome(result))
	return result, m, nil
}

func (w *World) newFollower(id string, m *TileMap, at orb.Point) *agent.Follower {
	return agent.New(m.Grid, at,
		agent.WithTileSize(m.TileSize),
		agent.WithSpeed(w.cfg.Agent.Speed),
		agent.WithSearchOptions(w.searchOptions()...),
		agent.WithIdleHandler(func() {
			w.logger.Debug("agent idle", slog.String("agent", id))
		}),
	)
}

// follower returns the agent, or a new one at the spawn cell that is not yet
// registered. Callers hold the write lock and call register once the first
// command on a new agent succeeded.
func (w *World) follower(id string) (*agent.Follower, bool) {
	if f, ok := w.agents[id]; ok {
		return f, false
	}
	return w.newFollower(id, w.tileMap, cellCenter(w.tileMap.Spawn, w.tileMap.TileSize)), true
}

func (w *World) register(id string, f *agent.Follower) {
	w.agents[id] = f
	activeAgents.Set(float64(len(w.agents)))
	w.logger.Info("agent spawned", slog.String("agent", id), slog.String("cell", w.tileMap.Spawn.String()))
}

// MoveAgent sends an agent (spawning it if needed) towards a world position
func (w *World) MoveAgent(ctx context.Context, id string, target Point) (AgentView, pathfinding.Result, error) {
	_, span := tracer.Start(ctx, "World.MoveAgent",
		trace.WithAttributes(
			attribute.String("agent", id),
			attribute.Float64("target_x", target.X),
			attribute.Float64("target_y", target.Y),
		),
	)
	defer span.End()

	w.mu.Lock()
	defer w.mu.Unlock()

	f, created := w.follower(id)

	began := time.Now()
	result, err := f.MoveToTarget(target.Orb())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "move rejected")
		return AgentView{}, pathfinding.Result{}, err
	}
	if created {
		w.register(id, f)
	}
	observeSearch("agent", result, time.Since(began))
	span.SetStatus(codes.Ok, searchOutcome(result))

	w.logger.Info("agent move",
		slog.String("agent", id),
		slog.String("from", f.Cell().String()),
		slog.String("to", worldToCell(target.Orb(), w.tileMap.TileSize).String()),
		slog.String("result", searchOutcome(result)),
		slog.Int("path_len", len(result.Path)),
	)
	return viewOf(id, f), result, nil
}

// TeleportAgent snaps an agent (spawning it if needed) to a cell centre
func (w *World) TeleportAgent(id string, target Point) (AgentView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, created := w.follower(id)
	if err := f.Teleport(target.Orb()); err != nil {
		return AgentView{}, err
	}
	if created {
		w.register(id, f)
	}
	return viewOf(id, f), nil
}

// Agent returns a snapshot of one agent
func (w *World) Agent(id string) (AgentView, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	f, ok := w.agents[id]
	if !ok {
		return AgentView{}, fmt.Errorf("%w: %q", errUnknownAgent, id)
	}
	return viewOf(id, f), nil
}

// AgentCount returns how many agents exist
func (w *World) AgentCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.agents)
}

// Tick advances every agent by dt seconds
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.agents {
		f.Advance(dt)
	}
}

// Run drives Tick from a fixed-step clock until ctx is cancelled
func (w *World) Run(ctx context.Context, tickRate int) {
	if tickRate <= 0 {
		tickRate = 20
	}
	step := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(step.Seconds())
		}
	}
}

// ReplaceMap swaps in a new map and replans every moving agent towards its
// target. Agents left outside the new map are moved to its spawn. It
// returns the number of agents that were replanned.
func (w *World) ReplaceMap(m *TileMap) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	old := w.tileMap
	w.tileMap = m

	replanned := 0
	for id, f := range w.agents {
		target, hasTarget := f.Target()
		moving := f.State() == agent.Moving

		if m.TileSize != old.TileSize {
			f = w.newFollower(id, m, f.Position())
			w.agents[id] = f
		} else {
			f.SetGrid(m.Grid)
		}

		cell := f.Cell()
		if !m.Grid.InBounds(cell.X, cell.Y) {
			_ = f.Teleport(cellCenter(m.Spawn, m.TileSize))
			w.logger.Warn("agent outside new map, moved to spawn", slog.String("agent", id))
			continue
		}
		if !moving || !hasTarget {
			continue
		}

		result, err := f.MoveToTarget(target)
		if err != nil {
			f.Stop()
			w.logger.Warn("agent replan failed", slog.String("agent", id), slog.Any("error", err))
			continue
		}
		replanned++
		agentReplans.Inc()
		w.logger.Info("agent replanned",
			slog.String("agent", id),
			slog.String("result", searchOutcome(result)),
			slog.Int("path_len", len(result.Path)),
		)
	}
	return replanned
}

func viewOf(id string, f *agent.Follower) AgentView {
	v := AgentView{
		ID:        id,
		Position:  pointFromOrb(f.Position()),
		Cell:      f.Cell(),
		Facing:    f.Facing().String(),
		State:     f.State().String(),
		Remaining: f.Remaining(),
	}
	if target, ok := f.Target(); ok {
		p := pointFromOrb(target)
		v.Target = &p

		last := f.LastSearch()
		v.LastSearch = &SearchSummary{
			Result:    searchOutcome(last),
			Cost:      last.Cost,
			Expanded:  last.Expanded(),
			PathNodes: len(last.Path),
		}
	}
	return v
}
