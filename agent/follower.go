// Package agent moves a single entity along grid paths, one leg per tile,
// driven by a fixed-step simulation clock.
package agent

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"

	"tile-planner/pathfinding"
)

var (
	// ErrOutOfBounds is returned when a world position maps outside the grid.
	ErrOutOfBounds = errors.New("agent: position outside grid")
	// ErrNoTarget is returned by Replan when no target was ever requested.
	ErrNoTarget = errors.New("agent: no target to replan towards")
)

const (
	DefaultTileSize = 96.0
	DefaultSpeed    = 2.0
)

type Facing int

const (
	FacingRight Facing = iota
	FacingLeft
)

func (f Facing) String() string {
	if f == FacingLeft {
		return "left"
	}
	return "right"
}

type State int

const (
	Idle State = iota
	Moving
)

func (s State) String() string {
	if s == Moving {
		return "moving"
	}
	return "idle"
}

// Options configures a Follower.
type Options struct {
	TileSize      float64
	Speed         float64
	OnIdle        func()
	SearchOptions []pathfinding.Option
}

type Option func(*Options)

// WithTileSize sets the world size of one grid cell.
func WithTileSize(size float64) Option {
	return func(o *Options) { o.TileSize = size }
}

// WithSpeed sets how many legs (tiles) the agent covers per second.
func WithSpeed(legsPerSecond float64) Option {
	return func(o *Options) { o.Speed = legsPerSecond }
}

// WithIdleHandler registers a callback fired when the agent comes to rest
// at the end of a path.
func WithIdleHandler(fn func()) Option {
	return func(o *Options) { o.OnIdle = fn }
}

// WithSearchOptions forwards options to every search the follower issues.
func WithSearchOptions(opts ...pathfinding.Option) Option {
	return func(o *Options) { o.SearchOptions = append(o.SearchOptions, opts...) }
}

// Follower tweens an agent's world position along a computed path. It is
// not safe for concurrent use.
type Follower struct {
	grid    *pathfinding.Grid
	options Options

	position orb.Point
	facing   Facing
	state    State

	path     []pathfinding.Position
	legStart orb.Point
	legEnd   orb.Point
	t        float64

	target    orb.Point
	hasTarget bool
	last      pathfinding.Result
}

// New places an idle agent at position on grid.
func New(grid *pathfinding.Grid, position orb.Point, opts ...Option) *Follower {
	options := Options{TileSize: DefaultTileSize, Speed: DefaultSpeed}
	for _, o := range opts {
		o(&options)
	}
	if options.TileSize <= 0 {
		options.TileSize = DefaultTileSize
	}
	if options.Speed <= 0 {
		options.Speed = DefaultSpeed
	}
	return &Follower{
		grid:     grid,
		options:  options,
		position: position,
		legStart: position,
		legEnd:   position,
	}
}

func (f *Follower) Position() orb.Point { return f.position }
func (f *Follower) Facing() Facing      { return f.facing }
func (f *Follower) State() State        { return f.state }

// LastSearch returns the result of the most recent search.
func (f *Follower) LastSearch() pathfinding.Result { return f.last }

// Target returns the most recently requested destination.
func (f *Follower) Target() (orb.Point, bool) { return f.target, f.hasTarget }

// Remaining returns the cells still queued after the current leg.
func (f *Follower) Remaining() []pathfinding.Position {
	return slices.Clone(f.path)
}

// Cell returns the grid cell under the agent.
func (f *Follower) Cell() pathfinding.Position {
	return f.cellOf(f.position)
}

func (f *Follower) cellOf(p orb.Point) pathfinding.Position {
	return pathfinding.Position{
		X: int(math.Floor(p.X() / f.options.TileSize)),
		Y: int(math.Floor(p.Y() / f.options.TileSize)),
	}
}

// CellCenter returns the world position of a cell's centre.
func (f *Follower) CellCenter(p pathfinding.Position) orb.Point {
	half := f.options.TileSize / 2
	return orb.Point{
		float64(p.X)*f.options.TileSize + half,
		float64(p.Y)*f.options.TileSize + half,
	}
}

func (f *Follower) inBounds(p pathfinding.Position) bool {
	return f.grid.InBounds(p.X, p.Y)
}

// MoveToTarget searches from the agent's current cell to the target's cell
// and replaces any path in progress. The agent is put at rest where it
// stands, so the next Advance starts the first leg of the new path.
func (f *Follower) MoveToTarget(target orb.Point) (pathfinding.Result, error) {
	from, to := f.Cell(), f.cellOf(target)
	if !f.inBounds(from) {
		return pathfinding.Result{}, fmt.Errorf("%w: agent at %v", ErrOutOfBounds, from)
	}
	if !f.inBounds(to) {
		return pathfinding.Result{}, fmt.Errorf("%w: target %v", ErrOutOfBounds, to)
	}

	result := pathfinding.FindPathOnGrid(f.grid, from, to, f.options.SearchOptions...)
	f.target, f.hasTarget = target, true
	f.last = result
	f.legStart, f.legEnd = f.position, f.position
	f.t = 0

	cells := result.Positions()
	if len(cells) > 1 {
		// the first cell is the one the agent already occupies
		cells = cells[1:]
	}
	f.path = cells

	if len(f.path) > 0 {
		f.state = Moving
	} else {
		f.setIdle()
	}
	return result, nil
}

// Replan re-issues the last target from the agent's current position,
// typically after the grid changed.
func (f *Follower) Replan() (pathfinding.Result, error) {
	if !f.hasTarget {
		return pathfinding.Result{}, ErrNoTarget
	}
	return f.MoveToTarget(f.target)
}

// SetGrid swaps the world the follower plans against. The current path is
// kept until the next MoveToTarget or Replan.
func (f *Follower) SetGrid(grid *pathfinding.Grid) {
	f.grid = grid
}

// Teleport snaps the agent to the centre of the target cell and drops any
// path in progress.
func (f *Follower) Teleport(target orb.Point) error {
	cell := f.cellOf(target)
	if !f.inBounds(cell) {
		return fmt.Errorf("%w: teleport target %v", ErrOutOfBounds, cell)
	}
	f.position = f.CellCenter(cell)
	f.legStart, f.legEnd = f.position, f.position
	f.path = nil
	f.t = 0
	f.setIdle()
	return nil
}

// Stop drops the remaining path and leaves the agent at rest where it is.
func (f *Follower) Stop() {
	f.path = nil
	f.legStart, f.legEnd = f.position, f.position
	f.t = 0
	f.setIdle()
}

// Advance moves the agent dt seconds along its path and returns the
// resulting state.
func (f *Follower) Advance(dt float64) State {
	for f.legStart == f.legEnd && len(f.path) > 0 {
		next := f.path[0]
		f.path = f.path[1:]
		f.legEnd = f.CellCenter(next)
		if f.legEnd.X() < f.legStart.X() {
			f.facing = FacingLeft
		} else if f.legEnd.X() > f.legStart.X() {
			f.facing = FacingRight
		}
		f.t = 0
	}

	if f.legStart == f.legEnd {
		if f.state == Moving {
			f.setIdle()
		}
		return f.state
	}

	f.t = math.Min(f.t+dt*f.options.Speed, 1)
	if f.t >= 1 {
		f.position = f.legEnd
		f.legStart = f.legEnd
		if len(f.path) == 0 {
			f.setIdle()
		}
		return f.state
	}
	f.position = lerp(f.legStart, f.legEnd, f.t)
	return f.state
}

func (f *Follower) setIdle() {
	wasMoving := f.state == Moving
	f.state = Idle
	if wasMoving && f.options.OnIdle != nil {
		f.options.OnIdle()
	}
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{
		a.X() + (b.X()-a.X())*t,
		a.Y() + (b.Y()-a.Y())*t,
	}
}
