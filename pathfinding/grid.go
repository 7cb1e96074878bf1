package pathfinding

import "fmt"

// Cell is one tile of the walkability grid.
type Cell struct {
	Walkable bool
	Cost     float64
}

// Grid is a rectangular 4-connected map of cells. It is treated as
// immutable while a search runs; callers build a fresh Lattice per query.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid creates a width x height grid where every cell is walkable with cost 1.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("pathfinding: invalid grid size %dx%d", width, height))
	}
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = Cell{Walkable: true, Cost: 1}
	}
	return &Grid{width: width, height: height, cells: cells}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) index(x, y int) int {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("pathfinding: cell (%d,%d) outside %dx%d grid", x, y, g.width, g.height))
	}
	return y*g.width + x
}

func (g *Grid) At(x, y int) Cell {
	return g.cells[g.index(x, y)]
}

func (g *Grid) Set(x, y int, cell Cell) {
	g.cells[g.index(x, y)] = cell
}

// SetWalkable toggles walkability and keeps the cell cost.
func (g *Grid) SetWalkable(x, y int, walkable bool) {
	i := g.index(x, y)
	g.cells[i].Walkable = walkable
}

// WalkableCount returns the number of walkable cells.
func (g *Grid) WalkableCount() int {
	n := 0
	for _, c := range g.cells {
		if c.Walkable {
			n++
		}
	}
	return n
}
