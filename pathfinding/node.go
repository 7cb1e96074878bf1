package pathfinding

import "fmt"

// Position is an integer grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns |dx| + |dy| between two positions.
func (p Position) Manhattan(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

const noParent = -1

// Node is a search vertex bound to one grid cell. Position, Walkable and
// IndividualCost are fixed at lattice build time; the remaining fields are
// scratch state written by a single search.
type Node struct {
	Position       Position
	Walkable       bool
	IndividualCost float64

	index  int
	parent int
	g      float64
	h      float64
	hasG   bool
	hasH   bool
}

// CumulativeCost returns g, the accumulated cost from the start. ok is
// false until the search assigns it.
func (n *Node) CumulativeCost() (g float64, ok bool) {
	return n.g, n.hasG
}

// Heuristic returns h, the Manhattan estimate to the goal. ok is false
// until the search assigns it.
func (n *Node) Heuristic() (h float64, ok bool) {
	return n.h, n.hasH
}

// TotalCost returns f = g + h. It is undefined (ok == false) unless both
// g and h have been assigned.
func (n *Node) TotalCost() (f float64, ok bool) {
	if !n.hasG || !n.hasH {
		return 0, false
	}
	return n.g + n.h, true
}

func (n *Node) assign(parent int, g, h float64) {
	n.parent = parent
	n.g, n.hasG = g, true
	n.h, n.hasH = h, true
}

// Lattice is the per-query node array built from a Grid. Parent links are
// indices into the lattice, never owning references.
type Lattice struct {
	width  int
	height int
	nodes  []Node
}

// NewLattice builds a fresh lattice from the grid. Non-positive cell costs
// are normalized to 1.
func NewLattice(g *Grid) *Lattice {
	l := &Lattice{
		width:  g.width,
		height: g.height,
		nodes:  make([]Node, len(g.cells)),
	}
	for i, cell := range g.cells {
		cost := cell.Cost
		if cost <= 0 {
			cost = 1
		}
		l.nodes[i] = Node{
			Position:       Position{X: i % g.width, Y: i / g.width},
			Walkable:       cell.Walkable,
			IndividualCost: cost,
			index:          i,
			parent:         noParent,
		}
	}
	return l
}

// Reset clears all search scratch state so the lattice can back another query.
func (l *Lattice) Reset() {
	for i := range l.nodes {
		n := &l.nodes[i]
		n.parent = noParent
		n.g, n.h = 0, 0
		n.hasG, n.hasH = false, false
	}
}

func (l *Lattice) Width() int  { return l.width }
func (l *Lattice) Height() int { return l.height }

// InBounds reports whether p addresses a node of the lattice.
func (l *Lattice) InBounds(p Position) bool {
	return p.X >= 0 && p.X < l.width && p.Y >= 0 && p.Y < l.height
}

// At returns the node at p. Out-of-bounds positions are a caller bug and panic.
func (l *Lattice) At(p Position) *Node {
	if !l.InBounds(p) {
		panic(fmt.Sprintf("pathfinding: position %v outside %dx%d lattice", p, l.width, l.height))
	}
	return &l.nodes[p.Y*l.width+p.X]
}

// Parent returns the node n was discovered from, or nil.
func (l *Lattice) Parent(n *Node) *Node {
	if n == nil || n.parent == noParent {
		return nil
	}
	return &l.nodes[n.parent]
}

// neighbors appends the in-bounds orthogonal neighbors of n to buf.
func (l *Lattice) neighbors(n *Node, buf []*Node) []*Node {
	x, y := n.Position.X, n.Position.Y
	if y+1 < l.height {
		buf = append(buf, &l.nodes[(y+1)*l.width+x])
	}
	if y-1 >= 0 {
		buf = append(buf, &l.nodes[(y-1)*l.width+x])
	}
	if x-1 >= 0 {
		buf = append(buf, &l.nodes[y*l.width+x-1])
	}
	if x+1 < l.width {
		buf = append(buf, &l.nodes[y*l.width+x+1])
	}
	return buf
}
