package pathfinding

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// Options defines parameters for a search.
type Options struct {
	// MaxExpansions stops the search after that many expanded nodes and
	// reports it as truncated. Zero means no limit.
	MaxExpansions int
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithMaxExpansions bounds the number of nodes a search may expand.
func WithMaxExpansions(n int) Option {
	return func(o *Options) { o.MaxExpansions = n }
}

// Result is the outcome of a finished search. Found == false means the
// goal is unreachable (or the expansion ceiling was hit, see Truncated);
// Path is nil in that case.
type Result struct {
	Path      []*Node
	Found     bool
	Truncated bool
	Cost      float64
	Trace     []*Node
	Open      []*Node
	Closed    []*Node
}

// Reachable reports whether a path was found.
func (r Result) Reachable() bool { return r.Found }

// Expanded returns the number of nodes popped from the frontier.
func (r Result) Expanded() int { return len(r.Trace) }

// Positions returns the path as grid coordinates, start first.
func (r Result) Positions() []Position {
	return positions(r.Path)
}

func positions(nodes []*Node) []Position {
	if nodes == nil {
		return nil
	}
	out := make([]Position, len(nodes))
	for i, n := range nodes {
		out[i] = n.Position
	}
	return out
}

// Search runs A* over a lattice one expansion at a time. Discovery is
// first-wins: a node already in the frontier is never re-parented, even if
// a cheaper route to it shows up later.
type Search struct {
	lattice *Lattice
	start   *Node
	goal    *Node
	options Options

	open       frontier
	discovered mapset.Set[int]
	closed     mapset.Set[int]
	trace      []*Node
	current    *Node
	seq        uint64
	buf        []*Node

	done      bool
	found     bool
	truncated bool
}

// NewSearch resets the lattice scratch state and seeds the frontier with
// start (g = 0, h = Manhattan distance to goal). Out-of-bounds start or
// goal panics.
func NewSearch(l *Lattice, start, goal Position, options ...Option) *Search {
	var opts Options
	for _, o := range options {
		o(&opts)
	}
	l.Reset()

	s := &Search{
		lattice:    l,
		start:      l.At(start),
		goal:       l.At(goal),
		options:    opts,
		open:       make(frontier, 0, 64),
		discovered: mapset.New[int](),
		closed:     mapset.New[int](),
		buf:        make([]*Node, 0, 4),
	}
	heap.Init(&s.open)
	s.start.assign(noParent, 0, float64(start.Manhattan(goal)))
	s.push(s.start)
	return s
}

func (s *Search) push(n *Node) {
	f, _ := n.TotalCost()
	s.discovered.Put(n.index)
	heap.Push(&s.open, &queueItem{node: n, priority: f, seq: s.seq})
	s.seq++
}

// Step expands one node. It returns false once the search has finished,
// either because the goal was expanded, the frontier ran dry, or the
// expansion ceiling was reached.
func (s *Search) Step() bool {
	if s.done {
		return false
	}
	if s.open.Len() == 0 {
		s.done = true
		return false
	}
	if s.options.MaxExpansions > 0 && len(s.trace) >= s.options.MaxExpansions {
		s.done = true
		s.truncated = true
		return false
	}

	current := heap.Pop(&s.open).(*queueItem).node
	s.closed.Put(current.index)
	s.trace = append(s.trace, current)
	s.current = current

	if current == s.goal {
		s.done = true
		s.found = true
		return false
	}

	s.buf = s.lattice.neighbors(current, s.buf[:0])
	for _, nb := range s.buf {
		if s.closed.Has(nb.index) || !nb.Walkable || s.discovered.Has(nb.index) {
			continue
		}
		h := float64(nb.Position.Manhattan(s.goal.Position))
		nb.assign(current.index, nb.IndividualCost+current.g, h)
		s.push(nb)
	}
	return true
}

// Run steps until the search finishes and returns its result.
func (s *Search) Run() Result {
	for s.Step() {
	}
	return s.Result()
}

func (s *Search) Done() bool  { return s.done }
func (s *Search) Found() bool { return s.found }

// Current returns the most recently expanded node, or nil before the first step.
func (s *Search) Current() *Node { return s.current }

// Trace returns the expansion order so far.
func (s *Search) Trace() []*Node {
	return slices.Clone(s.trace)
}

// Closed returns the visited set in expansion order.
func (s *Search) Closed() []*Node {
	return slices.Clone(s.trace)
}

// Open returns the frontier ordered by priority.
func (s *Search) Open() []*Node {
	items := slices.Clone(s.open)
	slices.SortFunc(items, func(a, b *queueItem) int {
		if c := cmp.Compare(a.priority, b.priority); c != 0 {
			return c
		}
		if c := cmp.Compare(a.node.g, b.node.g); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	out := make([]*Node, len(items))
	for i, it := range items {
		out[i] = it.node
	}
	return out
}

// Result snapshots the current state. Path is only set once the goal has
// been expanded.
func (s *Search) Result() Result {
	r := Result{
		Found:     s.found,
		Truncated: s.truncated,
		Trace:     s.Trace(),
		Open:      s.Open(),
		Closed:    s.Closed(),
	}
	if s.found {
		r.Path = s.reconstruct()
		r.Cost = s.goal.g
	}
	return r
}

func (s *Search) reconstruct() []*Node {
	path := make([]*Node, 0, s.goal.Position.Manhattan(s.start.Position)+1)
	for n := s.goal; n != nil; n = s.lattice.Parent(n) {
		path = append(path, n)
		if n == s.start {
			break
		}
	}
	slices.Reverse(path)
	return path
}

// FindPath runs a complete search over an existing lattice.
func FindPath(l *Lattice, start, goal Position, options ...Option) Result {
	return NewSearch(l, start, goal, options...).Run()
}

// FindPathOnGrid builds a fresh lattice from g and searches it.
func FindPathOnGrid(g *Grid, start, goal Position, options ...Option) Result {
	return FindPath(NewLattice(g), start, goal, options...)
}
