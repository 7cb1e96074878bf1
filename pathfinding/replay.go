package pathfinding

import (
	"slices"
	"time"
)

// DefaultReplayDelay is how long each expansion stays on screen while a
// trace is replayed.
const DefaultReplayDelay = 60 * time.Millisecond

// Replay reveals a finished search's expansion trace over time, one node
// per step delay.
type Replay struct {
	trace   []*Node
	delay   time.Duration
	elapsed time.Duration
}

func NewReplay(r Result, stepDelay time.Duration) *Replay {
	if stepDelay <= 0 {
		stepDelay = DefaultReplayDelay
	}
	return &Replay{trace: r.Trace, delay: stepDelay}
}

func (r *Replay) Advance(dt time.Duration) {
	if dt > 0 {
		r.elapsed += dt
	}
}

// Step is the number of trace entries already revealed.
func (r *Replay) Step() int {
	return min(int(r.elapsed/r.delay), len(r.trace))
}

// Finished reports whether every expansion has been revealed.
func (r *Replay) Finished() bool {
	return r.Step() >= len(r.trace)
}

// Visible returns the revealed prefix of the trace.
func (r *Replay) Visible() []*Node {
	return slices.Clone(r.trace[:r.Step()])
}

// Current returns the node being highlighted, or nil once finished.
func (r *Replay) Current() *Node {
	if r.Finished() {
		return nil
	}
	return r.trace[r.Step()]
}

type NodeState string

const (
	NodeClosed NodeState = "closed"
	NodeOpen   NodeState = "open"
)

// NodeInfo is the per-cell cost breakdown shown by debug overlays.
type NodeInfo struct {
	Position       Position  `json:"position"`
	State          NodeState `json:"state"`
	Order          int       `json:"order,omitempty"`
	G              float64   `json:"g"`
	H              float64   `json:"h"`
	F              float64   `json:"f"`
	IndividualCost float64   `json:"cost"`
}

// Inspect lists every node the search touched: closed nodes in expansion
// order (Order is 1-based), then open nodes in priority order.
func Inspect(r Result) []NodeInfo {
	out := make([]NodeInfo, 0, len(r.Trace)+len(r.Open))
	for i, n := range r.Trace {
		out = append(out, nodeInfo(n, NodeClosed, i+1))
	}
	for _, n := range r.Open {
		out = append(out, nodeInfo(n, NodeOpen, 0))
	}
	return out
}

func nodeInfo(n *Node, state NodeState, order int) NodeInfo {
	g, _ := n.CumulativeCost()
	h, _ := n.Heuristic()
	f, _ := n.TotalCost()
	return NodeInfo{
		Position:       n.Position,
		State:          state,
		Order:          order,
		G:              g,
		H:              h,
		F:              f,
		IndividualCost: n.IndividualCost,
	}
}
