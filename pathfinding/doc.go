// Package pathfinding implements A* over uniform 4-connected tile grids.
//
// A Grid holds walkability and per-cell cost. Each query builds (or resets)
// a Lattice of Nodes from it and runs a Search:
//
//   - FindPath / FindPathOnGrid: run to completion and get a Result.
//   - NewSearch + Step: expand one node at a time to drive visualizers.
//
// Besides the path, every Result carries the expansion trace and the open
// and closed sets so a renderer can show how the search progressed.
// Reaching the goal is not guaranteed; an unreachable goal is reported with
// Result.Found == false, never as an error.
package pathfinding
