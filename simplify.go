package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"tile-planner/pathfinding"
)

// pathWaypoints converts a cell path to world-space cell centres and
// collapses straight runs with Douglas-Peucker, leaving only the start, the
// corners and the goal. Renderers and agents that steer by waypoints use
// this instead of one point per tile.
func pathWaypoints(cells []pathfinding.Position, tileSize float64) []Point {
	if len(cells) == 0 {
		return nil
	}

	line := make(orb.LineString, len(cells))
	for i, c := range cells {
		line[i] = cellCenter(c, tileSize)
	}
	if len(line) > 2 {
		// a fraction of a tile keeps every real corner
		line = simplify.DouglasPeucker(tileSize * 0.01).LineString(line)
	}

	points := make([]Point, len(line))
	for i, p := range line {
		points[i] = pointFromOrb(p)
	}
	return points
}
