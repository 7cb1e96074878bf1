package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"tile-planner/pathfinding"
)

// Point is a world-space position in map units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

func pointFromOrb(p orb.Point) Point { return Point{X: p.X(), Y: p.Y()} }

// worldToCell converts a world position to the grid cell containing it
func worldToCell(p orb.Point, tileSize float64) pathfinding.Position {
	return pathfinding.Position{
		X: int(math.Floor(p.X() / tileSize)),
		Y: int(math.Floor(p.Y() / tileSize)),
	}
}

// cellCenter returns the world position at the middle of a cell
func cellCenter(c pathfinding.Position, tileSize float64) orb.Point {
	half := tileSize / 2
	return orb.Point{float64(c.X)*tileSize + half, float64(c.Y)*tileSize + half}
}

// cellBound returns the world-space square covered by a cell
func cellBound(c pathfinding.Position, tileSize float64) orb.Bound {
	minX, minY := float64(c.X)*tileSize, float64(c.Y)*tileSize
	return orb.Bound{
		Min: orb.Point{minX, minY},
		Max: orb.Point{minX + tileSize, minY + tileSize},
	}
}

// isCellBlocked reports whether the cell centre lies inside any of the
// candidate obstacles
func isCellBlocked(c pathfinding.Position, tileSize float64, candidates []orb.Polygon) bool {
	center := cellCenter(c, tileSize)
	for _, polygon := range candidates {
		if planar.PolygonContains(polygon, center) {
			return true
		}
	}
	return false
}
