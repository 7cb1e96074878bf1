package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// removeContainedObstacles drops obstacle polygons that lie entirely inside
// another obstacle. They cannot block any additional cell, so indexing them
// only slows down rasterization.
func removeContainedObstacles(polygons []orb.Polygon) []orb.Polygon {
	if len(polygons) <= 1 {
		return polygons
	}

	result := make([]orb.Polygon, 0, len(polygons))
	contained := make([]bool, len(polygons))

	for i := 0; i < len(polygons); i++ {
		if contained[i] {
			continue
		}

		for j := 0; j < len(polygons); j++ {
			if i == j || contained[j] {
				continue
			}

			if isPolygonContainedIn(polygons[i], polygons[j]) {
				contained[i] = true
				break
			}

			if isPolygonContainedIn(polygons[j], polygons[i]) {
				contained[j] = true
			}
		}
	}

	for i := 0; i < len(polygons); i++ {
		if !contained[i] {
			result = append(result, polygons[i])
		}
	}

	return result
}

// isPolygonContainedIn checks if the outer ring of a lies fully within b
func isPolygonContainedIn(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 || len(a[0]) == 0 || len(b[0]) == 0 {
		return false
	}

	// Quick bounding box check first
	if !isBoundContained(a.Bound(), b.Bound()) {
		return false
	}

	for _, vertex := range a[0] {
		if !planar.PolygonContains(b, vertex) {
			return false
		}
	}

	return true
}

// isBoundContained checks if bound a is contained in bound b
func isBoundContained(a, b orb.Bound) bool {
	return a.Min.X() >= b.Min.X() && a.Max.X() <= b.Max.X() &&
		a.Min.Y() >= b.Min.Y() && a.Max.Y() <= b.Max.Y()
}
