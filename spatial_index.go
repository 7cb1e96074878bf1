package main

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// ObstacleEntry wraps an obstacle polygon for R-tree storage
type ObstacleEntry struct {
	Polygon orb.Polygon
	BBox    rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (o *ObstacleEntry) Bounds() rtreego.Rect {
	return o.BBox
}

// SpatialIndex manages obstacle polygon queries
type SpatialIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewSpatialIndex creates a new spatial index. Degenerate polygons (zero
// width or height) cannot cover a cell centre and are skipped.
func NewSpatialIndex(polygons []orb.Polygon) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	size := 0
	for _, polygon := range polygons {
		bbox, err := boundToRect(polygon.Bound())
		if err != nil {
			continue
		}
		tree.Insert(&ObstacleEntry{Polygon: polygon, BBox: bbox})
		size++
	}

	return &SpatialIndex{tree: tree, size: size}
}

// Size returns the number of indexed polygons
func (si *SpatialIndex) Size() int {
	return si.size
}

// QueryRegion returns polygons whose bounding box intersects the given bound
func (si *SpatialIndex) QueryRegion(bound orb.Bound) []orb.Polygon {
	bbox, err := boundToRect(bound)
	if err != nil {
		return nil
	}

	results := si.tree.SearchIntersect(bbox)
	polygons := make([]orb.Polygon, 0, len(results))

	for _, item := range results {
		entry := item.(*ObstacleEntry)
		polygons = append(polygons, entry.Polygon)
	}

	return polygons
}

// boundToRect converts an orb bound to an rtreego rectangle
func boundToRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min.X(), b.Min.Y()},
		[]float64{b.Max.X() - b.Min.X(), b.Max.Y() - b.Min.Y()},
	)
}
