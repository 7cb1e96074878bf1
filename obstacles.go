package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tile-planner/pathfinding"
)

// loadObstacles reads obstacle polygons from a GeoJSON feature collection.
// Coordinates are in map units (the same space as tile_size). Features that
// are not polygons are skipped.
func loadObstacles(path string, logger *slog.Logger) ([]orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("obstacles: read %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("obstacles: parse %s: %w", path, err)
	}

	var polygons []orb.Polygon
	for i, feature := range fc.Features {
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			for _, p := range g {
				polygons = append(polygons, p)
			}
		case orb.Bound:
			polygons = append(polygons, g.ToPolygon())
		default:
			logger.Debug("skipping non-polygon obstacle",
				slog.String("file", path),
				slog.Int("feature", i),
				slog.String("type", fmt.Sprintf("%T", feature.Geometry)),
			)
		}
	}

	logger.Info("loaded obstacles", slog.String("file", path), slog.Int("polygons", len(polygons)))
	return polygons, nil
}

// rasterizeObstacles marks every cell whose centre lies inside an obstacle
// as unwalkable and returns the number of cells it blocked.
func rasterizeObstacles(grid *pathfinding.Grid, tileSize float64, polygons []orb.Polygon) int {
	index := NewSpatialIndex(removeContainedObstacles(polygons))
	if index.Size() == 0 {
		return 0
	}

	blocked := 0
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			cell := pathfinding.Position{X: x, Y: y}
			if !grid.At(x, y).Walkable {
				continue
			}
			candidates := index.QueryRegion(cellBound(cell, tileSize))
			if isCellBlocked(cell, tileSize, candidates) {
				grid.SetWalkable(x, y, false)
				blocked++
			}
		}
	}
	return blocked
}
