package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"tile-planner/pathfinding"
)

const defaultTileSize = 96.0

var errMapInvalid = errors.New("invalid map")

// MapFile is the on-disk YAML tile map format
type MapFile struct {
	Name      string              `yaml:"name"`
	TileSize  float64             `yaml:"tile_size"`
	Legend    map[string]TileSpec `yaml:"legend"`
	Rows      []string            `yaml:"rows"`
	Obstacles string              `yaml:"obstacles"` // GeoJSON, relative to the map file
	Spawn     *SpawnSpec          `yaml:"spawn"`
}

// TileSpec describes what one legend glyph means
type TileSpec struct {
	Walkable bool    `yaml:"walkable"`
	Cost     float64 `yaml:"cost"`
}

type SpawnSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// TileMap is a loaded, ready-to-search world
type TileMap struct {
	Name     string
	Source   string
	TileSize float64
	Grid     *pathfinding.Grid
	Spawn    pathfinding.Position

	// Obstacles is the resolved GeoJSON path, empty when the map has none
	Obstacles string
}

// LoadMap reads a YAML tile map and rasterizes its optional obstacles
func LoadMap(path string, logger *slog.Logger) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("map: read %s: %w", path, err)
	}

	var spec MapFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("map: unmarshal %s: %w", path, err)
	}

	m, err := buildMap(spec)
	if err != nil {
		return nil, fmt.Errorf("map: %s: %w", path, err)
	}
	m.Source = path

	if spec.Obstacles != "" {
		obstaclePath := spec.Obstacles
		if !filepath.IsAbs(obstaclePath) {
			obstaclePath = filepath.Join(filepath.Dir(path), obstaclePath)
		}
		m.Obstacles = obstaclePath
		polygons, err := loadObstacles(obstaclePath, logger)
		if err != nil {
			return nil, fmt.Errorf("map: %s: %w", path, err)
		}
		blocked := rasterizeObstacles(m.Grid, m.TileSize, polygons)
		logger.Info("rasterized obstacles",
			slog.String("map", m.Name),
			slog.Int("blocked_cells", blocked),
		)
	}

	logger.Info("loaded map",
		slog.String("map", m.Name),
		slog.String("file", path),
		slog.Int("width", m.Grid.Width()),
		slog.Int("height", m.Grid.Height()),
		slog.Int("walkable", m.Grid.WalkableCount()),
	)
	return m, nil
}

func buildMap(spec MapFile) (*TileMap, error) {
	if len(spec.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", errMapInvalid)
	}

	legend := make(map[rune]TileSpec, len(spec.Legend))
	for glyph, tile := range spec.Legend {
		if utf8.RuneCountInString(glyph) != 1 {
			return nil, fmt.Errorf("%w: legend key %q must be a single character", errMapInvalid, glyph)
		}
		if tile.Cost < 0 {
			return nil, fmt.Errorf("%w: legend key %q has negative cost", errMapInvalid, glyph)
		}
		if tile.Cost == 0 {
			tile.Cost = 1
		}
		r, _ := utf8.DecodeRuneInString(glyph)
		legend[r] = tile
	}

	width := utf8.RuneCountInString(spec.Rows[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: empty first row", errMapInvalid)
	}

	grid := pathfinding.NewGrid(width, len(spec.Rows))
	for y, row := range spec.Rows {
		if n := utf8.RuneCountInString(row); n != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", errMapInvalid, y, n, width)
		}
		x := 0
		for _, glyph := range row {
			tile, ok := legend[glyph]
			if !ok {
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d,%d)", errMapInvalid, glyph, x, y)
			}
			grid.Set(x, y, pathfinding.Cell{Walkable: tile.Walkable, Cost: tile.Cost})
			x++
		}
	}

	tileSize := spec.TileSize
	if tileSize == 0 {
		tileSize = defaultTileSize
	}
	if tileSize < 0 {
		return nil, fmt.Errorf("%w: negative tile_size", errMapInvalid)
	}

	m := &TileMap{Name: spec.Name, TileSize: tileSize, Grid: grid}
	if m.Name == "" {
		m.Name = "unnamed"
	}

	if spec.Spawn != nil {
		m.Spawn = pathfinding.Position{X: spec.Spawn.X, Y: spec.Spawn.Y}
		if !grid.InBounds(m.Spawn.X, m.Spawn.Y) {
			return nil, fmt.Errorf("%w: spawn %v outside grid", errMapInvalid, m.Spawn)
		}
	} else {
		m.Spawn = firstWalkable(grid)
	}
	return m, nil
}

func firstWalkable(grid *pathfinding.Grid) pathfinding.Position {
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.At(x, y).Walkable {
				return pathfinding.Position{X: x, Y: y}
			}
		}
	}
	return pathfinding.Position{}
}

// DefaultMap is the built-in 16x16 meadow: a tree border around grass with
// a horizontal hedge, a shorter hedge and a 3x3 grove.
func DefaultMap() *TileMap {
	const size = 16
	grid := pathfinding.NewGrid(size, size)

	for i := 0; i < size; i++ {
		grid.SetWalkable(i, 0, false)
		grid.SetWalkable(i, size-1, false)
		grid.SetWalkable(0, i, false)
		grid.SetWalkable(size-1, i, false)
	}
	for x := 2; x <= 8; x++ {
		grid.SetWalkable(x, 3, false)
	}
	for x := 6; x <= 10; x++ {
		grid.SetWalkable(x, 6, false)
	}
	for x := 9; x <= 11; x++ {
		for y := 10; y <= 12; y++ {
			grid.SetWalkable(x, y, false)
		}
	}

	return &TileMap{
		Name:     "meadow",
		Source:   "builtin",
		TileSize: defaultTileSize,
		Grid:     grid,
		Spawn:    pathfinding.Position{X: 1, Y: 1},
	}
}

// loadConfiguredMap loads the map named in config, or the built-in one
func loadConfiguredMap(cfg MapConfig, logger *slog.Logger) (*TileMap, error) {
	if cfg.Path == "" {
		return DefaultMap(), nil
	}
	return LoadMap(cfg.Path, logger)
}
