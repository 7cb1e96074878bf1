package main

import (
	"slices"
	"testing"

	"tile-planner/pathfinding"
)

func TestPathWaypointsKeepsCorners(t *testing.T) {
	path := []pathfinding.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 2}}

	got := pathWaypoints(path, 10)
	want := []Point{{X: 5, Y: 5}, {X: 25, Y: 5}, {X: 25, Y: 25}}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPathWaypointsShortPaths(t *testing.T) {
	if got := pathWaypoints(nil, 10); got != nil {
		t.Fatalf("expected nil for empty path, got %v", got)
	}
	got := pathWaypoints([]pathfinding.Position{{X: 3, Y: 1}}, 10)
	if !slices.Equal(got, []Point{{X: 35, Y: 15}}) {
		t.Fatalf("expected single centre, got %v", got)
	}
	got = pathWaypoints([]pathfinding.Position{{X: 0, Y: 0}, {X: 0, Y: 1}}, 10)
	if len(got) != 2 {
		t.Fatalf("expected both endpoints kept, got %v", got)
	}
}
