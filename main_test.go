package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, rows ...string) (*Server, http.Handler) {
	t.Helper()
	cfg := DefaultConfig()
	s := NewServer(NewWorld(testMap(t, rows...), cfg, discardLogger()), cfg, discardLogger())
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRouteHandler(t *testing.T) {
	_, h := newTestServer(t, ".....", ".....", ".....", ".....", ".....")

	rec := do(t, h, http.MethodPost, "/route", `{"start":{"x":0,"y":0},"goal":{"x":4,"y":4},"inspect":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[RouteResponse](t, rec)
	if !resp.Success || resp.Cost != 8 || len(resp.Path) != 9 {
		t.Fatalf("unexpected route %+v", resp)
	}
	if len(resp.Waypoints) < 3 {
		t.Fatalf("expected at least start, a corner and goal, got %v", resp.Waypoints)
	}
	if resp.Waypoints[0] != (Point{X: 5, Y: 5}) || resp.Waypoints[len(resp.Waypoints)-1] != (Point{X: 45, Y: 45}) {
		t.Fatalf("waypoints must run from start centre to goal centre, got %v", resp.Waypoints)
	}
	if resp.Expanded != len(resp.Trace) || len(resp.Closed) != len(resp.Trace) {
		t.Fatalf("expanded %d, trace %d, closed %d disagree", resp.Expanded, len(resp.Trace), len(resp.Closed))
	}
	if len(resp.Nodes) != len(resp.Closed)+len(resp.Open) {
		t.Fatalf("expected one inspected node per closed and open cell, got %d", len(resp.Nodes))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header")
	}
}

func TestRouteHandlerUnreachable(t *testing.T) {
	_, h := newTestServer(t, ".#.")

	rec := do(t, h, http.MethodPost, "/route", `{"start":{"x":0,"y":0},"goal":{"x":2,"y":0}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unreachable is not an error, got %d", rec.Code)
	}
	resp := decode[RouteResponse](t, rec)
	if resp.Success || resp.Message == "" || len(resp.Path) != 0 {
		t.Fatalf("expected failed route with message, got %+v", resp)
	}
	if len(resp.Nodes) != 0 {
		t.Fatalf("nodes must be omitted unless inspect is set")
	}
}

func TestRouteHandlerBadRequests(t *testing.T) {
	_, h := newTestServer(t, "...")

	if rec := do(t, h, http.MethodPost, "/route", `{"start":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/route", `{"start":{"x":0,"y":0},"goal":{"x":3,"y":0}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-bounds goal, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/route", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /route, got %d", rec.Code)
	}
}

func TestPreflight(t *testing.T) {
	_, h := newTestServer(t, "...")
	rec := do(t, h, http.MethodOptions, "/route", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("expected CORS preflight, got %d %v", rec.Code, rec.Header())
	}
}

func TestMapHandler(t *testing.T) {
	_, h := newTestServer(t, ".#.", "...")
	rec := do(t, h, http.MethodGet, "/map", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[MapResponse](t, rec)
	if resp.Width != 3 || resp.Height != 2 || resp.Walkable != 5 || resp.TileSize != 10 {
		t.Fatalf("unexpected map metadata %+v", resp)
	}
	if len(resp.Rows) != 2 || resp.Rows[0] != ".#." || resp.Rows[1] != "..." {
		t.Fatalf("unexpected rows %q", resp.Rows)
	}
}

func TestAgentHandlers(t *testing.T) {
	_, h := newTestServer(t, ".....")

	if rec := do(t, h, http.MethodGet, "/agents/ghost", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown agent, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/agents/a1/move", `{"target":{"x":45,"y":5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	move := decode[MoveResponse](t, rec)
	if !move.Success || move.Cost != 4 || move.Agent.ID != "a1" || move.Agent.State != "moving" {
		t.Fatalf("unexpected move response %+v", move)
	}

	rec = do(t, h, http.MethodGet, "/agents/a1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if view := decode[AgentView](t, rec); len(view.Remaining) != 4 {
		t.Fatalf("expected 4 queued cells, got %v", view.Remaining)
	}

	if rec := do(t, h, http.MethodPost, "/agents/a1/move", `{"target":{"x":500,"y":5}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-bounds target, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/agents/a1/teleport", `{"target":{"x":31,"y":2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if view := decode[AgentView](t, rec); view.Position != (Point{X: 35, Y: 5}) || view.State != "idle" {
		t.Fatalf("unexpected teleport result %+v", view)
	}
}

func TestMoveHandlerUnreachableEncodesEmptyPath(t *testing.T) {
	_, h := newTestServer(t, ".#.")
	rec := do(t, h, http.MethodPost, "/agents/a1/move", `{"target":{"x":25,"y":5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"path":[]`) {
		t.Fatalf("expected an empty path array, got %s", rec.Body)
	}
	if move := decode[MoveResponse](t, rec); move.Success || move.Message == "" {
		t.Fatalf("expected unreachable move, got %+v", move)
	}
}

func TestHealthHandler(t *testing.T) {
	_, h := newTestServer(t, "...")
	rec := do(t, h, http.MethodGet, "/health", "")
	resp := decode[map[string]any](t, rec)
	if resp["status"] != "ready" || resp["map"] != "test" {
		t.Fatalf("unexpected health %v", resp)
	}
}

func TestMetricsHandler(t *testing.T) {
	_, h := newTestServer(t, "...")
	do(t, h, http.MethodPost, "/route", `{"start":{"x":0,"y":0},"goal":{"x":2,"y":0}}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "planner_search_total") {
		t.Fatalf("expected planner metrics, got %d", rec.Code)
	}
}

func TestReloadHandler(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "map.yaml", `
name: first
tile_size: 10
legend:
  ".": {walkable: true}
rows: ["...", "..."]
`)

	s, h := newTestServer(t, "...")
	s.cfg.Map.Path = path

	rec := do(t, h, http.MethodPost, "/map/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if resp := decode[map[string]any](t, rec); resp["map"] != "first" {
		t.Fatalf("unexpected reload response %v", resp)
	}
	if s.world.Map().Grid.Height() != 2 {
		t.Fatalf("expected reloaded map installed")
	}

	if err := os.WriteFile(path, []byte("rows: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	if rec := do(t, h, http.MethodPost, "/map/reload", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid map, got %d", rec.Code)
	}
	if s.world.Map().Name != "first" {
		t.Fatalf("a failed reload must keep the current map")
	}
}
