package pathfinding

import (
	"testing"
	"time"
)

func TestReplayRevealsTraceOverTime(t *testing.T) {
	r := FindPathOnGrid(NewGrid(4, 4), Position{0, 0}, Position{3, 3})
	replay := NewReplay(r, 10*time.Millisecond)

	if replay.Step() != 0 || len(replay.Visible()) != 0 {
		t.Fatalf("expected nothing revealed at t=0")
	}
	if replay.Current() != r.Trace[0] {
		t.Fatalf("expected first expansion highlighted")
	}

	replay.Advance(25 * time.Millisecond)
	if replay.Step() != 2 {
		t.Fatalf("expected step 2 after 25ms, got %d", replay.Step())
	}
	if got := replay.Visible(); len(got) != 2 || got[1] != r.Trace[1] {
		t.Fatalf("expected first two expansions visible, got %d", len(got))
	}

	replay.Advance(-time.Second)
	if replay.Step() != 2 {
		t.Fatalf("negative dt must not rewind, got step %d", replay.Step())
	}

	replay.Advance(time.Hour)
	if !replay.Finished() {
		t.Fatalf("expected replay to finish")
	}
	if replay.Current() != nil {
		t.Fatalf("expected no highlighted node once finished")
	}
	if len(replay.Visible()) != len(r.Trace) {
		t.Fatalf("expected full trace visible, got %d of %d", len(replay.Visible()), len(r.Trace))
	}
}

func TestReplayDefaultDelay(t *testing.T) {
	r := FindPathOnGrid(NewGrid(3, 1), Position{0, 0}, Position{2, 0})
	replay := NewReplay(r, 0)
	replay.Advance(DefaultReplayDelay)
	if replay.Step() != 1 {
		t.Fatalf("expected one step after the default delay, got %d", replay.Step())
	}
}

func TestInspect(t *testing.T) {
	r := FindPathOnGrid(NewGrid(5, 5), Position{0, 0}, Position{4, 4})
	infos := Inspect(r)
	if len(infos) != len(r.Trace)+len(r.Open) {
		t.Fatalf("expected %d entries, got %d", len(r.Trace)+len(r.Open), len(infos))
	}

	first := infos[0]
	if first.State != NodeClosed || first.Order != 1 || first.Position != (Position{0, 0}) {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if first.G != 0 || first.H != 8 || first.F != 8 {
		t.Fatalf("expected start g/h/f 0/8/8, got %v/%v/%v", first.G, first.H, first.F)
	}

	goal := infos[len(r.Trace)-1]
	if goal.Position != (Position{4, 4}) || goal.G != 8 || goal.H != 0 {
		t.Fatalf("unexpected goal entry %+v", goal)
	}

	for _, info := range infos[len(r.Trace):] {
		if info.State != NodeOpen || info.Order != 0 {
			t.Fatalf("expected open entry without order, got %+v", info)
		}
		if info.F != info.G+info.H {
			t.Fatalf("f != g+h for %+v", info)
		}
	}
}
