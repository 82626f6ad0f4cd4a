package strategy

import (
	"reflect"
	"testing"

	"signalgen/internal/model"
)

// makeBar builds a test bar at the given unix second.
func makeBar(ts int64, open, high, low, close_ float64) model.Bar {
	return model.Bar{
		Time:  ts,
		Open:  open,
		High:  high,
		Low:   low,
		Close: close_,
	}
}

func TestInsideBar_ShortSequences(t *testing.T) {
	s := NewInsideBar()

	cases := [][]model.Bar{
		nil,
		{},
		{makeBar(0, 1.0, 1.1, 0.9, 1.0)},
		{
			makeBar(0, 1.0, 1.1, 0.9, 1.0),
			makeBar(60, 1.0, 1.05, 0.95, 1.0),
		},
	}
	for i, bars := range cases {
		points, lines := s.Derive(bars)
		if len(points) != 0 {
			t.Errorf("case %d: expected no points for %d bars, got %d", i, len(bars), len(points))
		}
		if len(lines) != 0 {
			t.Errorf("case %d: expected no lines for %d bars, got %d", i, len(bars), len(lines))
		}
	}
}

func TestInsideBar_NonInsideSkipped(t *testing.T) {
	s := NewInsideBar()

	// Third bar's high exceeds the second's: not contained
	bars := []model.Bar{
		makeBar(0, 1.0, 1.10, 1.08, 1.09),
		makeBar(60, 1.0, 1.095, 1.085, 1.093),
		makeBar(120, 1.0, 1.096, 1.086, 1.093),
	}
	points, lines := s.Derive(bars)
	if len(points) != 0 || len(lines) != 0 {
		t.Errorf("expected no signals, got %d points %d lines", len(points), len(lines))
	}
}

func TestInsideBar_EqualBoundaryIsNotInside(t *testing.T) {
	s := NewInsideBar()

	// Containment is strict: equal high disqualifies
	bars := []model.Bar{
		makeBar(0, 1.0, 1.10, 1.08, 1.09),
		makeBar(60, 1.0, 1.095, 1.085, 1.093),
		makeBar(120, 1.0, 1.095, 1.086, 1.093),
	}
	points, _ := s.Derive(bars)
	if len(points) != 0 {
		t.Errorf("expected no signals on equal high, got %d points", len(points))
	}
}

func TestInsideBar_BullishSignalSet(t *testing.T) {
	s := NewInsideBar()

	// Third bar strictly inside the second, close above the midpoint
	prev := makeBar(60, 1.0, 1.095, 1.085, 1.093)
	curr := makeBar(120, 1.0, 1.094, 1.086, 1.093)
	bars := []model.Bar{makeBar(0, 1.0, 1.10, 1.08, 1.09), prev, curr}

	points, lines := s.Derive(bars)
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}

	for i, p := range points {
		if p.Time != curr.Time {
			t.Errorf("point %d: expected time %d (inside bar), got %d", i, curr.Time, p.Time)
		}
	}

	entry := curr.Close
	stop := prev.Low - 0.0005
	risk := entry - stop

	wantLabels := []string{"BUY", "SL", "TP1", "TP2", "TP3"}
	wantPrices := []float64{entry, stop, entry + risk, entry + risk*2, entry + risk*3}
	wantAnchors := []model.Anchor{model.AnchorLow, model.AnchorLow, model.AnchorHigh, model.AnchorHigh, model.AnchorHigh}
	wantShapes := []model.Shape{model.ShapeArrowUp, model.ShapeSquare, model.ShapeCircle, model.ShapeCircle, model.ShapeCircle}

	for i, p := range points {
		if p.Label != wantLabels[i] {
			t.Errorf("point %d: expected label %s, got %s", i, wantLabels[i], p.Label)
		}
		if p.Price != wantPrices[i] {
			t.Errorf("point %d: expected price %v, got %v", i, wantPrices[i], p.Price)
		}
		if p.Type != wantAnchors[i] {
			t.Errorf("point %d: expected anchor %s, got %s", i, wantAnchors[i], p.Type)
		}
		if p.Shape != wantShapes[i] {
			t.Errorf("point %d: expected shape %s, got %s", i, wantShapes[i], p.Shape)
		}
	}

	if points[0].Size != 2 {
		t.Errorf("expected entry marker size 2, got %d", points[0].Size)
	}

	// Targets ascend when entry is above the stop
	if !(wantPrices[2] < wantPrices[3] && wantPrices[3] < wantPrices[4]) {
		t.Errorf("expected tp1 < tp2 < tp3, got %v %v %v", wantPrices[2], wantPrices[3], wantPrices[4])
	}

	wantLineIDs := []string{"signal_000_entry", "signal_000_sl", "signal_000_tp1", "signal_000_tp2", "signal_000_tp3"}
	for i, l := range lines {
		if l.ID != wantLineIDs[i] {
			t.Errorf("line %d: expected id %s, got %s", i, wantLineIDs[i], l.ID)
		}
		if l.StartTime != curr.Time {
			t.Errorf("line %d: expected start_time %d, got %d", i, curr.Time, l.StartTime)
		}
		if l.Bars != 15 {
			t.Errorf("line %d: expected 15-bar extent, got %d", i, l.Bars)
		}
	}
}

func TestInsideBar_BearishSignalSet(t *testing.T) {
	s := NewInsideBar()

	// Close below the mother bar midpoint (1.09): bearish
	prev := makeBar(60, 1.0, 1.095, 1.085, 1.088)
	curr := makeBar(120, 1.0, 1.094, 1.086, 1.087)
	bars := []model.Bar{makeBar(0, 1.0, 1.10, 1.08, 1.09), prev, curr}

	points, _ := s.Derive(bars)
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	entry := curr.Close
	stop := prev.High + 0.0005
	risk := stop - entry

	if points[0].Label != "SELL" {
		t.Errorf("expected SELL entry, got %s", points[0].Label)
	}
	if points[0].Shape != model.ShapeArrowDown {
		t.Errorf("expected arrowDown entry, got %s", points[0].Shape)
	}
	if points[0].Type != model.AnchorHigh || points[1].Type != model.AnchorHigh {
		t.Error("expected entry and stop anchored to high")
	}
	for i := 2; i < 5; i++ {
		if points[i].Type != model.AnchorLow {
			t.Errorf("point %d: expected targets anchored to low, got %s", i, points[i].Type)
		}
	}

	wantTPs := []float64{entry - risk, entry - risk*2, entry - risk*3}
	for i, want := range wantTPs {
		if got := points[i+2].Price; got != want {
			t.Errorf("tp%d: expected %v, got %v", i+1, want, got)
		}
	}

	// Targets descend when entry is below the stop
	if !(wantTPs[0] > wantTPs[1] && wantTPs[1] > wantTPs[2]) {
		t.Errorf("expected tp1 > tp2 > tp3, got %v", wantTPs)
	}
}

func TestInsideBar_ConsecutiveInsideBarsEmitIndependentSets(t *testing.T) {
	s := NewInsideBar()

	// Bars 2 and 3 are each strictly inside their predecessor
	bars := []model.Bar{
		makeBar(0, 1.0, 1.10, 1.08, 1.09),
		makeBar(60, 1.0, 1.095, 1.085, 1.093),
		makeBar(120, 1.0, 1.094, 1.086, 1.093),
		makeBar(180, 1.0, 1.093, 1.087, 1.092),
	}
	points, lines := s.Derive(bars)
	if len(points) != 10 {
		t.Errorf("expected 10 points from two inside bars, got %d", len(points))
	}
	if len(lines) != 10 {
		t.Errorf("expected 10 lines from two inside bars, got %d", len(lines))
	}
	if lines[5].ID != "signal_001_entry" {
		t.Errorf("expected second signal to use id signal_001, got %s", lines[5].ID)
	}
}

func TestInsideBar_Deterministic(t *testing.T) {
	s := NewInsideBar()

	bars := []model.Bar{
		makeBar(0, 1.0, 1.10, 1.08, 1.09),
		makeBar(60, 1.0, 1.095, 1.085, 1.093),
		makeBar(120, 1.0, 1.094, 1.086, 1.093),
		makeBar(180, 1.0, 1.099, 1.080, 1.085),
		makeBar(240, 1.0, 1.096, 1.082, 1.084),
	}

	p1, l1 := s.Derive(bars)
	p2, l2 := s.Derive(bars)

	if !reflect.DeepEqual(p1, p2) {
		t.Error("expected identical points across repeated derivations")
	}
	if !reflect.DeepEqual(l1, l2) {
		t.Error("expected identical lines across repeated derivations")
	}
}
