package physics

import (
	"math"
	"testing"
)

const testDt = 1.0 / TickRate

// setupStraightShot creates a cue ball plus one object ball on a standard table.
func setupStraightShot(cueX, cueY, targetX, targetY, power, angle float64) *World {
	w := NewWorld(NewStandardTable())
	cue := w.AddBody(NewVec2(cueX, cueY))
	w.AddBody(NewVec2(targetX, targetY))
	w.ApplyImpulse(cue, FromAngle(angle, power))
	return w
}

func TestStraightShotMovesCorrectDirection(t *testing.T) {
	w := setupStraightShot(-20000, 0, 0, 0, 3000, 0)
	startX := w.Body(0).Position.X

	w.SimulateUntilRest(testDt, 10000)

	if w.Body(0).Position.X <= startX {
		t.Errorf("Cue ball did not move right: start=%.0f end=%.0f", startX, w.Body(0).Position.X)
	}
	if w.Body(1).Position.X <= 0 {
		t.Errorf("Target ball did not move right: x=%.0f", w.Body(1).Position.X)
	}
}

func TestFrictionStopsBalls(t *testing.T) {
	w := NewWorld(NewStandardTable())
	b := w.AddBody(NewVec2(0, 0))
	w.ApplyImpulse(b, NewVec2(500, 0))

	_, steps := w.SimulateUntilRest(testDt, 10000)

	if !w.AtRest() {
		t.Errorf("Ball didn't stop after %d steps", steps)
	}
	if steps == 0 {
		t.Error("Expected at least one step")
	}
}

func TestBallBallCollisionRebounds(t *testing.T) {
	w := setupStraightShot(-10000, 0, 10000, 0, 3000, 0)

	contacts, _ := w.SimulateUntilRest(testDt, 10000)

	if w.Body(1).Position.X <= 10000 {
		t.Errorf("Target ball should have moved right from head-on hit: x=%.0f", w.Body(1).Position.X)
	}
	hit := false
	for _, c := range contacts {
		if c.Type == ContactBall && c.BodyID == 0 && c.TargetID == 1 {
			hit = true
		}
	}
	if !hit {
		t.Error("Expected a ball contact between cue and target")
	}
}

func TestCushionBounce(t *testing.T) {
	w := NewWorld(NewStandardTable())
	b := w.AddBody(NewVec2(40000, 0))
	w.ApplyImpulse(b, NewVec2(4000, 0))

	contacts, _ := w.SimulateUntilRest(testDt, 10000)

	cushionHits := 0
	for _, c := range contacts {
		if c.Type == ContactLine && c.BodyID == 0 {
			cushionHits++
		}
	}
	if cushionHits == 0 {
		t.Error("Expected at least one cushion hit")
	}
	halfW, _ := w.Table().HalfExtents()
	if b.Position.X > halfW {
		t.Errorf("Ball escaped the table: x=%.0f", b.Position.X)
	}
}

func TestPocketCapture(t *testing.T) {
	w := NewWorld(NewStandardTable())
	pocket := w.Table().Pockets[1] // top-right corner
	w.AddBody(NewVec2(0, 0))
	b := w.AddBody(NewVec2(pocket.Position.X-3000, pocket.Position.Y+3000))
	w.ApplyImpulse(b, NewVec2(2000, -2000))

	contacts, _ := w.SimulateUntilRest(testDt, 10000)

	pocketed := false
	for _, c := range contacts {
		if c.Type == ContactPocket && c.BodyID == 1 {
			pocketed = true
			if c.TargetID != pocket.ID {
				t.Errorf("Pocket ID = %d, want %d", c.TargetID, pocket.ID)
			}
		}
	}
	if !pocketed {
		t.Fatal("Expected ball 1 to be pocketed")
	}
	if b.Active {
		t.Error("Pocketed ball should be inactive")
	}
	if !b.Velocity.IsZero() || b.Spin != 0 {
		t.Error("Pocketed ball should be frozen")
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []Vec2 {
		w := setupStraightShot(-20000, 0, 0, 0, 3000, 0.3)
		var path []Vec2
		for i := 0; i < 120; i++ {
			w.Step(testDt)
			path = append(path, w.Body(0).Position, w.Body(1).Position)
		}
		return path
	}

	first := run()
	second := run()

	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("Non-deterministic at sample %d: run1=(%.4f,%.4f) run2=(%.4f,%.4f)",
				i, first[i].X, first[i].Y, second[i].X, second[i].Y)
		}
	}
}

func TestAtRestLogic(t *testing.T) {
	w := NewWorld(NewStandardTable())
	b := w.AddBody(NewVec2(0, 0))

	if !w.AtRest() {
		t.Error("AtRest should return true when no balls have velocity")
	}

	w.ApplyImpulse(b, NewVec2(100, 0))
	if w.AtRest() {
		t.Error("AtRest should return false when cue ball has velocity")
	}

	b.Active = false
	if !w.AtRest() {
		t.Error("AtRest should ignore inactive bodies")
	}
}

func TestApplyImpulseIgnoresInactiveBody(t *testing.T) {
	w := NewWorld(nil)
	b := w.AddBody(NewVec2(0, 0))
	b.Active = false

	w.ApplyImpulse(b, NewVec2(1000, 0))

	if !b.Velocity.IsZero() {
		t.Errorf("Inactive body picked up velocity %+v", b.Velocity)
	}
}

func TestStepScalesWithDt(t *testing.T) {
	slow := NewWorld(nil)
	a := slow.AddBody(NewVec2(0, 0))
	slow.ApplyImpulse(a, NewVec2(1000, 0))
	slow.Step(testDt)
	slow.Step(testDt)

	fast := NewWorld(nil)
	b := fast.AddBody(NewVec2(0, 0))
	fast.ApplyImpulse(b, NewVec2(1000, 0))
	fast.Step(2 * testDt)

	if math.Abs(a.Position.X-b.Position.X) > 5 {
		t.Errorf("Two half steps moved %.1f, one full step moved %.1f", a.Position.X, b.Position.X)
	}
}

func TestStepNonPositiveDtIsNoop(t *testing.T) {
	w := NewWorld(NewStandardTable())
	b := w.AddBody(NewVec2(0, 0))
	w.ApplyImpulse(b, NewVec2(1000, 0))

	if contacts := w.Step(0); len(contacts) != 0 {
		t.Errorf("Expected no contacts, got %d", len(contacts))
	}
	if b.Position.X != 0 {
		t.Errorf("Body moved on zero dt: x=%.1f", b.Position.X)
	}
}

func TestWorldWithoutTableHasNoCushions(t *testing.T) {
	w := NewWorld(nil)
	b := w.AddBody(NewVec2(60000, 0))
	w.ApplyImpulse(b, NewVec2(4000, 0))

	for i := 0; i < 10; i++ {
		for _, c := range w.Step(testDt) {
			t.Errorf("Unexpected contact %+v", c)
		}
	}
	if b.Position.X <= 60000+30000 {
		t.Errorf("Ball should have travelled freely: x=%.0f", b.Position.X)
	}
}

func TestCopyPosesIsOneWay(t *testing.T) {
	live := NewWorld(NewStandardTable())
	shadow := NewWorld(NewStandardTable())
	for _, p := range []Vec2{NewVec2(-1000, 0), NewVec2(2000, 500)} {
		live.AddBody(p)
		shadow.AddBody(NewVec2(0, 0))
	}
	live.Body(1).Active = false

	CopyPoses(shadow, live)

	for i, b := range shadow.Bodies() {
		src := live.Body(i)
		if !b.Position.Equal(src.Position) || b.Active != src.Active {
			t.Errorf("body %d not copied: got %+v want %+v", i, b, src)
		}
	}

	shadow.Body(0).Position = NewVec2(9999, 9999)
	if live.Body(0).Position.Equal(shadow.Body(0).Position) {
		t.Error("Shadow mutation leaked into live world")
	}
}

func TestCornerTableHasFourPockets(t *testing.T) {
	tbl := NewTable(TableSpec{Name: "corners", Pockets: PocketsCorners})

	if len(tbl.Pockets) != 4 {
		t.Fatalf("Expected 4 pockets, got %d", len(tbl.Pockets))
	}
	for _, p := range tbl.Pockets {
		if p.ID == 1 || p.ID == 4 {
			t.Errorf("Side pocket %d should not exist", p.ID)
		}
	}
	if tbl.Spec.Scale != 1 {
		t.Errorf("Scale should default to 1, got %v", tbl.Spec.Scale)
	}
}

func TestScaledTableExtents(t *testing.T) {
	tbl := NewTable(TableSpec{Scale: 0.5})
	halfW, halfH := tbl.HalfExtents()

	if halfW != 25*N || halfH != 12.5*N {
		t.Errorf("HalfExtents = (%.0f, %.0f)", halfW, halfH)
	}
}
