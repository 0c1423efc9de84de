package shot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playmatatu/pocketpool/internal/physics"
)

var vp = Viewport{Width: 1000, Height: 500}

func TestPointerDragForce(t *testing.T) {
	p := NewPointerProvider()

	f := p.Force(&Input{Pointer: physics.NewVec2(500, 250), PointerDown: true, Viewport: vp})
	assert.True(t, f.IsZero())

	// 20px left and 10px down: (20*5/1000, 10*5/500)
	f = p.Force(&Input{Pointer: physics.NewVec2(480, 240), Viewport: vp})
	assert.InDelta(t, 0.1, f.X, 1e-9)
	assert.InDelta(t, 0.1, f.Y, 1e-9)
	assert.False(t, p.Commit(&Input{Viewport: vp}))
}

func TestPointerDragClampsToUnit(t *testing.T) {
	p := NewPointerProvider()
	p.Force(&Input{Pointer: physics.NewVec2(900, 250), PointerDown: true, Viewport: vp})

	f := p.Force(&Input{Pointer: physics.NewVec2(100, 250), Viewport: vp})

	assert.InDelta(t, 1, f.Magnitude(), 1e-3)
	assert.Greater(t, f.X, 0.0)
}

func TestPointerCommitOnRelease(t *testing.T) {
	p := NewPointerProvider()
	assert.False(t, p.Commit(&Input{PointerUp: true}), "release without press")

	in := &Input{Pointer: physics.NewVec2(10, 10), PointerDown: true, Viewport: vp}
	p.Force(in)
	assert.False(t, p.Commit(in))

	up := &Input{Pointer: physics.NewVec2(5, 5), PointerUp: true, Viewport: vp}
	p.Force(up)
	assert.True(t, p.Commit(up))
	assert.False(t, p.Commit(up), "release fires once")
}

func TestPointerPressOverUIIgnored(t *testing.T) {
	p := NewPointerProvider()
	p.Force(&Input{Pointer: physics.NewVec2(500, 250), PointerDown: true, PointerOverUI: true, Viewport: vp})

	f := p.Force(&Input{Pointer: physics.NewVec2(400, 250), Viewport: vp})

	assert.True(t, f.IsZero())
	assert.False(t, p.Commit(&Input{PointerUp: true}))
}

func TestKeyboardStartState(t *testing.T) {
	p := NewKeyboardProvider()

	f := p.Force(&Input{})

	assert.InDelta(t, -0.5, f.X, 1e-4)
	assert.InDelta(t, 0, f.Y, 1e-4)
}

func TestKeyboardAngleAndPower(t *testing.T) {
	p := NewKeyboardProvider()
	for i := 0; i < 10; i++ {
		p.Force(&Input{Keys: Keys{Left: true, Up: true}})
	}

	assert.InDelta(t, math.Pi+10*KeyAngleStep, p.angle, 1e-9)
	assert.InDelta(t, 0.55, p.power, 1e-9)

	for i := 0; i < 1000; i++ {
		p.Force(&Input{Keys: Keys{Down: true}})
	}
	assert.Equal(t, KeyForceMin, p.power)

	for i := 0; i < 1000; i++ {
		p.Force(&Input{Keys: Keys{Up: true}})
	}
	assert.Equal(t, KeyForceMax, p.power)
}

func TestKeyboardCommitIsLevelTriggered(t *testing.T) {
	p := NewKeyboardProvider()
	held := &Input{Keys: Keys{Trigger: true}}

	assert.True(t, p.Commit(held))
	assert.True(t, p.Commit(held))
	assert.False(t, p.Commit(&Input{}))
}

func TestTouchDrag(t *testing.T) {
	p := NewTouchProvider()

	p.Force(&Input{Touches: []Touch{{Phase: TouchBegan, Position: physics.NewVec2(500, 250)}}, Viewport: vp})
	f := p.Force(&Input{Touches: []Touch{{Phase: TouchMoved, Position: physics.NewVec2(520, 250)}}, Viewport: vp})
	assert.InDelta(t, -0.1, f.X, 1e-9)

	// Stationary keeps the last force.
	f = p.Force(&Input{Touches: []Touch{{Phase: TouchStationary, Position: physics.NewVec2(0, 0)}}, Viewport: vp})
	assert.InDelta(t, -0.1, f.X, 1e-9)

	end := &Input{Touches: []Touch{{Phase: TouchEnded, Position: physics.NewVec2(520, 250)}}, Viewport: vp}
	assert.True(t, p.Commit(end))
	assert.False(t, p.Commit(&Input{}))
}

func TestTouchOnlyFirstTouchCounts(t *testing.T) {
	p := NewTouchProvider()
	in := &Input{Touches: []Touch{
		{ID: 1, Phase: TouchStationary},
		{ID: 2, Phase: TouchEnded},
	}}

	assert.False(t, p.Commit(in))
}
