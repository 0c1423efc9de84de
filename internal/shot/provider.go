// Package shot turns raw client input into shot forces and commits them to
// the cue ball.
package shot

import (
	"math"

	"github.com/playmatatu/pocketpool/internal/physics"
)

// Provider maps raw input to a candidate force. Force is called once per
// frame before Commit and returns a vector with magnitude at most 1.
type Provider interface {
	Force(in *Input) physics.Vec2
	Commit(in *Input) bool
}

const (
	// DragSensitivity scales a drag distance before viewport normalisation.
	DragSensitivity = 5.0

	KeyAngleStep = 0.005 // radians per frame
	KeyForceStep = 0.005 // per frame
	KeyForceMin  = 0.01
	KeyForceMax  = 1.0
)

// dragForce maps a drag from anchor to current into a unit-clamped force
// pointing away from the drag direction.
func dragForce(anchor, current physics.Vec2, vp Viewport) physics.Vec2 {
	w, h := vp.Width, vp.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	d := anchor.Minus(current).Times(DragSensitivity)
	f := physics.NewVec2(d.X/w, d.Y/h)
	if f.Magnitude() > 1 {
		f = f.Normalize()
	}
	return f
}

// PointerProvider aims by dragging with any pointer button held and shoots
// on release.
type PointerProvider struct {
	force   physics.Vec2
	anchor  physics.Vec2
	pressed bool
}

func NewPointerProvider() *PointerProvider {
	return &PointerProvider{}
}

func (p *PointerProvider) Force(in *Input) physics.Vec2 {
	// Presses on UI chrome never start a drag.
	if in.PointerDown && !in.PointerOverUI {
		p.pressed = true
		p.anchor = in.Pointer
	}
	if p.pressed {
		p.force = dragForce(p.anchor, in.Pointer, in.Viewport)
	}
	return p.force
}

func (p *PointerProvider) Commit(in *Input) bool {
	if p.pressed && in.PointerUp {
		p.pressed = false
		return true
	}
	return false
}

// KeyboardProvider rotates the aim with left/right, changes power with
// up/down and shoots while the trigger key is held. Commit is level
// triggered: it reports true on every frame the trigger is held.
type KeyboardProvider struct {
	angle float64
	power float64
}

func NewKeyboardProvider() *KeyboardProvider {
	return &KeyboardProvider{angle: math.Pi, power: 0.5}
}

func (p *KeyboardProvider) Force(in *Input) physics.Vec2 {
	if in.Keys.Left {
		p.angle += KeyAngleStep
	}
	if in.Keys.Right {
		p.angle -= KeyAngleStep
	}
	if in.Keys.Up {
		p.power += KeyForceStep
	}
	if in.Keys.Down {
		p.power -= KeyForceStep
	}
	p.power = math.Max(KeyForceMin, math.Min(KeyForceMax, p.power))
	return physics.FromAngle(p.angle, p.power)
}

func (p *KeyboardProvider) Commit(in *Input) bool {
	return in.Keys.Trigger
}

// TouchProvider follows the first touch: it anchors where the touch began,
// aims while it moves and shoots when it ends.
type TouchProvider struct {
	force  physics.Vec2
	anchor physics.Vec2
}

func NewTouchProvider() *TouchProvider {
	return &TouchProvider{}
}

func (p *TouchProvider) Force(in *Input) physics.Vec2 {
	t, ok := in.primaryTouch()
	if !ok {
		return p.force
	}
	switch t.Phase {
	case TouchBegan:
		p.anchor = t.Position
	case TouchMoved:
		p.force = dragForce(p.anchor, t.Position, in.Viewport)
	}
	return p.force
}

func (p *TouchProvider) Commit(in *Input) bool {
	t, ok := in.primaryTouch()
	return ok && t.Phase == TouchEnded
}
