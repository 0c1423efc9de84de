package match

import (
	"fmt"

	"github.com/playmatatu/pocketpool/internal/physics"
)

// Color tags a ball. Only red balls score.
type Color string

const (
	White  Color = "white" // cue ball
	Red    Color = "red"
	Yellow Color = "yellow"
)

// ParseColor validates a color name.
func ParseColor(s string) (Color, error) {
	switch c := Color(s); c {
	case White, Red, Yellow:
		return c, nil
	}
	return "", fmt.Errorf("unknown ball color %q", s)
}

// Scoring reports whether pocketing a ball of this color raises the score.
func (c Color) Scoring() bool { return c == Red }

// Ball is the match's view of one live body: its color, its start pose and
// the stationary flag derived each physics step.
type Ball struct {
	color      Color
	body       *physics.Body
	start      physics.Vec2
	stationary bool
}

// NewBall wraps body. The body's current position becomes the start pose.
func NewBall(body *physics.Body, color Color) *Ball {
	return &Ball{color: color, body: body, start: body.Position, stationary: true}
}

func (b *Ball) ID() int                     { return b.body.ID }
func (b *Ball) Color() Color                { return b.color }
func (b *Ball) Body() *physics.Body         { return b.body }
func (b *Ball) Position() physics.Vec2      { return b.body.Position }
func (b *Ball) StartPosition() physics.Vec2 { return b.start }
func (b *Ball) Active() bool                { return b.body.Active }
func (b *Ball) Stationary() bool            { return b.stationary }

// ApplyImpulse forwards a shot impulse to the body.
func (b *Ball) ApplyImpulse(impulse physics.Vec2) {
	b.body.ApplyImpulse(impulse)
}

// UpdateMotion derives the stationary flag from the body's speed. A ball
// slower than threshold is snapped to exact rest.
func (b *Ball) UpdateMotion(threshold float64) {
	if !b.body.Active {
		return
	}
	if b.body.Speed() < threshold {
		b.freeze()
		return
	}
	b.stationary = false
}

// ResetAndFreeze returns the ball to its start pose at rest.
func (b *Ball) ResetAndFreeze() {
	b.body.Position = b.start
	b.freeze()
}

// SetActive puts the ball in or out of play. Deactivating also resets it.
func (b *Ball) SetActive(active bool) {
	b.body.Active = active
	if !active {
		b.ResetAndFreeze()
	}
}

func (b *Ball) freeze() {
	b.body.Freeze()
	b.stationary = true
}
