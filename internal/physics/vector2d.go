package physics

import "math"

// Vec2 is a 2D vector with fixed-precision arithmetic so that the live and
// shadow worlds produce bit-identical results for identical inputs.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// fix rounds to 4 decimal places.
func fix(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	return math.Round(n*10000) / 10000
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: fix(x), Y: fix(y)}
}

// FromAngle returns a vector of the given length pointing at angle radians.
func FromAngle(angle, length float64) Vec2 {
	return NewVec2(math.Cos(angle)*length, math.Sin(angle)*length)
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: fix(v.X + o.X), Y: fix(v.Y + o.Y)}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: fix(v.X - o.X), Y: fix(v.Y - o.Y)}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: fix(v.X * s), Y: fix(v.Y * s)}
}

func (v Vec2) Dot(o Vec2) float64 {
	return fix(v.X*o.X + v.Y*o.Y)
}

func (v Vec2) Magnitude() float64 {
	return fix(math.Sqrt(v.X*v.X + v.Y*v.Y))
}

func (v Vec2) MagnitudeSquared() float64 {
	return fix(v.X*v.X + v.Y*v.Y)
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

// ClampMagnitude returns v normalized to max when it is longer than max.
func (v Vec2) ClampMagnitude(max float64) Vec2 {
	if v.Magnitude() > max {
		return v.Normalize().Times(max)
	}
	return v
}

func (v Vec2) RightNormal() Vec2 {
	return Vec2{X: v.Y, Y: -v.X}
}

func (v Vec2) LeftNormal() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) AngleBetween(o Vec2) float64 {
	denom := v.Magnitude() * o.Magnitude()
	if denom == 0 {
		return 0
	}
	cos := v.Dot(o) / denom
	// Clamp to [-1, 1] to avoid NaN from acos
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return fix(math.Acos(cos) * 180 / math.Pi)
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Equal is an exact component comparison, no tolerance.
func (v Vec2) Equal(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}
