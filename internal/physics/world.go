package physics

import "math"

// Body is one ball's rigid-body state inside a World.
type Body struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Spin     float64 `json:"spin"` // angular velocity around the table normal
	Active   bool    `json:"active"`
}

// Freeze zeroes linear and angular velocity.
func (b *Body) Freeze() {
	b.Velocity = Vec2{}
	b.Spin = 0
}

// ApplyImpulse adds an instantaneous impulse. Inactive bodies ignore it.
func (b *Body) ApplyImpulse(impulse Vec2) {
	if !b.Active {
		return
	}
	b.Velocity = b.Velocity.Plus(impulse.Times(1 / BallMass))
}

// Speed returns the magnitude of the body's linear velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}

// ContactType classifies a Contact.
type ContactType string

const (
	ContactBall   ContactType = "ball"
	ContactLine   ContactType = "line"
	ContactVertex ContactType = "vertex"
	ContactPocket ContactType = "pocket"
)

// Contact records a collision resolved during a Step.
type Contact struct {
	Type     ContactType `json:"type"`
	BodyID   int         `json:"body_id"`
	TargetID int         `json:"target_id"` // body ID, line index, vertex index, or pocket ID
	Speed    float64     `json:"speed"`
}

// collisionCandidate is an internal struct for collision detection.
type collisionCandidate struct {
	kind                 ContactType
	object               *Body
	target               interface{} // *Body, *CushionLine, *Vertex, or *Pocket
	targetIndex          int
	time                 float64
	objectIntersectPoint Vec2
	targetIntersectPoint Vec2 // only for ball-ball
}

// World is an isolated simulation context: a set of bodies plus at most one
// table. Two worlds never share bodies or colliders.
type World struct {
	bodies   []*Body
	table    *Table
	contacts []Contact
	omitted  []*Body // bodies to skip during moveBodies
}

// NewWorld creates a world with the given table. A nil table means the world
// has no colliders besides its bodies.
func NewWorld(table *Table) *World {
	return &World{table: table}
}

// AddBody places a new active body at pos and returns it. IDs are assigned in
// insertion order so two worlds built from the same list line up by index.
func (w *World) AddBody(pos Vec2) *Body {
	b := &Body{ID: len(w.bodies), Position: pos, Active: true}
	w.bodies = append(w.bodies, b)
	return b
}

// Bodies returns the world's bodies in ID order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Body returns the body with the given ID, or nil.
func (w *World) Body(id int) *Body {
	if id < 0 || id >= len(w.bodies) {
		return nil
	}
	return w.bodies[id]
}

// Table returns the installed table, possibly nil.
func (w *World) Table() *Table {
	return w.table
}

// SetTable replaces the table colliders. Passing nil removes them.
func (w *World) SetTable(t *Table) {
	w.table = t
}

// ApplyImpulse adds an instantaneous impulse to b.
func (w *World) ApplyImpulse(b *Body, impulse Vec2) {
	if b == nil {
		return
	}
	b.ApplyImpulse(impulse)
}

// AtRest returns true if all active bodies have zero velocity.
func (w *World) AtRest() bool {
	for _, b := range w.bodies {
		if b.Active && !b.Velocity.IsZero() {
			return false
		}
	}
	return true
}

// Step advances the world by dt seconds. The returned contacts are only valid
// until the next call to Step.
func (w *World) Step(dt float64) []Contact {
	w.contacts = w.contacts[:0]
	if dt <= 0 {
		return w.contacts
	}
	span := fix(dt * TickRate)
	w.predictCollisions(span)
	w.updateFriction(span)
	return w.contacts
}

// SimulateUntilRest steps the world until it is at rest or maxSteps is
// reached. It returns every contact and the number of steps taken.
func (w *World) SimulateUntilRest(dt float64, maxSteps int) ([]Contact, int) {
	var all []Contact
	steps := 0
	for steps < maxSteps && !w.AtRest() {
		all = append(all, w.Step(dt)...)
		steps++
	}
	return all, steps
}

// CopyPoses copies position and active flag from every body of src into the
// body of dst with the same ID. Nothing flows from dst back into src.
func CopyPoses(dst, src *World) {
	n := len(dst.bodies)
	if len(src.bodies) < n {
		n = len(src.bodies)
	}
	for i := 0; i < n; i++ {
		dst.bodies[i].Position = src.bodies[i].Position
		dst.bodies[i].Active = src.bodies[i].Active
	}
}

// sweepTime converts a hit point on the segment from->to into a collision time.
func sweepTime(from, to, hit point, t, remaining float64) float64 {
	fullPath := createVectorFrom2Points(from, to)
	toHit := createVectorFrom2Points(from, hit)
	if fullPath.Magnitude() > 0 {
		return fix(t + toHit.Magnitude()/fullPath.Magnitude()*remaining)
	}
	return t
}

// circleHit resolves a line-circle result into a hit point and collision time.
func circleHit(res intersectResult, from, to point, t, remaining float64) (point, float64, bool) {
	if res.intersects {
		if res.enter != nil {
			return *res.enter, sweepTime(from, to, *res.enter, t, remaining), true
		}
		if res.exit != nil {
			return *res.exit, sweepTime(from, to, *res.exit, t, remaining), true
		}
		return point{}, 0, false
	}
	if res.inside {
		return from, t, true
	}
	return point{}, 0, false
}

func (w *World) predictCollisions(span float64) {
	t := 0.0
	iterations := 0

	for {
		bestTime := span
		var candidates []collisionCandidate
		remaining := fix(span - t)

		consider := func(c collisionCandidate) {
			if c.time < bestTime {
				bestTime = c.time
				candidates = append(candidates[:0], c)
			} else if c.time == bestTime && c.time != span {
				candidates = append(candidates, c)
			}
		}

		for a, ball := range w.bodies {
			if !ball.Active {
				continue
			}

			from := pointOf(ball.Position)
			projectedPos := ball.Position.Plus(ball.Velocity.Times(remaining))
			to := pointOf(projectedPos)

			// Ball-ball collisions
			for _, other := range w.bodies[a+1:] {
				if !other.Active {
					continue
				}
				if ball.Velocity.MagnitudeSquared() == 0 && other.Velocity.MagnitudeSquared() == 0 {
					continue
				}
				if !checkObjectsConverging(ball.Position, other.Position, ball.Velocity, other.Velocity) {
					continue
				}

				// Use relative velocity for collision detection
				relVel := ball.Velocity.Minus(other.Velocity)
				relEnd := pointOf(ball.Position.Plus(relVel.Times(remaining)))

				res := lineIntersectCircle(from, relEnd, pointOf(other.Position), 2*BallRadius)
				_, collisionTime, ok := circleHit(res, from, relEnd, t, remaining)
				if !ok {
					continue
				}

				consider(collisionCandidate{
					kind:                 ContactBall,
					object:               ball,
					target:               other,
					time:                 collisionTime,
					objectIntersectPoint: ball.Position.Plus(ball.Velocity.Times(collisionTime - t)),
					targetIntersectPoint: other.Position.Plus(other.Velocity.Times(collisionTime - t)),
				})
			}

			if ball.Velocity.MagnitudeSquared() == 0 || w.table == nil {
				continue
			}

			// Ball-line (cushion) collisions
			for li := range w.table.Lines {
				line := &w.table.Lines[li]

				// Try primary collision line (p3-p4)
				hit := lineIntersectLine(from, to, pointOf(line.P3), pointOf(line.P4))

				// Fallback to secondary line (p5-p6)
				if hit == nil {
					hit = lineIntersectLine(from, to, pointOf(line.P5), pointOf(line.P6))
					if hit != nil {
						// Adjust intersection point outward
						adjusted := NewVec2(hit.x, hit.y).Plus(line.Normal.Times(0.2 * BallRadius))
						hit = &point{adjusted.X, adjusted.Y}
					}
				}

				if hit == nil {
					continue
				}

				consider(collisionCandidate{
					kind:                 ContactLine,
					object:               ball,
					target:               line,
					targetIndex:          li,
					time:                 sweepTime(from, to, *hit, t, remaining),
					objectIntersectPoint: NewVec2(hit.x, hit.y),
				})
			}

			// Ball-vertex collisions
			for vi := range w.table.Vertices {
				vtx := &w.table.Vertices[vi]

				// Proximity check
				if math.Abs(ball.Position.X-vtx.Position.X) > 8000 ||
					math.Abs(ball.Position.Y-vtx.Position.Y) > 8000 {
					continue
				}

				res := lineIntersectCircle(from, to, pointOf(vtx.Position), BallRadius)
				hitPoint, collisionTime, ok := circleHit(res, from, to, t, remaining)
				if !ok {
					continue
				}

				consider(collisionCandidate{
					kind:                 ContactVertex,
					object:               ball,
					target:               vtx,
					targetIndex:          vi,
					time:                 collisionTime,
					objectIntersectPoint: NewVec2(hitPoint.x, hitPoint.y),
				})
			}

			// Ball-pocket collisions
			for pi := range w.table.Pockets {
				pocket := &w.table.Pockets[pi]

				if math.Abs(ball.Position.X-pocket.Position.X) > 8000 ||
					math.Abs(ball.Position.Y-pocket.Position.Y) > 8000 {
					continue
				}

				// Ball must be moving toward the pocket
				dir := pocket.Position.Minus(ball.Position).Normalize()
				if ball.Velocity.Dot(dir) <= 0 {
					continue
				}

				res := lineIntersectCircle(from, to, pointOf(pocket.Position), PocketRadius)
				hitPoint, collisionTime, ok := circleHit(res, from, to, t, remaining)
				if !ok {
					continue
				}

				consider(collisionCandidate{
					kind:                 ContactPocket,
					object:               ball,
					target:               pocket,
					targetIndex:          pocket.ID,
					time:                 collisionTime,
					objectIntersectPoint: NewVec2(hitPoint.x, hitPoint.y),
				})
			}
		}

		if len(candidates) > 0 {
			w.resolveCollisions(candidates)
		}

		w.moveBodies(fix(bestTime - t))
		t = bestTime
		iterations++

		if len(candidates) == 0 || iterations >= MaxIterations {
			break
		}
	}
}

func (w *World) resolveCollisions(candidates []collisionCandidate) {
	w.omitted = w.omitted[:0]

	for _, c := range candidates {
		// An earlier candidate in the same batch may already have sunk it
		if !c.object.Active {
			continue
		}
		switch c.kind {
		case ContactBall:
			w.resolveBallBall(c)
		case ContactLine:
			w.resolveBallLine(c)
		case ContactVertex:
			w.resolveBallVertex(c)
		case ContactPocket:
			w.resolveBallPocket(c)
		}
	}
}

func (w *World) resolveBallBall(c collisionCandidate) {
	ball := c.object
	target := c.target.(*Body)
	if !target.Active {
		return
	}

	ball.Position = c.objectIntersectPoint
	target.Position = c.targetIntersectPoint
	w.omitted = append(w.omitted, ball, target)

	// Decompose velocities into normal and tangential components
	n := target.Position.Minus(ball.Position).Normalize()
	r := n.RightNormal()

	ballNormal := n.Times(ball.Velocity.Dot(n))
	ballTangent := r.Times(ball.Velocity.Dot(r))
	targetNormal := n.Times(target.Velocity.Dot(n))
	targetTangent := r.Times(target.Velocity.Dot(r))

	// Transfer spin
	if math.Abs(target.Spin) < math.Abs(ball.Spin) {
		target.Spin = -0.5 * ball.Spin
	}

	newBallNormal := targetNormal.Times(BallRestitution).Plus(ballNormal.Times(1 - BallRestitution))
	newTargetNormal := ballNormal.Times(BallRestitution).Plus(targetNormal.Times(1 - BallRestitution))

	ball.Velocity = ballTangent.Plus(newBallNormal)
	target.Velocity = targetTangent.Plus(newTargetNormal)

	w.contacts = append(w.contacts,
		Contact{Type: ContactBall, BodyID: ball.ID, TargetID: target.ID, Speed: ball.Velocity.Magnitude()},
		Contact{Type: ContactBall, BodyID: target.ID, TargetID: ball.ID, Speed: target.Velocity.Magnitude()},
	)
}

func (w *World) resolveBallLine(c collisionCandidate) {
	ball := c.object
	line := c.target.(*CushionLine)

	ball.Position = c.objectIntersectPoint
	w.omitted = append(w.omitted, ball)

	// Transfer tangential velocity into spin
	ball.Spin += -ball.Velocity.Dot(line.Direction) / 100
	if ball.Spin > MaxSpin {
		ball.Spin = MaxSpin
	}
	if ball.Spin < -MaxSpin {
		ball.Spin = -MaxSpin
	}

	normalComp := line.Normal.Times(ball.Velocity.Dot(line.Normal))
	tangentComp := line.Direction.Times(ball.Velocity.Dot(line.Direction))

	ball.Velocity = normalComp.Times(-CushionRestitution).Plus(tangentComp)

	// Push ball away from cushion
	ball.Position = ball.Position.Plus(line.Normal.Times(200))

	w.contacts = append(w.contacts, Contact{
		Type:     ContactLine,
		BodyID:   ball.ID,
		TargetID: c.targetIndex,
		Speed:    normalComp.Magnitude(),
	})
}

func (w *World) resolveBallVertex(c collisionCandidate) {
	ball := c.object
	vtx := c.target.(*Vertex)

	ball.Position = c.objectIntersectPoint
	w.omitted = append(w.omitted, ball)

	n := vtx.Position.Minus(ball.Position).Normalize()
	r := n.RightNormal()

	normalComp := n.Times(ball.Velocity.Dot(n))
	tangentComp := r.Times(ball.Velocity.Dot(r))

	ball.Velocity = normalComp.Times(-CushionRestitution).Plus(tangentComp)
	ball.Position = ball.Position.Minus(n.Times(200))

	w.contacts = append(w.contacts, Contact{
		Type:     ContactVertex,
		BodyID:   ball.ID,
		TargetID: c.targetIndex,
		Speed:    normalComp.Magnitude(),
	})
}

func (w *World) resolveBallPocket(c collisionCandidate) {
	ball := c.object

	ball.Position = c.objectIntersectPoint
	w.omitted = append(w.omitted, ball)

	speed := ball.Velocity.Magnitude()
	ball.Active = false
	ball.Freeze()

	w.contacts = append(w.contacts, Contact{
		Type:     ContactPocket,
		BodyID:   ball.ID,
		TargetID: c.targetIndex,
		Speed:    speed,
	})
}

func (w *World) moveBodies(dt float64) {
	for _, b := range w.bodies {
		if !b.Active || w.isOmitted(b) {
			continue
		}
		b.Position = b.Position.Plus(b.Velocity.Times(dt))
	}
	w.omitted = w.omitted[:0]
}

func (w *World) isOmitted(b *Body) bool {
	for _, o := range w.omitted {
		if o == b {
			return true
		}
	}
	return false
}

func (w *World) updateFriction(span float64) {
	for _, b := range w.bodies {
		if !b.Active {
			continue
		}

		// Linear friction
		speed := b.Velocity.Magnitude() - Friction*span
		if speed < MinVelocity {
			b.Velocity = Vec2{}
		} else {
			b.Velocity = b.Velocity.Normalize().Times(speed)
		}

		// Spin damping
		damp := SpinDamping * span
		if b.Spin >= damp {
			b.Spin = fix(b.Spin - damp)
		} else if b.Spin <= -damp {
			b.Spin = fix(b.Spin + damp)
		} else {
			b.Spin = 0
		}

		// Spin curves the path of a rolling ball
		if b.Spin != 0 && !b.Velocity.IsZero() {
			leftNorm := b.Velocity.LeftNormal().Normalize()
			b.Velocity = b.Velocity.Plus(leftNorm.Times(0.3 * b.Spin * b.Velocity.Magnitude() / 800 * span))
		}
	}
}
