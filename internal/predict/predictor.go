// Package predict forecasts the cue ball's path by replaying the candidate
// shot in a private shadow world.
package predict

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/event"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/physics"
)

// DefaultSteps is the number of samples in a predicted path.
const DefaultSteps = 30

var (
	weakColor   = colorful.Color{R: 0, G: 0, B: 1}
	strongColor = colorful.Color{R: 1, G: 0, B: 0}
)

// ForceSource exposes the candidate shot. shot.Controller implements it.
type ForceSource interface {
	Enabled() bool
	ShotForce() physics.Vec2
	RawForce() physics.Vec2
}

// LevelSource reports the loaded level. match.Match implements it.
type LevelSource interface {
	Level() (level.Level, bool)
}

// Signals are the notifications the predictor listens to while enabled.
type Signals struct {
	ShotTriggered *event.Signal[event.Empty]
	LevelChanged  *event.Signal[level.Level]
}

// Path is a predicted cue ball path.
type Path struct {
	Points  []physics.Vec2 `json:"points"`
	Color   string         `json:"color"`
	Visible bool           `json:"visible"`
}

// Predictor owns the shadow world. The live world is only ever read.
type Predictor struct {
	live    *physics.World
	cueID   int
	source  ForceSource
	levels  LevelSource
	signals Signals
	steps   int
	dt      float64
	log     *zap.Logger

	shadow  *physics.World
	remove  []func()
	points  []physics.Vec2
	color   colorful.Color
	visible bool
	last    physics.Vec2
	runs    int
}

// New creates a disabled predictor mirroring live, following the body cueID.
func New(live *physics.World, cueID int, source ForceSource, levels LevelSource, signals Signals, steps int, dt float64, log *zap.Logger) *Predictor {
	if steps <= 0 {
		steps = DefaultSteps
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Predictor{
		live:    live,
		cueID:   cueID,
		source:  source,
		levels:  levels,
		signals: signals,
		steps:   steps,
		dt:      dt,
		log:     log.Named("predict"),
		points:  make([]physics.Vec2, steps),
		color:   weakColor,
	}
}

// Enable builds the shadow world and starts listening for shots and level
// changes. Enabling twice is a no-op.
func (p *Predictor) Enable() {
	if p.shadow != nil {
		return
	}
	p.shadow = physics.NewWorld(nil)
	for _, b := range p.live.Bodies() {
		sb := p.shadow.AddBody(b.Position)
		sb.Active = b.Active
	}
	p.prepareTable()

	if p.signals.ShotTriggered != nil {
		p.remove = append(p.remove, p.signals.ShotTriggered.AddListener(func(event.Empty) { p.OnShotTriggered() }))
	}
	if p.signals.LevelChanged != nil {
		p.remove = append(p.remove, p.signals.LevelChanged.AddListener(func(level.Level) { p.OnLevelChanged() }))
	}
	p.log.Debug("enabled", zap.Int("bodies", len(p.shadow.Bodies())))
}

// Disable hides the path and discards the shadow world.
func (p *Predictor) Disable() {
	for _, rm := range p.remove {
		rm()
	}
	p.remove = nil
	p.visible = false
	p.shadow = nil
	p.last = physics.Vec2{}
}

func (p *Predictor) Enabled() bool { return p.shadow != nil }

// FixedUpdate runs once per physics step. While shots are allowed it
// recomputes the path whenever the candidate force differs from the one
// last simulated; otherwise it hides the path.
func (p *Predictor) FixedUpdate() {
	if p.shadow == nil {
		return
	}
	if !p.source.Enabled() {
		p.visible = false
		return
	}
	p.visible = true

	force := p.source.ShotForce()
	if force.Equal(p.last) {
		return
	}
	p.simulate(force)
	p.color = blend(p.source.RawForce().Magnitude())
	p.last = force
}

// OnShotTriggered forgets the last simulated force so the next armed pass
// always recomputes.
func (p *Predictor) OnShotTriggered() {
	p.last = physics.Vec2{}
}

// OnLevelChanged replaces the shadow table with the new level's geometry.
func (p *Predictor) OnLevelChanged() {
	if p.shadow == nil {
		return
	}
	p.shadow.SetTable(nil)
	p.prepareTable()
}

// Path returns a copy of the current prediction.
func (p *Predictor) Path() Path {
	pts := make([]physics.Vec2, len(p.points))
	copy(pts, p.points)
	return Path{Points: pts, Color: p.color.Hex(), Visible: p.visible}
}

// Color returns the colour hint of the current path.
func (p *Predictor) Color() colorful.Color { return p.color }

// Recomputations counts shadow simulations run so far.
func (p *Predictor) Recomputations() int { return p.runs }

// Shadow exposes the shadow world for inspection.
func (p *Predictor) Shadow() *physics.World { return p.shadow }

// physicsTable returns the table spec of the loaded level.
func (p *Predictor) physicsTable() (*physics.TableSpec, bool) {
	if p.levels == nil {
		return nil, false
	}
	l, ok := p.levels.Level()
	if !ok || l.Table == nil {
		return nil, false
	}
	return l.Table, true
}

func (p *Predictor) prepareTable() {
	spec, ok := p.physicsTable()
	if !ok {
		p.log.Debug("no table geometry for level")
		return
	}
	p.shadow.SetTable(physics.NewTable(*spec))
}

func (p *Predictor) simulate(force physics.Vec2) {
	physics.CopyPoses(p.shadow, p.live)
	// Velocities are not copied; every shadow ball starts at rest.
	for _, b := range p.shadow.Bodies() {
		b.Freeze()
	}
	cue := p.shadow.Body(p.cueID)
	if cue == nil {
		return
	}
	p.shadow.ApplyImpulse(cue, force)
	for i := 0; i < p.steps; i++ {
		p.shadow.Step(p.dt)
		p.points[i] = cue.Position
	}
	p.runs++
	p.log.Debug("trajectory recomputed", zap.Float64("x", force.X), zap.Float64("y", force.Y))
}

// blend interpolates the colour hint by t clamped to [0,1].
func blend(t float64) colorful.Color {
	t = math.Max(0, math.Min(1, t))
	return weakColor.BlendRgb(strongColor, t)
}
