package shot

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/event"
	"github.com/playmatatu/pocketpool/internal/physics"
)

// ControllerType selects the input modality of a Controller.
type ControllerType int

const (
	ControllerNone ControllerType = iota - 1
	ControllerPointer
	ControllerKeyboard
	ControllerTouch
)

func (c ControllerType) String() string {
	switch c {
	case ControllerPointer:
		return "pointer"
	case ControllerKeyboard:
		return "keyboard"
	case ControllerTouch:
		return "touch"
	default:
		return "none"
	}
}

// ParseControllerType accepts the names returned by String.
func ParseControllerType(s string) (ControllerType, error) {
	switch s {
	case "pointer", "mouse":
		return ControllerPointer, nil
	case "keyboard":
		return ControllerKeyboard, nil
	case "touch":
		return ControllerTouch, nil
	case "none", "":
		return ControllerNone, nil
	}
	return ControllerNone, fmt.Errorf("unknown controller %q", s)
}

func (c ControllerType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ControllerType) UnmarshalText(b []byte) error {
	v, err := ParseControllerType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Platform describes the client's input hardware.
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformTouch   Platform = "touch"  // handheld with a touch screen
	PlatformMobile  Platform = "mobile" // handheld without touch support
)

// SupportedControllers lists the controllers usable on platform.
func SupportedControllers(p Platform) []ControllerType {
	switch p {
	case PlatformDesktop:
		return []ControllerType{ControllerPointer, ControllerKeyboard}
	case PlatformTouch:
		return []ControllerType{ControllerTouch}
	default:
		return []ControllerType{}
	}
}

// Target receives the committed shot impulse.
type Target interface {
	ApplyImpulse(impulse physics.Vec2)
}

// Controller samples the active Provider each frame and commits shots to
// the cue ball. It starts disabled; the match enables it.
type Controller struct {
	// OnShotTriggered fires after a shot impulse has been applied.
	OnShotTriggered event.Signal[event.Empty]

	multiplier float64
	target     Target
	kind       ControllerType
	provider   Provider
	force      physics.Vec2
	enabled    bool
	shots      int
	log        *zap.Logger
}

// NewController creates a controller bound to target with the given
// provider selected.
func NewController(target Target, multiplier float64, kind ControllerType, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		multiplier: multiplier,
		target:     target,
		kind:       ControllerNone,
		log:        log.Named("shot"),
	}
	c.SetController(kind)
	return c
}

// SetController installs a fresh provider for kind, discarding any
// in-progress drag or aim state, even when kind is already selected.
func (c *Controller) SetController(kind ControllerType) {
	c.kind = kind
	switch kind {
	case ControllerPointer:
		c.provider = NewPointerProvider()
	case ControllerKeyboard:
		c.provider = NewKeyboardProvider()
	case ControllerTouch:
		c.provider = NewTouchProvider()
	default:
		c.kind = ControllerNone
		c.provider = nil
	}
	c.log.Debug("controller selected", zap.Stringer("controller", c.kind))
}

// SetPointerController selects the pointer provider unless it is active.
func (c *Controller) SetPointerController() {
	if c.kind == ControllerPointer {
		return
	}
	c.SetController(ControllerPointer)
}

// SetKeyboardController selects the keyboard provider unless it is active.
func (c *Controller) SetKeyboardController() {
	if c.kind == ControllerKeyboard {
		return
	}
	c.SetController(ControllerKeyboard)
}

func (c *Controller) Controller() ControllerType { return c.kind }

func (c *Controller) SetEnabled(enabled bool) { c.enabled = enabled }

func (c *Controller) Enabled() bool { return c.enabled }

// Shots returns the number of shots committed so far.
func (c *Controller) Shots() int { return c.shots }

// ShotForce returns the raw force scaled by the multiplier.
func (c *Controller) ShotForce() physics.Vec2 {
	return c.force.Times(c.multiplier)
}

// RawForce returns the provider's unit-clamped force.
func (c *Controller) RawForce() physics.Vec2 {
	return c.force
}

// Update runs one variable-rate pass. A disabled controller or one without
// a provider does nothing.
func (c *Controller) Update(in *Input) {
	if !c.enabled || c.provider == nil || in == nil {
		return
	}
	c.force = c.provider.Force(in)
	if c.provider.Commit(in) {
		c.shoot()
	}
}

func (c *Controller) shoot() {
	impulse := c.ShotForce()
	if c.target != nil {
		c.target.ApplyImpulse(impulse)
	}
	c.shots++
	// A level-triggered provider keeps reporting commit while its key is
	// held; only the first frame may shoot.
	c.enabled = false
	c.log.Info("shot triggered",
		zap.Float64("x", impulse.X),
		zap.Float64("y", impulse.Y),
		zap.Float64("power", c.force.Magnitude()),
	)
	c.OnShotTriggered.Invoke(event.Empty{})
}
