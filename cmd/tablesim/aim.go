package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/shot"
)

// aim is a scripted shot: direction in radians and power in [0,1].
type aim struct {
	Angle float64
	Power float64
}

func (a aim) String() string {
	return fmt.Sprintf("%.3f:%.2f", a.Angle, a.Power)
}

// parseAim reads "angle:power".
func parseAim(s string) (aim, error) {
	angleStr, powerStr, ok := strings.Cut(s, ":")
	if !ok {
		return aim{}, fmt.Errorf("shot %q: want angle:power", s)
	}
	angle, err := strconv.ParseFloat(strings.TrimSpace(angleStr), 64)
	if err != nil {
		return aim{}, fmt.Errorf("shot %q: bad angle: %w", s, err)
	}
	power, err := strconv.ParseFloat(strings.TrimSpace(powerStr), 64)
	if err != nil {
		return aim{}, fmt.Errorf("shot %q: bad power: %w", s, err)
	}
	if power < shot.KeyForceMin || power > shot.KeyForceMax {
		return aim{}, fmt.Errorf("shot %q: power must be in [%.2f, %.2f]", s, shot.KeyForceMin, shot.KeyForceMax)
	}
	return aim{Angle: angle, Power: power}, nil
}

// frames returns the key-hold input that steers a fresh keyboard provider
// from its start aim to a. The last frame holds no keys, so the result is
// never empty. Aim is quantised to the provider's per-frame step.
func (a aim) frames() []shot.Input {
	start := shot.NewKeyboardProvider().Force(&shot.Input{})
	dAngle := math.Remainder(a.Angle-math.Atan2(start.Y, start.X), 2*math.Pi)
	dPower := a.Power - start.Magnitude()

	turns := int(math.Round(math.Abs(dAngle) / shot.KeyAngleStep))
	pushes := int(math.Round(math.Abs(dPower) / shot.KeyForceStep))

	n := max(turns, pushes)
	out := make([]shot.Input, 0, n+1)
	for i := 0; i < n; i++ {
		var k shot.Keys
		if i < turns {
			k.Left = dAngle > 0
			k.Right = dAngle < 0
		}
		if i < pushes {
			k.Up = dPower > 0
			k.Down = dPower < 0
		}
		out = append(out, shot.Input{Keys: k})
	}
	return append(out, shot.Input{})
}

// steer resets the session's keyboard aim and feeds the frames for a.
func steer(s *game.Session, a aim) error {
	if err := s.Apply(game.Command{Name: game.CmdSetController, Controller: shot.ControllerKeyboard.String()}); err != nil {
		return err
	}
	for _, in := range a.frames() {
		s.Frame(&in)
	}
	return nil
}

// startLevel starts the match on id, or on the start level when id is negative.
func startLevel(s *game.Session, id int) error {
	settings := s.Match().Settings()
	if id < 0 || id == settings.StartLevel {
		return s.Apply(game.Command{Name: game.CmdStart})
	}
	if !settings.InRange(id) {
		return fmt.Errorf("level %d out of range [0,%d)", id, len(settings.Levels))
	}
	return s.Apply(game.Command{Name: game.CmdChangeLevel, Level: id})
}
