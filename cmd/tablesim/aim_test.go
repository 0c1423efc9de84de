package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/match"
	"github.com/playmatatu/pocketpool/internal/physics"
	"github.com/playmatatu/pocketpool/internal/shot"
)

func TestParseAim(t *testing.T) {
	a, err := parseAim("3.14159:0.75")
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, a.Angle, 1e-9)
	assert.InDelta(t, 0.75, a.Power, 1e-9)

	a, err = parseAim(" -1.5 : 1 ")
	require.NoError(t, err)
	assert.InDelta(t, -1.5, a.Angle, 1e-9)

	for _, bad := range []string{"", "1.0", "x:0.5", "1:y", "0:0", "0:1.5"} {
		_, err := parseAim(bad)
		assert.Error(t, err, bad)
	}
}

func TestAimFramesReachTarget(t *testing.T) {
	cases := []aim{
		{Angle: math.Pi, Power: 0.5},
		{Angle: 0, Power: 1},
		{Angle: 2, Power: 0.2},
		{Angle: -2.5, Power: 0.05},
	}
	for _, want := range cases {
		p := shot.NewKeyboardProvider()
		frames := want.frames()
		require.NotEmpty(t, frames)

		var force physics.Vec2
		for _, in := range frames {
			force = p.Force(&in)
		}
		assert.InDelta(t, want.Power, force.Magnitude(), shot.KeyForceStep, "power for %s", want)

		dir := math.Remainder(math.Atan2(force.Y, force.X)-want.Angle, 2*math.Pi)
		assert.InDelta(t, 0, dir, shot.KeyAngleStep, "angle for %s", want)
	}
}

func TestAimFramesNeverCommit(t *testing.T) {
	for _, in := range (aim{Angle: 1, Power: 0.9}).frames() {
		assert.False(t, in.Keys.Trigger)
	}
}

func TestStartLevelAndSteer(t *testing.T) {
	settings, err := level.Default()
	require.NoError(t, err)
	s, err := game.NewSession("t", settings, game.Options{Controller: shot.ControllerKeyboard}, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	require.Error(t, startLevel(s, len(settings.Levels)))
	assert.Equal(t, match.Idle, s.Match().State())

	require.NoError(t, startLevel(s, 1))
	assert.Equal(t, match.Running, s.Match().State())
	assert.Equal(t, 1, s.Match().LevelID())

	require.NoError(t, steer(s, aim{Angle: 0, Power: 0.3}))
	raw := s.Controller().RawForce()
	assert.InDelta(t, 0.3, raw.Magnitude(), shot.KeyForceStep)
	assert.Greater(t, raw.X, 0.0)
	assert.Equal(t, 0, s.Controller().Shots())
}
