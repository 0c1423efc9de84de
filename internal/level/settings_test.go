package level

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/pocketpool/internal/physics"
)

func TestDefaultSettings(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 0, s.StartingScore)
	assert.Len(t, s.Levels, 4)
	for i, l := range s.Levels {
		assert.Equal(t, i, l.ID)
	}
	assert.Nil(t, s.Levels[3].Table, "blind level carries no table")
	assert.Equal(t, physics.PocketsCorners, s.Levels[1].Table.Pockets)

	reds := 0
	for _, b := range s.Balls {
		if b.Color == "red" {
			reds++
		}
	}
	assert.GreaterOrEqual(t, s.StartingScore+reds, s.WinScore, "default rack must make the win reachable")
}

func TestDefaultRackFitsEveryTable(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	for _, l := range s.Levels {
		spec := physics.TableSpec{}
		if l.Table != nil {
			spec = *l.Table
		}
		halfW, halfH := physics.NewTable(spec).HalfExtents()
		for _, b := range s.Balls {
			assert.Less(t, b.X*b.X, (halfW-physics.BallRadius)*(halfW-physics.BallRadius), "level %s", l.Name)
			assert.Less(t, b.Y*b.Y, (halfH-physics.BallRadius)*(halfH-physics.BallRadius), "level %s", l.Name)
		}
	}
}

func TestGet(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	l, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "Corners", l.Name)

	_, ok = s.Get(-1)
	assert.False(t, ok)
	_, ok = s.Get(len(s.Levels))
	assert.False(t, ok)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad score bounds", "lose_score: 3\nwin_score: 1\nballs: [{color: white}]\nlevels: [{name: a}]"},
		{"start level out of range", "lose_score: -1\nwin_score: 1\nstart_level: 2\nballs: [{color: white}]\nlevels: [{name: a}]"},
		{"no cue ball", "lose_score: -1\nwin_score: 1\nballs: [{color: red}]\nlevels: [{name: a}]"},
		{"unknown color", "lose_score: -1\nwin_score: 1\nballs: [{color: white}, {color: blue}]\nlevels: [{name: a}]"},
		{"malformed", "levels: ["},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseNoLevels(t *testing.T) {
	_, err := Parse([]byte("lose_score: -1\nwin_score: 1\nballs: [{color: white}]"))
	assert.True(t, errors.Is(err, ErrNoLevels))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	doc := "starting_score: 1\nlose_score: -1\nwin_score: 2\nballs: [{color: white, x: 1, y: 2}]\nlevels: [{name: only, scene: s}]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.StartingScore)
	assert.Equal(t, physics.NewVec2(1, 2), s.Balls[0].Position())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
