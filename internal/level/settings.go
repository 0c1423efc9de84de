// Package level holds the level table and the match configuration.
package level

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/playmatatu/pocketpool/internal/physics"
)

//go:embed default_settings.yaml
var defaultSettingsYAML []byte

// ErrNoLevels is returned when a settings document declares no levels.
var ErrNoLevels = errors.New("settings declare no levels")

// None is the level identifier of a match with no level loaded.
const None = -1

// Level describes one playable table. Table is optional; a level without one
// has no geometry to mirror in a prediction.
type Level struct {
	ID    int                `json:"id" yaml:"-"`
	Name  string             `json:"name" yaml:"name"`
	Scene string             `json:"scene" yaml:"scene"`
	Table *physics.TableSpec `json:"table,omitempty" yaml:"table,omitempty"`
}

// BallSpec places one ball in the rack shared by every level.
type BallSpec struct {
	Color string  `json:"color" yaml:"color"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
}

// Position returns the ball's start position.
func (b BallSpec) Position() physics.Vec2 {
	return physics.NewVec2(b.X, b.Y)
}

// Settings is the match configuration plus the ordered level table.
type Settings struct {
	StartingScore int        `json:"starting_score" yaml:"starting_score"`
	LoseScore     int        `json:"lose_score" yaml:"lose_score"`
	WinScore      int        `json:"win_score" yaml:"win_score"`
	StartLevel    int        `json:"start_level" yaml:"start_level"`
	Balls         []BallSpec `json:"balls" yaml:"balls"`
	Levels        []Level    `json:"levels" yaml:"levels"`
}

// Get returns the level with the given identifier.
func (s *Settings) Get(id int) (Level, bool) {
	if id < 0 || id >= len(s.Levels) {
		return Level{}, false
	}
	return s.Levels[id], true
}

// InRange reports whether id names a level.
func (s *Settings) InRange(id int) bool {
	return id >= 0 && id < len(s.Levels)
}

// Validate checks the settings for values a match cannot run with.
func (s *Settings) Validate() error {
	if len(s.Levels) == 0 {
		return ErrNoLevels
	}
	if !s.InRange(s.StartLevel) {
		return fmt.Errorf("start_level %d out of range [0,%d)", s.StartLevel, len(s.Levels))
	}
	if s.LoseScore >= s.WinScore {
		return fmt.Errorf("lose_score %d must be below win_score %d", s.LoseScore, s.WinScore)
	}
	if s.StartingScore <= s.LoseScore || s.StartingScore >= s.WinScore {
		return fmt.Errorf("starting_score %d must lie strictly between lose_score and win_score", s.StartingScore)
	}
	cue := 0
	for i, b := range s.Balls {
		switch b.Color {
		case "white":
			cue++
		case "red", "yellow":
		default:
			return fmt.Errorf("ball %d: unknown color %q", i, b.Color)
		}
	}
	if cue != 1 {
		return fmt.Errorf("expected exactly one white ball, got %d", cue)
	}
	for i, l := range s.Levels {
		if l.Table != nil && l.Table.Scale < 0 {
			return fmt.Errorf("level %d (%s): negative table scale", i, l.Name)
		}
	}
	return nil
}

// Parse decodes a settings document, assigns level identifiers and validates it.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	for i := range s.Levels {
		s.Levels[i].ID = i
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Load reads settings from path, or the embedded default when path is empty.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded settings.
func Default() (*Settings, error) {
	return Parse(defaultSettingsYAML)
}
