package game

import (
	"time"

	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/match"
	"github.com/playmatatu/pocketpool/internal/physics"
	"github.com/playmatatu/pocketpool/internal/predict"
)

// NotificationType names an outbound session event.
type NotificationType string

const (
	NotifyGameStart     NotificationType = "game_start"
	NotifyGameOver      NotificationType = "game_over"
	NotifyScoreChanged  NotificationType = "score_changed"
	NotifyLevelChanged  NotificationType = "level_changed"
	NotifyShotTriggered NotificationType = "shot_triggered"
	NotifyBallPocketed  NotificationType = "ball_pocketed"
	NotifySnapshot      NotificationType = "snapshot"
	NotifyClosed        NotificationType = "session_closed"
)

// Notification is one event leaving a session.
type Notification struct {
	Type      NotificationType `json:"type"`
	SessionID string           `json:"session_id"`
	Won       *bool            `json:"won,omitempty"`
	Score     *int             `json:"score,omitempty"`
	Level     *level.Level     `json:"level,omitempty"`
	Ball      *BallState       `json:"ball,omitempty"`
	Snapshot  *Snapshot        `json:"snapshot,omitempty"`
	At        time.Time        `json:"at"`
}

// Outbox receives session notifications. Deliver must not block and must be
// safe for concurrent use: Close may run on any goroutine.
type Outbox interface {
	Deliver(n Notification)
}

// OutboxFunc adapts a function to Outbox.
type OutboxFunc func(n Notification)

func (f OutboxFunc) Deliver(n Notification) { f(n) }

// Fanout delivers to every outbox in order.
type Fanout []Outbox

func (f Fanout) Deliver(n Notification) {
	for _, o := range f {
		if o != nil {
			o.Deliver(n)
		}
	}
}

// BallState is the wire form of one ball.
type BallState struct {
	ID         int          `json:"id"`
	Color      match.Color  `json:"color"`
	Position   physics.Vec2 `json:"position"`
	Active     bool         `json:"active"`
	Stationary bool         `json:"stationary"`
}

func ballState(b *match.Ball) BallState {
	return BallState{
		ID:         b.ID(),
		Color:      b.Color(),
		Position:   b.Position(),
		Active:     b.Active(),
		Stationary: b.Stationary(),
	}
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	SessionID    string       `json:"session_id"`
	State        match.State  `json:"state"`
	Score        int          `json:"score"`
	LevelID      int          `json:"level_id"`
	Controller   string       `json:"controller"`
	InputEnabled bool         `json:"input_enabled"`
	RawForce     physics.Vec2 `json:"raw_force"`
	Shots        int          `json:"shots"`
	Balls        []BallState  `json:"balls"`
	Path         predict.Path `json:"path"`
	Tick         uint64       `json:"tick"`
	TakenAt      time.Time    `json:"taken_at"`
}
