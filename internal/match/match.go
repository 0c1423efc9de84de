// Package match implements the match state machine: score, level, the
// Idle/Paused/Running lifecycle, pocket scoring and settle detection.
package match

import (
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/event"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/loop"
)

// ShotInput is the switch the match flips to allow or block shots.
type ShotInput interface {
	SetEnabled(enabled bool)
	Enabled() bool
}

// LevelLoader loads and unloads the scene of a level.
type LevelLoader interface {
	Load(l level.Level)
	Unload(l level.Level)
}

// Pockets is the channel pocket collaborators publish pocketed balls into.
// It belongs to one match.
type Pockets struct {
	signal event.Signal[*Ball]
}

// Publish reports that b dropped into a pocket.
func (p *Pockets) Publish(b *Ball) {
	p.signal.Invoke(b)
}

// Subscribe registers an additional pocket observer.
func (p *Pockets) Subscribe(fn func(*Ball)) (remove func()) {
	return p.signal.AddListener(fn)
}

// Match coordinates one table. All methods must be called from the
// goroutine that drives the simulation.
type Match struct {
	OnGameStart    event.Signal[event.Empty]
	OnGameOver     event.Signal[bool] // true when won
	OnScoreChanged event.Signal[int]
	OnLevelChanged event.Signal[level.Level]

	settings *level.Settings
	balls    []*Ball
	tracker  *Tracker
	input    ShotInput
	loader   LevelLoader
	sched    *loop.Scheduler
	pockets  Pockets
	settle   loop.Handle
	log      *zap.Logger

	score   int
	levelID int
	state   State
}

// New creates an idle match with no level loaded.
func New(settings *level.Settings, tracker *Tracker, input ShotInput, loader LevelLoader, sched *loop.Scheduler, log *zap.Logger) *Match {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Match{
		settings: settings,
		balls:    tracker.Balls(),
		tracker:  tracker,
		input:    input,
		loader:   loader,
		sched:    sched,
		log:      log.Named("match"),
		score:    settings.StartingScore,
		levelID:  level.None,
		state:    Idle,
	}
	m.pockets.Subscribe(m.OnBallPocketed)
	input.SetEnabled(false)
	return m
}

func (m *Match) Score() int { return m.score }

func (m *Match) State() State { return m.state }

func (m *Match) LevelID() int { return m.levelID }

// Level returns the loaded level, if any.
func (m *Match) Level() (level.Level, bool) {
	return m.settings.Get(m.levelID)
}

func (m *Match) Balls() []*Ball { return m.balls }

func (m *Match) Settings() *level.Settings { return m.settings }

// Pockets returns the channel pocket collaborators publish into.
func (m *Match) Pockets() *Pockets { return &m.pockets }

// SettlePending reports whether a settle wait is in flight.
func (m *Match) SettlePending() bool { return m.settle.Running() }

// LoadStartLevel loads the configured initial level without starting a match.
func (m *Match) LoadStartLevel() {
	m.loadLevel(m.settings.StartLevel)
}

// StartGame resets score and balls and enters Running.
func (m *Match) StartGame() {
	m.settle.Cancel()
	m.resetScore()
	m.resetBalls()
	m.setState(Running)
	m.input.SetEnabled(true)
	m.OnGameStart.Invoke(event.Empty{})
}

// PauseIfRunning suspends a running match.
func (m *Match) PauseIfRunning() {
	if m.state != Running {
		m.log.Debug("pause ignored", zap.Stringer("state", m.state))
		return
	}
	m.setState(Paused)
	m.input.SetEnabled(false)
	m.settle.Cancel()
}

// ResumeIfPaused returns to Running with input enabled right away. The
// settle wait canceled by the pause is not restarted.
func (m *Match) ResumeIfPaused() {
	if m.state != Paused {
		m.log.Debug("resume ignored", zap.Stringer("state", m.state))
		return
	}
	m.setState(Running)
	m.input.SetEnabled(true)
}

// ChangeLevelAndStart switches to level id and starts a new match. An
// unknown or already loaded id is ignored.
func (m *Match) ChangeLevelAndStart(id int) {
	if !m.loadLevel(id) {
		return
	}
	m.StartGame()
}

// OnShotTriggered blocks input until every ball has settled.
func (m *Match) OnShotTriggered() {
	if m.state != Running {
		m.log.Debug("shot ignored", zap.Stringer("state", m.state))
		return
	}
	m.input.SetEnabled(false)
	m.settle.Cancel()
	m.settle = m.sched.Start(&settleTask{tracker: m.tracker}, m.onSettled)
}

func (m *Match) onSettled() {
	if m.state != Running {
		return
	}
	m.log.Debug("balls settled")
	m.input.SetEnabled(true)
}

// OnBallPocketed applies the scoring rule for b and ends the match when a
// terminal condition holds. After the match is over pocketed balls are
// only put back in place.
func (m *Match) OnBallPocketed(b *Ball) {
	scoring := b.Color().Scoring()
	if scoring {
		b.SetActive(false)
	} else {
		b.SetActive(true)
		b.ResetAndFreeze()
	}

	if m.state == Idle {
		m.log.Debug("pocket after game over", zap.Int("ball", b.ID()))
		return
	}

	if scoring {
		m.score++
	} else {
		m.score--
	}
	m.log.Info("ball pocketed",
		zap.Int("ball", b.ID()),
		zap.String("color", string(b.Color())),
		zap.Int("score", m.score),
	)
	m.OnScoreChanged.Invoke(m.score)

	if m.scoreReached() || m.winUnreachable() {
		m.gameOver()
	}
}

func (m *Match) gameOver() {
	won := m.score >= m.settings.WinScore
	m.setState(Idle)
	m.input.SetEnabled(false)
	m.settle.Cancel()
	m.log.Info("game over", zap.Bool("won", won), zap.Int("score", m.score))
	m.OnGameOver.Invoke(won)
}

func (m *Match) scoreReached() bool {
	return m.score <= m.settings.LoseScore || m.score >= m.settings.WinScore
}

// winUnreachable is true when pocketing every remaining red ball still
// leaves the score below the win threshold.
func (m *Match) winUnreachable() bool {
	remaining := 0
	for _, b := range m.balls {
		if b.Color().Scoring() && b.Active() {
			remaining++
		}
	}
	return remaining+m.score < m.settings.WinScore
}

func (m *Match) loadLevel(id int) bool {
	next, ok := m.settings.Get(id)
	if !ok || id == m.levelID {
		m.log.Debug("level change ignored", zap.Int("level", id), zap.Int("current", m.levelID))
		return false
	}
	if current, ok := m.settings.Get(m.levelID); ok {
		m.loader.Unload(current)
	}
	m.loader.Load(next)
	m.levelID = id
	m.log.Info("level changed", zap.Int("level", id), zap.String("name", next.Name))
	m.OnLevelChanged.Invoke(next)
	return true
}

func (m *Match) resetScore() {
	m.score = m.settings.StartingScore
	m.OnScoreChanged.Invoke(m.score)
}

func (m *Match) resetBalls() {
	for _, b := range m.balls {
		b.SetActive(true)
		b.ResetAndFreeze()
	}
}

func (m *Match) setState(s State) {
	if s == m.state {
		return
	}
	m.log.Info("state changed", zap.Stringer("from", m.state), zap.Stringer("to", s))
	m.state = s
}
