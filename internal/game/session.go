// Package game runs pool tables: one Session per table, all owned by a
// Manager.
package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/event"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/logging"
	"github.com/playmatatu/pocketpool/internal/loop"
	"github.com/playmatatu/pocketpool/internal/match"
	"github.com/playmatatu/pocketpool/internal/physics"
	"github.com/playmatatu/pocketpool/internal/predict"
	"github.com/playmatatu/pocketpool/internal/shot"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when talking to a stopped session.
	ErrSessionClosed = errors.New("session closed")

	errNoCueBall = errors.New("settings have no white ball")
)

// Options tunes a session.
type Options struct {
	PhysicsHz           int
	ForceMultiplier     float64
	PredictionSteps     int
	StationaryThreshold float64
	Controller          shot.ControllerType

	// SnapshotEvery is the number of fixed passes between snapshots.
	SnapshotEvery int

	// OnResult is called on the session goroutine when a match ends.
	OnResult func(Result)
}

func (o *Options) withDefaults() {
	if o.PhysicsHz <= 0 {
		o.PhysicsHz = int(physics.TickRate)
	}
	if o.ForceMultiplier <= 0 {
		o.ForceMultiplier = 5000
	}
	if o.PredictionSteps <= 0 {
		o.PredictionSteps = predict.DefaultSteps
	}
	if o.StationaryThreshold <= 0 {
		o.StationaryThreshold = 10
	}
	if o.SnapshotEvery <= 0 {
		o.SnapshotEvery = o.PhysicsHz / 10
		if o.SnapshotEvery == 0 {
			o.SnapshotEvery = 1
		}
	}
}

// Result summarises a finished match.
type Result struct {
	SessionID  string
	LevelID    int
	LevelName  string
	Score      int
	Won        bool
	Shots      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the match lasted.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type commandRequest struct {
	cmd   Command
	reply chan error
}

// Session is one table: a live world with its balls, the match, the shot
// controller and the trajectory predictor. Its state is confined to a single
// goroutine: either the one running Run, or, for headless use, the caller
// driving Frame and FixedStep directly.
type Session struct {
	id       string
	settings *level.Settings
	opts     Options
	dt       float64
	log      *zap.Logger
	outbox   Outbox

	world   *physics.World
	balls   []*match.Ball
	cue     *match.Ball
	tracker *match.Tracker
	sched   *loop.Scheduler
	match   *match.Match
	ctrl    *shot.Controller
	pred    *predict.Predictor

	tick         uint64
	startedAt    time.Time
	shotsAtStart int

	inputs    chan shot.Input
	commands  chan commandRequest
	done      chan struct{}
	closeOnce sync.Once

	latest     atomic.Pointer[Snapshot]
	lastActive atomic.Int64
	createdAt  time.Time
}

// NewSession builds a session on the settings' start level. The match waits
// in Idle until a start command.
func NewSession(id string, settings *level.Settings, opts Options, outbox Outbox, log *zap.Logger) (*Session, error) {
	opts.withDefaults()
	if outbox == nil {
		outbox = Fanout{}
	}
	s := &Session{
		id:        id,
		settings:  settings,
		opts:      opts,
		dt:        1 / float64(opts.PhysicsHz),
		log:       logging.OrNop(log).Named("session").With(zap.String("session_id", id)),
		outbox:    outbox,
		world:     physics.NewWorld(nil),
		sched:     loop.NewScheduler(),
		inputs:    make(chan shot.Input, 64),
		commands:  make(chan commandRequest),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	s.touch()

	for _, spec := range settings.Balls {
		color, err := match.ParseColor(spec.Color)
		if err != nil {
			return nil, err
		}
		b := match.NewBall(s.world.AddBody(spec.Position()), color)
		if color == match.White && s.cue == nil {
			s.cue = b
		}
		s.balls = append(s.balls, b)
	}
	if s.cue == nil {
		return nil, errNoCueBall
	}

	s.tracker = match.NewTracker(s.balls, opts.StationaryThreshold)
	s.ctrl = shot.NewController(s.cue, opts.ForceMultiplier, opts.Controller, s.log)
	s.match = match.New(settings, s.tracker, s.ctrl, &sceneLoader{world: s.world, log: s.log}, s.sched, s.log)
	s.pred = predict.New(s.world, s.cue.ID(), s.ctrl, s.match, predict.Signals{
		ShotTriggered: &s.ctrl.OnShotTriggered,
		LevelChanged:  &s.match.OnLevelChanged,
	}, opts.PredictionSteps, s.dt, s.log)

	s.wire()
	s.match.LoadStartLevel()
	s.pred.Enable()
	s.publishSnapshot()
	return s, nil
}

func (s *Session) wire() {
	s.ctrl.OnShotTriggered.AddListener(func(event.Empty) {
		s.match.OnShotTriggered()
		s.notify(Notification{Type: NotifyShotTriggered})
	})
	s.match.OnGameStart.AddListener(func(event.Empty) {
		s.startedAt = time.Now()
		s.shotsAtStart = s.ctrl.Shots()
		s.notify(Notification{Type: NotifyGameStart})
	})
	s.match.OnScoreChanged.AddListener(func(score int) {
		s.notify(Notification{Type: NotifyScoreChanged, Score: &score})
	})
	s.match.OnLevelChanged.AddListener(func(l level.Level) {
		s.notify(Notification{Type: NotifyLevelChanged, Level: &l})
	})
	s.match.OnGameOver.AddListener(func(won bool) {
		s.notify(Notification{Type: NotifyGameOver, Won: &won})
		s.finish(won)
	})
	s.match.Pockets().Subscribe(func(b *match.Ball) {
		bs := ballState(b)
		s.notify(Notification{Type: NotifyBallPocketed, Ball: &bs})
	})
}

func (s *Session) ID() string { return s.id }

// Match, Controller, Predictor and World expose the session's parts. They
// must only be touched from the goroutine that owns the session.
func (s *Session) Match() *match.Match           { return s.match }
func (s *Session) Controller() *shot.Controller  { return s.ctrl }
func (s *Session) Predictor() *predict.Predictor { return s.pred }
func (s *Session) World() *physics.World         { return s.world }
func (s *Session) Balls() []*match.Ball          { return s.balls }

// Frame runs the variable-rate pass for one frame of input.
func (s *Session) Frame(in *shot.Input) {
	s.ctrl.Update(in)
}

// FixedStep runs one fixed-rate pass: live physics, pocket dispatch,
// motion tracking, settle detection and prediction, in that order.
func (s *Session) FixedStep() {
	s.tick++
	for _, c := range s.world.Step(s.dt) {
		if c.Type != physics.ContactPocket {
			continue
		}
		if c.BodyID >= 0 && c.BodyID < len(s.balls) {
			s.match.Pockets().Publish(s.balls[c.BodyID])
		}
	}
	s.tracker.Update()
	s.sched.Tick()
	s.pred.FixedUpdate()

	if s.tick%uint64(s.opts.SnapshotEvery) == 0 {
		s.publishSnapshot()
	}
}

// Settled reports whether every ball is at rest and no settle wait is pending.
func (s *Session) Settled() bool {
	return s.tracker.AllStationary() && !s.match.SettlePending()
}

// Snapshot returns the latest published snapshot. Safe from any goroutine.
func (s *Session) Snapshot() Snapshot {
	if p := s.latest.Load(); p != nil {
		return *p
	}
	return Snapshot{SessionID: s.id}
}

// LastActive returns the time of the last client input or command.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run drives the session at the configured physics rate until ctx is
// canceled, Close is called or a quit command arrives.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) * s.dt))
	defer ticker.Stop()
	defer s.Close()

	s.log.Info("session running", zap.Int("hz", s.opts.PhysicsHz))
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case in := <-s.inputs:
			s.touch()
			s.Frame(&in)
		case req := <-s.commands:
			err := s.Apply(req.cmd)
			if errors.Is(err, errQuit) {
				req.reply <- nil
				return
			}
			req.reply <- err
		case <-ticker.C:
			s.FixedStep()
		}
	}
}

// Submit queues one frame of input. It never blocks: when the queue is full
// the frame is dropped.
func (s *Session) Submit(in shot.Input) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inputs <- in:
	default:
		s.log.Debug("input dropped, queue full")
	}
	return nil
}

// Do runs cmd on the session goroutine and waits for its result.
func (s *Session) Do(ctx context.Context, cmd Command) error {
	req := commandRequest{cmd: cmd, reply: make(chan error, 1)}
	select {
	case s.commands <- req:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.outbox.Deliver(Notification{Type: NotifyClosed, SessionID: s.id, At: time.Now()})
		close(s.done)
		s.log.Info("session closed")
	})
}

func (s *Session) notify(n Notification) {
	n.SessionID = s.id
	n.At = time.Now()
	s.outbox.Deliver(n)
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) finish(won bool) {
	if s.opts.OnResult == nil {
		return
	}
	lv, _ := s.match.Level()
	s.opts.OnResult(Result{
		SessionID:  s.id,
		LevelID:    s.match.LevelID(),
		LevelName:  lv.Name,
		Score:      s.match.Score(),
		Won:        won,
		Shots:      s.ctrl.Shots() - s.shotsAtStart,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	})
}

func (s *Session) takeSnapshot() Snapshot {
	balls := make([]BallState, len(s.balls))
	for i, b := range s.balls {
		balls[i] = ballState(b)
	}
	return Snapshot{
		SessionID:    s.id,
		State:        s.match.State(),
		Score:        s.match.Score(),
		LevelID:      s.match.LevelID(),
		Controller:   s.ctrl.Controller().String(),
		InputEnabled: s.ctrl.Enabled(),
		RawForce:     s.ctrl.RawForce(),
		Shots:        s.ctrl.Shots(),
		Balls:        balls,
		Path:         s.pred.Path(),
		Tick:         s.tick,
		TakenAt:      time.Now(),
	}
}

func (s *Session) publishSnapshot() {
	snap := s.takeSnapshot()
	s.latest.Store(&snap)
	s.notify(Notification{Type: NotifySnapshot, Snapshot: &snap})
}

// sceneLoader installs a level's table into the live world. Levels without
// their own geometry play on the standard table.
type sceneLoader struct {
	world *physics.World
	log   *zap.Logger
}

func (l *sceneLoader) Load(lv level.Level) {
	if lv.Table == nil {
		l.world.SetTable(physics.NewStandardTable())
	} else {
		l.world.SetTable(physics.NewTable(*lv.Table))
	}
	l.log.Debug("scene loaded", zap.String("scene", lv.Scene))
}

func (l *sceneLoader) Unload(lv level.Level) {
	l.world.SetTable(nil)
	l.log.Debug("scene unloaded", zap.String("scene", lv.Scene))
}
