package game

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/logging"
)

const (
	snapshotTTL          = time.Hour
	expiryCheckInterval  = 30 * time.Second
	defaultIdleTimeout   = 30 * time.Minute
	recordResultTimeout  = 5 * time.Second
	persistSnapshotLimit = 2 * time.Second
)

// Recorder stores finished matches.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Manager owns every live session.
type Manager struct {
	sessions map[string]*Session
	settings *level.Settings
	opts     Options
	outbox   Outbox
	rdb      *redis.Client // optional, snapshot persistence
	recorder Recorder      // optional, match history
	idle     time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// ManagerConfig wires a Manager's collaborators. Only Settings is required.
type ManagerConfig struct {
	Settings    *level.Settings
	Options     Options
	Outbox      Outbox
	Redis       *redis.Client
	Recorder    Recorder
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Outbox == nil {
		cfg.Outbox = Fanout{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[string]*Session),
		settings: cfg.Settings,
		opts:     cfg.Options,
		outbox:   cfg.Outbox,
		rdb:      cfg.Redis,
		recorder: cfg.Recorder,
		idle:     cfg.IdleTimeout,
		log:      logging.OrNop(cfg.Logger).Named("manager"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Settings returns the settings every new session uses.
func (m *Manager) Settings() *level.Settings { return m.settings }

// Create starts a new session on its own goroutine.
func (m *Manager) Create() (*Session, error) {
	if m.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	id := uuid.NewString()
	opts := m.opts
	opts.OnResult = func(r Result) {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.record(r)
		}()
	}
	s, err := NewSession(id, m.settings, opts, m.outbox, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(m.ctx)
		m.forget(s)
	}()

	m.log.Info("session created", zap.String("session_id", id), zap.Int("active", m.Count()))
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes a session. Its goroutine unregisters it.
func (m *Manager) Remove(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshots returns the latest snapshot of every live session, oldest
// session first.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].createdAt.Before(list[j].createdAt) })
	out := make([]Snapshot, len(list))
	for i, s := range list {
		out[i] = s.Snapshot()
	}
	return out
}

// LoadSnapshot returns the snapshot of a live session, falling back to the
// copy persisted in Redis for sessions that have ended.
func (m *Manager) LoadSnapshot(ctx context.Context, id string) (Snapshot, error) {
	if s, err := m.Get(id); err == nil {
		return s.Snapshot(), nil
	}
	if m.rdb == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	data, err := m.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// StartExpiryChecker closes idle sessions and persists snapshots until ctx
// is canceled.
func (m *Manager) StartExpiryChecker(ctx context.Context) {
	ticker := time.NewTicker(expiryCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.CloseIdle(now)
			m.persistAll(ctx)
		}
	}
}

// CloseIdle closes every session without input since before now minus the
// idle timeout, and returns how many it closed.
func (m *Manager) CloseIdle(now time.Time) int {
	m.mu.RLock()
	var expired []*Session
	for _, s := range m.sessions {
		if now.Sub(s.LastActive()) >= m.idle {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		m.log.Info("closing idle session", zap.String("session_id", s.ID()), zap.Time("last_active", s.LastActive()))
		s.Close()
	}
	return len(expired)
}

// Shutdown stops every session and waits for their goroutines and any
// pending history writes.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
	m.log.Info("manager stopped")
}

func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistSnapshotLimit)
	defer cancel()
	if err := m.persist(ctx, s.Snapshot()); err != nil {
		m.log.Warn("failed to persist final snapshot", zap.String("session_id", s.ID()), zap.Error(err))
	}
	m.log.Info("session removed", zap.String("session_id", s.ID()))
}

func (m *Manager) persistAll(ctx context.Context) {
	if m.rdb == nil {
		return
	}
	for _, snap := range m.Snapshots() {
		if err := m.persist(ctx, snap); err != nil {
			m.log.Warn("failed to persist snapshot", zap.String("session_id", snap.SessionID), zap.Error(err))
		}
	}
}

func (m *Manager) persist(ctx context.Context, snap Snapshot) error {
	if m.rdb == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.rdb.SetEx(ctx, snapshotKey(snap.SessionID), data, snapshotTTL).Err()
}

func (m *Manager) record(r Result) {
	if m.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordResultTimeout)
	defer cancel()
	if err := m.recorder.Record(ctx, r); err != nil {
		m.log.Error("failed to record match result", zap.String("session_id", r.SessionID), zap.Error(err))
		return
	}
	m.log.Info("match result recorded",
		zap.String("session_id", r.SessionID),
		zap.Bool("won", r.Won),
		zap.Int("score", r.Score),
	)
}

func snapshotKey(id string) string {
	return "table:" + id + ":snapshot"
}
