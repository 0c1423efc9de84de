// Package history stores finished matches in PostgreSQL.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/logging"
	"github.com/playmatatu/pocketpool/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// ErrUnavailable is returned when no database is configured.
var ErrUnavailable = errors.New("history unavailable")

// Repository reads and writes match_results.
type Repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewRepository returns a repository backed by db. A nil db yields a
// repository whose reads fail with ErrUnavailable and whose writes are
// dropped.
func NewRepository(db *sqlx.DB, log *zap.Logger) *Repository {
	return &Repository{db: db, log: logging.OrNop(log).Named("history")}
}

// Available reports whether the repository has a database.
func (r *Repository) Available() bool { return r != nil && r.db != nil }

// Record inserts a finished match. It implements game.Recorder.
func (r *Repository) Record(ctx context.Context, res game.Result) error {
	if !r.Available() {
		return nil
	}
	row := FromResult(res)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO match_results (session_id, level_id, level_name, score, won, shots, duration_ms, started_at, finished_at)
		VALUES (:session_id, :level_id, :level_name, :score, :won, :shots, :duration_ms, :started_at, :finished_at)`, row)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	r.log.Debug("recorded", zap.String("session_id", res.SessionID))
	return nil
}

// Recent returns the latest finished matches, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.MatchResult, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}
	limit = ClampLimit(limit)
	results := []models.MatchResult{}
	err := r.db.SelectContext(ctx, &results, `
		SELECT id, session_id, level_id, level_name, score, won, shots, duration_ms, started_at, finished_at
		FROM match_results
		ORDER BY finished_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent results: %w", err)
	}
	return results, nil
}

// Stats aggregates every recorded match per level.
func (r *Repository) Stats(ctx context.Context) ([]models.LevelStats, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}
	stats := []models.LevelStats{}
	err := r.db.SelectContext(ctx, &stats, `
		SELECT level_id,
		       COUNT(*) AS played,
		       COUNT(*) FILTER (WHERE won) AS won,
		       MAX(score) AS best_score,
		       AVG(shots)::float8 AS avg_shots
		FROM match_results
		GROUP BY level_id
		ORDER BY level_id`)
	if err != nil {
		return nil, fmt.Errorf("select level stats: %w", err)
	}
	return stats, nil
}

// FromResult converts a session result to its stored form.
func FromResult(res game.Result) models.MatchResult {
	return models.MatchResult{
		SessionID:  res.SessionID,
		LevelID:    res.LevelID,
		LevelName:  res.LevelName,
		Score:      res.Score,
		Won:        res.Won,
		Shots:      res.Shots,
		DurationMS: res.Duration().Milliseconds(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}

// ClampLimit maps a requested page size into [1, MaxLimit], using
// DefaultLimit for non-positive values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
