package models

import "time"

// MatchResult is one finished match as stored in match_results.
type MatchResult struct {
	ID         int       `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	LevelID    int       `db:"level_id" json:"level_id"`
	LevelName  string    `db:"level_name" json:"level_name"`
	Score      int       `db:"score" json:"score"`
	Won        bool      `db:"won" json:"won"`
	Shots      int       `db:"shots" json:"shots"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// LevelStats aggregates results for one level.
type LevelStats struct {
	LevelID   int     `db:"level_id" json:"level_id"`
	Played    int     `db:"played" json:"played"`
	Won       int     `db:"won" json:"won"`
	BestScore int     `db:"best_score" json:"best_score"`
	AvgShots  float64 `db:"avg_shots" json:"avg_shots"`
}
