// Package store persists the durable, human-auditable artifacts of interview
// sessions: session rows, per-competency evaluation scores and final reports.
// All writes are fire-and-forget from the engine's perspective; failures are
// logged by callers and never block a live session.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hiapplyco/apply-codes-sub006/internal/interview"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// InsertSession records the start of a live interview session.
func (s *Store) InsertSession(ctx context.Context, sessionID string, startedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO interview_sessions (id, status, started_at)
		VALUES ($1, 'active', $2)
		ON CONFLICT (id) DO NOTHING
	`, sessionID, startedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateSessionStatus marks a session's lifecycle transition.
func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID, status string, endedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE interview_sessions
		SET status = $2, ended_at = $3
		WHERE id = $1
	`, sessionID, status, endedAt)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// InsertCompetencyScore writes one durable evaluation record. Distinct from
// the ephemeral live coverage level; this row is what auditors and hiring
// reviews see.
func (s *Store) InsertCompetencyScore(ctx context.Context, sessionID string, score interview.CompetencyScore) error {
	evidenceJSON, err := json.Marshal(score.Evidence)
	if err != nil {
		evidenceJSON = []byte("[]")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO competency_scores
			(session_id, competency_id, score, confidence, evidence, rationale, human_adjustment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sessionID, score.CompetencyID, score.Score, score.Confidence,
		string(evidenceJSON), score.Rationale, score.HumanAdjustment, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert competency score: %w", err)
	}
	return nil
}

// InsertSessionReport writes the final session report for audit.
func (s *Store) InsertSessionReport(ctx context.Context, report interview.SessionReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal session report: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO session_reports (session_id, report, created_at)
		VALUES ($1, $2, $3)
	`, report.SessionID, string(reportJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert session report: %w", err)
	}
	return nil
}
