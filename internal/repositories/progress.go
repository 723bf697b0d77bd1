package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// ProgressRepository stores one completion document per (learner, course) in SQLite.
// It satisfies progress.Store.
type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Read returns the stored document or [shared.ErrNotFound].
func (r *ProgressRepository) Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error) {
	query := `
		SELECT learner_id, course_id, progress, step_completed, version, updated_at
		FROM course_progress
		WHERE learner_id = ? AND course_id = ?
	`

	doc, err := scanProgress(r.db.QueryRowContext(ctx, query, learnerID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: progress for %s", shared.ErrNotFound, models.ProgressKey(learnerID, courseID))
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Merge upserts the progress fields of doc. created_at is set on insert and never rewritten.
// A write whose version does not exceed the stored version changes nothing and returns [shared.ErrStaleWrite].
func (r *ProgressRepository) Merge(ctx context.Context, doc *models.ProgressDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	steps, err := json.Marshal(doc.StepCompleted)
	if err != nil {
		return fmt.Errorf("failed to encode step map: %w", err)
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO course_progress (learner_id, course_id, progress, step_completed, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, course_id) DO UPDATE SET
			progress = excluded.progress,
			step_completed = excluded.step_completed,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE excluded.version > course_progress.version
	`

	result, err := r.db.ExecContext(ctx, query,
		doc.LearnerID, doc.CourseID, doc.Progress, string(steps), doc.Version, updatedAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to merge progress: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: version %d for %s", shared.ErrStaleWrite, doc.Version, doc.Key()))
}

// ListByCourse returns every learner's document for a course ordered by learner id.
func (r *ProgressRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.ProgressDocument, error) {
	return r.list(ctx, `
		SELECT learner_id, course_id, progress, step_completed, version, updated_at
		FROM course_progress WHERE course_id = ? ORDER BY learner_id ASC
	`, courseID)
}

// ListByLearner returns every course document of one learner.
func (r *ProgressRepository) ListByLearner(ctx context.Context, learnerID string) ([]*models.ProgressDocument, error) {
	return r.list(ctx, `
		SELECT learner_id, course_id, progress, step_completed, version, updated_at
		FROM course_progress WHERE learner_id = ? ORDER BY course_id ASC
	`, learnerID)
}

func (r *ProgressRepository) list(ctx context.Context, query string, arg string) ([]*models.ProgressDocument, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var docs []*models.ProgressDocument
	for rows.Next() {
		doc, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

func scanProgress(s scanner) (*models.ProgressDocument, error) {
	var (
		doc   models.ProgressDocument
		steps string
	)

	if err := s.Scan(&doc.LearnerID, &doc.CourseID, &doc.Progress, &steps, &doc.Version, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan progress: %w", err)
	}

	if err := json.Unmarshal([]byte(steps), &doc.StepCompleted); err != nil {
		return nil, fmt.Errorf("%w: step map: %v", shared.ErrInvalidDocument, err)
	}
	if doc.StepCompleted == nil {
		doc.StepCompleted = map[string]bool{}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
