package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

const courseColumns = `id, sequence, kind, slug, title, description, category, technology, created_at, updated_at, deleted_at`

// CourseRepository implements [models.Repository] for [models.Course] and its ordered steps.
type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts the course and its steps. The slug is derived from the title when unset
// and suffixed with -1, -2, ... until it is unique across all courses, deleted ones included.
func (r *CourseRepository) Create(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	existing, err := r.Slugs()
	if err != nil {
		return err
	}
	base := course.Slug()
	if base == "" {
		base = content.Slugify(course.Title())
	}
	course.SetSlug(content.EnsureUnique(content.Slugify(base), existing))

	sequence, err := NextSequence(r.db, "courses")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	course.SetID(shared.GenerateID())
	course.SetSequence(sequence)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO courses (id, sequence, kind, slug, title, description, category, technology, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		course.ID(), sequence, string(course.Kind()), course.Slug(), course.Title(), course.Description(),
		course.Category(), course.Technology(), course.CreatedAt(), course.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}

	if err := insertSteps(tx, course.ID(), course.Steps()); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a course and its steps by ID, excluding soft-deleted courses
func (r *CourseRepository) Get(id string) (*models.Course, error) {
	return r.getOne(`SELECT `+courseColumns+` FROM courses WHERE id = ? AND deleted_at IS NULL`, id)
}

// GetBySlug retrieves a course and its steps by slug, excluding soft-deleted courses
func (r *CourseRepository) GetBySlug(slug string) (*models.Course, error) {
	return r.getOne(`SELECT `+courseColumns+` FROM courses WHERE slug = ? AND deleted_at IS NULL`, slug)
}

func (r *CourseRepository) getOne(query, arg string) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	steps, err := r.loadSteps(course.ID())
	if err != nil {
		return nil, err
	}
	course.SetSteps(steps)
	return course, nil
}

// Update rewrites the course metadata and replaces its step list. The slug is not changed.
func (r *CourseRepository) Update(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	course.SetUpdatedAt(now)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE courses
		SET kind = ?, title = ?, description = ?, category = ?, technology = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := tx.Exec(query,
		string(course.Kind()), course.Title(), course.Description(), course.Category(), course.Technology(), now, course.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	if err := affectedOne(result, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, course.ID())); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM course_steps WHERE course_id = ?`, course.ID()); err != nil {
		return fmt.Errorf("failed to clear steps: %w", err)
	}
	if err := insertSteps(tx, course.ID(), course.Steps()); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete soft-deletes a course by ID
func (r *CourseRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE courses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return affectedOne(result, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id))
}

// List retrieves courses ordered by sequence. Supported criteria are "kind" ([models.Kind]),
// "category" and "technology".
func (r *CourseRepository) List(criteria map[string]any) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE deleted_at IS NULL`
	args := []any{}

	if kind, ok := criteria["kind"].(models.Kind); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	if category, ok := criteria["category"].(string); ok && category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if technology, ok := criteria["technology"].(string); ok && technology != "" {
		query += " AND technology = ?"
		args = append(args, technology)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// Steps are loaded after the cursor is closed; in-memory databases run on one connection.
	for _, course := range courses {
		steps, err := r.loadSteps(course.ID())
		if err != nil {
			return nil, err
		}
		course.SetSteps(steps)
	}

	return courses, nil
}

// Slugs returns every slug ever assigned, including soft-deleted courses.
func (r *CourseRepository) Slugs() ([]string, error) {
	rows, err := r.db.Query(`SELECT slug FROM courses`)
	if err != nil {
		return nil, fmt.Errorf("failed to query slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// AppendStep adds a step at the end of the course and returns its index.
func (r *CourseRepository) AppendStep(courseID string, step models.StepRecord) (int, error) {
	if err := step.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM courses WHERE id = ? AND deleted_at IS NULL`, courseID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to query course: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, courseID)
	}

	var position int
	err = tx.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM course_steps WHERE course_id = ?`, courseID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to query step position: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO course_steps (course_id, position, title, description, video_url, code_snippet) VALUES (?, ?, ?, ?, ?, ?)`,
		courseID, position, step.Title, step.Description, step.VideoURL, step.CodeSnippet,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert step: %w", err)
	}

	if _, err := tx.Exec(`UPDATE courses SET updated_at = ? WHERE id = ?`, time.Now().UTC(), courseID); err != nil {
		return 0, fmt.Errorf("failed to touch course: %w", err)
	}

	return position, tx.Commit()
}

func (r *CourseRepository) loadSteps(courseID string) ([]models.StepRecord, error) {
	rows, err := r.db.Query(
		`SELECT title, description, video_url, code_snippet FROM course_steps WHERE course_id = ? ORDER BY position ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []models.StepRecord
	for rows.Next() {
		var s models.StepRecord
		if err := rows.Scan(&s.Title, &s.Description, &s.VideoURL, &s.CodeSnippet); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func insertSteps(tx *sql.Tx, courseID string, steps []models.StepRecord) error {
	stmt, err := tx.Prepare(
		`INSERT INTO course_steps (course_id, position, title, description, video_url, code_snippet) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare step insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range steps {
		if _, err := stmt.Exec(courseID, i, s.Title, s.Description, s.VideoURL, s.CodeSnippet); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", i, err)
		}
	}
	return nil
}

func scanCourse(s scanner) (*models.Course, error) {
	var (
		id, kind, slug, title           string
		description, category, techName string
		sequence                        int
		createdAt, updatedAt            time.Time
		deletedAt                       sql.NullTime
	)

	err := s.Scan(&id, &sequence, &kind, &slug, &title, &description, &category, &techName, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	course := models.NewCourse(sequence, models.Kind(kind), title)
	course.SetID(id)
	course.SetSlug(slug)
	course.SetDescription(description)
	course.SetCategory(category)
	course.SetTechnology(techName)
	course.SetCreatedAt(createdAt)
	course.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		course.SetDeletedAt(&deletedAt.Time)
	}
	return course, nil
}
