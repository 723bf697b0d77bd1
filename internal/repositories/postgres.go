package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// progressRow is the gorm mapping of the course_progress table.
type progressRow struct {
	LearnerID     string `gorm:"primaryKey;size:128"`
	CourseID      string `gorm:"primaryKey;size:128;index:idx_course_progress_course"`
	Progress      float64
	StepCompleted string `gorm:"type:text;not null;default:'{}'"`
	Version       int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
}

func (progressRow) TableName() string { return "course_progress" }

// PostgresProgressStore is a progress.Store over a Postgres database (for example a hosted Supabase instance).
type PostgresProgressStore struct {
	db *gorm.DB
}

// OpenPostgresProgressStore connects with dsn and migrates the course_progress table.
func OpenPostgresProgressStore(dsn string) (*PostgresProgressStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn", shared.ErrMissingConfig)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := NewPostgresProgressStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewPostgresProgressStore wraps an open gorm handle.
func NewPostgresProgressStore(db *gorm.DB) *PostgresProgressStore {
	return &PostgresProgressStore{db: db}
}

// Migrate creates or updates the course_progress table.
func (s *PostgresProgressStore) Migrate() error {
	if err := s.db.AutoMigrate(&progressRow{}); err != nil {
		return fmt.Errorf("failed to migrate course_progress: %w", err)
	}
	return nil
}

func (s *PostgresProgressStore) Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error) {
	var row progressRow
	err := s.db.WithContext(ctx).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: progress for %s", shared.ErrNotFound, models.ProgressKey(learnerID, courseID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}
	return row.document()
}

func (s *PostgresProgressStore) Merge(ctx context.Context, doc *models.ProgressDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	row, err := newProgressRow(doc)
	if err != nil {
		return err
	}

	result := s.upsert(s.db.WithContext(ctx), row)
	if result.Error != nil {
		return fmt.Errorf("failed to merge progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: version %d for %s", shared.ErrStaleWrite, doc.Version, doc.Key())
	}
	return nil
}

// upsert writes only the progress columns and only when the incoming version is newer.
func (s *PostgresProgressStore) upsert(db *gorm.DB, row *progressRow) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "step_completed", "version", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "course_progress.version < excluded.version"},
		}},
	}).Create(row)
}

func newProgressRow(doc *models.ProgressDocument) (*progressRow, error) {
	steps, err := json.Marshal(doc.StepCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode step map: %w", err)
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return &progressRow{
		LearnerID:     doc.LearnerID,
		CourseID:      doc.CourseID,
		Progress:      doc.Progress,
		StepCompleted: string(steps),
		Version:       doc.Version,
		CreatedAt:     updatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func (r progressRow) document() (*models.ProgressDocument, error) {
	doc := &models.ProgressDocument{
		LearnerID: r.LearnerID,
		CourseID:  r.CourseID,
		Progress:  r.Progress,
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.StepCompleted), &doc.StepCompleted); err != nil {
		return nil, fmt.Errorf("%w: step map: %v", shared.ErrInvalidDocument, err)
	}
	if doc.StepCompleted == nil {
		doc.StepCompleted = map[string]bool{}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByCourse returns every learner's document for a course ordered by learner id.
func (s *PostgresProgressStore) ListByCourse(ctx context.Context, courseID string) ([]*models.ProgressDocument, error) {
	var rows []progressRow
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("learner_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	docs := make([]*models.ProgressDocument, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
