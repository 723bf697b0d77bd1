package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// ProgressDocument is the stored completion record for one (learner, course) pair.
//
// Progress is a denormalized copy of the computed percentage; StepCompleted is the source of truth.
// Version is the writer's monotonic stamp; stores drop writes that do not advance it.
type ProgressDocument struct {
	LearnerID     string          `json:"learnerId"`
	CourseID      string          `json:"courseId"`
	Progress      float64         `json:"progress"`
	StepCompleted map[string]bool `json:"stepCompleted"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewProgressDocument returns the lazily-created empty document.
func NewProgressDocument(learnerID, courseID string) *ProgressDocument {
	return &ProgressDocument{
		LearnerID:     learnerID,
		CourseID:      courseID,
		StepCompleted: map[string]bool{},
	}
}

// Key identifies the document in flat key spaces such as a Firestore collection.
func (d *ProgressDocument) Key() string {
	return ProgressKey(d.LearnerID, d.CourseID)
}

var keyEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// ProgressKey builds the flat document key {learner}_{course} for a learner and course.
//
// "%" and "_" inside either id are percent-escaped, so distinct pairs never share a key.
func ProgressKey(learnerID, courseID string) string {
	return keyEscaper.Replace(learnerID) + "_" + keyEscaper.Replace(courseID)
}

// Completion decodes StepCompleted.
func (d *ProgressDocument) Completion() (CompletionState, error) {
	return DecodeCompletion(d.StepCompleted)
}

// Validate checks identity, the percentage range and the completion map.
func (d *ProgressDocument) Validate() error {
	if d.LearnerID == "" || d.CourseID == "" {
		return fmt.Errorf("%w: learner and course ids are required", shared.ErrInvalidDocument)
	}
	if math.IsNaN(d.Progress) || d.Progress < 0 || d.Progress > 100 {
		return fmt.Errorf("%w: progress %v outside [0, 100]", shared.ErrInvalidDocument, d.Progress)
	}
	if d.Version < 0 {
		return fmt.Errorf("%w: negative version", shared.ErrInvalidDocument)
	}
	if _, err := d.Completion(); err != nil {
		return err
	}
	return nil
}
