package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadCourse Phase = iota
	ListProgress
	RecalculateProgress
	ExportReport
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadCourse:
		return "load_course"
	case ListProgress:
		return "list_progress"
	case RecalculateProgress:
		return "recalculate_progress"
	case ExportReport:
		return "export_report"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func loadCourseUpdate(step, total int, slug string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCourse,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loading course %s...", slug),
	}
}

func listProgressUpdate(step, total int, title string, learners int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListProgress,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d progress documents for %s", learners, title),
		Data:    learners,
	}
}

func recalculatedUpdate(step, total int, res LearnerResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: %s", step, total, res.LearnerID, res.Outcome)
	if res.Outcome == OutcomeUpdated {
		msg = fmt.Sprintf("[%d/%d] %s: %.1f%% → %.1f%%", step, total, res.LearnerID, res.Before, res.After)
	}
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.LearnerID, res.Error)
	}
	return ProgressUpdate{
		Phase:   RecalculateProgress,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func exportingReportUpdate(step, total int, slug string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, slug),
	}
}

func exportCompletedUpdate(step, total int, slug string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, slug, filesCount),
	}
}

func exportFailedUpdate(step, total int, slug string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, slug, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
		Data:    path,
	}
}
