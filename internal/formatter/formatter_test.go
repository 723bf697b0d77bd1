package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	th "github.com/Ameerusa86/online-learning-platform/internal/testing"
)

var reportTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testReport(t *testing.T) *ProgressReport {
	t.Helper()

	course := models.NewCourse(1, models.KindCourse, "Go Basics")
	course.SetID("course-1")
	course.SetSlug("go-basics")
	course.SetSteps([]models.StepRecord{{Title: "Intro"}, {Title: "Variables"}, {Title: "Functions"}, {Title: "Wrap up"}})

	docs := []*models.ProgressDocument{
		{LearnerID: "zoe", CourseID: "course-1", StepCompleted: map[string]bool{"0": true, "1": true, "2": true, "3": true}, Progress: 10, UpdatedAt: reportTime},
		{LearnerID: "amy", CourseID: "course-1", StepCompleted: map[string]bool{"1": true, "3": true}, UpdatedAt: reportTime},
	}

	report, err := NewProgressReport(course, docs, progress.ModeIncludingIntro, reportTime)
	if err != nil {
		t.Fatalf("NewProgressReport failed: %v", err)
	}
	return report
}

func TestNewProgressReport(t *testing.T) {
	t.Run("recomputes and sorts", func(t *testing.T) {
		r := testReport(t)

		if len(r.Learners) != 2 || r.Learners[0].LearnerID != "amy" {
			t.Fatalf("learners should be sorted by id, got %+v", r.Learners)
		}
		if r.Learners[0].Progress != 50 {
			t.Errorf("amy progress = %v, want 50", r.Learners[0].Progress)
		}
		if r.Learners[1].Progress != 100 {
			t.Errorf("stored progress should be ignored, got %v", r.Learners[1].Progress)
		}
		if r.AverageProgress() != 75 || r.Finished() != 1 || r.TotalSteps() != 4 {
			t.Errorf("avg=%v finished=%d steps=%d", r.AverageProgress(), r.Finished(), r.TotalSteps())
		}
	})

	t.Run("empty", func(t *testing.T) {
		course := models.NewCourse(1, models.KindTutorial, "Empty")
		r, err := NewProgressReport(course, nil, progress.ModeIncludingIntro, reportTime)
		if err != nil {
			t.Fatal(err)
		}
		if r.AverageProgress() != 0 || r.TotalSteps() != 0 {
			t.Errorf("unexpected report %+v", r)
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		course := models.NewCourse(1, models.KindCourse, "Bad")
		docs := []*models.ProgressDocument{{LearnerID: "x", CourseID: "c", StepCompleted: map[string]bool{"one": true}}}
		if _, err := NewProgressReport(course, docs, progress.ModeIncludingIntro, reportTime); !errors.Is(err, shared.ErrInvalidDocument) {
			t.Errorf("expected ErrInvalidDocument, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	r := testReport(t)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(r)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Learner,Completed,Completed Steps,Total Steps,Progress,Updated At") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "amy,2,1 3,4,50.0,2025-03-01T12:00:00Z") {
			t.Errorf("CSV missing amy row, got: %s", output)
		}
		if !strings.Contains(output, "zoe,4,0 1 2 3,4,100.0") {
			t.Errorf("CSV missing zoe row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(r)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Go Basics",
			"**Learners**: 2",
			"**Average progress**: 75.0%",
			"0. Intro",
			"| amy | 2/4 | 50.0% |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(r)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Course: Go Basics (course)") {
			t.Errorf("Text missing course line")
		}
		if !strings.Contains(output, "1. amy - 50.0% (2/4)") {
			t.Errorf("Text missing amy, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(r)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded ProgressReport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Slug != "go-basics" || len(decoded.Learners) != 2 || decoded.Mode != "including_intro" {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(r)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, `"averageProgress": 75`) {
			t.Errorf("metadata missing average, got %s", output)
		}
		if strings.Contains(output, "amy") {
			t.Errorf("metadata should not contain learner rows")
		}
	})
}

func TestExportFormats(t *testing.T) {
	r := testReport(t)

	tests := []struct {
		name   string
		format string
		want   string
		ext    string
	}{
		{"csv", "csv", "Learner,", ".csv"},
		{"md alias", "md", "# Go Basics", ".md"},
		{"default text", "", "Course: Go Basics", ".txt"},
		{"txt alias", "TXT", "Course: Go Basics", ".txt"},
		{"json", "json", `"slug": "go-basics"`, ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Export(r, tt.format)
			if err != nil {
				t.Fatalf("Export(%q) failed: %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
			f, _ := ParseFormat(tt.format)
			if Extension(f) != tt.ext {
				t.Errorf("Extension(%q) = %q, want %q", f, Extension(f), tt.ext)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := Export(r, "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	r := testReport(t)

	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "report")
		result, err := WriteCSVExport(r, base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.ProgressFile != base+"_progress.csv" || result.MetadataFile != base+"_metadata.json" {
			t.Errorf("unexpected paths %+v", result)
		}
		th.AssertFileExists(t, result.ProgressFile)
		th.AssertFileExists(t, result.MetadataFile)

		if !strings.Contains(th.MustReadFile(t, result.ProgressFile), "amy") {
			t.Errorf("CSV missing learner data")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "go-basics")
		path, err := WriteMarkdownExport(r, dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("path = %s", path)
		}
		if !strings.Contains(th.MustReadFile(t, path), "## Learners") {
			t.Errorf("README missing learners section")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "out.txt")
		path, err := WriteTextExport(r, target)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("unwritable", func(t *testing.T) {
		if _, err := WriteTextExport(r, filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}
