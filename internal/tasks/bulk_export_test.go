package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

func TestBulkExport(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		wantFiles int
		firstFile string
	}{
		{"csv", "csv", 2, "go-basics_progress.csv"},
		{"markdown", "md", 1, filepath.Join("go-basics", "README.md")},
		{"text", "txt", 1, "go-basics_progress.txt"},
		{"json", "json", 1, "go-basics.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			second := f.addCourse(t, "Rust Intro", 2)
			f.put(t, "amy", f.course, 50, 0, 1)
			f.put(t, "ben", second, 100, 0, 1)

			dir := t.TempDir()
			prog := make(chan ProgressUpdate, 32)
			res, err := f.engine(nil).BulkExport(context.Background(), prog, []string{"go-basics", "rust-intro", "missing"}, BulkExportOpts{
				PoolOpts:  fastPool(),
				Format:    tt.format,
				OutputDir: dir,
			})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if res.TotalCourses != 3 || res.SuccessfulExports != 2 || res.FailedExports != 1 {
				t.Errorf("unexpected summary %+v", res)
			}

			for _, r := range res.Results {
				switch r.Slug {
				case "missing":
					if r.Success || !errors.Is(r.Error, shared.ErrCourseNotFound) {
						t.Errorf("missing course result = %+v", r)
					}
				case "go-basics":
					if len(r.Files) != tt.wantFiles {
						t.Errorf("files = %v, want %d", r.Files, tt.wantFiles)
					}
					if r.Learners != 1 {
						t.Errorf("learners = %d, want 1", r.Learners)
					}
				}
			}

			if _, err := os.Stat(filepath.Join(dir, tt.firstFile)); err != nil {
				t.Errorf("expected %s: %v", tt.firstFile, err)
			}

			data, err := os.ReadFile(res.ManifestPath)
			if err != nil {
				t.Fatalf("manifest not written: %v", err)
			}
			var manifest BulkExportResult
			if err := json.Unmarshal(data, &manifest); err != nil {
				t.Fatalf("invalid manifest: %v", err)
			}
			if manifest.FailedExports != 1 || len(manifest.Results) != 3 {
				t.Errorf("unexpected manifest %+v", manifest)
			}
			if !strings.Contains(string(data), shared.ErrCourseNotFound.Error()) {
				t.Error("manifest should carry the failure message")
			}

			close(prog)
			var sawManifest bool
			for u := range prog {
				if u.Phase == WriteManifest {
					sawManifest = true
				}
			}
			if !sawManifest {
				t.Error("expected a manifest progress update")
			}
		})
	}
}

func TestBulkExport_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		f := setupFixture(t)
		_, err := f.engine(nil).BulkExport(context.Background(), nil, []string{"go-basics"}, BulkExportOpts{Format: "pdf", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("output directory is a file", func(t *testing.T) {
		f := setupFixture(t)
		path := filepath.Join(t.TempDir(), "taken")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := f.engine(nil).BulkExport(context.Background(), nil, []string{"go-basics"}, BulkExportOpts{OutputDir: path}); err == nil {
			t.Error("expected error creating the output directory")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		f := setupFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := f.engine(nil).BulkExport(ctx, nil, []string{"go-basics"}, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if res == nil || res.SuccessfulExports != 0 {
			t.Errorf("nothing should be exported, got %+v", res)
		}
	})
}

func TestReport(t *testing.T) {
	f := setupFixture(t)
	f.put(t, "amy", f.course, 0, 0, 1, 2)

	report, err := f.engine(nil).Report(context.Background(), "go-basics")
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Learners) != 1 || report.Learners[0].Progress != 75 {
		t.Errorf("unexpected report %+v", report.Learners)
	}
}
