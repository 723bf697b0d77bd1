package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/formatter"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk report exports.
type BulkExportOpts struct {
	PoolOpts
	Format    string // Export format: json, csv, markdown, text
	OutputDir string // Base output directory (default: progress_export_{epoch})
}

// ReportExportResult is the outcome of exporting one course.
type ReportExportResult struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title,omitempty"`
	Learners int      `json:"learners"`
	Files    []string `json:"files,omitempty"`
	Success  bool     `json:"success"`
	Error    error    `json:"-"`
	Message  string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as the manifest.
type BulkExportResult struct {
	Format            string               `json:"format"`
	TotalCourses      int                  `json:"totalCourses"`
	SuccessfulExports int                  `json:"successfulExports"`
	FailedExports     int                  `json:"failedExports"`
	OutputDirectory   string               `json:"outputDirectory"`
	ManifestPath      string               `json:"-"`
	Results           []ReportExportResult `json:"results"`
	GeneratedAt       time.Time            `json:"generatedAt"`
}

// BulkExport exports progress reports for multiple courses concurrently with rate limiting and progress tracking.
//
// Uses a worker pool; each course is exported independently so one failure does not stop the rest.
// A manifest file summarizing the results is written to the output directory.
func (e *ProgressEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	slugs []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format
	opts.PoolOpts = opts.PoolOpts.normalize()
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("progress_export_%d", e.clock().Unix())
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          format,
		TotalCourses:    len(slugs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ReportExportResult, 0, len(slugs)),
		GeneratedAt:     e.clock().UTC(),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan string, len(slugs))
	results := make(chan ReportExportResult, len(slugs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	go func() {
		for i, slug := range slugs {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}
			jobs <- slug
			e.sendProgress(prog, exportingReportUpdate(i+1, len(slugs), slug))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(slugs), res.Slug, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(slugs), res.Slug, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker is a worker goroutine that exports courses from the jobs channel.
func (e *ProgressEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- ReportExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for slug := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- ReportExportResult{Slug: slug, Error: err}
			continue
		}
		results <- e.exportOne(ctx, slug, opts)
	}
}

// exportOne builds and writes the report for a single course.
func (e *ProgressEngine) exportOne(ctx context.Context, slug string, opts BulkExportOpts) ReportExportResult {
	result := ReportExportResult{Slug: slug, Files: []string{}}

	report, err := e.Report(ctx, slug)
	if err != nil {
		result.Error = err
		return result
	}
	result.Title = report.Title
	result.Learners = len(report.Learners)

	switch opts.Format {
	case formatter.FormatCSV:
		res, err := formatter.WriteCSVExport(report, filepath.Join(opts.OutputDir, report.Slug))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{res.ProgressFile, res.MetadataFile}

	case formatter.FormatMarkdown:
		path, err := formatter.WriteMarkdownExport(report, filepath.Join(opts.OutputDir, report.Slug))
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	case formatter.FormatJSON:
		data, err := formatter.ExportToJSON(report)
		if err != nil {
			result.Error = err
			return result
		}
		path := filepath.Join(opts.OutputDir, report.Slug+".json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteTextExport(report, filepath.Join(opts.OutputDir, report.Slug+"_progress.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

// Report builds the progress report of one course.
func (e *ProgressEngine) Report(ctx context.Context, slug string) (*formatter.ProgressReport, error) {
	course, err := e.courses.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	docs, err := e.docs.ListByCourse(ctx, course.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return formatter.NewProgressReport(course, docs, e.mode, e.clock())
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
