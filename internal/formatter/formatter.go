// package formatter exports course progress reports to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// LearnerProgress is one learner's row in a [ProgressReport].
type LearnerProgress struct {
	LearnerID string    `json:"learnerId"`
	Completed []int     `json:"completed"`
	Progress  float64   `json:"progress"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressReport summarizes every learner's progress in one course.
type ProgressReport struct {
	CourseID    string            `json:"courseId"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Kind        models.Kind       `json:"kind"`
	Mode        string            `json:"mode"`
	StepTitles  []string          `json:"steps"`
	Learners    []LearnerProgress `json:"learners"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// NewProgressReport builds a report from stored documents.
//
// Percentages are recomputed from each completion map with mode; the stored progress field is ignored.
// Learners are sorted by id.
func NewProgressReport(course *models.Course, docs []*models.ProgressDocument, mode progress.Mode, now time.Time) (*ProgressReport, error) {
	report := &ProgressReport{
		CourseID:    course.ID(),
		Slug:        course.Slug(),
		Title:       course.Title(),
		Kind:        course.Kind(),
		Mode:        mode.String(),
		GeneratedAt: now.UTC(),
		Learners:    make([]LearnerProgress, 0, len(docs)),
	}
	for _, s := range course.Steps() {
		report.StepTitles = append(report.StepTitles, s.Title)
	}

	for _, doc := range docs {
		state, err := doc.Completion()
		if err != nil {
			return nil, fmt.Errorf("learner %s: %w", doc.LearnerID, err)
		}
		report.Learners = append(report.Learners, LearnerProgress{
			LearnerID: doc.LearnerID,
			Completed: state.Indices(),
			Progress:  mode.Calculate(state, course.TotalSteps()),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	slices.SortFunc(report.Learners, func(a, b LearnerProgress) int { return strings.Compare(a.LearnerID, b.LearnerID) })

	return report, nil
}

// TotalSteps returns the number of steps in the course.
func (r *ProgressReport) TotalSteps() int { return len(r.StepTitles) }

// AverageProgress returns the mean percentage across learners, or 0 with no learners.
func (r *ProgressReport) AverageProgress() float64 {
	if len(r.Learners) == 0 {
		return 0
	}
	var sum float64
	for _, l := range r.Learners {
		sum += l.Progress
	}
	return sum / float64(len(r.Learners))
}

// Finished returns the number of learners at 100%.
func (r *ProgressReport) Finished() int {
	n := 0
	for _, l := range r.Learners {
		if l.Progress >= 100 {
			n++
		}
	}
	return n
}

// ParseFormat normalizes a format name; "md" and "txt" are accepted aliases.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText, "txt":
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Export renders the report in the named format.
func Export(r *ProgressReport, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatCSV:
		return ExportToCSV(r)
	case FormatMarkdown:
		return ExportToMarkdown(r)
	case FormatJSON:
		return ExportToJSON(r)
	default:
		return ExportToText(r)
	}
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

func joinIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, " ")
}

// ExportToCSV converts a ProgressReport to CSV format with columns: Learner, Completed, Completed Steps, Total Steps, Progress, Updated At
func ExportToCSV(r *ProgressReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Learner", "Completed", "Completed Steps", "Total Steps", "Progress", "Updated At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range r.Learners {
		record := []string{
			l.LearnerID,
			strconv.Itoa(len(l.Completed)),
			joinIndices(l.Completed),
			strconv.Itoa(r.TotalSteps()),
			percent(l.Progress),
			l.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ProgressReport to Markdown with a step list and a learner table
func ExportToMarkdown(r *ProgressReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	buf.WriteString(fmt.Sprintf("**Kind**: %s\n", r.Kind))
	buf.WriteString(fmt.Sprintf("**Steps**: %d\n", r.TotalSteps()))
	buf.WriteString(fmt.Sprintf("**Learners**: %d\n", len(r.Learners)))
	buf.WriteString(fmt.Sprintf("**Finished**: %d\n", r.Finished()))
	buf.WriteString(fmt.Sprintf("**Average progress**: %s%%\n\n", percent(r.AverageProgress())))

	buf.WriteString("## Steps\n\n")
	for i, title := range r.StepTitles {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i, title))
	}

	buf.WriteString("\n## Learners\n\n")
	if len(r.Learners) == 0 {
		buf.WriteString("_No progress recorded._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Learner | Completed | Progress |\n")
	buf.WriteString("|---|---|---|\n")
	for _, l := range r.Learners {
		buf.WriteString(fmt.Sprintf("| %s | %d/%d | %s%% |\n", l.LearnerID, len(l.Completed), r.TotalSteps(), percent(l.Progress)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ProgressReport to plain text format
func ExportToText(r *ProgressReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Course: %s (%s)\n", r.Title, r.Kind))
	buf.WriteString(fmt.Sprintf("Steps: %d\n", r.TotalSteps()))
	buf.WriteString(fmt.Sprintf("Learners: %d\n", len(r.Learners)))
	buf.WriteString(fmt.Sprintf("Average: %s%%\n\n", percent(r.AverageProgress())))

	for i, l := range r.Learners {
		buf.WriteString(fmt.Sprintf("%d. %s - %s%% (%d/%d)\n", i+1, l.LearnerID, percent(l.Progress), len(l.Completed), r.TotalSteps()))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ProgressReport to indented JSON
func ExportToJSON(r *ProgressReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// reportMetadata is the report header without learner rows.
type reportMetadata struct {
	CourseID        string      `json:"courseId"`
	Slug            string      `json:"slug"`
	Title           string      `json:"title"`
	Kind            models.Kind `json:"kind"`
	Mode            string      `json:"mode"`
	TotalSteps      int         `json:"totalSteps"`
	Learners        int         `json:"learners"`
	AverageProgress float64     `json:"averageProgress"`
	GeneratedAt     time.Time   `json:"generatedAt"`
}

// ToMetadataJSON generates a JSON representation of report metadata (without learner rows)
func ToMetadataJSON(r *ProgressReport) ([]byte, error) {
	meta := reportMetadata{
		CourseID:        r.CourseID,
		Slug:            r.Slug,
		Title:           r.Title,
		Kind:            r.Kind,
		Mode:            r.Mode,
		TotalSteps:      r.TotalSteps(),
		Learners:        len(r.Learners),
		AverageProgress: r.AverageProgress(),
		GeneratedAt:     r.GeneratedAt,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ProgressFile string
	MetadataFile string
}

// WriteCSVExport exports a report to CSV format with accompanying metadata JSON file.
//
// Defaults to the course slug as the base filename & creates {base}_progress.csv and {base}_metadata.json
func WriteCSVExport(r *ProgressReport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = r.Slug
	}

	csvData, err := ExportToCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	progressFile := baseFilepath + "_progress.csv"
	if err := os.WriteFile(progressFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(r)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ProgressFile: progressFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a report to {dir}/README.md, creating the directory. The directory defaults to the slug.
func WriteMarkdownExport(r *ProgressReport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = r.Slug
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(r)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a report to plain text format.
//
// Defaults to {slug}_progress.txt as the filename.
func WriteTextExport(r *ProgressReport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_progress.txt", r.Slug)
	}

	textData, err := ExportToText(r)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
