// Package tasks runs bulk progress operations with real-time progress reporting.
//
// # Core Operations
//
// [ProgressEngine] provides two operations over every stored progress document of a course:
//
//  1. [ProgressEngine.Recalculate] : Rewrite stored percentages
//     - Drops completed indices that fall outside the current step list
//     - Recomputes the percentage with the configured progress.Mode
//     - Writes only documents that changed, with a version past the stored one
//
//  2. [ProgressEngine.BulkExport] : Export progress reports for many courses
//     - Builds a formatter.ProgressReport per course
//     - Writes CSV, Markdown, text or JSON files per course
//     - Writes export_manifest.json summarizing successes and failures
//
// Both run a bounded worker pool (default 5 workers, max 10) throttled by a rate.Limiter.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
