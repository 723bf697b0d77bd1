// Package progress computes and persists learner completion for a course.
//
// # Calculation
//
// [Compute] derives a percentage from a [models.CompletionState] and the step count.
// Two named variants exist because flows disagree on the "Introduction" pseudo-step at index 0:
//
//   - [IncludingIntro] counts every completed index, identical to [Compute]
//   - [ExcludingIntro] drops index 0 from the numerator but keeps the full denominator
//
// Callers choose one through [Mode].
//
// # Toggling
//
// [Toggle] is the pure state transition. [Tracker] wraps it for one (learner, course) pair:
// it applies the toggle in memory, persists through a [Store] under a timeout, and rolls
// back on failure. Writes on a tracker are serialized and stamped with a strictly
// increasing version so stores can drop stale writes.
//
// [TrackerCache] keeps one tracker per pair for long-running servers, bounded by size and idle time.
package progress
