// Package ui implements an interactive terminal step viewer using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for a learner:
//  1. [CourseListView] : Browse courses and tutorials
//  2. [StepListView] : Step list with completion marks and a progress bar
//  3. [StepView] : One step rendered with glamour (video link, description, code snippet)
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Toggles run through a progress.Tracker in a command; a failed write is rolled back by the tracker and the view
// shows its restored state with a retry hint.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, x/space, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
