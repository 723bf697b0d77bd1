// Package models defines domain entities and persistence interfaces for the learning platform.
//
// The package contains two categories of types:
//
// 1. Value types describing course content and learner state
//   - [StepRecord] : one unit of content (title, optional video, code and description)
//   - [CompletionState] : step index to completion flag, only true values present
//   - [ProgressDocument] : stored form of a completion state for one learner and course
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : accounts with a [Role]
//   - [Course] : courses and tutorials ([Kind]) with an ordered step list
//
// Persistent entities implement the [Model] interface providing identity, timestamps, validation, and soft delete support.
// Documents read from any store go through [DecodeCompletion] or [ProgressDocument.Validate] so malformed
// data fails at the boundary.
package models
