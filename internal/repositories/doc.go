// Package repositories implements persistence for users, courses and learner progress.
//
// SQLite repositories handle CRUD with atomic sequence generation for human-readable ordering.
// Users and courses are soft-deleted via deleted_at timestamps and excluded from queries by default.
//
// Key Implementations:
//   - [UserRepository] : accounts and roles, with [UserRepository.HasRole] backing the admin guard
//   - [CourseRepository] : courses and tutorials with their ordered steps and unique slugs
//   - [ProgressRepository] : per-learner completion documents with version-guarded upserts
//   - [PostgresProgressStore] : the same document contract over Postgres via gorm
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
