// Package content holds the small text utilities used when authoring and displaying lessons:
// slug generation, YouTube reference extraction and a minimal markdown renderer.
package content
