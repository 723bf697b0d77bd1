package models

import (
	"fmt"
	"strings"
)

// Kind distinguishes courses from tutorials; both share the same step model.
type Kind string

const (
	KindCourse   Kind = "course"
	KindTutorial Kind = "tutorial"
)

// ParseKind parses a kind name, defaulting empty input to [KindCourse].
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindCourse, nil
	case KindCourse, KindTutorial:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// Course is an ordered list of steps with catalog metadata.
type Course struct {
	entity
	kind        Kind
	slug        string
	title       string
	description string
	category    string
	technology  string
	steps       []StepRecord
}

// NewCourse creates a course of the given kind. The slug is assigned by the repository on create.
func NewCourse(sequence int, kind Kind, title string) *Course {
	return &Course{entity: newEntity(sequence), kind: kind, title: title}
}

func (c *Course) Kind() Kind                  { return c.kind }
func (c *Course) Slug() string                { return c.slug }
func (c *Course) Title() string               { return c.title }
func (c *Course) Description() string         { return c.description }
func (c *Course) Category() string            { return c.category }
func (c *Course) Technology() string          { return c.technology }
func (c *Course) SetSlug(s string)            { c.slug = s }
func (c *Course) SetTitle(t string)           { c.title = t }
func (c *Course) SetDescription(d string)     { c.description = d }
func (c *Course) SetCategory(cat string)      { c.category = cat }
func (c *Course) SetTechnology(tech string)   { c.technology = tech }
func (c *Course) TotalSteps() int             { return len(c.steps) }
func (c *Course) SetSteps(steps []StepRecord) { c.steps = append([]StepRecord(nil), steps...) }

// Steps returns a copy of the step list.
func (c *Course) Steps() []StepRecord {
	return append([]StepRecord(nil), c.steps...)
}

// Step returns the step at index, or false when index is outside [0, TotalSteps).
func (c *Course) Step(index int) (StepRecord, bool) {
	if index < 0 || index >= len(c.steps) {
		return StepRecord{}, false
	}
	return c.steps[index], true
}

// AppendStep adds a step at the end and returns its index.
func (c *Course) AppendStep(s StepRecord) int {
	c.steps = append(c.steps, s)
	return len(c.steps) - 1
}

// Validate checks title, kind and every step.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.title) == "" {
		return fmt.Errorf("title is required")
	}
	if _, err := ParseKind(string(c.kind)); err != nil {
		return err
	}
	for i, s := range c.steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
