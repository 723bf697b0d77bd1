package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	testutil "github.com/Ameerusa86/online-learning-platform/internal/testing"
)

type fakeCatalog struct {
	courses []*models.Course
	err     error
}

func (f fakeCatalog) List(map[string]any) ([]*models.Course, error) {
	return f.courses, f.err
}

func sampleCourse() *models.Course {
	c := models.NewCourse(1, models.KindCourse, "Go Basics")
	c.SetID("course-1")
	c.SetSlug("go-basics")
	c.SetSteps([]models.StepRecord{
		{Title: "Intro", VideoURL: "https://youtu.be/dQw4w9WgXcQ"},
		{Title: "Variables", Description: "Use `var`.", CodeSnippet: "var x = 1"},
		{Title: "Loops"},
		{Title: "Wrap up"},
	})
	return c
}

// feed runs cmd synchronously and passes its message to the model, following up on the returned command.
func feed(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 5; i++ {
		msg, ok := cmd().(Msg)
		if !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	feed(t, m, cmd)
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyX     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func newTestModel(t *testing.T, store progress.Store) *Model {
	t.Helper()
	m := NewModel(context.Background(), ModelOpts{
		Courses:      fakeCatalog{courses: []*models.Course{sampleCourse()}},
		Store:        store,
		LearnerID:    "amy",
		GlamourStyle: "notty",
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	feed(t, m, m.Init())
	return m
}

func TestModel(t *testing.T) {
	t.Run("lists fetched courses", func(t *testing.T) {
		m := newTestModel(t, testutil.NewMemoryStore())
		if got := len(m.courses.Items()); got != 1 {
			t.Fatalf("expected 1 course, got %d", got)
		}
		if !strings.Contains(m.View(), "Go Basics") {
			t.Error("course list should show the course title")
		}
	})

	t.Run("fetch error is shown", func(t *testing.T) {
		m := NewModel(context.Background(), ModelOpts{
			Courses: fakeCatalog{err: errors.New("db down")},
			Store:   testutil.NewMemoryStore(),
		})
		feed(t, m, m.Init())
		if !strings.Contains(m.View(), "db down") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("enter opens the tracker", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		m := newTestModel(t, store)
		press(t, m, keyEnter)

		if m.view != StepListView {
			t.Fatalf("expected step list view, got %v", m.view)
		}
		if got := len(m.steps.Items()); got != 4 {
			t.Errorf("expected 4 steps, got %d", got)
		}
		if _, ok := store.Get("amy", "course-1"); !ok {
			t.Error("opening a course should persist an empty document")
		}
	})

	t.Run("toggle persists and updates marks", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		m := newTestModel(t, store)
		press(t, m, keyEnter)
		press(t, m, keyX)

		if !m.snapshot.Completed(0) {
			t.Fatal("step 0 should be complete")
		}
		if m.snapshot.Progress != 25 {
			t.Errorf("expected 25%%, got %v", m.snapshot.Progress)
		}
		doc, _ := store.Get("amy", "course-1")
		if !doc.StepCompleted["0"] {
			t.Errorf("stored map = %v", doc.StepCompleted)
		}
		item := m.steps.Items()[0].(stepItem)
		if !item.completed {
			t.Error("list item should be marked complete")
		}
	})

	t.Run("failed toggle rolls back", func(t *testing.T) {
		flaky := testutil.NewFlakyStore(testutil.NewMemoryStore())
		m := newTestModel(t, flaky)
		press(t, m, keyEnter)

		flaky.FailNext(1, shared.ErrPersist)
		press(t, m, keyX)

		if m.snapshot.Completed(0) {
			t.Error("step 0 should be rolled back")
		}
		if m.busy {
			t.Error("model should accept input after a failure")
		}
		if !strings.Contains(m.status, "retry") {
			t.Errorf("status should offer a retry, got %q", m.status)
		}

		press(t, m, keyX)
		if !m.snapshot.Completed(0) {
			t.Error("retry should complete step 0")
		}
	})

	t.Run("step view navigation", func(t *testing.T) {
		m := newTestModel(t, testutil.NewMemoryStore())
		press(t, m, keyEnter)
		press(t, m, keyEnter)
		if m.view != StepView {
			t.Fatalf("expected step view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "dQw4w9WgXcQ") {
			t.Error("intro step should link its video")
		}

		press(t, m, keyRight)
		if m.current != 1 {
			t.Fatalf("expected step 1, got %d", m.current)
		}
		view := m.View()
		if !strings.Contains(view, "No video available") {
			t.Error("step without video should say so")
		}
		if !strings.Contains(view, "var x = 1") {
			t.Error("code snippet should be rendered")
		}

		press(t, m, keyX)
		if !m.snapshot.Completed(1) {
			t.Error("toggle in step view should target the current step")
		}

		press(t, m, keyEsc)
		if m.view != StepListView || m.steps.Index() != 1 {
			t.Errorf("esc should return to the list at step 1, got view %v index %d", m.view, m.steps.Index())
		}
	})

	t.Run("next stops at the last step", func(t *testing.T) {
		m := newTestModel(t, testutil.NewMemoryStore())
		press(t, m, keyEnter)
		press(t, m, keyEnter)
		for range 10 {
			press(t, m, keyRight)
		}
		if m.current != 3 {
			t.Errorf("expected last step 3, got %d", m.current)
		}
	})
}

func TestStepMarkdown(t *testing.T) {
	md := stepMarkdown(models.StepRecord{Title: "Loops", VideoURL: "not a url", CodeSnippet: "for {}"})
	for _, want := range []string{"# Loops", "No video available", "```\nfor {}\n```"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
