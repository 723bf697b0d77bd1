package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	bar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CourseListView ViewState = iota
	StepListView
	StepView
)

// CourseLister lists the catalog. repositories.CourseRepository implements it.
type CourseLister interface {
	List(criteria map[string]any) ([]*models.Course, error)
}

// ModelOpts configures a [Model].
type ModelOpts struct {
	Courses   CourseLister
	Store     progress.Store
	LearnerID string
	Mode      progress.Mode
	Timeout   time.Duration
	Logger    *log.Logger
	// GlamourStyle is a glamour standard style name ("dark", "light", "notty", ...). Empty selects auto detection.
	GlamourStyle string
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	opts     ModelOpts
	view     ViewState
	width    int
	height   int
	courses  list.Model
	steps    list.Model
	course   *models.Course
	tracker  *progress.Tracker
	snapshot progress.Snapshot
	current  int
	bar      bar.Model
	renderer *glamour.TermRenderer
	status   string
	busy     bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	courses := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	courses.Title = "Courses & Tutorials"
	courses.SetShowHelp(false)

	steps := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	steps.SetFilteringEnabled(false)
	steps.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		opts:    opts,
		view:    CourseListView,
		courses: courses,
		steps:   steps,
		bar:     bar.New(bar.WithDefaultGradient(), bar.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching the catalog.
func (m *Model) Init() tea.Cmd {
	return m.fetchCourses()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.courses.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		m.steps.SetSize(max(msg.Width-4, 0), max(msg.Height-10, 0))
		m.renderer = nil
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CourseListView:
			return m.handleCourseListKeys(msg)
		case StepListView:
			return m.handleStepListKeys(msg)
		case StepView:
			return m.handleStepKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCoursesFetched:
		data := msg.data.(coursesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.courses))
		for i, c := range data.courses {
			items[i] = courseItem{course: c}
		}
		return m, m.courses.SetItems(items)

	case MsgTrackerOpened:
		data := msg.data.(trackerOpened)
		m.busy = false
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not load progress: %v", data.err))
			return m, nil
		}
		m.course, m.tracker, m.snapshot = data.course, data.tracker, data.snapshot
		m.current = 0
		m.status = ""
		m.steps.Title = data.course.Title()
		m.steps.Select(0)
		m.view = StepListView
		return m, m.refreshSteps()

	case MsgStepToggled:
		data := msg.data.(stepToggled)
		m.busy = false
		if data.err != nil {
			// the tracker already rolled back; show its state
			m.snapshot = m.tracker.Snapshot()
			m.status = styles.err.Render(fmt.Sprintf("Not saved: %v (press x to retry)", data.err))
			m.opts.Logger.Warn("toggle failed", "course", m.course.Slug(), "step", data.index, "error", data.err)
			return m, m.refreshSteps()
		}
		m.snapshot = data.snapshot
		state := "incomplete"
		if data.snapshot.Completed(data.index) {
			state = "complete"
		}
		m.status = styles.ok.Render(fmt.Sprintf("Step %d marked %s", data.index, state))
		return m, m.refreshSteps()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CourseListView:
		return m.renderCourseList()
	case StepListView:
		return m.renderStepList()
	case StepView:
		return m.renderStep()
	default:
		return ""
	}
}

func (m *Model) handleCourseListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.courses.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.courses, cmd = m.courses.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if m.busy {
			return m, nil
		}
		if item, ok := m.courses.SelectedItem().(courseItem); ok {
			m.busy = true
			return m, m.openTracker(item.course)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.courses, cmd = m.courses.Update(msg)
	return m, cmd
}

func (m *Model) handleStepListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CourseListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.current = m.steps.Index()
		m.view = StepView
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggle(m.steps.Index())
	case key.Matches(msg, m.keys.reload):
		m.busy = true
		return m, m.openTracker(m.course)
	}

	var cmd tea.Cmd
	m.steps, cmd = m.steps.Update(msg)
	return m, cmd
}

func (m *Model) handleStepKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.steps.Select(m.current)
		m.view = StepListView
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggle(m.current)
	case key.Matches(msg, m.keys.next):
		if m.current < m.course.TotalSteps()-1 {
			m.current++
		}
	case key.Matches(msg, m.keys.prev):
		if m.current > 0 {
			m.current--
		}
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CourseListView:
		m.courses, cmd = m.courses.Update(msg)
	case StepListView:
		m.steps, cmd = m.steps.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshSteps() tea.Cmd {
	steps := m.course.Steps()
	items := make([]list.Item, len(steps))
	for i, s := range steps {
		items[i] = stepItem{index: i, step: s, completed: m.snapshot.Completed(i)}
	}
	return m.steps.SetItems(items)
}

func (m *Model) fetchCourses() tea.Cmd {
	return func() tea.Msg {
		courses, err := m.opts.Courses.List(nil)
		return coursesFetchedMsg(courses, err)
	}
}

func (m *Model) openTracker(course *models.Course) tea.Cmd {
	tracker := progress.NewTracker(m.opts.Store, m.opts.LearnerID, course.ID(), course.TotalSteps(), progress.TrackerOpts{
		Mode:    m.opts.Mode,
		Timeout: m.opts.Timeout,
		Logger:  m.opts.Logger,
	})
	return func() tea.Msg {
		snap, err := tracker.Open(m.ctx)
		return trackerOpenedMsg(course, tracker, snap, err)
	}
}

func (m *Model) toggle(index int) tea.Cmd {
	if m.busy || m.tracker == nil {
		return nil
	}
	m.busy = true
	m.status = styles.help.Render("Saving...")
	tracker := m.tracker
	return func() tea.Msg {
		snap, err := tracker.Toggle(m.ctx, index)
		return stepToggledMsg(index, snap, err)
	}
}

func (m *Model) progressLine() string {
	return fmt.Sprintf("%s %d/%d steps", m.bar.ViewAs(m.snapshot.Progress/100), m.snapshot.Completion.Count(), m.snapshot.TotalSteps)
}

func (m *Model) renderCourseList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.courses.View(), m.status, helpView)
}

func (m *Model) renderStepList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.reload, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", m.progressLine(), m.steps.View(), m.status, helpView)
}

func (m *Model) renderStep() string {
	step, ok := m.course.Step(m.current)
	if !ok {
		return styles.err.Render("Step not found")
	}

	mark := "○ incomplete"
	if m.snapshot.Completed(m.current) {
		mark = styles.ok.Render("✓ complete")
	}
	header := styles.header.Render(fmt.Sprintf("%s · step %d of %d", m.course.Title(), m.current+1, m.course.TotalSteps()))

	helpKeys := []key.Binding{m.keys.toggle, m.keys.prev, m.keys.next, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s  %s\n\n%s\n%s\n\n%s", header, m.progressLine(), mark, m.renderMarkdown(stepMarkdown(step)), m.status, helpView)
}

// stepMarkdown assembles the markdown shown for a step.
func stepMarkdown(step models.StepRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", step.Title)

	if ref := content.ParseVideoRef(step.VideoURL); ref.Valid {
		fmt.Fprintf(&b, "Video: %s\n\n", ref.WatchURL())
	} else {
		b.WriteString("_No video available_\n\n")
	}

	if step.Description != "" {
		b.WriteString(step.Description)
		b.WriteString("\n\n")
	}
	if step.CodeSnippet != "" {
		fmt.Fprintf(&b, "```\n%s\n```\n", step.CodeSnippet)
	}
	return b.String()
}

func (m *Model) renderMarkdown(md string) string {
	if m.renderer == nil {
		wrap := 80
		if m.width > 10 {
			wrap = m.width - 4
		}
		style := glamour.WithAutoStyle()
		if m.opts.GlamourStyle != "" {
			style = glamour.WithStandardStyle(m.opts.GlamourStyle)
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
		if err != nil {
			m.opts.Logger.Warn("markdown renderer unavailable", "error", err)
			return md
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
