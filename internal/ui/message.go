package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCoursesFetched MsgKind = iota
	MsgTrackerOpened
	MsgStepToggled
)

type coursesFetched struct {
	courses []*models.Course
	err     error
}

type trackerOpened struct {
	course   *models.Course
	tracker  *progress.Tracker
	snapshot progress.Snapshot
	err      error
}

type stepToggled struct {
	index    int
	snapshot progress.Snapshot
	err      error
}

// coursesFetchedMsg is the constructor for [MsgCoursesFetched]
func coursesFetchedMsg(courses []*models.Course, err error) Msg {
	return Msg{kind: MsgCoursesFetched, data: coursesFetched{courses, err}}
}

// trackerOpenedMsg is the constructor for [MsgTrackerOpened]
func trackerOpenedMsg(course *models.Course, tracker *progress.Tracker, snap progress.Snapshot, err error) Msg {
	return Msg{kind: MsgTrackerOpened, data: trackerOpened{course, tracker, snap, err}}
}

// stepToggledMsg is the constructor for [MsgStepToggled]
func stepToggledMsg(index int, snap progress.Snapshot, err error) Msg {
	return Msg{kind: MsgStepToggled, data: stepToggled{index, snap, err}}
}
