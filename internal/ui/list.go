package ui

import (
	"fmt"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = courseItem{}
	_ list.Item = stepItem{}
)

// courseItem wraps [models.Course] to implement [list.Item].
type courseItem struct {
	course *models.Course
}

func (i courseItem) FilterValue() string { return i.course.Title() }
func (i courseItem) Title() string       { return i.course.Title() }
func (i courseItem) Description() string {
	desc := fmt.Sprintf("%s • %d steps", i.course.Kind(), i.course.TotalSteps())
	if i.course.Technology() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.course.Technology())
	}
	return desc
}

// stepItem wraps [models.StepRecord] with its index and completion mark to implement [list.Item].
type stepItem struct {
	index     int
	step      models.StepRecord
	completed bool
}

func (i stepItem) FilterValue() string { return i.step.Title }
func (i stepItem) Title() string {
	mark := "[ ]"
	if i.completed {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %d. %s", mark, i.index, i.step.Title)
}
func (i stepItem) Description() string {
	if i.step.HasVideo() {
		return "video"
	}
	return "reading"
}
