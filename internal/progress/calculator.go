package progress

import (
	"fmt"
	"strings"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
)

// Mode selects how the introduction step counts toward progress.
type Mode int

const (
	ModeIncludingIntro Mode = iota
	ModeExcludingIntro
)

func (m Mode) String() string {
	switch m {
	case ModeExcludingIntro:
		return "excluding_intro"
	default:
		return "including_intro"
	}
}

// ParseMode parses the config spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "including_intro":
		return ModeIncludingIntro, nil
	case "excluding_intro":
		return ModeExcludingIntro, nil
	default:
		return 0, fmt.Errorf("unknown progress mode %q", s)
	}
}

// Calculate dispatches to the variant for m.
func (m Mode) Calculate(c models.CompletionState, totalSteps int) float64 {
	if m == ModeExcludingIntro {
		return ExcludingIntro(c, totalSteps)
	}
	return IncludingIntro(c, totalSteps)
}

// Compute returns the completed share of totalSteps as a percentage in [0, 100].
//
// A course with no steps is 0% complete. Indices outside [0, totalSteps) are ignored.
func Compute(c models.CompletionState, totalSteps int) float64 {
	return percent(countInRange(c, 0, totalSteps), totalSteps)
}

// IncludingIntro is [Compute].
func IncludingIntro(c models.CompletionState, totalSteps int) float64 {
	return Compute(c, totalSteps)
}

// ExcludingIntro ignores a completed index 0 in the numerator. The denominator stays totalSteps.
func ExcludingIntro(c models.CompletionState, totalSteps int) float64 {
	return percent(countInRange(c, 1, totalSteps), totalSteps)
}

func countInRange(c models.CompletionState, from, to int) int {
	n := 0
	for idx, done := range c {
		if done && idx >= from && idx < to {
			n++
		}
	}
	return n
}

func percent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
