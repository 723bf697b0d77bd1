package progress

import (
	"fmt"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// Toggle flips index in a copy of c. The input is never modified.
func Toggle(c models.CompletionState, index, totalSteps int) (models.CompletionState, error) {
	if index < 0 || index >= totalSteps {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", shared.ErrIndexOutOfRange, index, totalSteps)
	}

	next := c.Clone()
	if next[index] {
		delete(next, index)
	} else {
		next[index] = true
	}
	return next, nil
}
