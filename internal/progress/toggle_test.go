package progress

import (
	"errors"
	"testing"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"pgregory.net/rapid"
)

func TestToggle(t *testing.T) {
	t.Run("adds and removes", func(t *testing.T) {
		state := models.CompletionState{}

		next, err := Toggle(state, 2, 4)
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if !next.Has(2) {
			t.Error("expected step 2 complete")
		}
		if state.Has(2) {
			t.Error("Toggle() must not modify its input")
		}

		back, _ := Toggle(next, 2, 4)
		if back.Has(2) || back.Count() != 0 {
			t.Errorf("expected empty state after second toggle, got %v", back)
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		for _, idx := range []int{-1, 4, 100} {
			if _, err := Toggle(models.CompletionState{}, idx, 4); !errors.Is(err, shared.ErrIndexOutOfRange) {
				t.Errorf("Toggle(%d) error = %v, want ErrIndexOutOfRange", idx, err)
			}
		}
	})

	t.Run("zero steps", func(t *testing.T) {
		if _, err := Toggle(nil, 0, 0); !errors.Is(err, shared.ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
	})
}

func TestToggle_SelfInverse_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 100).Draw(t, "total")
		state := completionGen(total).Draw(t, "state")
		idx := rapid.IntRange(0, total-1).Draw(t, "index")

		once, err := Toggle(state, idx, total)
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if once.Has(idx) == state.Has(idx) {
			t.Fatalf("Toggle() did not flip index %d", idx)
		}

		twice, err := Toggle(once, idx, total)
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if !twice.Equal(state) {
			t.Fatalf("Toggle twice = %v, want %v", twice, state)
		}
	})
}
