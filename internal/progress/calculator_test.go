package progress

import (
	"math"
	"testing"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"pgregory.net/rapid"
)

func TestCompute(t *testing.T) {
	tc := []struct {
		name  string
		state models.CompletionState
		total int
		want  float64
	}{
		{name: "zero steps", state: models.CompletionState{}, total: 0, want: 0},
		{name: "nil state", state: nil, total: 4, want: 0},
		{name: "half", state: models.CompletionState{1: true, 3: true}, total: 4, want: 50},
		{name: "quarter", state: models.CompletionState{3: true}, total: 4, want: 25},
		{name: "all", state: models.CompletionState{0: true, 1: true}, total: 2, want: 100},
		{name: "out of range ignored", state: models.CompletionState{0: true, 9: true}, total: 2, want: 50},
		{name: "negative total", state: models.CompletionState{0: true}, total: -3, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.state, tt.total); got != tt.want {
				t.Errorf("Compute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExcludingIntro(t *testing.T) {
	state := models.CompletionState{0: true, 1: true}

	if got := ExcludingIntro(state, 4); got != 25 {
		t.Errorf("ExcludingIntro() = %v, want 25", got)
	}
	if got := IncludingIntro(state, 4); got != 50 {
		t.Errorf("IncludingIntro() = %v, want 50", got)
	}
	if got := ModeExcludingIntro.Calculate(state, 4); got != 25 {
		t.Errorf("ModeExcludingIntro.Calculate() = %v, want 25", got)
	}
	if got := ExcludingIntro(models.CompletionState{}, 0); got != 0 {
		t.Errorf("ExcludingIntro() with zero steps = %v, want 0", got)
	}
}

func TestParseMode(t *testing.T) {
	tc := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeIncludingIntro},
		{in: "including_intro", want: ModeIncludingIntro},
		{in: "EXCLUDING_INTRO", want: ModeExcludingIntro},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func completionGen(total int) *rapid.Generator[models.CompletionState] {
	return rapid.Custom(func(t *rapid.T) models.CompletionState {
		// Always draw so the generator consumes input even for an empty course.
		indices := rapid.SliceOfN(rapid.IntRange(0, max(total-1, 0)), 0, max(total, 1)).Draw(t, "indices")

		state := models.CompletionState{}
		if total == 0 {
			return state
		}
		for _, i := range indices {
			state[i] = true
		}
		return state
	})
}

func TestCompute_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 200).Draw(t, "total")
		state := completionGen(total).Draw(t, "state")

		got := Compute(state, total)
		if got < 0 || got > 100 || math.IsNaN(got) {
			t.Fatalf("Compute() = %v outside [0, 100]", got)
		}
		if total == 0 {
			if got != 0 {
				t.Fatalf("Compute() with zero steps = %v", got)
			}
			return
		}

		want := float64(state.Count()) / float64(total) * 100
		if got != want {
			t.Fatalf("Compute() = %v, want %v", got, want)
		}
		if ex := ExcludingIntro(state, total); ex > got {
			t.Fatalf("ExcludingIntro() = %v exceeds IncludingIntro() = %v", ex, got)
		}
	})
}
