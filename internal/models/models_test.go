package models

import (
	"errors"
	"math"
	"testing"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestCompletionState(t *testing.T) {
	t.Run("Encode and Decode", func(t *testing.T) {
		state := CompletionState{0: true, 3: true, 12: true}
		encoded := state.Encode()

		want := map[string]bool{"0": true, "3": true, "12": true}
		if diff := cmp.Diff(want, encoded); diff != "" {
			t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
		}

		decoded, err := DecodeCompletion(encoded)
		if err != nil {
			t.Fatalf("DecodeCompletion() error = %v", err)
		}
		if !decoded.Equal(state) {
			t.Errorf("DecodeCompletion() = %v, want %v", decoded, state)
		}
	})

	t.Run("Decode rejects malformed documents", func(t *testing.T) {
		tc := []struct {
			name string
			raw  map[string]bool
		}{
			{name: "non numeric key", raw: map[string]bool{"intro": true}},
			{name: "negative key", raw: map[string]bool{"-1": true}},
			{name: "padded key", raw: map[string]bool{"01": true}},
			{name: "false value", raw: map[string]bool{"2": false}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := DecodeCompletion(tt.raw)
				if !errors.Is(err, shared.ErrInvalidDocument) {
					t.Errorf("expected ErrInvalidDocument, got %v", err)
				}
			})
		}
	})

	t.Run("Clone is independent", func(t *testing.T) {
		state := CompletionState{1: true}
		clone := state.Clone()
		clone[2] = true

		if state.Has(2) {
			t.Error("mutating the clone changed the original")
		}

		var empty CompletionState
		if empty.Clone() == nil {
			t.Error("clone of nil state should be non-nil")
		}
	})

	t.Run("Indices sorted", func(t *testing.T) {
		got := CompletionState{7: true, 1: true, 4: true}.Indices()
		if diff := cmp.Diff([]int{1, 4, 7}, got); diff != "" {
			t.Errorf("Indices() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCompletionEncodingRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		indices := rapid.SliceOfDistinct(rapid.IntRange(0, 500), func(i int) int { return i }).Draw(t, "indices")
		state := CompletionState{}
		for _, i := range indices {
			state[i] = true
		}

		decoded, err := DecodeCompletion(state.Encode())
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !decoded.Equal(state) {
			t.Fatalf("round trip changed state: %v -> %v", state, decoded)
		}
	})
}

func TestProgressDocument(t *testing.T) {
	t.Run("NewProgressDocument is empty and valid", func(t *testing.T) {
		doc := NewProgressDocument("learner-1", "course-1")
		if doc.Progress != 0 || len(doc.StepCompleted) != 0 {
			t.Errorf("expected empty document, got %+v", doc)
		}
		if err := doc.Validate(); err != nil {
			t.Errorf("expected valid document: %v", err)
		}
		if doc.Key() != "learner-1_course-1" {
			t.Errorf("unexpected key %s", doc.Key())
		}
	})

	t.Run("ProgressKey keeps pairs apart", func(t *testing.T) {
		tests := []struct {
			learner, course, want string
		}{
			{"learner-1", "course-1", "learner-1_course-1"},
			{"a_b", "c", "a%5Fb_c"},
			{"a", "b_c", "a_b%5Fc"},
			{"100%", "x", "100%25_x"},
		}
		seen := map[string]bool{}
		for _, tt := range tests {
			got := ProgressKey(tt.learner, tt.course)
			if got != tt.want {
				t.Errorf("ProgressKey(%q, %q) = %q, want %q", tt.learner, tt.course, got, tt.want)
			}
			if seen[got] {
				t.Errorf("duplicate key %q", got)
			}
			seen[got] = true
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name string
			doc  ProgressDocument
		}{
			{name: "missing learner", doc: ProgressDocument{CourseID: "c"}},
			{name: "progress above 100", doc: ProgressDocument{LearnerID: "l", CourseID: "c", Progress: 101}},
			{name: "NaN progress", doc: ProgressDocument{LearnerID: "l", CourseID: "c", Progress: math.NaN()}},
			{name: "negative version", doc: ProgressDocument{LearnerID: "l", CourseID: "c", Version: -1}},
			{name: "bad step key", doc: ProgressDocument{LearnerID: "l", CourseID: "c", StepCompleted: map[string]bool{"x": true}}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.doc.Validate(); !errors.Is(err, shared.ErrInvalidDocument) {
					t.Errorf("expected ErrInvalidDocument, got %v", err)
				}
			})
		}
	})
}

func TestCourse(t *testing.T) {
	course := NewCourse(1, KindTutorial, "Go Basics")
	course.AppendStep(StepRecord{Title: "Introduction"})
	idx := course.AppendStep(StepRecord{Title: "Variables", VideoURL: "https://youtu.be/abc123XYZ9"})

	if idx != 1 || course.TotalSteps() != 2 {
		t.Fatalf("expected 2 steps with last index 1, got %d steps, index %d", course.TotalSteps(), idx)
	}

	step, ok := course.Step(1)
	if !ok || !step.HasVideo() {
		t.Errorf("expected step 1 with video, got %+v (ok=%v)", step, ok)
	}

	if _, ok := course.Step(2); ok {
		t.Error("Step(2) should be out of range")
	}
	if _, ok := course.Step(-1); ok {
		t.Error("Step(-1) should be out of range")
	}

	steps := course.Steps()
	steps[0].Title = "changed"
	if s, _ := course.Step(0); s.Title != "Introduction" {
		t.Error("Steps() should return a copy")
	}

	if err := course.Validate(); err != nil {
		t.Errorf("expected valid course: %v", err)
	}

	course.AppendStep(StepRecord{})
	if err := course.Validate(); err == nil {
		t.Error("expected validation error for untitled step")
	}
}

func TestUser(t *testing.T) {
	user := NewUser(0, "ada@example.com", "Ada")
	if user.Role() != RoleLearner || user.IsAdmin() {
		t.Error("new users should be learners")
	}
	if err := user.Validate(); err != nil {
		t.Errorf("expected valid user: %v", err)
	}

	user.SetRole(RoleAdmin)
	if !user.IsAdmin() {
		t.Error("expected admin after SetRole")
	}

	if err := NewUser(0, "not-an-email", "x").Validate(); err == nil {
		t.Error("expected invalid email error")
	}

	if _, err := ParseRole("Admin "); err != nil {
		t.Errorf("ParseRole should accept mixed case: %v", err)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Error("ParseRole should reject unknown roles")
	}
	if k, _ := ParseKind(""); k != KindCourse {
		t.Errorf("ParseKind(\"\") = %s, want course", k)
	}
}
