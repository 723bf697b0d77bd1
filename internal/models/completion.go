package models

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// CompletionState maps a step index to true when the step is complete.
// Only true values are stored; a missing key means incomplete.
type CompletionState map[int]bool

// Count returns the number of completed steps.
func (c CompletionState) Count() int { return len(c) }

// Has reports whether index is complete.
func (c CompletionState) Has(index int) bool { return c[index] }

// Clone returns an independent copy. A nil state clones to an empty, non-nil map.
func (c CompletionState) Clone() CompletionState {
	out := make(CompletionState, len(c))
	for k, v := range c {
		if v {
			out[k] = true
		}
	}
	return out
}

// Indices returns the completed indices in ascending order.
func (c CompletionState) Indices() []int {
	out := make([]int, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Equal reports whether both states mark the same indices.
func (c CompletionState) Equal(other CompletionState) bool {
	if len(c) != len(other) {
		return false
	}
	for k := range c {
		if !other[k] {
			return false
		}
	}
	return true
}

// Encode converts the state to its document form keyed by decimal index.
func (c CompletionState) Encode() map[string]bool {
	out := make(map[string]bool, len(c))
	for k, v := range c {
		if v {
			out[strconv.Itoa(k)] = true
		}
	}
	return out
}

// DecodeCompletion parses the document form of a completion map.
//
// Keys must be non-negative decimal integers and values must be true; anything else
// fails with [shared.ErrInvalidDocument] rather than being silently dropped.
func DecodeCompletion(raw map[string]bool) (CompletionState, error) {
	out := make(CompletionState, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || strconv.Itoa(idx) != k {
			return nil, fmt.Errorf("%w: step key %q is not a step index", shared.ErrInvalidDocument, k)
		}
		if !v {
			return nil, fmt.Errorf("%w: step %d stored as false", shared.ErrInvalidDocument, idx)
		}
		out[idx] = true
	}
	return out, nil
}
