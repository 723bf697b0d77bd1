package models

import (
	"fmt"
	"strings"
)

// StepRecord is one unit of course or tutorial content. Position in the parent slice is the step index.
type StepRecord struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"videoURL,omitempty"`
	CodeSnippet string `json:"codeSnippet,omitempty"`
}

// HasVideo reports whether the step references a video.
func (s StepRecord) HasVideo() bool { return strings.TrimSpace(s.VideoURL) != "" }

// Validate requires a title.
func (s StepRecord) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("step title is required")
	}
	return nil
}
