// package services implements clients for the remote HTTP APIs olp talks to
//
// Firestore (progress documents), YouTube oEmbed (video metadata)
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

// VideoLookup resolves display metadata for a video reference.
type VideoLookup interface {
	// Lookup accepts any URL form recognized by content.ExtractVideoID.
	Lookup(ctx context.Context, videoURL string) (*VideoInfo, error)
}

// VideoInfo is the authoring metadata for a YouTube video.
type VideoInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	AuthorURL    string `json:"authorUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	EmbedURL     string `json:"embedUrl"`
}

// apiError is the error envelope shared by Google APIs.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// readAPIError builds an error from a non-2xx response, preferring the API's own message.
func readAPIError(resp *http.Response, sentinel error) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("%w (status %d, %s): %s", sentinel, resp.StatusCode, e.Error.Status, e.Error.Message)
	}
	return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
}

// statusError maps common HTTP failures onto shared sentinels.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return readAPIError(resp, shared.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return readAPIError(resp, shared.ErrServiceUnavailable)
	default:
		return readAPIError(resp, shared.ErrAPIRequest)
	}
}
