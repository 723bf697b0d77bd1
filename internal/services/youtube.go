package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
)

const defaultOEmbedURL string = "https://www.youtube.com/oembed"

// oembedResponse is the subset of the oEmbed payload we use.
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	ProviderName string `json:"provider_name"`
}

// OEmbedService implements [VideoLookup] with the public YouTube oEmbed endpoint. No credentials are needed.
type OEmbedService struct {
	endpoint   string
	httpClient *http.Client
}

// NewOEmbedService creates a lookup client. An empty endpoint selects the public one.
func NewOEmbedService(endpoint string, client *http.Client) *OEmbedService {
	if endpoint == "" {
		endpoint = defaultOEmbedURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OEmbedService{endpoint: endpoint, httpClient: client}
}

// Lookup fetches title, channel and thumbnail for the video referenced by videoURL.
//
// Unrecognized URLs fail with [shared.ErrInvalidInput] without a request. Private, removed
// and unknown videos fail with [shared.ErrVideoNotFound].
func (s *OEmbedService) Lookup(ctx context.Context, videoURL string) (*VideoInfo, error) {
	ref := content.ParseVideoRef(videoURL)
	if !ref.Valid {
		return nil, fmt.Errorf("%w: not a YouTube video URL: %q", shared.ErrInvalidInput, videoURL)
	}

	q := url.Values{}
	q.Set("url", ref.WatchURL())
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s (status %d)", shared.ErrVideoNotFound, ref.ID, resp.StatusCode)
	default:
		return nil, statusError(resp)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &VideoInfo{
		ID:           ref.ID,
		Title:        payload.Title,
		Author:       payload.AuthorName,
		AuthorURL:    payload.AuthorURL,
		ThumbnailURL: payload.ThumbnailURL,
		EmbedURL:     ref.EmbedURL(),
	}, nil
}
