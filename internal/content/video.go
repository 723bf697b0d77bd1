package content

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// pathPrefixes are the youtube.com paths whose next segment is the video id.
var pathPrefixes = []string{"embed", "shorts", "v", "live"}

// VideoRef is a possibly-absent YouTube video id, in the style of sql.NullString.
type VideoRef struct {
	ID    string
	Valid bool
}

// ParseVideoRef wraps [ExtractVideoID].
func ParseVideoRef(raw string) VideoRef {
	id, ok := ExtractVideoID(raw)
	return VideoRef{ID: id, Valid: ok}
}

// EmbedURL returns the iframe URL, or "" when the reference is absent.
func (v VideoRef) EmbedURL() string {
	if !v.Valid {
		return ""
	}
	return EmbedURL(v.ID)
}

// WatchURL returns the canonical watch page, or "".
func (v VideoRef) WatchURL() string {
	if !v.Valid {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.ID
}

// EmbedURL builds the embed URL for a video id.
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id
}

// ExtractVideoID returns the video id referenced by a YouTube URL.
//
// Recognized forms are youtube.com/watch?v=ID, youtu.be/ID and youtube.com/{embed,shorts,v,live}/ID
// on the www, m and music subdomains and youtube-nocookie.com. A missing scheme is tolerated.
// Any other input, including the empty string, returns "", false.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	for _, sub := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, sub)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "youtube-nocookie.com":
		if segments[0] == "watch" {
			id = u.Query().Get("v")
			break
		}
		if len(segments) >= 2 {
			for _, p := range pathPrefixes {
				if segments[0] == p {
					id = segments[1]
					break
				}
			}
		}
	default:
		return "", false
	}

	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
