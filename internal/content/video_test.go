package content

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestExtractVideoID(t *testing.T) {
	tc := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "short link", in: "https://youtu.be/abc123XYZ9", want: "abc123XYZ9", wantOK: true},
		{name: "watch", in: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "watch with extra params", in: "https://youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=42s", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "embed", in: "https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "shorts", in: "https://youtube.com/shorts/a-b_c", want: "a-b_c", wantOK: true},
		{name: "mobile", in: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "nocookie", in: "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "no scheme", in: "youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "not a url", in: "not a url", wantOK: false},
		{name: "empty", in: "", wantOK: false},
		{name: "other host", in: "https://vimeo.com/123456", wantOK: false},
		{name: "watch without id", in: "https://www.youtube.com/watch", wantOK: false},
		{name: "channel page", in: "https://www.youtube.com/@golang", wantOK: false},
		{name: "bad id characters", in: "https://youtu.be/abc$def", wantOK: false},
		{name: "ftp scheme", in: "ftp://youtu.be/dQw4w9WgXcQ", wantOK: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVideoRef(t *testing.T) {
	ref := ParseVideoRef("https://youtu.be/abc123XYZ9")
	if !ref.Valid {
		t.Fatal("expected valid reference")
	}
	if got := ref.EmbedURL(); got != "https://www.youtube.com/embed/abc123XYZ9" {
		t.Errorf("EmbedURL() = %q", got)
	}
	if got := ref.WatchURL(); got != "https://www.youtube.com/watch?v=abc123XYZ9" {
		t.Errorf("WatchURL() = %q", got)
	}

	missing := ParseVideoRef("not a url")
	if missing.Valid || missing.EmbedURL() != "" || missing.WatchURL() != "" {
		t.Errorf("expected empty reference, got %+v", missing)
	}
}

func TestExtractVideoID_NeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.String().Draw(t, "url")
		id, ok := ExtractVideoID(in)
		if ok == (id == "") {
			t.Fatalf("ExtractVideoID(%q) = (%q, %v): ok must match a non-empty id", in, id, ok)
		}
	})
}

func TestExtractVideoID_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[A-Za-z0-9_-]{1,20}`).Draw(t, "id")
		form := rapid.SampledFrom([]string{
			"https://youtu.be/%s",
			"https://www.youtube.com/watch?v=%s",
			"https://www.youtube.com/embed/%s",
			"https://youtube.com/shorts/%s",
		}).Draw(t, "form")

		in := fmt.Sprintf(form, id)
		got, ok := ExtractVideoID(in)
		if !ok || got != id {
			t.Fatalf("ExtractVideoID(%q) = (%q, %v), want %q", in, got, ok, id)
		}
	})
}
