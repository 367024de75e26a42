package platform

import (
	"testing"

	"github.com/ytget/media-downloader/internal/model"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		url  string
		want model.Platform
	}{
		{"https://www.tiktok.com/@someone/video/123", model.PlatformTikTok},
		{"https://www.youtube.com/watch?v=abc", model.PlatformYouTube},
		{"https://youtu.be/abc", model.PlatformYouTube},
		{"https://www.instagram.com/p/ABC123/", model.PlatformInstagram},
		{"https://www.facebook.com/watch/?v=1", model.PlatformFacebook},
		{"https://fb.com/video/1", model.PlatformFacebook},
		{"HTTPS://WWW.TIKTOK.COM/@X", model.PlatformTikTok},
		{"https://example.com/video", model.PlatformUnknown},
		{"", model.PlatformUnknown},
	}

	for _, c := range cases {
		if got := Detect(c.url); got != c.want {
			t.Errorf("Detect(%q) = %s, want %s", c.url, got, c.want)
		}
	}
}

func TestDetectOrderTikTokFirst(t *testing.T) {
	// a pathological URL mentioning two platforms resolves in detection order
	url := "https://tiktok.com/share?from=youtube.com"
	if got := Detect(url); got != model.PlatformTikTok {
		t.Errorf("Expected TikTok to win detection order, got %s", got)
	}
}

func TestExtractProfileHandle(t *testing.T) {
	cases := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.instagram.com/natgeo", "natgeo", true},
		{"https://www.instagram.com/natgeo/", "natgeo", true},
		{"https://www.instagram.com/natgeo?hl=en", "natgeo", true},
		{"https://www.instagram.com/@natgeo/", "natgeo", true},
		{"https://www.youtube.com/@channel", "", false},
		{"https://www.instagram.com/", "", false},
	}

	for _, c := range cases {
		got, ok := ExtractProfileHandle(c.url)
		if ok != c.wantOK || got != c.want {
			t.Errorf("ExtractProfileHandle(%q) = (%q, %v), want (%q, %v)", c.url, got, ok, c.want, c.wantOK)
		}
	}
}

func TestVideoURLFromID(t *testing.T) {
	if got, ok := VideoURLFromID(model.PlatformTikTok, "999"); !ok || got != "https://www.tiktok.com/@user/video/999" {
		t.Errorf("Unexpected TikTok URL: %q (%v)", got, ok)
	}
	if got, ok := VideoURLFromID(model.PlatformYouTube, "abc"); !ok || got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("Unexpected YouTube URL: %q (%v)", got, ok)
	}
	if _, ok := VideoURLFromID(model.PlatformFacebook, "1"); ok {
		t.Error("Expected no template for Facebook")
	}
}

func TestPostURL(t *testing.T) {
	if got := PostURL("ABC123"); got != "https://www.instagram.com/p/ABC123/" {
		t.Errorf("Unexpected post URL: %q", got)
	}
}
