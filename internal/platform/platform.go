package platform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ytget/media-downloader/internal/model"
)

// Domain fragments checked during detection, first match wins
const (
	domainTikTok       = "tiktok.com"
	domainYouTube      = "youtube.com"
	domainYouTubeShort = "youtu.be"
	domainInstagram    = "instagram.com"
	domainFacebook     = "facebook.com"
	domainFBShort      = "fb.com"
)

// URL templates for entries that expose only an id
const (
	TikTokVideoURLTemplate  = "https://www.tiktok.com/@user/video/%s"
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
	InstagramPostURLFormat  = "https://www.instagram.com/p/%s/"
)

var instagramHandlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`instagram\.com/@([^/?]+)`),
	regexp.MustCompile(`instagram\.com/([^/?]+)`),
}

// Detect classifies a URL into a known platform by case-insensitive substring
// match. Detection order is TikTok, YouTube, Instagram, Facebook.
func Detect(url string) model.Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, domainTikTok):
		return model.PlatformTikTok
	case strings.Contains(lower, domainYouTube), strings.Contains(lower, domainYouTubeShort):
		return model.PlatformYouTube
	case strings.Contains(lower, domainInstagram):
		return model.PlatformInstagram
	case strings.Contains(lower, domainFacebook), strings.Contains(lower, domainFBShort):
		return model.PlatformFacebook
	}
	return model.PlatformUnknown
}

// ExtractProfileHandle pulls an Instagram profile handle out of a URL,
// stripped of query string and trailing slashes. Returns false when no
// pattern matches.
func ExtractProfileHandle(url string) (string, bool) {
	for _, pattern := range instagramHandlePatterns {
		match := pattern.FindStringSubmatch(url)
		if match == nil {
			continue
		}
		handle := match[1]
		if idx := strings.Index(handle, "?"); idx >= 0 {
			handle = handle[:idx]
		}
		handle = strings.Trim(handle, "/")
		if handle != "" {
			return handle, true
		}
	}
	return "", false
}

// VideoURLFromID reconstructs a watchable URL from a bare item id for the
// platforms with a fixed template. Returns false for other platforms.
func VideoURLFromID(p model.Platform, id string) (string, bool) {
	switch p {
	case model.PlatformTikTok:
		return fmt.Sprintf(TikTokVideoURLTemplate, id), true
	case model.PlatformYouTube:
		return fmt.Sprintf(YouTubeVideoURLTemplate, id), true
	}
	return "", false
}

// PostURL builds the canonical Instagram post URL for a shortcode
func PostURL(shortcode string) string {
	return fmt.Sprintf(InstagramPostURLFormat, shortcode)
}
