package model

// Title length cap applied at record creation
const MaxTitleLength = 100

// Platform identifies the content source a URL belongs to
type Platform string

const (
	PlatformTikTok    Platform = "TikTok"
	PlatformYouTube   Platform = "YouTube"
	PlatformInstagram Platform = "Instagram"
	PlatformFacebook  Platform = "Facebook"
	PlatformUnknown   Platform = "Unknown"
)

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// VideoRecord is the canonical description of one downloadable item.
// ID and Title are guaranteed non-empty after collection and Title never
// exceeds MaxTitleLength characters.
type VideoRecord struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration"`
	ViewCount int64   `json:"view_count"`
	LikeCount int64   `json:"like_count"`
}

// TruncateTitle caps a title at MaxTitleLength characters
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength])
	}
	return title
}
