// Package extractor defines the contracts the core needs from the external
// media-extraction collaborators (metadata resolution, byte transfer, profile
// post enumeration), the typed error kinds used to classify their failures,
// and the yt-dlp backed implementation of the metadata side.
package extractor

import "context"

// Metadata describes one media item as resolved by the extractor. Zero
// values mean the source did not report the field.
type Metadata struct {
	ID          string
	Title       string
	Description string
	Thumbnail   string
	Uploader    string
	UploadDate  string
	URL         string
	WebpageURL  string
	Duration    float64
	ViewCount   int64
	LikeCount   int64
}

// TransferProgress reports byte-level progress of one in-flight transfer.
// TotalBytes is zero while the total is unknown.
type TransferProgress struct {
	DownloadedBytes int64
	TotalBytes      int64
}

// Percent returns downloaded/total*100, or -1 while the total is unknown
func (p TransferProgress) Percent() int {
	if p.TotalBytes <= 0 {
		return -1
	}
	return int(float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100)
}

// ProgressFunc receives transfer progress updates. It is invoked zero or
// more times on the transfer goroutine.
type ProgressFunc func(TransferProgress)

// MetadataExtractor resolves URLs to metadata and performs byte transfers.
// All operations honor context cancellation.
type MetadataExtractor interface {
	// FetchInfo resolves a URL to descriptive metadata without transferring
	// media bytes. Fails with *ExtractionError.
	FetchInfo(ctx context.Context, url string) (*Metadata, error)

	// Download transfers the media behind url into outputTemplate (a path
	// ending in an extractor-chosen extension placeholder), relaying progress
	// through fn. Fails with *DownloadError.
	Download(ctx context.Context, url, outputTemplate string, fn ProgressFunc) error

	// FlatList returns up to maxItems entries of a profile/channel listing
	// without resolving each entry. Fails with *ExtractionError.
	FlatList(ctx context.Context, url string, maxItems int) ([]*Metadata, error)
}

// PostRef is one post of a profile as yielded by a ProfilePostEnumerator
type PostRef struct {
	ID        string
	IsVideo   bool
	Caption   string
	MediaURL  string
	Duration  float64
	ViewCount int64
	LikeCount int64
}

// PostIterator yields a profile's posts lazily. Next returns (nil, nil) once
// the profile is exhausted; enumeration is not restartable mid-sequence.
type PostIterator interface {
	Next(ctx context.Context) (*PostRef, error)
}

// ProfilePostEnumerator opens a lazy, finite post sequence for a profile
// handle. A nil enumerator means the capability is unavailable at runtime.
type ProfilePostEnumerator interface {
	Posts(ctx context.Context, handle string) (PostIterator, error)
}
