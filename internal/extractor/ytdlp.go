package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// Transfer settings
const (
	DefaultFormat           = "best"
	ProgressUpdateFrequency = 500 * time.Millisecond
)

// YTDLP implements MetadataExtractor on top of the yt-dlp binary via
// github.com/lrstanley/go-ytdlp.
type YTDLP struct {
	log *zap.Logger
}

// NewYTDLP creates the yt-dlp backed extractor
func NewYTDLP(log *zap.Logger) *YTDLP {
	if log == nil {
		log = zap.NewNop()
	}
	return &YTDLP{log: log}
}

// rawInfo mirrors the subset of yt-dlp's JSON dump the core reads. Numeric
// fields stay float64 because yt-dlp emits them untyped.
type rawInfo struct {
	ID          string    `json:"id"`
	DisplayID   string    `json:"display_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Uploader    string    `json:"uploader"`
	Channel     string    `json:"channel"`
	UploadDate  string    `json:"upload_date"`
	URL         string    `json:"url"`
	WebpageURL  string    `json:"webpage_url"`
	Duration    float64   `json:"duration"`
	ViewCount   float64   `json:"view_count"`
	LikeCount   float64   `json:"like_count"`
	Entries     []rawInfo `json:"entries"`
}

// FetchInfo resolves a URL to metadata without transferring media bytes
func (y *YTDLP) FetchInfo(ctx context.Context, url string) (*Metadata, error) {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		y.log.Debug("info fetch failed", zap.String("url", url), zap.Error(err))
		return nil, &ExtractionError{URL: url, Kind: classifyKind(err), Err: err}
	}

	info, err := parseInfoJSON(result.Stdout)
	if err != nil {
		return nil, &ExtractionError{URL: url, Kind: KindUnknown, Err: err}
	}
	return info.toMetadata(), nil
}

// Download transfers the media behind url into outputTemplate, relaying
// byte-level progress through fn. Context cancellation terminates the
// in-flight transfer.
func (y *YTDLP) Download(ctx context.Context, url, outputTemplate string, fn ProgressFunc) error {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		Format(DefaultFormat).
		Output(outputTemplate)

	if fn != nil {
		dl.ProgressFunc(ProgressUpdateFrequency, func(update ytdlp.ProgressUpdate) {
			fn(TransferProgress{
				DownloadedBytes: int64(update.DownloadedBytes),
				TotalBytes:      int64(update.TotalBytes),
			})
		})
	}

	if _, err := dl.Run(ctx, url); err != nil {
		y.log.Debug("transfer failed", zap.String("url", url), zap.Error(err))
		return &DownloadError{URL: url, Kind: classifyKind(err), Err: err}
	}
	return nil
}

// FlatList fetches up to maxItems entries of a profile/channel listing
// without resolving each entry.
func (y *YTDLP) FlatList(ctx context.Context, url string, maxItems int) ([]*Metadata, error) {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		FlatPlaylist().
		DumpSingleJSON()
	if maxItems > 0 {
		dl = dl.PlaylistEnd(maxItems)
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		y.log.Debug("flat listing failed", zap.String("url", url), zap.Error(err))
		return nil, &ExtractionError{URL: url, Kind: classifyKind(err), Err: err}
	}

	info, err := parseInfoJSON(result.Stdout)
	if err != nil {
		return nil, &ExtractionError{URL: url, Kind: KindUnknown, Err: err}
	}

	entries := make([]*Metadata, 0, len(info.Entries))
	for i := range info.Entries {
		if maxItems > 0 && len(entries) >= maxItems {
			break
		}
		entries = append(entries, info.Entries[i].toMetadata())
	}
	return entries, nil
}

// parseInfoJSON decodes a single yt-dlp JSON dump
func parseInfoJSON(output string) (*rawInfo, error) {
	var info rawInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// toMetadata converts the raw dump into the extractor contract type
func (r *rawInfo) toMetadata() *Metadata {
	uploader := r.Uploader
	if uploader == "" {
		uploader = r.Channel
	}
	id := r.ID
	if id == "" {
		id = r.DisplayID
	}
	return &Metadata{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Thumbnail:   r.Thumbnail,
		Uploader:    uploader,
		UploadDate:  r.UploadDate,
		URL:         r.URL,
		WebpageURL:  r.WebpageURL,
		Duration:    r.Duration,
		ViewCount:   int64(r.ViewCount),
		LikeCount:   int64(r.LikeCount),
	}
}
