// Package collect turns user-supplied URLs and profile references into
// validated VideoRecords. Collectors isolate per-item failures: a bad URL or
// a failed extraction skips that item with a warning event and the batch
// continues.
package collect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ytget/media-downloader/internal/event"
	"github.com/ytget/media-downloader/internal/extractor"
	"github.com/ytget/media-downloader/internal/model"
	"github.com/ytget/media-downloader/internal/platform"
	"github.com/ytget/media-downloader/internal/validate"
)

// Progress scale during collection; the remainder is reported on completion
const (
	collectProgressSpan = 90
	progressDone        = 100
)

// Generic title yt-dlp reports when a source has none
const genericTitle = "Untitled"

// Failure messages are truncated before they reach the status stream
const maxFailureMessageLength = 50

// MetadataCollector resolves a list of URLs to VideoRecords via the
// metadata extractor's info-only mode.
type MetadataCollector struct {
	extractor extractor.MetadataExtractor
	sink      event.Sink
	log       *zap.Logger
}

// NewMetadataCollector creates a metadata collector. A nil sink discards
// events; a nil logger is replaced with a nop logger.
func NewMetadataCollector(ex extractor.MetadataExtractor, sink event.Sink, log *zap.Logger) *MetadataCollector {
	if sink == nil {
		sink = event.Discard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MetadataCollector{extractor: ex, sink: sink, log: log}
}

// Collect walks urls in order and returns one VideoRecord per resolvable
// URL. Invalid URLs and per-URL extraction failures are skipped with a
// warning event; only an empty result is an error. On cancellation the
// records collected so far are returned alongside the context error.
func (c *MetadataCollector) Collect(ctx context.Context, urls []string) ([]model.VideoRecord, error) {
	records := make([]model.VideoRecord, 0, len(urls))
	total := len(urls)

	for i, url := range urls {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		idx := i + 1

		if !validate.IsValidURL(url) {
			c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Invalid URL %d: skipping", idx)})
			c.log.Warn("invalid URL rejected", zap.String("url", url))
			continue
		}

		c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Extracting info %d/%d...", idx, total)})
		c.sink.Emit(event.Progress{Percent: idx * collectProgressSpan / total})

		md, err := c.extractor.FetchInfo(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			c.sink.Emit(event.StatusLine{Text: "Failed: " + truncateMessage(err.Error(), maxFailureMessageLength)})
			c.log.Error("info extraction failed", zap.String("url", url), zap.Error(err))
			continue
		}

		records = append(records, buildRecord(idx, url, md))
	}

	c.sink.Emit(event.Progress{Percent: progressDone})

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid URLs found")
	}
	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Loaded %d videos", len(records))})
	return records, nil
}

// buildRecord assembles a VideoRecord with the id and title fallback chain
func buildRecord(idx int, url string, md *extractor.Metadata) model.VideoRecord {
	id := md.ID
	if id == "" {
		id = fmt.Sprintf("video_%d", idx)
	}

	return model.VideoRecord{
		ID:        id,
		Title:     model.TruncateTitle(deriveTitle(url, md)),
		URL:       url,
		Thumbnail: md.Thumbnail,
		Duration:  md.Duration,
		ViewCount: md.ViewCount,
		LikeCount: md.LikeCount,
	}
}

// deriveTitle picks a usable title: Instagram captions beat the generic
// title, and uploader+date stands in when nothing usable exists.
func deriveTitle(url string, md *extractor.Metadata) string {
	title := md.Title

	if platform.Detect(url) == model.PlatformInstagram &&
		md.Description != "" && md.Description != md.Title {
		title = firstLine(md.Description)
	}

	if title == "" || title == genericTitle {
		uploader := md.Uploader
		if uploader == "" {
			uploader = "unknown"
		}
		if md.UploadDate != "" {
			return uploader + "_" + md.UploadDate
		}
		return uploader + "_video"
	}
	return title
}

// firstLine returns the text up to the first newline
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// truncateMessage caps a message at limit runes
func truncateMessage(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
