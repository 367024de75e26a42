package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/media-downloader/internal/event"
	"github.com/ytget/media-downloader/internal/extractor"
	"github.com/ytget/media-downloader/internal/model"
	"github.com/ytget/media-downloader/internal/platform"
	"github.com/ytget/media-downloader/internal/validate"
)

// Enumeration cap applied when the caller passes a non-positive limit
const DefaultMaxItems = 50

// Pacing between successive profile posts, respecting the remote service's
// implicit rate expectations
const postFetchDelay = 500 * time.Millisecond

// Fixed progress checkpoints of a profile fetch
const (
	progressPlatformDetected = 10
	progressFetchStarted     = 30
	progressListingRetrieved = 60
	enumerationProgressSpan  = 30
)

// ProfileCollector enumerates up to a bounded number of videos from a
// profile or channel URL. Instagram profiles go through the post enumerator;
// every other platform uses the extractor's flattened listing.
type ProfileCollector struct {
	extractor  extractor.MetadataExtractor
	enumerator extractor.ProfilePostEnumerator // nil when the capability is unavailable
	sink       event.Sink
	log        *zap.Logger
	postDelay  time.Duration
}

// NewProfileCollector creates a profile collector. The enumerator may be nil;
// Instagram collection then fails with a capability error.
func NewProfileCollector(ex extractor.MetadataExtractor, en extractor.ProfilePostEnumerator, sink event.Sink, log *zap.Logger) *ProfileCollector {
	if sink == nil {
		sink = event.Discard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileCollector{extractor: ex, enumerator: en, sink: sink, log: log, postDelay: postFetchDelay}
}

// Collect enumerates up to maxItems videos from profileURL. The result never
// exceeds maxItems records; an empty profile, a missing capability, and an
// unresolvable profile identifier each fail with a distinct error.
func (c *ProfileCollector) Collect(ctx context.Context, profileURL string, maxItems int) ([]model.VideoRecord, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	p := platform.Detect(profileURL)
	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Detected platform: %s", p)})
	c.sink.Emit(event.Progress{Percent: progressPlatformDetected})

	if p == model.PlatformInstagram {
		return c.collectInstagram(ctx, profileURL, maxItems)
	}
	return c.collectFlat(ctx, profileURL, p, maxItems)
}

// collectInstagram walks the profile's posts through the enumerator,
// keeping only video posts.
func (c *ProfileCollector) collectInstagram(ctx context.Context, profileURL string, maxItems int) ([]model.VideoRecord, error) {
	if c.enumerator == nil {
		return nil, &extractor.CapabilityError{
			Capability: "Instagram profile enumeration",
			Hint:       "no post enumerator is configured; download individual post URLs instead",
		}
	}

	handle, ok := platform.ExtractProfileHandle(profileURL)
	if !ok {
		return nil, fmt.Errorf("could not extract Instagram username from URL")
	}

	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Fetching Instagram profile: @%s", handle)})
	c.sink.Emit(event.Progress{Percent: progressFetchStarted})

	posts, err := c.enumerator.Posts(ctx, handle)
	if err != nil {
		return nil, c.instagramError(err)
	}

	var records []model.VideoRecord
	count := 0
	for count < maxItems {
		post, err := posts.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			return records, c.instagramError(err)
		}
		if post == nil {
			break
		}
		count++

		if post.IsVideo {
			title := post.Caption
			if title == "" {
				title = genericTitle
			}
			records = append(records, model.VideoRecord{
				ID:        post.ID,
				Title:     model.TruncateTitle(firstLine(title)),
				URL:       platform.PostURL(post.ID),
				Thumbnail: post.MediaURL,
				Duration:  post.Duration,
				ViewCount: post.ViewCount,
				LikeCount: post.LikeCount,
			})
			c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Found video %d: %s", len(records), post.ID)})
		}

		c.sink.Emit(event.Progress{
			Percent: progressListingRetrieved + count*enumerationProgressSpan/maxItems,
		})

		select {
		case <-time.After(c.postDelay):
		case <-ctx.Done():
			return records, ctx.Err()
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no videos found in this Instagram profile")
	}

	c.sink.Emit(event.Progress{Percent: progressDone})
	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Found %d videos from Instagram", len(records))})
	return records, nil
}

// instagramError converts classified enumerator failures into actionable
// guidance instead of raw error propagation.
func (c *ProfileCollector) instagramError(err error) error {
	c.log.Error("instagram profile fetch failed", zap.Error(err))
	switch extractor.KindOf(err) {
	case extractor.KindPrivate:
		return fmt.Errorf("this Instagram profile is private; download individual post URLs instead")
	case extractor.KindRateLimited:
		return fmt.Errorf("Instagram rate limit reached; wait 10-15 minutes before retrying")
	}
	return fmt.Errorf("Instagram error: %w", err)
}

// collectFlat uses the extractor's flattened listing for non-Instagram
// platforms, reconstructing item URLs from ids where the listing omits them.
func (c *ProfileCollector) collectFlat(ctx context.Context, profileURL string, p model.Platform, maxItems int) ([]model.VideoRecord, error) {
	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Fetching %s profile...", p)})
	c.sink.Emit(event.Progress{Percent: progressFetchStarted})

	entries, err := c.extractor.FlatList(ctx, profileURL, maxItems)
	if err != nil {
		return nil, fmt.Errorf("could not fetch profile information: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no videos found in this %s profile", p)
	}

	c.sink.Emit(event.Progress{Percent: progressListingRetrieved})

	records := make([]model.VideoRecord, 0, len(entries))
	for i, md := range entries {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		if len(records) >= maxItems {
			break
		}

		id := md.ID
		if id == "" {
			id = fmt.Sprintf("video_%d", i)
		}

		url := md.URL
		if url == "" {
			url = md.WebpageURL
		}
		if !strings.HasPrefix(url, "http") {
			if rebuilt, ok := platform.VideoURLFromID(p, id); ok {
				url = rebuilt
			}
		}
		if !validate.IsValidURL(url) {
			c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Skipping entry %s: no usable URL", id)})
			c.log.Warn("listing entry without usable URL", zap.String("id", id), zap.String("platform", p.String()))
			continue
		}

		title := md.Title
		if title == "" {
			title = genericTitle
		}
		records = append(records, model.VideoRecord{
			ID:        id,
			Title:     model.TruncateTitle(title),
			URL:       url,
			Thumbnail: md.Thumbnail,
			Duration:  md.Duration,
			ViewCount: md.ViewCount,
			LikeCount: md.LikeCount,
		})

		c.sink.Emit(event.Progress{
			Percent: progressListingRetrieved + i*enumerationProgressSpan/len(entries),
		})
	}

	c.sink.Emit(event.Progress{Percent: progressDone})

	if len(records) == 0 {
		return nil, fmt.Errorf("no videos found in profile")
	}
	c.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Found %d videos from %s", len(records), p)})
	return records, nil
}
