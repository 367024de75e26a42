package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ytget/media-downloader/internal/event"
	"github.com/ytget/media-downloader/internal/extractor"
	"github.com/ytget/media-downloader/internal/model"
	"github.com/ytget/media-downloader/internal/platform"
	"github.com/ytget/media-downloader/internal/validate"
)

// Pause between consecutive downloads when the caller does not set one
const DefaultRateLimitDelay = 2 * time.Second

// Titles are shortened before they appear in outcome messages
const messageTitleLimit = 50

// Id length caps used by the filename formats
const (
	idOnlyLimit   = 30
	idSuffixLimit = 10
)

// Options configures a single batch run
type Options struct {
	SaveDir        string
	Format         model.FilenameFormat
	RateLimitDelay time.Duration
}

// Service runs download batches sequentially. One batch at a time; a second
// Run while one is in flight fails immediately.
type Service struct {
	extractor extractor.MetadataExtractor
	sink      event.Sink
	log       *zap.Logger

	mu    sync.Mutex
	state model.BatchState
}

// NewService creates a download service. A nil sink discards events; a nil
// logger is replaced with a nop logger.
func NewService(ex extractor.MetadataExtractor, sink event.Sink, log *zap.Logger) *Service {
	if sink == nil {
		sink = event.Discard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{extractor: ex, sink: sink, log: log, state: model.BatchIdle}
}

// State returns the current batch lifecycle state
func (s *Service) State() model.BatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run processes records in order and returns the aggregate summary. Every
// item yields exactly one ItemOutcome event: success, failure, or a skip
// when a file containing the item's id already exists in the save directory.
// A per-item failure never stops the batch; cancellation does, at the next
// item boundary or mid-transfer.
func (s *Service) Run(ctx context.Context, records []model.VideoRecord, opts Options) (model.BatchSummary, error) {
	if err := s.begin(); err != nil {
		return model.BatchSummary{}, err
	}

	summary, err := s.run(ctx, records, opts)

	s.mu.Lock()
	switch {
	case summary.Cancelled:
		s.state = model.BatchCancelled
	case err != nil:
		// nothing was processed; the run never really started
		s.state = model.BatchIdle
	default:
		s.state = model.BatchCompleted
	}
	s.mu.Unlock()

	return summary, err
}

// begin transitions Idle -> Running, rejecting concurrent runs
func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.BatchRunning {
		return fmt.Errorf("a download batch is already running")
	}
	s.state = model.BatchRunning
	return nil
}

func (s *Service) run(ctx context.Context, records []model.VideoRecord, opts Options) (model.BatchSummary, error) {
	summary := model.BatchSummary{Total: len(records)}

	if len(records) == 0 {
		return summary, fmt.Errorf("no videos to download")
	}
	if !opts.Format.IsValid() {
		return summary, fmt.Errorf("unknown filename format: %d", opts.Format)
	}
	if opts.RateLimitDelay <= 0 {
		opts.RateLimitDelay = DefaultRateLimitDelay
	}

	saveDir := validate.SanitizePath(opts.SaveDir)
	if err := platform.EnsureDir(saveDir); err != nil {
		return summary, fmt.Errorf("could not prepare save directory: %w", err)
	}

	batchID := uuid.NewString()
	log := s.log.With(zap.String("batch_id", batchID))
	log.Info("batch started",
		zap.Int("items", len(records)),
		zap.String("save_dir", saveDir))

	for i, rec := range records {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		idx := i + 1

		if s.alreadyDownloaded(saveDir, rec.ID) {
			summary.Success++
			msg := "Already exists: " + shortTitle(rec.Title)
			s.sink.Emit(event.StatusLine{Text: msg})
			s.sink.Emit(event.ItemOutcome{Outcome: model.DownloadOutcome{
				VideoID:            rec.ID,
				Success:            true,
				Message:            msg,
				SkippedAsDuplicate: true,
			}})
			log.Info("duplicate skipped", zap.String("video_id", rec.ID))
			continue
		}

		name := deriveFilename(rec, idx, opts.Format)
		template := filepath.Join(saveDir, name+".%(ext)s")
		if filepath.Dir(template) != saveDir {
			summary.Failed++
			s.emitFailure(rec.ID, "Failed: output path escapes save directory")
			log.Error("output path escaped save directory",
				zap.String("video_id", rec.ID), zap.String("name", name))
			continue
		}

		s.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Downloading %d/%d: %s", idx, len(records), shortTitle(rec.Title))})

		err := s.extractor.Download(ctx, rec.URL, template, func(p extractor.TransferProgress) {
			if percent := p.Percent(); percent >= 0 {
				s.sink.Emit(event.Progress{Percent: percent, VideoID: rec.ID})
			}
		})

		switch {
		case err != nil && ctx.Err() != nil:
			summary.Failed++
			summary.Cancelled = true
			s.emitFailure(rec.ID, "cancelled")
			log.Warn("download cancelled mid-transfer", zap.String("video_id", rec.ID))

		case err != nil:
			summary.Failed++
			s.emitFailure(rec.ID, "Failed: "+shortTitle(err.Error()))
			log.Error("download failed",
				zap.String("video_id", rec.ID),
				zap.String("kind", extractor.KindOf(err).String()),
				zap.Error(err))

		default:
			summary.Success++
			msg := "Downloaded: " + shortTitle(rec.Title)
			s.sink.Emit(event.ItemOutcome{Outcome: model.DownloadOutcome{
				VideoID: rec.ID,
				Success: true,
				Message: msg,
			}})
			log.Info("download completed", zap.String("video_id", rec.ID))
		}

		if summary.Cancelled {
			break
		}

		if i < len(records)-1 {
			select {
			case <-time.After(opts.RateLimitDelay):
			case <-ctx.Done():
				summary.Cancelled = true
			}
		}
	}

	if summary.Cancelled {
		log.Warn("batch cancelled",
			zap.Int("success", summary.Success), zap.Int("failed", summary.Failed))
		return summary, ctx.Err()
	}

	s.sink.Emit(event.StatusLine{Text: fmt.Sprintf("Complete! Success: %d, Failed: %d", summary.Success, summary.Failed)})
	s.sink.Emit(event.BatchFinished{Summary: summary})
	log.Info("batch finished",
		zap.Int("success", summary.Success), zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Service) emitFailure(videoID, msg string) {
	s.sink.Emit(event.StatusLine{Text: msg})
	s.sink.Emit(event.ItemOutcome{Outcome: model.DownloadOutcome{
		VideoID: videoID,
		Success: false,
		Message: msg,
	}})
}

// alreadyDownloaded reports whether any file in dir contains videoID in its
// name. Substring matching keeps files found regardless of which filename
// format produced them; short ids may collide across items.
func (s *Service) alreadyDownloaded(dir, videoID string) bool {
	if videoID == "" {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), videoID) {
			return true
		}
	}
	return false
}

// deriveFilename builds the output base name for one record. index is
// 1-based. The result is sanitized twice: once per component and once on the
// assembled name, so the assembled form also satisfies the filename rules.
func deriveFilename(rec model.VideoRecord, index int, format model.FilenameFormat) string {
	title := validate.SanitizeFilename(rec.Title)

	var name string
	switch format {
	case model.FormatVideoID:
		name = rec.ID
		if len(name) > idOnlyLimit {
			name = name[:idOnlyLimit]
		}
	case model.FormatIndexTitleID:
		id := rec.ID
		if len(id) > idSuffixLimit {
			id = id[:idSuffixLimit]
		}
		name = fmt.Sprintf("%02d_%s_%s", index, title, id)
	case model.FormatTitleOnly:
		name = title
	default:
		name = fmt.Sprintf("%02d_%s", index, title)
	}

	return validate.SanitizeFilename(name)
}

// shortTitle caps a string at messageTitleLimit runes for status output
func shortTitle(s string) string {
	runes := []rune(s)
	if len(runes) > messageTitleLimit {
		return string(runes[:messageTitleLimit])
	}
	return s
}
