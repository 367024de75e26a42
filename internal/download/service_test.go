package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ytget/media-downloader/internal/event"
	"github.com/ytget/media-downloader/internal/extractor"
	"github.com/ytget/media-downloader/internal/model"
)

// fakeDownloader records Download calls and writes a file per success
type fakeDownloader struct {
	mu       sync.Mutex
	calls    []string
	failURLs map[string]error
	progress []extractor.TransferProgress
	onStart  func(ctx context.Context) error
}

func (f *fakeDownloader) FetchInfo(context.Context, string) (*extractor.Metadata, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDownloader) FlatList(context.Context, string, int) ([]*extractor.Metadata, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDownloader) Download(ctx context.Context, url, template string, fn extractor.ProgressFunc) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.onStart != nil {
		if err := f.onStart(ctx); err != nil {
			return err
		}
	}
	if err, ok := f.failURLs[url]; ok {
		return err
	}
	for _, p := range f.progress {
		if fn != nil {
			fn(p)
		}
	}
	path := strings.Replace(template, "%(ext)s", "mp4", 1)
	return os.WriteFile(path, []byte("stub"), 0o644)
}

func (f *fakeDownloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// captureSink records events in order
type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureSink) Emit(e event.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *captureSink) outcomes() []model.DownloadOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.DownloadOutcome
	for _, e := range c.events {
		if o, ok := e.(event.ItemOutcome); ok {
			out = append(out, o.Outcome)
		}
	}
	return out
}

func (c *captureSink) batchFinished() (model.BatchSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if b, ok := e.(event.BatchFinished); ok {
			return b.Summary, true
		}
	}
	return model.BatchSummary{}, false
}

func testRecords(ids ...string) []model.VideoRecord {
	records := make([]model.VideoRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, model.VideoRecord{
			ID:    id,
			Title: "Clip " + id,
			URL:   "https://www.youtube.com/watch?v=" + id,
		})
	}
	return records
}

func testOptions(dir string) Options {
	return Options{SaveDir: dir, Format: model.FormatIndexTitle, RateLimitDelay: time.Millisecond}
}

func TestRunDownloadsAllInOrder(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{}
	sink := &captureSink{}
	s := NewService(fake, sink, nil)

	summary, err := s.Run(context.Background(), testRecords("aa", "bb", "cc"), testOptions(dir))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Success != 3 || summary.Failed != 0 || summary.Total != 3 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	want := []string{
		"https://www.youtube.com/watch?v=aa",
		"https://www.youtube.com/watch?v=bb",
		"https://www.youtube.com/watch?v=cc",
	}
	for i, url := range want {
		if fake.calls[i] != url {
			t.Errorf("Call %d: expected %s, got %s", i, url, fake.calls[i])
		}
	}

	if _, statErr := os.Stat(filepath.Join(dir, "01_Clip aa.mp4")); statErr != nil {
		t.Errorf("Expected first output file: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "03_Clip cc.mp4")); statErr != nil {
		t.Errorf("Expected third output file: %v", statErr)
	}

	if s.State() != model.BatchCompleted {
		t.Errorf("Expected Completed state, got %s", s.State())
	}
}

func TestRunSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "07_MyClip_ab12.mp4"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeDownloader{}
	sink := &captureSink{}
	s := NewService(fake, sink, nil)

	records := []model.VideoRecord{
		{ID: "ab12", Title: "MyClip", URL: "https://www.youtube.com/watch?v=ab12"},
		{ID: "zz99", Title: "Other", URL: "https://www.youtube.com/watch?v=zz99"},
	}
	summary, err := s.Run(context.Background(), records, testOptions(dir))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Success != 2 {
		t.Errorf("Expected both items counted as success, got %d", summary.Success)
	}
	if fake.callCount() != 1 {
		t.Fatalf("Expected 1 download call, got %d", fake.callCount())
	}

	outcomes := sink.outcomes()
	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].SkippedAsDuplicate || !outcomes[0].Success {
		t.Errorf("Expected duplicate skip outcome, got %+v", outcomes[0])
	}
	if !strings.HasPrefix(outcomes[0].Message, "Already exists:") {
		t.Errorf("Unexpected skip message %q", outcomes[0].Message)
	}
	if outcomes[1].SkippedAsDuplicate {
		t.Errorf("Second item should not be a skip: %+v", outcomes[1])
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{failURLs: map[string]error{
		"https://www.youtube.com/watch?v=cc": errors.New("network unreachable"),
	}}
	sink := &captureSink{}
	s := NewService(fake, sink, nil)

	summary, err := s.Run(context.Background(), testRecords("aa", "bb", "cc", "dd", "ee"), testOptions(dir))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Success != 4 || summary.Failed != 1 {
		t.Errorf("Expected 4 success / 1 failed, got %+v", summary)
	}

	outcomes := sink.outcomes()
	if len(outcomes) != 5 {
		t.Fatalf("Expected 5 outcomes, got %d", len(outcomes))
	}
	if outcomes[2].Success {
		t.Errorf("Expected third item failed, got %+v", outcomes[2])
	}
	if !strings.HasPrefix(outcomes[2].Message, "Failed:") {
		t.Errorf("Unexpected failure message %q", outcomes[2].Message)
	}

	final, ok := sink.batchFinished()
	if !ok {
		t.Fatal("Expected a BatchFinished event")
	}
	if final.Success != 4 || final.Failed != 1 || final.Cancelled {
		t.Errorf("Unexpected final summary: %+v", final)
	}
}

// cancellingSink forwards events and cancels after n item outcomes
type cancellingSink struct {
	inner  event.Sink
	cancel context.CancelFunc
	after  int
	seen   int
}

func (c *cancellingSink) Emit(e event.Event) {
	c.inner.Emit(e)
	if _, ok := e.(event.ItemOutcome); ok {
		c.seen++
		if c.seen == c.after {
			c.cancel()
		}
	}
}

func TestRunCancellationStopsBatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeDownloader{}
	sink := &captureSink{}
	s := NewService(fake, &cancellingSink{inner: sink, cancel: cancel, after: 2}, nil)

	opts := testOptions(dir)
	opts.RateLimitDelay = 50 * time.Millisecond

	summary, err := s.Run(ctx, testRecords("aa", "bb", "cc", "dd", "ee"), opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if !summary.Cancelled {
		t.Error("Expected cancelled summary")
	}
	if summary.Success != 2 {
		t.Errorf("Expected 2 completed items, got %d", summary.Success)
	}

	if len(sink.outcomes()) != 2 {
		t.Errorf("Expected 2 outcomes, got %d", len(sink.outcomes()))
	}
	if _, ok := sink.batchFinished(); ok {
		t.Error("Expected no BatchFinished after cancellation")
	}
	if s.State() != model.BatchCancelled {
		t.Errorf("Expected Cancelled state, got %s", s.State())
	}
}

func TestRunMidTransferCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeDownloader{onStart: func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}}
	sink := &captureSink{}
	s := NewService(fake, sink, nil)

	summary, err := s.Run(ctx, testRecords("aa", "bb"), testOptions(dir))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if !summary.Cancelled || summary.Failed != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	outcomes := sink.outcomes()
	if len(outcomes) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Success || outcomes[0].Message != "cancelled" {
		t.Errorf("Expected cancelled outcome, got %+v", outcomes[0])
	}
	if fake.callCount() != 1 {
		t.Errorf("Expected no further downloads after cancel, got %d calls", fake.callCount())
	}
}

func TestRunRelaysTransferProgress(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeDownloader{progress: []extractor.TransferProgress{
		{DownloadedBytes: 25, TotalBytes: 100},
		{DownloadedBytes: 100, TotalBytes: 100},
		{DownloadedBytes: 10}, // unknown total, dropped
	}}
	sink := &captureSink{}
	s := NewService(fake, sink, nil)

	if _, err := s.Run(context.Background(), testRecords("aa"), testOptions(dir)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var percents []int
	for _, e := range sink.events {
		if p, ok := e.(event.Progress); ok {
			if p.VideoID != "aa" {
				t.Errorf("Expected progress tagged with video id, got %q", p.VideoID)
			}
			percents = append(percents, p.Percent)
		}
	}
	if len(percents) != 2 || percents[0] != 25 || percents[1] != 100 {
		t.Errorf("Unexpected progress values: %v", percents)
	}
}

func TestRunRejectsConcurrentBatch(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeDownloader{onStart: func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}
	s := NewService(fake, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Run(context.Background(), testRecords("aa"), testOptions(dir))
	}()

	<-started
	if _, err := s.Run(context.Background(), testRecords("bb"), testOptions(dir)); err == nil {
		t.Error("Expected second Run to be rejected while a batch is in flight")
	}
	close(release)
	<-done
}

func TestRunValidatesInput(t *testing.T) {
	dir := t.TempDir()
	s := NewService(&fakeDownloader{}, nil, nil)

	if _, err := s.Run(context.Background(), nil, testOptions(dir)); err == nil {
		t.Error("Expected error for empty batch")
	}

	opts := testOptions(dir)
	opts.Format = model.FilenameFormat(9)
	if _, err := s.Run(context.Background(), testRecords("aa"), opts); err == nil {
		t.Error("Expected error for unknown filename format")
	}

	if s.State() != model.BatchIdle {
		t.Errorf("Expected Idle state after rejected runs, got %s", s.State())
	}
}

func TestDeriveFilename(t *testing.T) {
	rec := model.VideoRecord{
		ID:    "abcdefghij1234567890abcdefghij1234",
		Title: "Hello World",
	}

	tests := []struct {
		name   string
		format model.FilenameFormat
		index  int
		want   string
	}{
		{"index and title", model.FormatIndexTitle, 3, "03_Hello World"},
		{"id only capped", model.FormatVideoID, 1, "abcdefghij1234567890abcdefghij"},
		{"index title id", model.FormatIndexTitleID, 1, "01_Hello World_abcdefghij"},
		{"title only", model.FormatTitleOnly, 5, "Hello World"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveFilename(rec, tt.index, tt.format); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeriveFilenameSanitizes(t *testing.T) {
	rec := model.VideoRecord{ID: "x1", Title: "He/llo: <World>?"}
	got := deriveFilename(rec, 1, model.FormatIndexTitle)
	if strings.ContainsAny(got, "/\\:<>?") {
		t.Errorf("Expected sanitized name, got %q", got)
	}
	if !strings.HasPrefix(got, "01_") {
		t.Errorf("Expected 1-based zero-padded prefix, got %q", got)
	}
}
