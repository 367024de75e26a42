// Package event defines the closed set of events the collectors and the
// download orchestrator emit toward the presentation layer: overall progress,
// free-form status lines, per-item outcomes, and the terminal batch summary.
// Consumers receive events synchronously on the emitting goroutine; a sink
// that needs asynchrony should hand off to its own channel.
package event

import "github.com/ytget/media-downloader/internal/model"

// Event is one of Progress, StatusLine, ItemOutcome, BatchFinished
type Event interface {
	isEvent()
}

// Progress reports a 0-100 percentage, monotonic within a run. VideoID is
// set for per-item transfer progress and empty for run-level progress.
type Progress struct {
	Percent int
	VideoID string
}

// StatusLine is a human-readable status message
type StatusLine struct {
	Text string
}

// ItemOutcome carries the terminal result of a single item
type ItemOutcome struct {
	Outcome model.DownloadOutcome
}

// BatchFinished carries the aggregate of a completed (not cancelled) run
type BatchFinished struct {
	Summary model.BatchSummary
}

func (Progress) isEvent()      {}
func (StatusLine) isEvent()    {}
func (ItemOutcome) isEvent()   {}
func (BatchFinished) isEvent() {}

// Sink consumes events
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(Event)

// Emit calls the wrapped function
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Discard returns a sink that drops every event
func Discard() Sink {
	return SinkFunc(func(Event) {})
}
