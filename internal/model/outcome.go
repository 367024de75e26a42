package model

// FilenameFormat selects how output filenames are derived for a batch
type FilenameFormat int

const (
	// FormatIndexTitle produces "01_Title"
	FormatIndexTitle FilenameFormat = iota

	// FormatVideoID produces the sanitized video id, capped at 30 chars
	FormatVideoID

	// FormatIndexTitleID produces "01_Title_abcdef1234" (id capped at 10)
	FormatIndexTitleID

	// FormatTitleOnly produces the sanitized title alone
	FormatTitleOnly
)

// IsValid reports whether the format is one of the four known variants
func (f FilenameFormat) IsValid() bool {
	return f >= FormatIndexTitle && f <= FormatTitleOnly
}

// DownloadOutcome is the terminal per-item result of a download attempt.
// Exactly one is emitted per item in a batch and never retracted.
type DownloadOutcome struct {
	VideoID            string `json:"video_id"`
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	SkippedAsDuplicate bool   `json:"skipped_as_duplicate"`
}

// BatchSummary aggregates one orchestrator run
type BatchSummary struct {
	Success   int  `json:"success"`
	Failed    int  `json:"failed"`
	Total     int  `json:"total"`
	Cancelled bool `json:"cancelled"`
}

// BatchState represents the lifecycle of a single orchestrator run
type BatchState string

const (
	// BatchIdle means no run has started or the previous one finished
	BatchIdle BatchState = "Idle"

	// BatchRunning means items are being processed
	BatchRunning BatchState = "Running"

	// BatchCompleted means the run walked every item
	BatchCompleted BatchState = "Completed"

	// BatchCancelled means the run stopped at an item boundary or mid-transfer
	BatchCancelled BatchState = "Cancelled"
)

// String returns the string representation of BatchState
func (bs BatchState) String() string {
	return string(bs)
}

// IsTerminal reports whether the state ends a run
func (bs BatchState) IsTerminal() bool {
	return bs == BatchCompleted || bs == BatchCancelled
}
