package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an extraction or download failure
type Kind int

const (
	// KindUnknown covers failures with no recognized cause
	KindUnknown Kind = iota

	// KindPrivate means the remote resource exists but is not public
	KindPrivate

	// KindRateLimited means the remote service is throttling us
	KindRateLimited

	// KindUnavailable means the resource is unreachable, removed or unsupported
	KindUnavailable
)

// String returns a short label for the kind
func (k Kind) String() string {
	switch k {
	case KindPrivate:
		return "private"
	case KindRateLimited:
		return "rate-limited"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// ExtractionError is a per-item metadata/listing failure
type ExtractionError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DownloadError is a per-item transfer failure
type DownloadError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// CapabilityError signals that a collaborator required for a platform
// specific path is not available in the runtime environment.
type CapabilityError struct {
	Capability string
	Hint       string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s is not available: %s", e.Capability, e.Hint)
}

// classifyKind maps free-form collaborator error text onto a Kind. This is
// the single place where string matching on error messages is allowed; the
// rest of the code branches on the typed Kind.
func classifyKind(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "private"):
		return KindPrivate
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate"):
		return KindRateLimited
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "removed"),
		strings.Contains(msg, "not found"), strings.Contains(msg, "unsupported"):
		return KindUnavailable
	}
	return KindUnknown
}

// KindOf extracts the classified Kind from an extractor error, or
// classifies the raw text of any other error.
func KindOf(err error) Kind {
	var exErr *ExtractionError
	if errors.As(err, &exErr) {
		return exErr.Kind
	}
	var dlErr *DownloadError
	if errors.As(err, &dlErr) {
		return dlErr.Kind
	}
	return classifyKind(err)
}
