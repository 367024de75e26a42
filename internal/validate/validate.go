// Package validate provides stateless input checks used before any network
// or filesystem work: URL well-formedness, filename and path sanitization,
// and the disk-space preflight.
package validate

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URL limits
const (
	MaxPathSeparators = 10
)

// Filename limits
const (
	MaxFilenameLength = 100
	FallbackFilename  = "video"
)

const invalidCharReplacement = '_'

// IsValidURL reports whether raw is a well-formed http(s) URL with a host,
// no ".." traversal sequence, and at most MaxPathSeparators slashes in the
// whole string.
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	if strings.Contains(raw, "..") {
		return false
	}
	if strings.Count(raw, "/") > MaxPathSeparators {
		return false
	}
	return true
}

// SanitizeFilename strips traversal sequences and path separators, replaces
// every character outside [A-Za-z0-9-_.() ] with an underscore, trims
// leading/trailing dots and spaces, and caps the result at MaxFilenameLength.
// An empty result becomes FallbackFilename. The function is idempotent and
// its output never contains '/', '\' or "..".
func SanitizeFilename(name string) string {
	if name == "" {
		return FallbackFilename
	}

	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isAllowedFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(invalidCharReplacement)
		}
	}

	sanitized := strings.Trim(b.String(), ". ")
	if len(sanitized) > MaxFilenameLength {
		sanitized = sanitized[:MaxFilenameLength]
		// truncation can expose a trailing dot or space again
		sanitized = strings.Trim(sanitized, ". ")
	}

	if sanitized == "" {
		return FallbackFilename
	}
	return sanitized
}

func isAllowedFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_.() ", r)
}

// SanitizePath resolves path to an absolute, symlink-resolved canonical form.
// When the leaf does not exist yet, the deepest existing ancestor is resolved
// and the remainder re-joined. Resolution alone does not confine the result;
// callers must verify the resolved path stays inside the intended directory.
func SanitizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	dir, file := filepath.Split(abs)
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return filepath.Join(resolvedDir, file)
	}
	return abs
}

// CheckDiskSpace reports whether at least requiredMB megabytes are free at
// path, along with the observed free space. Query failures fail open as
// (true, 0); a zero free value next to true means the check was inconclusive.
func CheckDiskSpace(path string, requiredMB uint64) (bool, uint64) {
	freeMB, err := freeSpaceMB(path)
	if err != nil {
		return true, 0
	}
	return freeMB > requiredMB, freeMB
}
