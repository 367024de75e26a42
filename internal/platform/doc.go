package platform

// Package platform classifies URLs into known content platforms, extracts
// platform-specific identifiers such as Instagram profile handles, and holds
// the URL templates used to reconstruct item URLs from bare ids. It also
// keeps the small filesystem helpers for the default save directory.
