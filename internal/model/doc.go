package model

// Package model defines domain data structures used across the app: video
// records produced by the collectors, per-item download outcomes, batch
// aggregates, and the platform and filename-format enums. Records are
// produced once by a collector and never mutated by the orchestrator.
