// Package state persists session data between runs: the collected video
// list and the ids already downloaded. The store is a single JSON file
// written atomically; a missing or corrupt file means a fresh session.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/media-downloader/internal/model"
)

const fileMode = 0o644

// Session is the snapshot written to disk after each batch
type Session struct {
	Videos     []model.VideoRecord `json:"videos"`
	Downloaded []string            `json:"downloaded"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Store reads and writes session snapshots at a fixed path
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore creates a store backed by the given file path. A nil logger is
// replaced with a nop logger.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

// Save writes the session snapshot. The file is written to a temporary
// sibling and renamed so readers never observe a partial write.
func (s *Store) Save(session Session) error {
	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}

	s.log.Debug("session saved",
		zap.Int("videos", len(session.Videos)),
		zap.Int("downloaded", len(session.Downloaded)))
	return nil
}

// Load reads the last saved session. ok is false when no session exists or
// the file cannot be parsed; a corrupt file is logged and treated as absent.
func (s *Store) Load() (Session, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}, false
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.log.Warn("discarding unreadable session file",
			zap.String("path", s.path), zap.Error(err))
		return Session{}, false
	}
	return session, true
}

// Clear removes the persisted session if present
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
