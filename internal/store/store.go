// Package store is the single file-backed persistence layer shared by the
// goal and nudge-history stores. One store owns one JSON document on disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RichardEchols/kiyomi-lite/internal/logger"
)

var log = logger.New("store")

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load unmarshals the stored document into v. A missing or unparsable
// file is not an error: v is left untouched so callers start from their
// zero value, and the next Save rewrites a corrupt document.
func (s *Store) Load(v any) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if !json.Valid(data) {
		log.Warn().Str("path", s.path).Msg("corrupt state file, starting empty")
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("unreadable state file, starting empty")
		return nil
	}
	return nil
}

// Save writes v atomically: marshal to a temp file in the same directory,
// then rename over the target. A crash mid-write leaves the old document
// intact.
func (s *Store) Save(v any) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
