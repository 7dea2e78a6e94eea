package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/types"
)

// FileStore keeps match records in a single JSON file mapping handle to
// record. Merges accumulate in memory; Flush writes a temp file in the
// same directory and renames it over the target so a crash never leaves
// a half-written results file.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	records map[string]*types.MatchRecord
	dirty   bool
}

// NewFileStore creates a store backed by the JSON file at path. The
// file does not need to exist yet.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) load() error {
	if s.records != nil {
		return nil
	}
	s.records = make(map[string]*types.MatchRecord)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read results file: %w", err)
	}

	var byHandle map[string]*types.MatchRecord
	if err := json.Unmarshal(data, &byHandle); err != nil {
		return fmt.Errorf("failed to parse results file %s: %w", s.path, err)
	}
	for handle, record := range byHandle {
		record.Handle = handle
		s.records[handle] = record
	}
	s.logger.Debug("loaded results file",
		zap.String("path", s.path),
		zap.Int("records", len(s.records)))
	return nil
}

// Load returns a copy of all stored records.
func (s *FileStore) Load(_ context.Context) (map[string]*types.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make(map[string]*types.MatchRecord, len(s.records))
	for handle, record := range s.records {
		out[handle] = record.Clone()
	}
	return out, nil
}

// Merge folds record into the store, deduplicating results by URL.
func (s *FileStore) Merge(_ context.Context, record *types.MatchRecord) error {
	if record == nil || record.Handle == "" {
		return fmt.Errorf("cannot merge record without a handle")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	existing, ok := s.records[record.Handle]
	if !ok {
		s.records[record.Handle] = record.Clone()
		s.dirty = true
		return nil
	}
	merged := mergeResults(existing.MatchedResults, record.MatchedResults)
	if len(merged) != len(existing.MatchedResults) {
		existing.MatchedResults = merged
		s.dirty = true
	}
	return nil
}

// Flush writes the records to disk atomically. A no-op when nothing
// changed since the last flush.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp results file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp results file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp results file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace results file: %w", err)
	}

	s.dirty = false
	s.logger.Debug("flushed results file",
		zap.String("path", s.path),
		zap.Int("records", len(s.records)))
	return nil
}

// Handles lists stored handles in sorted order.
func (s *FileStore) Handles(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(s.records))
	for handle := range s.records {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles, nil
}
