// Package statestore persists the last-applied desired spec to local disk
// between cycles, so the reconciler can tell controller-owned users apart
// from pre-existing ones across process restarts.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// Store is a file-backed last-applied state store.
type Store struct {
	path string
	log  *zap.SugaredLogger
}

// New constructs a Store reading and writing the given path.
func New(path string, log *zap.SugaredLogger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the last-applied state. An absent or malformed file is
// treated as empty state — logged, never returned as an error — since the
// cycle recovers conservatively by treating every live user as unowned.
func (s *Store) Load() model.LastApplied {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Errorw("failed to read state file, proceeding as empty", "path", s.path, "error", err)
		}
		return model.LastApplied{}
	}

	var state model.LastApplied
	if err := json.Unmarshal(raw, &state); err != nil {
		s.log.Errorw("state file malformed, proceeding as empty", "path", s.path, "error", err)
		return model.LastApplied{}
	}
	if state == nil {
		state = model.LastApplied{}
	}
	return state
}

// Save atomically replaces the state file with spec: write to a sibling
// temp path, then rename over the target. On IO failure the prior file is
// left untouched.
func (s *Store) Save(spec model.DesiredSpec) error {
	raw, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling state: %w: %v", model.ErrStateIO, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w: %v", model.ErrStateIO, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w: %v", model.ErrStateIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w: %v", model.ErrStateIO, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming state file into place: %w: %v", model.ErrStateIO, err)
	}
	return nil
}
