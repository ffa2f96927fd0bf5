package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func TestLoadReturnsEmptyForMissingFile(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "missing.json"), testLogger(t))

	got := s.Load()
	if len(got) != 0 {
		t.Fatalf("expected empty state for a missing file, got %v", got)
	}
}

func TestLoadReturnsEmptyForMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	s := New(path, testLogger(t))

	got := s.Load()
	if len(got) != 0 {
		t.Fatalf("expected empty state for a malformed file, got %v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected malformed file to be left in place: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := New(path, testLogger(t))

	spec := model.DesiredSpec{
		"alice": {
			Username: "alice",
			Database: "app",
			Roles:    []string{"read_only"},
			Privileges: map[string][]string{
				"public": {"USAGE"},
			},
		},
		"bob": {Username: "bob", Database: "app", Roles: nil},
	}

	if err := s.Save(spec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load()
	if len(got) != len(spec) {
		t.Fatalf("round trip produced %d records, want %d", len(got), len(spec))
	}
	for username, want := range spec {
		gotRec, ok := got[username]
		if !ok {
			t.Fatalf("missing %q after round trip", username)
		}
		if !gotRec.Equal(want) {
			t.Fatalf("round trip mismatch for %q: got %+v, want %+v", username, gotRec, want)
		}
	}
}

func TestSaveLeavesPriorFileOnTempDirFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := New(path, testLogger(t))

	original := model.DesiredSpec{"alice": {Username: "alice", Database: "app"}}
	if err := s.Save(original); err != nil {
		t.Fatalf("initial Save: %v", err)
	}

	// Point the store at a directory that doesn't exist so the temp-file
	// creation step fails; the original file must be untouched.
	broken := New(filepath.Join(dir, "no-such-subdir", "state.json"), testLogger(t))
	if err := broken.Save(model.DesiredSpec{}); err == nil {
		t.Fatalf("expected Save to fail when its directory does not exist")
	}

	got := s.Load()
	if len(got) != 1 {
		t.Fatalf("expected original state to survive a failed save, got %v", got)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := New(path, testLogger(t))

	if err := s.Save(model.DesiredSpec{"alice": {Username: "alice"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly the final state file, found %d entries", len(entries))
	}
}
