package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, maxTurns, maxAudit int) (*Store, Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := Paths{
		Preferences: filepath.Join(dir, "preferences.json"),
		History:     filepath.Join(dir, "conversation_history.json"),
		Audit:       filepath.Join(dir, "command_history.json"),
	}
	s := NewStore(paths, maxTurns, maxAudit)
	s.Load()
	return s, paths
}

func TestPreferencesRoundTrip(t *testing.T) {
	s, paths := newTestStore(t, 10, 10)

	if err := s.SetPreference("user_name", "Tony"); err != nil {
		t.Fatal(err)
	}
	if got := s.UserName(); got != "Tony" {
		t.Errorf("UserName() = %q", got)
	}

	// A fresh store over the same files sees the value.
	s2 := NewStore(paths, 10, 10)
	s2.Load()
	if got := s2.UserName(); got != "Tony" {
		t.Errorf("reloaded UserName() = %q", got)
	}
}

func TestCustomMemories(t *testing.T) {
	s, paths := newTestStore(t, 10, 10)

	if err := s.AddCustomMemory("prefers tea"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCustomMemory("works late"); err != nil {
		t.Fatal(err)
	}

	// JSON round-trips []string as []any; both shapes must read back.
	s2 := NewStore(paths, 10, 10)
	s2.Load()
	got := s2.CustomMemories()
	if len(got) != 2 || got[0] != "prefers tea" || got[1] != "works late" {
		t.Errorf("CustomMemories() = %v", got)
	}

	if err := s2.ClearCustomMemories(); err != nil {
		t.Fatal(err)
	}
	if len(s2.CustomMemories()) != 0 {
		t.Error("memories should be cleared")
	}
}

func TestHistoryBounded(t *testing.T) {
	s, _ := newTestStore(t, 4, 10)

	for i := 0; i < 6; i++ {
		if err := s.AddTurn("user", "message"); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(s.History()); got != 4 {
		t.Errorf("history length = %d, want 4", got)
	}
}

func TestHistoryTrimmedOnLoad(t *testing.T) {
	s, paths := newTestStore(t, 10, 10)
	for i := 0; i < 8; i++ {
		if err := s.AddTurn("user", "message"); err != nil {
			t.Fatal(err)
		}
	}

	// A tighter bound on the next run trims what a previous run persisted.
	s2 := NewStore(paths, 3, 10)
	s2.Load()
	if got := len(s2.History()); got != 3 {
		t.Errorf("history length after reload = %d, want 3", got)
	}
}

func TestClearHistory(t *testing.T) {
	s, paths := newTestStore(t, 10, 10)
	if err := s.AddTurn("user", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearHistory(); err != nil {
		t.Fatal(err)
	}
	if len(s.History()) != 0 {
		t.Error("history should be empty")
	}
	if _, err := os.Stat(paths.History); !os.IsNotExist(err) {
		t.Error("history file should be removed")
	}
	// Clearing twice is fine.
	if err := s.ClearHistory(); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestAuditLogBounded(t *testing.T) {
	s, _ := newTestStore(t, 10, 3)

	for i := 0; i < 5; i++ {
		s.RecordCommand("open chrome", "Opened Chrome, sir.")
	}
	if got := len(s.AuditLog()); got != 3 {
		t.Errorf("audit length = %d, want 3", got)
	}
}

func TestLoadToleratesCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Preferences: filepath.Join(dir, "preferences.json"),
		History:     filepath.Join(dir, "conversation_history.json"),
		Audit:       filepath.Join(dir, "command_history.json"),
	}
	for _, p := range []string{paths.Preferences, paths.History, paths.Audit} {
		if err := os.WriteFile(p, []byte("{garbage"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := NewStore(paths, 10, 10)
	s.Load()

	if s.UserName() != "" || len(s.History()) != 0 || len(s.AuditLog()) != 0 {
		t.Error("corrupt files should load as empty state")
	}
	if err := s.SetPreference("user_name", "Tony"); err != nil {
		t.Errorf("store should stay writable: %v", err)
	}
}
