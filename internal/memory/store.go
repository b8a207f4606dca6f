package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"valet/internal/logging"
)

// Turn is one conversation exchange half.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AuditEntry records one handled command for the rolling audit log.
type AuditEntry struct {
	Timestamp time.Time `json:"ts"`
	Input     string    `json:"input"`
	Response  string    `json:"response"`
}

// Store manages the three persistence files: free-form preferences,
// bounded conversation history, and the bounded command audit log.
// All writes are truncate-on-write; loads tolerate missing or corrupt files.
type Store struct {
	prefsPath   string
	historyPath string
	auditPath   string
	maxTurns    int
	maxAudit    int

	mu      sync.RWMutex
	prefs   map[string]any
	history []Turn
	audit   []AuditEntry
}

// Paths configures where the store keeps its files.
type Paths struct {
	Preferences string
	History     string
	Audit       string
}

// NewStore creates a store; call Load before use.
func NewStore(paths Paths, maxTurns, maxAudit int) *Store {
	return &Store{
		prefsPath:   paths.Preferences,
		historyPath: paths.History,
		auditPath:   paths.Audit,
		maxTurns:    maxTurns,
		maxAudit:    maxAudit,
		prefs:       make(map[string]any),
	}
}

// Load reads all three files. A missing or unreadable file degrades to an
// empty value; it never fails startup.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, err := os.ReadFile(s.prefsPath); err == nil {
		if err := json.Unmarshal(data, &s.prefs); err != nil {
			logging.Info("memory", "preferences unreadable, starting fresh: %v", err)
			s.prefs = make(map[string]any)
		}
	}
	if data, err := os.ReadFile(s.historyPath); err == nil {
		if err := json.Unmarshal(data, &s.history); err != nil {
			logging.Info("memory", "history unreadable, starting fresh: %v", err)
			s.history = nil
		}
	}
	if len(s.history) > s.maxTurns {
		s.history = s.history[len(s.history)-s.maxTurns:]
	}
	if data, err := os.ReadFile(s.auditPath); err == nil {
		if err := json.Unmarshal(data, &s.audit); err != nil {
			s.audit = nil
		}
	}
}

// Preference returns a preference value by key.
func (s *Store) Preference(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.prefs[key]
	return v, ok
}

// UserName returns the remembered user name, if any.
func (s *Store) UserName() string {
	if v, ok := s.Preference("user_name"); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// SetPreference updates one preference and persists the document.
func (s *Store) SetPreference(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = value
	return s.savePrefs()
}

// CustomMemories returns the remembered free-form facts.
func (s *Store) CustomMemories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.prefs["custom_memories"]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
	}
	return out
}

// AddCustomMemory appends a fact and persists.
func (s *Store) AddCustomMemory(fact string) error {
	memories := append(s.CustomMemories(), fact)
	return s.SetPreference("custom_memories", memories)
}

// ClearCustomMemories forgets all stored facts.
func (s *Store) ClearCustomMemories() error {
	return s.SetPreference("custom_memories", []string{})
}

// AddTurn appends a conversation turn, trims to the bound, and persists.
func (s *Store) AddTurn(role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{Role: role, Content: content})
	if len(s.history) > s.maxTurns {
		s.history = s.history[len(s.history)-s.maxTurns:]
	}
	return writeJSON(s.historyPath, s.history)
}

// History returns a copy of the conversation history.
func (s *Store) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory wipes the conversation history and its file.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	if err := os.Remove(s.historyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

// RecordCommand appends to the rolling audit log, keeping the last maxAudit
// entries.
func (s *Store) RecordCommand(input, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, AuditEntry{Timestamp: time.Now(), Input: input, Response: response})
	if len(s.audit) > s.maxAudit {
		s.audit = s.audit[len(s.audit)-s.maxAudit:]
	}
	if err := writeJSON(s.auditPath, s.audit); err != nil {
		logging.Info("memory", "could not write audit log: %v", err)
	}
}

// AuditLog returns a copy of the audit entries.
func (s *Store) AuditLog() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *Store) savePrefs() error {
	return writeJSON(s.prefsPath, s.prefs)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
