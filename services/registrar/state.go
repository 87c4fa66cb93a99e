package registrar

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CooldownState is the only durable state of the registrar. It exists
// to stop a cron-driven run from re-attempting (and re-announcing) a
// booking that already went through.
type CooldownState struct {
	PauseUntil           *time.Time `json:"pause_until"`
	LastNotificationTime *time.Time `json:"last_notification_time"`
	NotificationCount    int        `json:"notification_count"`
	LastCheck            *time.Time `json:"last_check"`
}

// StateStore persists CooldownState as a single JSON file. Writes go
// through a temp file and a rename so a killed process leaves either
// the old state or the new one, never a torn file.
type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load never fails the caller: a missing file is the first run, a
// malformed one is treated the same way with a warning.
func (s *StateStore) Load() CooldownState {
	var state CooldownState

	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return state
	}
	if err != nil {
		slog.Warn("failed to read state file", "path", s.path, "err", err)
		return state
	}
	if err := json.Unmarshal(contents, &state); err != nil {
		slog.Warn("state file is malformed, starting fresh", "path", s.path, "err", err)
		return CooldownState{}
	}
	return state
}

func (s *StateStore) Save(state CooldownState) error {
	contents, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// ShouldSkip reports whether a run falls inside the post-success
// cooldown window. An expired pause is cleared and persisted on the
// way out, so the check is idempotent across runs.
func (s *StateStore) ShouldSkip(now time.Time) bool {
	state := s.Load()
	if state.PauseUntil == nil {
		return false
	}

	if now.Before(*state.PauseUntil) {
		remaining := state.PauseUntil.Sub(now)
		slog.Info("inside cooldown window, skipping run",
			"pause_until", state.PauseUntil,
			"remaining_minutes", fmt.Sprintf("%.1f", remaining.Minutes()),
		)
		return true
	}

	state.PauseUntil = nil
	if err := s.Save(state); err != nil {
		slog.Warn("failed to clear expired cooldown", "err", err)
	}
	return false
}
