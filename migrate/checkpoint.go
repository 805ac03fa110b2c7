package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveCheckpoint persists the run state atomically (write-then-rename) so
// a crash mid-save never leaves a truncated checkpoint behind.
func SaveCheckpoint(path string, state *RunState) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("migrate: checkpoint mkdir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("migrate: checkpoint marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("migrate: checkpoint write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("migrate: checkpoint rename: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a persisted run state. A missing file returns
// nil, nil — no checkpoint is not an error.
func LoadCheckpoint(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("migrate: checkpoint read: %w", err)
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("migrate: checkpoint parse: %w", err)
	}
	return &state, nil
}

// RemoveCheckpoint deletes the checkpoint file once a run completes.
func RemoveCheckpoint(path string) {
	if path != "" {
		os.Remove(path)
	}
}
