package position

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"WaveSentinel/internal/model"
)

// LoadState reads the position state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.PositionState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.PositionState{}, nil
		}
		return nil, err
	}
	var state model.PositionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &state, nil
}

// SaveState writes the position state to a JSON file through a temporary
// file so a crash never leaves a truncated state behind.
func SaveState(filePath string, state *model.PositionState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
