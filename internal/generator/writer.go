package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meghna/ringsight/internal/service"
)

// WriteSnapshot serializes the snapshot into snapshot.json under the
// provided directory.
func WriteSnapshot(snapshot service.SnapshotInput, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, "snapshot.json"), snapshot)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
