package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mikeolab/devops-real-app/internal/service"
)

// DatasetFile is the file name WriteDataset produces.
const DatasetFile = "leads.json"

// WriteDataset serializes payloads into leads.json under the provided directory and
// returns the written path and its size in bytes.
func WriteDataset(payloads []service.Payload, dir string) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, DatasetFile)
	if err := writeJSON(path, payloads); err != nil {
		return "", 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return path, info.Size(), nil
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
