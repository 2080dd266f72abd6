package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pebble/internal/lattice/models"
)

// JSONFile writes the batch summary as indented JSON. The file is replaced
// atomically so readers never see a half-written summary.
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (j *JSONFile) Report(_ context.Context, report *models.BatchReport) error {
	payload, err := json.MarshalIndent(Summarize(report), "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch summary: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(j.Path)
	tmp, err := os.CreateTemp(dir, ".pebble-summary-*.json")
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write summary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close summary file: %w", err)
	}
	if err := os.Rename(tmpName, j.Path); err != nil {
		return fmt.Errorf("replace summary file: %w", err)
	}
	return nil
}
