// Package source supplies entity lists to the pipeline.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

// Samples returns the demonstration dataset, in its canonical order.
func Samples() []models.Entity {
	return []models.Entity{
		{Name: "TechCorp Solutions", NumericID: 1},
		{Name: "FashionForward Inc", NumericID: 2},
		{Name: "HealthFirst Medical", NumericID: 3},
		{Name: "AutoDrive Motors", NumericID: 4},
		{Name: "FoodDelight Co", NumericID: 5},
		{Name: "RetailPro Systems", NumericID: 542},
		{Name: "GameStudio Elite", NumericID: 1337},
		{Name: "FinanceSecure Bank", NumericID: 2048},
		{Name: "TravelExplore Agency", NumericID: 4096},
		{Name: "IndustrialWorks Ltd", NumericID: 8192},
	}
}

// LoadJSON reads entities from either a bare array
// ([{"name": ..., "id": ...}]) or an object with an "entities" array.
// Extra fields are ignored. Entities are not validated here; malformed ones
// are reported per position by the aggregator.
func LoadJSON(r io.Reader) ([]models.Entity, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity source is empty")
	}

	if raw[0] == '{' {
		var wrapped struct {
			Entities []models.Entity `json:"entities"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed entity source")
		}
		return wrapped.Entities, nil
	}

	var entities []models.Entity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed entity source")
	}
	return entities, nil
}

func LoadFile(path string) ([]models.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entity source: %w", err)
	}
	defer f.Close()
	return LoadJSON(f)
}
