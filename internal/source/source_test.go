package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/lattice/hashing"
	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

func TestSamples(t *testing.T) {
	samples := Samples()
	require.Len(t, samples, 10)
	assert.Equal(t, models.Entity{Name: "TechCorp Solutions", NumericID: 1}, samples[0])
	assert.Equal(t, int64(8192), samples[9].NumericID)

	for _, e := range samples {
		assert.NoError(t, e.Validate())
	}

	id, err := hashing.GenerateLatticeID(samples[0].Name, samples[0].NumericID)
	require.NoError(t, err)
	assert.Equal(t, "PBL-6D5E4193-00001", id)

	samples[0].Name = "mutated"
	assert.Equal(t, "TechCorp Solutions", Samples()[0].Name, "each call returns a fresh slice")
}

func TestLoadJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []models.Entity
		wantErr bool
	}{
		{
			name:  "bare array with extra fields",
			input: `[{"id": 1, "name": "TechCorp Solutions", "category": "Technology"}, {"id": 542, "name": "RetailPro Systems"}]`,
			want:  []models.Entity{{Name: "TechCorp Solutions", NumericID: 1}, {Name: "RetailPro Systems", NumericID: 542}},
		},
		{
			name:  "wrapped object",
			input: `{"entities": [{"name": "Mega Corp", "id": 123456}]}`,
			want:  []models.Entity{{Name: "Mega Corp", NumericID: 123456}},
		},
		{
			name:  "malformed entities pass through",
			input: `[{"name": "", "id": -1}]`,
			want:  []models.Entity{{Name: "", NumericID: -1}},
		},
		{name: "empty input", input: "   ", wantErr: true},
		{name: "not json", input: "name,id", wantErr: true},
		{name: "wrong shape", input: `{"entities": "nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadJSON(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "TechCorp Solutions", "id": 1}]`), 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
