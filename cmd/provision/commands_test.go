package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/lattice/models"
	"pebble/internal/report"
	dErrors "pebble/pkg/domain-errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIDCommand(t *testing.T) {
	t.Run("golden identifiers", func(t *testing.T) {
		out, err := execute(t, "id", "TechCorp Solutions", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "lattice_id  PBL-6D5E4193-00001")
		assert.Contains(t, out, "codex_hash  1bf5f54aa642c0974a8b5432647d63d5008d590c66454b4c61e12adbb2472511")
	})

	t.Run("non-integer id", func(t *testing.T) {
		_, err := execute(t, "id", "TechCorp Solutions", "one")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("interval flag changes only the codex hash", func(t *testing.T) {
		out, err := execute(t, "id", "TechCorp Solutions", "1", "--interval", "10")
		require.NoError(t, err)
		assert.Contains(t, out, "lattice_id  PBL-6D5E4193-00001")
		assert.NotContains(t, out, "1bf5f54aa642c0974a8b5432647d63d5008d590c66454b4c61e12adbb2472511")
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := execute(t, "id", "OnlyName")
		require.Error(t, err)
	})
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "entities.json")
	output := filepath.Join(dir, "summary.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"name": "TechCorp Solutions", "id": 1},
		{"name": "FashionForward Inc", "id": 2}
	]`), 0o600))

	out, err := execute(t, "run", "--input", input, "--output", output, "--tier-policy", "numeric", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "PEBBLE LATTICE SYNC")
	assert.Contains(t, out, "Records:         2 of 2")

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, models.SyncStatusComplete, summary.SyncStatus)
	require.Len(t, summary.Records, 2)
	assert.Equal(t, "PBL-6D5E4193-00001", summary.Records[0].LatticeID)
	assert.Equal(t, "PBL-D12810BC-00002", summary.Records[1].LatticeID)
	assert.Equal(t, models.TierDynastic, summary.Records[0].Tier)
	assert.Equal(t, models.TierOperational, summary.Records[1].Tier)
}

func TestRunCommand_PartialBatchFails(t *testing.T) {
	input := filepath.Join(t.TempDir(), "entities.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"name": "", "id": 1}, {"name": "Valid", "id": 2}]`), 0o600))

	out, err := execute(t, "run", "--input", input)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, out, "Records:         1 of 2")
}

func TestRunCommand_BadInput(t *testing.T) {
	_, err := execute(t, "run", "--input", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
