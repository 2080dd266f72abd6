package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pebble/pkg/domain-errors"
)

func TestEntity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr bool
	}{
		{"valid", Entity{Name: "TechCorp Solutions", NumericID: 1}, false},
		{"zero id is valid", Entity{Name: "Origin", NumericID: 0}, false},
		{"large id is valid", Entity{Name: "Mega Corp", NumericID: 123456}, false},
		{"empty name", Entity{Name: "", NumericID: 1}, true},
		{"negative id", Entity{Name: "Negative", NumericID: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range AllTiers() {
		got, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}

	got, err := ParseTier("sovereign")
	require.NoError(t, err)
	assert.Equal(t, TierSovereign, got)

	_, err = ParseTier("Imperial")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestTier_Priority(t *testing.T) {
	assert.Equal(t, 0, TierSovereign.Priority())
	assert.Equal(t, 3, TierMarket.Priority())
	assert.Equal(t, -1, Tier("Imperial").Priority())
	assert.False(t, Tier("").IsValid())
}

func TestBatchReport_TierSummaries(t *testing.T) {
	report := &BatchReport{
		Records: []VerificationRecord{
			{LatticeID: "PBL-A", Tier: TierSovereign},
			{LatticeID: "PBL-B", Tier: TierMarket},
			{LatticeID: "PBL-C", Tier: TierSovereign},
		},
	}

	counts := report.TierCounts()
	assert.Equal(t, 2, counts[TierSovereign])
	assert.Equal(t, 1, counts[TierMarket])
	assert.Zero(t, counts[TierDynastic])

	priority := report.PriorityRecords()
	require.Len(t, priority, 2)
	assert.Equal(t, "PBL-A", priority[0].LatticeID)
	assert.Equal(t, "PBL-C", priority[1].LatticeID)
}
