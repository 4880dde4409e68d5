package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CR-00/tree/internal/domain"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.TotalFindings)
	assert.Empty(t, s.ByType)
	assert.Equal(t, 0.0, s.MeanDifference)
	assert.Equal(t, 0.0, s.StdDevDifference)
}

func TestSummarizeSingleFinding(t *testing.T) {
	s := Summarize([]domain.Finding{
		{Type: domain.LeakOverfold, Street: domain.StreetFlop, Difference: 0.3, Reach: 1},
	})

	assert.Equal(t, 1, s.TotalFindings)
	assert.Equal(t, 1, s.ByType[domain.LeakOverfold])
	assert.Equal(t, 1, s.ByStreet[domain.StreetFlop])
	assert.InDelta(t, 0.3, s.MeanDifference, 1e-12)
	// A single sample has no defined spread.
	assert.Equal(t, 0.0, s.StdDevDifference)
	assert.InDelta(t, 0.3, s.MaxDifference, 1e-12)
	assert.InDelta(t, 0.3, s.WeightedSeverity, 1e-12)
}

func TestSummarizeWeightsByReach(t *testing.T) {
	s := Summarize([]domain.Finding{
		{Type: domain.LeakOverfold, Street: domain.StreetFlop, Difference: 0.1, Reach: 0.9},
		{Type: domain.LeakOverbluff, Street: domain.StreetTurn, Difference: 0.5, Reach: 0.1},
	})

	assert.Equal(t, 2, s.TotalFindings)
	assert.InDelta(t, 0.3, s.MeanDifference, 1e-12)
	assert.InDelta(t, 0.5, s.MaxDifference, 1e-12)
	// (0.9*0.1 + 0.1*0.5) / 1.0 = 0.14, pulled toward the reachable leak.
	assert.InDelta(t, 0.14, s.WeightedSeverity, 1e-12)
	assert.Greater(t, s.StdDevDifference, 0.0)
}

func TestSummarizeZeroReachFindings(t *testing.T) {
	s := Summarize([]domain.Finding{
		{Type: domain.LeakOverfold, Street: domain.StreetRiver, Difference: 0.2, Reach: 0},
	})

	// All-zero weights would divide by zero; severity stays zero instead.
	assert.Equal(t, 0.0, s.WeightedSeverity)
	assert.InDelta(t, 0.2, s.MeanDifference, 1e-12)
}
