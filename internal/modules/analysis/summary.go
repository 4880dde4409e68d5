package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/CR-00/tree/internal/domain"
)

// Summary aggregates a run's findings into headline numbers for the API
// and UI: counts by type and street plus dispersion statistics over the
// absolute differences.
type Summary struct {
	TotalFindings int                        `json:"total_findings"`
	ByType        map[domain.FindingType]int `json:"by_type"`
	ByStreet      map[domain.Street]int      `json:"by_street"`

	MeanDifference   float64 `json:"mean_difference"`
	StdDevDifference float64 `json:"stddev_difference"`
	MaxDifference    float64 `json:"max_difference"`

	// WeightedSeverity is the reach-weighted mean of the absolute
	// differences. A huge deviation on a node nobody reaches matters less
	// than a small one on the main line.
	WeightedSeverity float64 `json:"weighted_severity"`
}

// Summarize computes the aggregate statistics over all findings of a run.
func Summarize(findings []domain.Finding) Summary {
	s := Summary{
		ByType:   make(map[domain.FindingType]int),
		ByStreet: make(map[domain.Street]int),
	}
	if len(findings) == 0 {
		return s
	}

	diffs := make([]float64, 0, len(findings))
	weights := make([]float64, 0, len(findings))
	for _, f := range findings {
		s.TotalFindings++
		s.ByType[f.Type]++
		s.ByStreet[f.Street]++

		diffs = append(diffs, f.Difference)
		weights = append(weights, f.Reach)
		if f.Difference > s.MaxDifference {
			s.MaxDifference = f.Difference
		}
	}

	s.MeanDifference = stat.Mean(diffs, nil)
	if len(diffs) > 1 {
		// StdDev is NaN for a single sample.
		s.StdDevDifference = stat.StdDev(diffs, nil)
	}

	if totalWeight(weights) > 0 {
		s.WeightedSeverity = stat.Mean(diffs, weights)
	}

	return s
}

func totalWeight(weights []float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}
