package analysis

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/domain"
)

// Input is everything one analysis run consumes: the tree, the table
// scalars and all four frequency profiles. Inputs are treated as immutable
// for the duration of the run.
type Input struct {
	Tree *domain.DecisionNode `json:"tree"`

	Pot       float64 `json:"pot"`
	OOPCombos float64 `json:"oopCombos"`
	IPCombos  float64 `json:"ipCombos"`

	Profiles Profiles `json:"profiles"`

	// ExcludeRootAction leaves the root's action out of formatted lines,
	// useful when the root is a synthetic "street start" node.
	ExcludeRootAction bool `json:"excludeRootAction"`
}

// Report is the full output of one analysis run.
type Report struct {
	Leaks    []domain.Finding          `json:"leaks"`
	Exploits []domain.Finding          `json:"exploits"`
	Patterns map[string]domain.Pattern `json:"patterns"`
	Summary  Summary                   `json:"summary"`
}

// Service orchestrates a full analysis run: validation, frequency
// resolution, both detector traversals, pattern tagging and the summary.
type Service struct {
	log zerolog.Logger
}

// NewService creates the analysis service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("module", "analysis").Logger(),
	}
}

// Analyze runs the detectors over the given tree and profiles.
// Structural tree errors and out-of-range frequencies abort the run.
func (s *Service) Analyze(input Input) (*Report, error) {
	start := time.Now()

	idx, err := domain.BuildParentIndex(input.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to validate tree: %w", err)
	}
	if err := input.Profiles.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate profiles: %w", err)
	}

	annotated := Resolve(input.Tree, input.Profiles)
	cfg := WalkConfig{
		Pot:               input.Pot,
		OOPCombos:         input.OOPCombos,
		IPCombos:          input.IPCombos,
		ExcludeRootAction: input.ExcludeRootAction,
	}

	leaks := DetectLeaks(annotated, cfg)
	exploits := DetectExploits(annotated, cfg)

	// Patterns are tagged per finding node, once each.
	patterns := make(map[string]domain.Pattern)
	for _, f := range append(append([]domain.Finding{}, leaks...), exploits...) {
		if _, done := patterns[f.NodeID]; done {
			continue
		}
		if p, ok := ClassifyPattern(idx, f.NodeID); ok {
			patterns[f.NodeID] = p
		}
	}

	all := make([]domain.Finding, 0, len(leaks)+len(exploits))
	all = append(all, leaks...)
	all = append(all, exploits...)

	report := &Report{
		Leaks:    leaks,
		Exploits: exploits,
		Patterns: patterns,
		Summary:  Summarize(all),
	}

	s.log.Debug().
		Int("nodes", idx.Size()).
		Int("leaks", len(leaks)).
		Int("exploits", len(exploits)).
		Dur("took", time.Since(start)).
		Msg("Analysis run complete")

	return report, nil
}
