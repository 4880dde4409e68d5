package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CR-00/tree/internal/domain"
	"github.com/CR-00/tree/pkg/logger"
)

func testService() *Service {
	return NewService(logger.New(logger.Config{Level: "error"}))
}

func TestServiceAnalyze(t *testing.T) {
	svc := testService()

	report, err := svc.Analyze(Input{
		Tree:      checkBetFoldTree(),
		Pot:       10,
		OOPCombos: 100,
		IPCombos:  100,
		Profiles:  overbluffProfiles(0.5, 0.2),
	})
	require.NoError(t, err)

	// The overfold shows up as a leak, and as a missed call because the
	// opponent overbluffed; the overbluff itself is a second leak.
	require.Len(t, report.Leaks, 2)
	require.Len(t, report.Exploits, 1)
	assert.Equal(t, domain.ExploitMissedCall, report.Exploits[0].Type)

	assert.Equal(t, domain.PatternStab, report.Patterns["bet"])
	assert.Equal(t, domain.PatternStab, report.Patterns["fold"])

	assert.Equal(t, 3, report.Summary.TotalFindings)
	assert.Equal(t, 1, report.Summary.ByType[domain.ExploitMissedCall])
}

func TestServiceAnalyzeSingleNodeTree(t *testing.T) {
	svc := testService()

	report, err := svc.Analyze(Input{
		Tree: node("root", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil),
		Pot:  10,
	})
	require.NoError(t, err)

	assert.Empty(t, report.Leaks)
	assert.Empty(t, report.Exploits)
	assert.Empty(t, report.Patterns)
	assert.Equal(t, 0, report.Summary.TotalFindings)
}

func TestServiceAnalyzeRejectsMalformedTree(t *testing.T) {
	svc := testService()

	tree := node("dup", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil,
		node("dup", domain.ActionBet, domain.IP, domain.StreetFlop, nil),
	)

	_, err := svc.Analyze(Input{Tree: tree, Pot: 10})
	require.Error(t, err)

	var malformed *domain.MalformedTreeError
	assert.ErrorAs(t, err, &malformed)
}

func TestServiceAnalyzeRejectsInvalidFrequencies(t *testing.T) {
	svc := testService()

	_, err := svc.Analyze(Input{
		Tree: checkBetFoldTree(),
		Pot:  10,
		Profiles: Profiles{
			OOP: domain.ProfilePair{
				GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
					"fold": {Frequency: f64(1.5)},
				}),
			},
		},
	})
	require.Error(t, err)

	var invalid *domain.InvalidFrequencyError
	assert.ErrorAs(t, err, &invalid)
}

func TestServiceAnalyzeNilTree(t *testing.T) {
	svc := testService()

	_, err := svc.Analyze(Input{Pot: 10})
	require.Error(t, err)
}
