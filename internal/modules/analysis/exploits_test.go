package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CR-00/tree/internal/domain"
)

// overbluffProfiles marks the IP flop bet as an overbluff and sets the OOP
// fold frequency against it.
func overbluffProfiles(foldActual, foldGTO float64) Profiles {
	return Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(foldGTO)},
			}),
			Active: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(foldActual)},
			}),
		},
		IP: domain.ProfilePair{
			GTO: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {WeakPercent: f64(0.2)},
			}),
			Active: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {WeakPercent: f64(0.5)},
			}),
		},
	}
}

func TestDetectExploitsEmptyOnSingleNode(t *testing.T) {
	root := node("root", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil)
	annotated := Resolve(root, Profiles{})

	assert.Empty(t, DetectExploits(annotated, WalkConfig{Pot: 10}))
}

func TestDetectExploitsMissedCall(t *testing.T) {
	// Overfolding into an opponent who already overbluffed on the path.
	annotated := Resolve(checkBetFoldTree(), overbluffProfiles(0.5, 0.2))

	findings := DetectExploits(annotated, WalkConfig{Pot: 10, OOPCombos: 100, IPCombos: 100})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "fold", f.NodeID)
	assert.Equal(t, domain.ExploitMissedCall, f.Type)
	assert.Equal(t, domain.OOP, f.Player)
	assert.Equal(t, 0.5, f.Actual)
	assert.Equal(t, 0.2, f.Baseline)
	assert.Equal(t, 15.0, f.PotSize)
}

func TestDetectExploitsNoOverbluffNoCallExploit(t *testing.T) {
	// Same overfold, but the opponent never overbluffed.
	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(0.2)},
			}),
			Active: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(0.5)},
			}),
		},
	}
	annotated := Resolve(checkBetFoldTree(), profiles)

	// The IP bet is still an exploiting-bet candidate because OOP overfolds
	// to it; the fold itself must produce nothing.
	findings := DetectExploits(annotated, WalkConfig{Pot: 10})
	for _, f := range findings {
		assert.NotEqual(t, "fold", f.NodeID)
	}
}

func TestDetectExploitsExploitingCallOnUnderfold(t *testing.T) {
	annotated := Resolve(checkBetFoldTree(), overbluffProfiles(0.1, 0.4))

	findings := DetectExploits(annotated, WalkConfig{Pot: 10})
	require.Len(t, findings, 1)
	assert.Equal(t, domain.ExploitCall, findings[0].Type)
	assert.Equal(t, "fold", findings[0].NodeID)
}

func TestDetectExploitsExploitingCallOnOvercall(t *testing.T) {
	tree := node("root", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil,
		node("bet", domain.ActionBet, domain.IP, domain.StreetFlop, f64(50),
			node("call", domain.ActionCall, domain.OOP, domain.StreetFlop, nil),
		),
	)
	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"call": {Frequency: f64(0.5)},
			}),
			Active: profile(domain.OOP, map[string]domain.NodeFrequency{
				"call": {Frequency: f64(0.8)},
			}),
		},
		IP: domain.ProfilePair{
			GTO: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {WeakPercent: f64(0.2)},
			}),
			Active: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {WeakPercent: f64(0.5)},
			}),
		},
	}
	annotated := Resolve(tree, profiles)

	findings := DetectExploits(annotated, WalkConfig{Pot: 10})
	require.Len(t, findings, 1)
	assert.Equal(t, domain.ExploitCall, findings[0].Type)
	assert.Equal(t, "call", findings[0].NodeID)
}

func TestDetectExploitsBetTypes(t *testing.T) {
	tests := []struct {
		name      string
		betActual float64
		betGTO    float64
		want      domain.FindingType
	}{
		{name: "under-betting into overfolds", betActual: 0.3, betGTO: 0.6, want: domain.ExploitMissedBet},
		{name: "over-betting into overfolds", betActual: 0.8, betGTO: 0.5, want: domain.ExploitBet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := Profiles{
				OOP: domain.ProfilePair{
					GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
						"fold": {Frequency: f64(0.3)},
					}),
					Active: profile(domain.OOP, map[string]domain.NodeFrequency{
						"fold": {Frequency: f64(0.6)},
					}),
				},
				IP: domain.ProfilePair{
					GTO: profile(domain.IP, map[string]domain.NodeFrequency{
						"bet": {Frequency: f64(tt.betGTO)},
					}),
					Active: profile(domain.IP, map[string]domain.NodeFrequency{
						"bet": {Frequency: f64(tt.betActual)},
					}),
				},
			}
			annotated := Resolve(checkBetFoldTree(), profiles)

			findings := DetectExploits(annotated, WalkConfig{Pot: 10})

			var betFinding *domain.Finding
			for i := range findings {
				if findings[i].NodeID == "bet" {
					betFinding = &findings[i]
				}
			}
			require.NotNil(t, betFinding)
			assert.Equal(t, tt.want, betFinding.Type)
			assert.Equal(t, domain.IP, betFinding.Player)
		})
	}
}

func TestDetectExploitsBetNeedsOverfoldingChild(t *testing.T) {
	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(0.5)},
			}),
			Active: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(0.5)},
			}),
		},
		IP: domain.ProfilePair{
			GTO: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {Frequency: f64(0.6)},
			}),
			Active: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {Frequency: f64(0.3)},
			}),
		},
	}
	annotated := Resolve(checkBetFoldTree(), profiles)

	assert.Empty(t, DetectExploits(annotated, WalkConfig{Pot: 10}))
}

func TestDetectExploitsAtMostOnePerNode(t *testing.T) {
	// A fold that both overfolds against an overbluffer and would match
	// nothing else still yields exactly one finding.
	annotated := Resolve(checkBetFoldTree(), overbluffProfiles(0.9, 0.1))

	findings := DetectExploits(annotated, WalkConfig{Pot: 10})
	seen := map[string]int{}
	for _, f := range findings {
		seen[f.NodeID]++
	}
	for id, count := range seen {
		assert.Equalf(t, 1, count, "node %s matched %d exploit types", id, count)
	}
}
