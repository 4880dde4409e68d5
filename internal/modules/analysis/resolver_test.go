package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CR-00/tree/internal/domain"
)

// node builds a test tree bottom-up.
func node(id string, action domain.Action, player domain.Player, street domain.Street, sizing *float64, children ...*domain.DecisionNode) *domain.DecisionNode {
	return &domain.DecisionNode{
		ID:       id,
		Action:   action,
		Player:   player,
		Street:   street,
		Sizing:   sizing,
		Children: children,
	}
}

func profile(player domain.Player, nodes map[string]domain.NodeFrequency) *domain.FrequencyProfile {
	return &domain.FrequencyProfile{Name: "test", Player: player, Nodes: nodes}
}

func TestResolveDefaultsToFullFrequency(t *testing.T) {
	root := node("root", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil)

	annotated := Resolve(root, Profiles{})
	require.NotNil(t, annotated)

	assert.Equal(t, 1.0, annotated.GTOFrequency)
	assert.Equal(t, 1.0, annotated.Frequency)
	assert.Nil(t, annotated.WeakPercent)
	assert.Nil(t, annotated.GTOWeakPercent)
}

func TestResolveActiveInheritsGTO(t *testing.T) {
	root := node("root", domain.ActionFold, domain.OOP, domain.StreetFlop, nil)

	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"root": {Frequency: f64(0.35)},
			}),
			// No active entry: frequency must equal gtoFrequency exactly.
			Active: profile(domain.OOP, nil),
		},
	}

	annotated := Resolve(root, profiles)
	assert.Equal(t, 0.35, annotated.GTOFrequency)
	assert.Equal(t, 0.35, annotated.Frequency)
}

func TestResolveActiveOverridesGTO(t *testing.T) {
	root := node("root", domain.ActionBet, domain.IP, domain.StreetTurn, f64(75))

	profiles := Profiles{
		IP: domain.ProfilePair{
			GTO: profile(domain.IP, map[string]domain.NodeFrequency{
				"root": {Frequency: f64(0.4), WeakPercent: f64(0.2)},
			}),
			Active: profile(domain.IP, map[string]domain.NodeFrequency{
				"root": {Frequency: f64(0.7), WeakPercent: f64(0.5)},
			}),
		},
	}

	annotated := Resolve(root, profiles)
	assert.Equal(t, 0.4, annotated.GTOFrequency)
	assert.Equal(t, 0.7, annotated.Frequency)
	require.NotNil(t, annotated.GTOWeakPercent)
	require.NotNil(t, annotated.WeakPercent)
	assert.Equal(t, 0.2, *annotated.GTOWeakPercent)
	assert.Equal(t, 0.5, *annotated.WeakPercent)
}

func TestResolveWeakPercentNeverDefaulted(t *testing.T) {
	root := node("root", domain.ActionBet, domain.OOP, domain.StreetFlop, nil)

	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"root": {Frequency: f64(0.5)},
			}),
		},
	}

	annotated := Resolve(root, profiles)
	assert.Nil(t, annotated.WeakPercent)
	assert.Nil(t, annotated.GTOWeakPercent)
}

func TestResolveRecursesPerPlayer(t *testing.T) {
	tree := node("root", domain.ActionCheck, domain.OOP, domain.StreetFlop, nil,
		node("bet", domain.ActionBet, domain.IP, domain.StreetFlop, f64(50),
			node("fold", domain.ActionFold, domain.OOP, domain.StreetFlop, nil),
		),
	)

	profiles := Profiles{
		OOP: domain.ProfilePair{
			GTO: profile(domain.OOP, map[string]domain.NodeFrequency{
				"fold": {Frequency: f64(0.2)},
			}),
		},
		IP: domain.ProfilePair{
			GTO: profile(domain.IP, map[string]domain.NodeFrequency{
				"bet": {Frequency: f64(0.6)},
			}),
		},
	}

	annotated := Resolve(tree, profiles)
	require.Len(t, annotated.Children, 1)
	bet := annotated.Children[0]
	require.Len(t, bet.Children, 1)
	fold := bet.Children[0]

	assert.Equal(t, 1.0, annotated.Frequency)
	assert.Equal(t, 0.6, bet.Frequency)
	assert.Equal(t, 0.2, fold.Frequency)
}

func TestResolveNil(t *testing.T) {
	assert.Nil(t, Resolve(nil, Profiles{}))
}
