// Package analysis implements the leak and exploit detection engine.
// Everything in this package is a pure function over immutable inputs:
// a decision tree plus per-player frequency profiles go in, flat lists
// of findings come out. No I/O, no shared mutable state.
package analysis

import "github.com/CR-00/tree/internal/domain"

// DefaultFrequency is the policy default for a node absent from the GTO
// profile: 1, meaning "the whole range takes this action". The alternative
// reading (default 0, "never taken") would hide every unannotated branch
// from the detectors, so the permissive default is used and tested.
const DefaultFrequency = 1.0

// Profiles bundles both players' GTO/active profile pairs for one run.
type Profiles struct {
	OOP domain.ProfilePair
	IP  domain.ProfilePair
}

// Pair returns the profile pair for the given player.
func (ps Profiles) Pair(p domain.Player) domain.ProfilePair {
	if p == domain.OOP {
		return ps.OOP
	}
	return ps.IP
}

// Validate checks all four profiles for out-of-range values.
func (ps Profiles) Validate() error {
	if err := ps.OOP.Validate(); err != nil {
		return err
	}
	return ps.IP.Validate()
}

// AnnotatedNode is a DecisionNode with its resolved actual and baseline
// frequencies. Annotated trees are derived per analysis run and never
// persisted or mutated.
type AnnotatedNode struct {
	Node *domain.DecisionNode

	Frequency    float64
	GTOFrequency float64

	// Weak percentages stay nil when no profile defines them; they are
	// never defaulted, unlike frequencies.
	WeakPercent    *float64
	GTOWeakPercent *float64

	Children []*AnnotatedNode
}

// Resolve merges the two profiles of each player into per-node effective
// frequencies over the whole tree:
//
//   - gtoFrequency: the GTO profile's entry, or DefaultFrequency when unset
//   - frequency: the active profile's entry, inheriting gtoFrequency when
//     unset (this is how a sparse override profile is compared against GTO)
//   - weak percentages follow the same inheritance but without a default
//
// Missing profile entries are valid and meaningful, not errors.
func Resolve(node *domain.DecisionNode, profiles Profiles) *AnnotatedNode {
	if node == nil {
		return nil
	}

	pair := profiles.Pair(node.Player)

	annotated := &AnnotatedNode{
		Node:         node,
		GTOFrequency: DefaultFrequency,
	}

	if gto, ok := pair.GTO.Lookup(node.ID); ok {
		if gto.Frequency != nil {
			annotated.GTOFrequency = *gto.Frequency
		}
		annotated.GTOWeakPercent = gto.WeakPercent
	}

	annotated.Frequency = annotated.GTOFrequency
	annotated.WeakPercent = annotated.GTOWeakPercent

	if active, ok := pair.Active.Lookup(node.ID); ok {
		if active.Frequency != nil {
			annotated.Frequency = *active.Frequency
		}
		if active.WeakPercent != nil {
			annotated.WeakPercent = active.WeakPercent
		}
	}

	if len(node.Children) > 0 {
		annotated.Children = make([]*AnnotatedNode, 0, len(node.Children))
		for _, child := range node.Children {
			annotated.Children = append(annotated.Children, Resolve(child, profiles))
		}
	}

	return annotated
}
