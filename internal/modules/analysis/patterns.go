package analysis

import "github.com/CR-00/tree/internal/domain"

// ClassifyPattern tags the bet/raise a node belongs to as a stab, probe or
// donk, or returns ok=false when no pattern applies. The node resolves to
// its nearest enclosing aggressive node first: itself if it is a bet or
// raise, else its parent if the parent is one, else there is nothing to
// classify.
//
// Classification is a pure lookup over the parent index, called per
// finding, not a traversal.
func ClassifyPattern(idx *domain.ParentIndex, nodeID string) (domain.Pattern, bool) {
	node := idx.Node(nodeID)
	if node == nil {
		return "", false
	}

	agg := node
	if !agg.Action.IsAggressive() {
		agg = idx.Parent(node.ID)
		if agg == nil || !agg.Action.IsAggressive() {
			return "", false
		}
	}

	parent := idx.Parent(agg.ID)

	// Stab: IP takes the betting lead after OOP checks, without having been
	// the most recent aggressor. No prior aggression at all also counts,
	// since aggression still passes to IP.
	if agg.Action == domain.ActionBet && agg.Player == domain.IP &&
		parent != nil && parent.Action == domain.ActionCheck && parent.Player == domain.OOP {
		if prior := priorAggressor(idx, parent); prior != domain.IP {
			return domain.PatternStab, true
		}
	}

	// Probe: OOP bets into IP after IP checked back.
	if agg.Action == domain.ActionBet && agg.Player == domain.OOP &&
		parent != nil && parent.Action == domain.ActionCheck && parent.Player == domain.IP {
		return domain.PatternProbe, true
	}

	// Donk: betting into the aggressor right after calling, instead of
	// check-raising or waiting.
	if parent != nil && parent.Action == domain.ActionCall && parent.Player == agg.Player {
		return domain.PatternDonk, true
	}

	return "", false
}

// priorAggressor walks up from the given node and returns the player of
// the most recent ancestor bet/raise, or the empty Player when the line
// has no prior aggression.
func priorAggressor(idx *domain.ParentIndex, from *domain.DecisionNode) domain.Player {
	for node := from; node != nil; node = idx.Parent(node.ID) {
		if node.Action.IsAggressive() {
			return node.Player
		}
	}
	return ""
}
