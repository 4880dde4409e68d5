package analysis

import "github.com/CR-00/tree/internal/domain"

// DetectLeaks traverses an annotated tree once and classifies first-order
// frequency deviations: fold leaks, bluff leaks, and profitable float
// opportunities. A single node can produce several findings (a fold leak
// never coincides with a bluff leak, but a call node can carry a float
// finding alongside nothing else).
//
// Findings come back in pre-order traversal order.
func DetectLeaks(root *AnnotatedNode, cfg WalkConfig) []domain.Finding {
	var findings []domain.Finding

	Walk(root, cfg, func(v *VisitState) {
		if f, ok := foldLeak(v); ok {
			findings = append(findings, f)
		}
		if f, ok := bluffLeak(v); ok {
			findings = append(findings, f)
		}
		if f, ok := floatOpportunity(v); ok {
			findings = append(findings, f)
		}
	})

	return findings
}

// foldLeak compares a fold node's actual frequency with the baseline.
// Equal frequencies yield no finding. When the GTO frequency is exactly 0
// the relative difference is defined as 0 (the absolute difference still
// carries the signal).
func foldLeak(v *VisitState) (domain.Finding, bool) {
	node := v.Node
	if node.Node.Action != domain.ActionFold || node.Frequency == node.GTOFrequency {
		return domain.Finding{}, false
	}

	kind := domain.LeakOverfold
	diff := node.Frequency - node.GTOFrequency
	if node.Frequency < node.GTOFrequency {
		kind = domain.LeakUnderfold
		diff = node.GTOFrequency - node.Frequency
	}

	relative := 0.0
	if node.GTOFrequency > 0 {
		relative = diff / node.GTOFrequency
	}

	return leakFinding(v, kind, node.Frequency, node.GTOFrequency, diff, relative), true
}

// bluffLeak compares a bet/raise node's weak percent with the baseline.
// Both values must be defined; weak percents are never defaulted.
func bluffLeak(v *VisitState) (domain.Finding, bool) {
	node := v.Node
	if !node.Node.Action.IsAggressive() || node.WeakPercent == nil || node.GTOWeakPercent == nil {
		return domain.Finding{}, false
	}

	actual, baseline := *node.WeakPercent, *node.GTOWeakPercent
	if actual == baseline {
		return domain.Finding{}, false
	}

	kind := domain.LeakOverbluff
	diff := actual - baseline
	if actual < baseline {
		kind = domain.LeakUnderbluff
		diff = baseline - actual
	}

	relative := 0.0
	if baseline > 0 {
		relative = diff / baseline
	}

	return leakFinding(v, kind, actual, baseline, diff, relative), true
}

// floatOpportunity evaluates call nodes for a profitable float line: the
// caller pays the bet planning to take the pot away when the aggressor
// gives up. It looks two plies past the call: an immediate check child,
// that check's bet children by the caller, and each bet's fold children by
// the original bettor.
//
//	ev = checkFreq × (foldFreq × potAfterCheck − (1−foldFreq) × betAmount) − callAmount
//
// Only the single highest-EV qualifying line is reported per call node,
// and only when its EV is positive. The finding belongs to the opponent of
// the caller, the player the float would exploit.
func floatOpportunity(v *VisitState) (domain.Finding, bool) {
	node := v.Node
	if node.Node.Action != domain.ActionCall || v.Before.FacingBet <= 0 {
		return domain.Finding{}, false
	}

	caller := node.Node.Player
	callAmount := v.Before.FacingBet

	bestEV := 0.0
	found := false

	for _, check := range node.Children {
		if check.Node.Action != domain.ActionCheck {
			continue
		}
		// Checking leaves the pot as the call left it.
		potAfterCheck := v.After.Pot

		for _, bet := range check.Children {
			if bet.Node.Action != domain.ActionBet || bet.Node.Player != caller {
				continue
			}
			betState := Advance(domain.ActionBet, potAfterCheck, 0, bet.Node.Sizing)
			betAmount := betState.FacingBet

			for _, fold := range bet.Children {
				if fold.Node.Action != domain.ActionFold || fold.Node.Player == caller {
					continue
				}
				foldFreq := fold.Frequency
				ev := check.Frequency*(foldFreq*potAfterCheck-(1-foldFreq)*betAmount) - callAmount
				if ev > 0 && (!found || ev > bestEV) {
					bestEV = ev
					found = true
				}
			}
		}
	}

	if !found {
		return domain.Finding{}, false
	}

	opponent := caller.Opponent()
	ev := bestEV
	return domain.Finding{
		NodeID:     node.Node.ID,
		Player:     opponent,
		Type:       domain.LeakFloat,
		Actual:     ev,
		Baseline:   0,
		Difference: ev,
		Reach:      v.Reach,
		Street:     node.Node.Street,
		PotSize:    v.After.Pot,
		Combos:     v.Combos(opponent),
		Line:       v.Line(opponent),
		FloatEV:    &ev,
	}, true
}

// leakFinding fills the shared finding fields from the visit state.
// Street and pot size are the caller-local values after the node's own
// action resolves.
func leakFinding(v *VisitState, kind domain.FindingType, actual, baseline, diff, relative float64) domain.Finding {
	player := v.Node.Node.Player
	return domain.Finding{
		NodeID:             v.Node.Node.ID,
		Player:             player,
		Type:               kind,
		Actual:             actual,
		Baseline:           baseline,
		Difference:         diff,
		RelativeDifference: relative,
		Reach:              v.Reach,
		Street:             v.Node.Node.Street,
		PotSize:            v.After.Pot,
		Combos:             v.Combos(player),
		Line:               v.Line(player),
	}
}
