package analysis

import "github.com/CR-00/tree/internal/domain"

// DetectExploits runs the second-order classification: deviations that are
// justified, or wrongly missed, because the opponent already deviated
// earlier on the same path. The opponent's ancestor overbluff state comes
// from the shared traversal.
//
// Each node matches at most one exploit type; the checks run in a fixed
// priority order and the first hit wins. Float opportunities are a
// separate concern and are never suppressed by, nor suppress, an exploit
// at the same node.
func DetectExploits(root *AnnotatedNode, cfg WalkConfig) []domain.Finding {
	var findings []domain.Finding

	Walk(root, cfg, func(v *VisitState) {
		node := v.Node
		opponent := node.Node.Player.Opponent()
		opponentOverbluffed := v.OOPOverbluffed
		if opponent == domain.IP {
			opponentOverbluffed = v.IPOverbluffed
		}

		kind, ok := classifyExploit(node, opponentOverbluffed)
		if !ok {
			return
		}

		diff := node.Frequency - node.GTOFrequency
		if diff < 0 {
			diff = -diff
		}
		relative := 0.0
		if node.GTOFrequency > 0 {
			relative = diff / node.GTOFrequency
		}

		findings = append(findings, leakFinding(v, kind, node.Frequency, node.GTOFrequency, diff, relative))
	})

	return findings
}

func classifyExploit(node *AnnotatedNode, opponentOverbluffed bool) (domain.FindingType, bool) {
	action := node.Node.Action

	switch {
	case action == domain.ActionFold && node.Frequency > node.GTOFrequency && opponentOverbluffed:
		// Over-folding into a range already shown to be bluff heavy.
		return domain.ExploitMissedCall, true

	case action == domain.ActionFold && node.Frequency < node.GTOFrequency && opponentOverbluffed:
		return domain.ExploitCall, true

	case action == domain.ActionCall && node.Frequency > node.GTOFrequency && opponentOverbluffed:
		return domain.ExploitCall, true

	case action.IsAggressive() && node.Frequency < node.GTOFrequency && opponentOverfoldsTo(node):
		return domain.ExploitMissedBet, true

	case action.IsAggressive() && node.Frequency > node.GTOFrequency && opponentOverfoldsTo(node):
		return domain.ExploitBet, true
	}

	return "", false
}

// opponentOverfoldsTo reports whether any immediate child is an overfold
// by the other player, the condition shared by both bet exploit types.
func opponentOverfoldsTo(node *AnnotatedNode) bool {
	for _, child := range node.Children {
		if child.Node.Action == domain.ActionFold &&
			child.Node.Player != node.Node.Player &&
			child.Frequency > child.GTOFrequency {
			return true
		}
	}
	return false
}
