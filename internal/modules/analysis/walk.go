package analysis

import "github.com/CR-00/tree/internal/domain"

// WalkConfig carries the table-stakes scalars a traversal starts from.
type WalkConfig struct {
	// Pot is the pot size at the root, in big blinds.
	Pot float64

	// OOPCombos and IPCombos are each player's starting combo counts.
	OOPCombos float64
	IPCombos  float64

	// ExcludeRootAction leaves the root node's action out of the formatted
	// lines, so they read from the first real decision.
	ExcludeRootAction bool
}

// VisitState is the betting-line state at one visited node. All values are
// computed top-down and copied into each recursive call; visitors never
// share mutable state across siblings.
type VisitState struct {
	Node  *AnnotatedNode
	Depth int

	// Pot state before and after this node's own action resolves.
	Before PotState
	After  PotState

	// Reach is the product of all ancestor frequencies, excluding the
	// node's own frequency.
	Reach float64

	// Combo counts arriving at this node. Only a player's own decisions
	// shrink that player's count, so these too exclude the node's own
	// frequency.
	OOPCombos float64
	IPCombos  float64

	// Formatted betting lines per player, including this node's own action.
	OOPLine Line
	IPLine  Line

	// Whether each player has overbluffed (actual weak percent above the
	// GTO weak percent at one of their bet/raise nodes) on some strict
	// ancestor of this node. Monotonic down any path.
	OOPOverbluffed bool
	IPOverbluffed  bool
}

// Line returns the formatted line of the given player.
func (v *VisitState) Line(p domain.Player) string {
	if p == domain.OOP {
		return v.OOPLine.Format()
	}
	return v.IPLine.Format()
}

// Combos returns the combo count of the given player at this node.
func (v *VisitState) Combos(p domain.Player) float64 {
	if p == domain.OOP {
		return v.OOPCombos
	}
	return v.IPCombos
}

// Visitor is called once per node, in pre-order. Sibling order follows the
// declared child order of the tree.
type Visitor func(v *VisitState)

// Walk runs a depth-first pre-order traversal, threading pot, reach, combo
// and line state top-down. Both detectors share this single primitive and
// differ only in their visitor.
func Walk(root *AnnotatedNode, cfg WalkConfig, visit Visitor) {
	if root == nil {
		return
	}
	walk(root, &walkFrame{
		pot:       PotState{Pot: cfg.Pot},
		reach:     1,
		oopCombos: cfg.OOPCombos,
		ipCombos:  cfg.IPCombos,
	}, cfg, 0, visit)
}

// walkFrame is the per-call state threaded down the recursion. Lines carry
// value semantics, so a frame is safely copied per child.
type walkFrame struct {
	pot            PotState
	reach          float64
	oopCombos      float64
	ipCombos       float64
	oopLine        Line
	ipLine         Line
	oopOverbluffed bool
	ipOverbluffed  bool
}

func walk(node *AnnotatedNode, frame *walkFrame, cfg WalkConfig, depth int, visit Visitor) {
	after := Advance(node.Node.Action, frame.pot.Pot, frame.pot.FacingBet, node.Node.Sizing)

	oopLine, ipLine := frame.oopLine, frame.ipLine
	if depth > 0 || !cfg.ExcludeRootAction {
		label := ActionLabel(node.Node.Action, node.Node.Sizing, frame.pot.Pot, frame.pot.FacingBet)
		if node.Node.Player == domain.OOP {
			oopLine = oopLine.Append(node.Node.Street, label)
		} else {
			ipLine = ipLine.Append(node.Node.Street, label)
		}
	}

	visit(&VisitState{
		Node:           node,
		Depth:          depth,
		Before:         frame.pot,
		After:          after,
		Reach:          frame.reach,
		OOPCombos:      frame.oopCombos,
		IPCombos:       frame.ipCombos,
		OOPLine:        oopLine,
		IPLine:         ipLine,
		OOPOverbluffed: frame.oopOverbluffed,
		IPOverbluffed:  frame.ipOverbluffed,
	})

	if len(node.Children) == 0 {
		return
	}

	child := walkFrame{
		pot:            after,
		reach:          frame.reach * node.Frequency,
		oopCombos:      frame.oopCombos,
		ipCombos:       frame.ipCombos,
		oopLine:        oopLine,
		ipLine:         ipLine,
		oopOverbluffed: frame.oopOverbluffed,
		ipOverbluffed:  frame.ipOverbluffed,
	}

	// Only the acting player's range shrinks at their own decision.
	if node.Node.Player == domain.OOP {
		child.oopCombos *= node.Frequency
	} else {
		child.ipCombos *= node.Frequency
	}

	// Overbluff state flips on for the actor's descendants and never
	// flips back off along a path.
	if isOverbluff(node) {
		if node.Node.Player == domain.OOP {
			child.oopOverbluffed = true
		} else {
			child.ipOverbluffed = true
		}
	}

	for _, c := range node.Children {
		frameCopy := child
		walk(c, &frameCopy, cfg, depth+1, visit)
	}
}

// isOverbluff reports whether a node is a bet/raise whose actual weak
// percent exceeds the GTO weak percent. Both values must be defined.
func isOverbluff(node *AnnotatedNode) bool {
	return node.Node.Action.IsAggressive() &&
		node.WeakPercent != nil && node.GTOWeakPercent != nil &&
		*node.WeakPercent > *node.GTOWeakPercent
}
