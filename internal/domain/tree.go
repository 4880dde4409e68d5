// Package domain contains the pure poker decision-tree model.
// No infrastructure dependencies belong here.
package domain

import "fmt"

// Action is a betting action at a decision node.
type Action string

const (
	ActionBet   Action = "bet"
	ActionCheck Action = "check"
	ActionRaise Action = "raise"
	ActionCall  Action = "call"
	ActionFold  Action = "fold"
)

// IsAggressive reports whether the action puts chips in voluntarily (bet or raise).
func (a Action) IsAggressive() bool {
	return a == ActionBet || a == ActionRaise
}

// Letter returns the single-letter code used in formatted betting lines.
func (a Action) Letter() string {
	switch a {
	case ActionBet:
		return "B"
	case ActionCheck:
		return "X"
	case ActionRaise:
		return "R"
	case ActionCall:
		return "C"
	case ActionFold:
		return "F"
	}
	return "?"
}

// Valid reports whether the action is one of the five known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionBet, ActionCheck, ActionRaise, ActionCall, ActionFold:
		return true
	}
	return false
}

// Player identifies one of the two players in a heads-up betting line.
type Player string

const (
	OOP Player = "OOP" // out of position
	IP  Player = "IP"  // in position
)

// Opponent returns the other player.
func (p Player) Opponent() Player {
	if p == OOP {
		return IP
	}
	return OOP
}

// Valid reports whether the player is OOP or IP.
func (p Player) Valid() bool {
	return p == OOP || p == IP
}

// Street identifies the betting round of a node.
// Streets are non-decreasing from root to leaf along any path.
type Street string

const (
	StreetFlop  Street = "flop"
	StreetTurn  Street = "turn"
	StreetRiver Street = "river"
)

// DecisionNode is one node of an annotated poker decision tree.
// The tree is immutable, acyclic, rooted and ordered; every node except the
// root has exactly one parent. Sizing is interpreted per action: for bets a
// percent of the current pot, for raises a multiplier on the bet faced.
type DecisionNode struct {
	ID       string          `json:"id"`
	Action   Action          `json:"action"`
	Player   Player          `json:"actingPlayer"`
	Street   Street          `json:"street"`
	Sizing   *float64        `json:"sizing,omitempty"`
	Children []*DecisionNode `json:"children,omitempty"`
}

// MalformedTreeError signals a structural precondition violation
// (duplicate ids, cycles, unknown actions or players).
// Any detected malformation aborts the whole analysis; reach and combo
// propagation downstream of a bad node would be meaningless.
type MalformedTreeError struct {
	NodeID string
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed tree at node %q: %s", e.NodeID, e.Reason)
}

// InvalidFrequencyError signals a profile value outside [0,1].
type InvalidFrequencyError struct {
	NodeID string
	Field  string
	Value  float64
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid %s %v for node %q: must be in [0,1]", e.Field, e.Value, e.NodeID)
}

// ParentIndex is an id-keyed side table giving O(1) node and parent lookups.
// It is built once per tree and never mutated afterwards, so concurrent
// readers are safe. Node back-pointers are deliberately avoided.
type ParentIndex struct {
	nodes   map[string]*DecisionNode
	parents map[string]*DecisionNode
}

// BuildParentIndex walks the tree once, building the id -> node and
// id -> parent tables. It rejects duplicate ids and cyclic structures
// with a MalformedTreeError.
func BuildParentIndex(root *DecisionNode) (*ParentIndex, error) {
	if root == nil {
		return nil, &MalformedTreeError{Reason: "nil root"}
	}

	ix := &ParentIndex{
		nodes:   make(map[string]*DecisionNode),
		parents: make(map[string]*DecisionNode),
	}

	var visit func(node, parent *DecisionNode) error
	visit = func(node, parent *DecisionNode) error {
		if node.ID == "" {
			return &MalformedTreeError{NodeID: node.ID, Reason: "empty node id"}
		}
		if _, seen := ix.nodes[node.ID]; seen {
			return &MalformedTreeError{NodeID: node.ID, Reason: "duplicate node id"}
		}
		if !node.Action.Valid() {
			return &MalformedTreeError{NodeID: node.ID, Reason: fmt.Sprintf("unknown action %q", node.Action)}
		}
		if !node.Player.Valid() {
			return &MalformedTreeError{NodeID: node.ID, Reason: fmt.Sprintf("unknown player %q", node.Player)}
		}

		ix.nodes[node.ID] = node
		ix.parents[node.ID] = parent

		for _, child := range node.Children {
			if child == nil {
				return &MalformedTreeError{NodeID: node.ID, Reason: "nil child"}
			}
			// A shared or back-referenced node shows up as a duplicate id
			// (ids are unique), so the seen-check above also breaks cycles.
			if err := visit(child, node); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root, nil); err != nil {
		return nil, err
	}
	return ix, nil
}

// Node returns the node with the given id, or nil if unknown.
func (ix *ParentIndex) Node(id string) *DecisionNode {
	return ix.nodes[id]
}

// Parent returns the parent of the node with the given id.
// The root's parent (and any unknown id's parent) is nil.
func (ix *ParentIndex) Parent(id string) *DecisionNode {
	return ix.parents[id]
}

// Size returns the number of nodes in the indexed tree.
func (ix *ParentIndex) Size() int {
	return len(ix.nodes)
}

// ValidateTree checks the structural invariants of a tree.
func ValidateTree(root *DecisionNode) error {
	_, err := BuildParentIndex(root)
	return err
}
