package domain

// FindingType classifies a detected deviation or opportunity.
type FindingType string

// Leak findings: first-order frequency deviations from the GTO baseline.
const (
	LeakOverfold   FindingType = "overfold"
	LeakUnderfold  FindingType = "underfold"
	LeakOverbluff  FindingType = "overbluff"
	LeakUnderbluff FindingType = "underbluff"
	LeakFloat      FindingType = "float"
)

// Exploit findings: second-order deviations justified (or missed) because
// the opponent has already overbluffed earlier on the same path.
const (
	ExploitMissedCall FindingType = "missed-exploit-call"
	ExploitCall       FindingType = "exploiting-call"
	ExploitMissedBet  FindingType = "missed-exploit-bet"
	ExploitBet        FindingType = "exploiting-bet"
)

// Pattern tags a bet with a positional betting pattern.
type Pattern string

const (
	PatternStab  Pattern = "stab"  // IP bets after an OOP check, aggression changing hands
	PatternProbe Pattern = "probe" // OOP bets after IP checked back
	PatternDonk  Pattern = "donk"  // betting into the aggressor right after calling
)

// Finding is one detected leak or exploit opportunity. It references the
// node by id and carries the betting-line context at that node so the
// presentation layer never has to re-traverse the tree.
type Finding struct {
	NodeID string      `json:"node_id"`
	Player Player      `json:"player"`
	Type   FindingType `json:"type"`

	Actual             float64 `json:"actual_value"`
	Baseline           float64 `json:"baseline_value"`
	Difference         float64 `json:"absolute_difference"`
	RelativeDifference float64 `json:"relative_difference"`

	// Reach is the probability of arriving at this node, the product of all
	// ancestor action frequencies, excluding the node's own frequency.
	Reach   float64 `json:"reach_probability"`
	Street  Street  `json:"street"`
	PotSize float64 `json:"pot_size"`
	Combos  float64 `json:"combos"`
	Line    string  `json:"line"`

	// FloatEV is set only on float findings: the expected value of the
	// float line, positive by construction.
	FloatEV *float64 `json:"float_ev,omitempty"`
}
