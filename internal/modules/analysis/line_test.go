package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CR-00/tree/internal/domain"
)

func TestLineAppendMergesSameStreet(t *testing.T) {
	line := Line{}.
		Append(domain.StreetFlop, "X").
		Append(domain.StreetFlop, "B50").
		Append(domain.StreetTurn, "C")

	assert.Equal(t, "XB50 → C", line.Format())
}

func TestLineValueSemantics(t *testing.T) {
	base := Line{}.Append(domain.StreetFlop, "X")

	left := base.Append(domain.StreetFlop, "B50")
	right := base.Append(domain.StreetFlop, "R3X")

	assert.Equal(t, "X", base.Format())
	assert.Equal(t, "XB50", left.Format())
	assert.Equal(t, "XR3X", right.Format())
}

func TestLineFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Line{}.Format())
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		name      string
		action    domain.Action
		sizing    *float64
		pot       float64
		facingBet float64
		want      string
	}{
		{name: "bet with sizing", action: domain.ActionBet, sizing: f64(50), want: "B50"},
		{name: "bet fractional sizing", action: domain.ActionBet, sizing: f64(33.3), want: "B33.3"},
		{name: "bet default sizing", action: domain.ActionBet, want: "B50"},
		{name: "raise with multiplier", action: domain.ActionRaise, sizing: f64(3), want: "R3X"},
		{name: "raise default multiplier", action: domain.ActionRaise, want: "R3X"},
		{name: "call with pot odds", action: domain.ActionCall, pot: 20, facingBet: 5, want: "C33"},
		{name: "call facing half the pot", action: domain.ActionCall, pot: 15, facingBet: 5, want: "C50"},
		{name: "call with no bet faced", action: domain.ActionCall, pot: 10, want: "C"},
		{name: "check", action: domain.ActionCheck, want: "X"},
		{name: "fold", action: domain.ActionFold, want: "F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionLabel(tt.action, tt.sizing, tt.pot, tt.facingBet))
		})
	}
}
