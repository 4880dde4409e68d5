package analysis

import "github.com/CR-00/tree/internal/domain"

// Default sizings applied when a bet or raise node carries none.
const (
	DefaultBetSizing   = 50.0 // percent of the current pot
	DefaultRaiseSizing = 3.0  // multiple of the bet faced
)

// PotState is the pot size and the bet currently faced, in big blinds.
type PotState struct {
	Pot       float64 `json:"pot"`
	FacingBet float64 `json:"facing_bet"`
}

// Advance computes the pot state resulting from an action. It is total:
// every action maps to a result, no error paths. Amounts accumulate as
// floats without rounding; rounding happens only at display time.
//
// Raise sizing is a multiple of the bet faced, not of the pot, so a raise
// with no facing bet degenerates to zero.
func Advance(action domain.Action, pot, facingBet float64, sizing *float64) PotState {
	switch action {
	case domain.ActionBet:
		pct := DefaultBetSizing
		if sizing != nil {
			pct = *sizing
		}
		amount := pot * pct / 100
		return PotState{Pot: pot + amount, FacingBet: amount}

	case domain.ActionRaise:
		mult := DefaultRaiseSizing
		if sizing != nil {
			mult = *sizing
		}
		total := mult * facingBet
		return PotState{Pot: pot + total, FacingBet: total - facingBet}

	case domain.ActionCall:
		return PotState{Pot: pot + facingBet, FacingBet: 0}

	default: // check, fold
		return PotState{Pot: pot, FacingBet: 0}
	}
}
