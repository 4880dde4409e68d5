package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/CR-00/tree/internal/domain"
)

// Line is one player's betting line: an ordered sequence of per-street
// segments. Actions taken by the player within one street concatenate with
// no separator ("XB50"); streets are joined with an arrow.
//
// Line has value semantics: Append returns a new Line so a copy can be
// threaded down each branch of a traversal without aliasing.
type Line struct {
	segments []lineSegment
}

type lineSegment struct {
	street domain.Street
	labels string
}

// Append adds an action label to the line, merging into the last segment
// when the street matches and starting a new segment otherwise.
func (l Line) Append(street domain.Street, label string) Line {
	segments := make([]lineSegment, len(l.segments), len(l.segments)+1)
	copy(segments, l.segments)

	if n := len(segments); n > 0 && segments[n-1].street == street {
		segments[n-1].labels += label
	} else {
		segments = append(segments, lineSegment{street: street, labels: label})
	}
	return Line{segments: segments}
}

// Format renders the line, joining street segments with " → ".
func (l Line) Format() string {
	if len(l.segments) == 0 {
		return ""
	}
	parts := make([]string, len(l.segments))
	for i, seg := range l.segments {
		parts[i] = seg.labels
	}
	return strings.Join(parts, " → ")
}

// ActionLabel builds the label for a node's action given the pot state it
// faces: the action's letter code, suffixed with the sizing for bets
// ("B50") and raises ("R3X"), and for calls with the implied pot-odds
// percentage ("C33") when the pot exceeds the bet faced.
func ActionLabel(action domain.Action, sizing *float64, pot, facingBet float64) string {
	letter := action.Letter()

	switch action {
	case domain.ActionBet:
		pct := DefaultBetSizing
		if sizing != nil {
			pct = *sizing
		}
		return letter + formatSizing(pct)

	case domain.ActionRaise:
		mult := DefaultRaiseSizing
		if sizing != nil {
			mult = *sizing
		}
		return letter + formatSizing(mult) + "X"

	case domain.ActionCall:
		if pot > facingBet && facingBet > 0 {
			odds := math.Round(facingBet / (pot - facingBet) * 100)
			return letter + strconv.FormatFloat(odds, 'f', -1, 64)
		}
		return letter
	}

	return letter
}

// formatSizing renders a sizing without trailing zeros (50, 33.3, 2.5).
func formatSizing(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
