// Package spots manages stored analysis spots: a named decision tree plus
// the table parameters an analysis run starts from.
package spots

import (
	"time"

	"github.com/CR-00/tree/internal/domain"
)

// Spot is one saved scenario. The tree is stored whole as JSON; frequency
// profiles live in their own table keyed by spot id.
type Spot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Pot         float64 `json:"pot"`
	OOPCombos   float64 `json:"oopCombos"`
	IPCombos    float64 `json:"ipCombos"`

	ExcludeRootAction bool `json:"excludeRootAction"`

	Tree *domain.DecisionNode `json:"tree"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the spot is storable: it has a name and a structurally
// valid tree.
func (s *Spot) Validate() error {
	if s.Name == "" {
		return ErrMissingName
	}
	return domain.ValidateTree(s.Tree)
}
