package domain

// NodeFrequency is one profile entry, keyed by node id.
// Both fields are optional: a missing Frequency inherits (GTO from the
// policy default, active from GTO), a missing WeakPercent stays undefined.
type NodeFrequency struct {
	Frequency   *float64 `json:"frequency,omitempty"`
	WeakPercent *float64 `json:"weakPercent,omitempty"`
}

// FrequencyProfile is a named, player-scoped mapping from node id to
// frequency data. Two roles exist per player: the GTO baseline and the
// active strategy under review.
type FrequencyProfile struct {
	Name   string                   `json:"name"`
	Player Player                   `json:"player"`
	Nodes  map[string]NodeFrequency `json:"nodeData"`
}

// Lookup returns the entry for a node id. Safe on a nil profile;
// a missing entry is valid and means "inherit".
func (p *FrequencyProfile) Lookup(id string) (NodeFrequency, bool) {
	if p == nil || p.Nodes == nil {
		return NodeFrequency{}, false
	}
	nf, ok := p.Nodes[id]
	return nf, ok
}

// Validate checks every entry's values are in [0,1].
func (p *FrequencyProfile) Validate() error {
	if p == nil {
		return nil
	}
	for id, nf := range p.Nodes {
		if nf.Frequency != nil && (*nf.Frequency < 0 || *nf.Frequency > 1) {
			return &InvalidFrequencyError{NodeID: id, Field: "frequency", Value: *nf.Frequency}
		}
		if nf.WeakPercent != nil && (*nf.WeakPercent < 0 || *nf.WeakPercent > 1) {
			return &InvalidFrequencyError{NodeID: id, Field: "weakPercent", Value: *nf.WeakPercent}
		}
	}
	return nil
}

// ProfilePair bundles the GTO baseline and the active strategy for one player.
// Active may be nil or equal to GTO, meaning "review the baseline itself".
type ProfilePair struct {
	GTO    *FrequencyProfile
	Active *FrequencyProfile
}

// Validate checks both profiles of the pair.
func (pp ProfilePair) Validate() error {
	if err := pp.GTO.Validate(); err != nil {
		return err
	}
	return pp.Active.Validate()
}
