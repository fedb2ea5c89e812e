package core

// Settings is the durable configuration owned by the ledger: remembered
// source and funder names for input suggestions, and the rate→color
// mapping used by presentation layers. The mapping is keyed state, not
// computed, so it lives with the data.
type Settings struct {
	Sources     []string          `json:"sources"`
	FunderNames []string          `json:"funderNames"`
	RateColors  map[string]string `json:"rateColorMap"`
}

// Normalized returns a copy with nil members replaced by empty ones so
// callers and serializers never see null collections.
func (s Settings) Normalized() Settings {
	out := s.Clone()
	if out.Sources == nil {
		out.Sources = []string{}
	}
	if out.FunderNames == nil {
		out.FunderNames = []string{}
	}
	if out.RateColors == nil {
		out.RateColors = map[string]string{}
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with the original.
func (s Settings) Clone() Settings {
	out := s
	if s.Sources != nil {
		out.Sources = append([]string(nil), s.Sources...)
	}
	if s.FunderNames != nil {
		out.FunderNames = append([]string(nil), s.FunderNames...)
	}
	if s.RateColors != nil {
		out.RateColors = make(map[string]string, len(s.RateColors))
		for k, v := range s.RateColors {
			out.RateColors[k] = v
		}
	}
	return out
}

// RememberSource returns a copy with the source name added to the
// suggestion list if it is non-empty and not already present.
func (s Settings) RememberSource(name string) Settings {
	out := s.Clone()
	out.Sources = appendUnique(out.Sources, name)
	return out
}

// RememberFunders returns a copy with each funder name added to the
// suggestion list if non-empty and not already present.
func (s Settings) RememberFunders(names ...string) Settings {
	out := s.Clone()
	for _, name := range names {
		out.FunderNames = appendUnique(out.FunderNames, name)
	}
	return out
}

func appendUnique(list []string, name string) []string {
	if name == "" {
		return list
	}
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
