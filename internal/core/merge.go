// The import-merge resolver. Reconciles the stored collection with an
// incoming candidate collection under an explicit strategy; identifiers
// are the only notion of conflict.

package core

import "errors"

// MergeStrategy selects how conflicting candidates are reconciled.
type MergeStrategy string

const (
	// MergeSkip appends only candidates whose id is not already
	// present; existing records are untouched.
	MergeSkip MergeStrategy = "skip"
	// MergeOverwrite replaces the content of conflicting existing
	// records, keeping their sort order; the rest are appended.
	MergeOverwrite MergeStrategy = "overwrite"
	// MergeClone appends every candidate under brand-new identifiers,
	// nested funders included; nothing can conflict.
	MergeClone MergeStrategy = "clone"
)

// ErrInvalidStrategy is returned for a strategy outside the three
// known values.
var ErrInvalidStrategy = errors.New("invalid merge strategy")

// Valid reports whether s is a known strategy.
func (s MergeStrategy) Valid() bool {
	switch s {
	case MergeSkip, MergeOverwrite, MergeClone:
		return true
	}
	return false
}

// Merge reconciles incoming candidates into the existing collection and
// returns the new collection; neither input is modified. Appended
// records receive strictly increasing sort orders starting at
// max(existing orders)+1, so appended order values never collide with
// existing ones. A candidate without an id gets a fresh one before any
// conflict check, so such a record can never accidentally conflict.
func Merge(existing, incoming []Investment, strategy MergeStrategy) ([]Investment, error) {
	if !strategy.Valid() {
		return nil, ErrInvalidStrategy
	}

	out := make([]Investment, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))
	for _, inv := range existing {
		out = append(out, inv.Clone())
		index[inv.ID] = len(out) - 1
	}

	nextOrder := MaxOrder(existing) + 1
	appendCandidate := func(c Investment) {
		c.Order = nextOrder
		nextOrder++
		out = append(out, c)
		index[c.ID] = len(out) - 1
	}

	for _, cand := range incoming {
		c := cand.Clone()
		if c.ID == "" {
			c.ID = NewID()
		}
		switch strategy {
		case MergeClone:
			appendCandidate(c.WithFreshIDs())
		case MergeSkip:
			if _, exists := index[c.ID]; exists {
				continue
			}
			appendCandidate(c)
		case MergeOverwrite:
			if i, exists := index[c.ID]; exists {
				c.Order = out[i].Order
				out[i] = c
			} else {
				appendCandidate(c)
			}
		}
	}
	return out, nil
}
