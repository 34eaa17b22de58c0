package pma

// TrkCandidate pairs a reconstructed track with the key it carries through
// the surrounding pipeline (typically an index into the original input).
type TrkCandidate struct {
	Trk *Track
	Key int
}

// TrkCandidates is an ordered collection of track candidates. Ownership of
// tracks moves between collections during vertex commits.
type TrkCandidates []TrkCandidate

// Has reports whether the collection contains the track by identity.
func (c TrkCandidates) Has(t *Track) bool {
	for _, tc := range c {
		if tc.Trk == t {
			return true
		}
	}
	return false
}

// withdraw removes and returns the first entry holding t.
func (c *TrkCandidates) withdraw(t *Track) (TrkCandidate, bool) {
	for i, tc := range *c {
		if tc.Trk == t {
			*c = append((*c)[:i], (*c)[i+1:]...)
			return tc, true
		}
	}
	return TrkCandidate{}, false
}

// drop removes the first entry holding t, if any.
func (c *TrkCandidates) drop(t *Track) bool {
	_, ok := c.withdraw(t)
	return ok
}
