package pma

import (
	"log"
	"sort"
)

// VertexerConfig holds the parameters of the outer vertex search.
type VertexerConfig struct {
	Vtx VtxConfig
	// MinTrackLength is the significance filter: a candidate must hold at
	// least two tracks longer than this to be committed.
	MinTrackLength float64
}

// DefaultVertexerConfig returns the standard vertex-search parameters.
func DefaultVertexerConfig() VertexerConfig {
	return VertexerConfig{
		Vtx:            DefaultVtxConfig(),
		MinTrackLength: 3.0,
	}
}

// Vertexer drives the vertex search over a collection of track candidates:
// it builds a vertex candidate for every viable track pair, merges compatible
// candidates, and commits the survivors in significance order. Single use per
// event; not safe for concurrent use.
type Vertexer struct {
	cfg VertexerConfig
}

// NewVertexer returns a Vertexer with the given configuration.
func NewVertexer(cfg VertexerConfig) *Vertexer {
	return &Vertexer{cfg: cfg}
}

// Run finds and commits vertices among the given tracks. On return, trks
// holds the surviving tracks including any pieces split off during commits;
// tracks of branches discarded due to loops are removed. Returns the number
// of vertices made.
func (vx *Vertexer) Run(trks *TrkCandidates) (int, error) {
	cands, err := vx.collectCandidates(*trks)
	if err != nil {
		return 0, err
	}
	cands, err = vx.mergeCandidates(cands)
	if err != nil {
		return 0, err
	}

	// most significant first: more long tracks, then better fit
	sort.SliceStable(cands, func(i, j int) bool {
		si, sj := cands[i].Size(vx.cfg.MinTrackLength), cands[j].Size(vx.cfg.MinTrackLength)
		if si != sj {
			return si > sj
		}
		return cands[i].Mse() < cands[j].Mse()
	})

	var out TrkCandidates
	nvtx := 0
	for _, c := range cands {
		if c.Size(vx.cfg.MinTrackLength) < 2 {
			continue
		}
		// earlier commits may have consumed some of this candidate's
		// tracks already
		stale := false
		for _, t := range c.Tracks() {
			if !trks.Has(t) {
				stale = true
				break
			}
		}
		if stale {
			continue
		}
		ok, err := c.JoinTracks(&out, trks)
		if err != nil {
			return nvtx, err
		}
		if ok {
			nvtx++
		}
	}

	*trks = append(out, *trks...)
	log.Printf("[vertexing] made %d vertices, %d tracks out", nvtx, len(*trks))
	return nvtx, nil
}

// collectCandidates builds a two-track candidate for every pair that fits.
func (vx *Vertexer) collectCandidates(trks TrkCandidates) ([]*VtxCandidate, error) {
	var cands []*VtxCandidate
	for i := 0; i < len(trks); i++ {
		if trks[i].Trk.Length() < vx.cfg.MinTrackLength {
			continue
		}
		for j := i + 1; j < len(trks); j++ {
			if trks[j].Trk.Length() < vx.cfg.MinTrackLength {
				continue
			}
			c := NewVtxCandidate(vx.cfg.Vtx)
			ok, err := c.Add(trks[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			ok, err = c.Add(trks[j])
			if err != nil {
				return nil, err
			}
			if ok {
				cands = append(cands, c)
			}
		}
	}
	log.Printf("[vertexing] %d pair candidates", len(cands))
	return cands, nil
}

// mergeCandidates absorbs overlapping and nearby candidates into each other
// until no merge succeeds.
func (vx *Vertexer) mergeCandidates(cands []*VtxCandidate) ([]*VtxCandidate, error) {
	for i := 0; i < len(cands); i++ {
		c := cands[i]
		if c == nil {
			continue
		}
		for j := i + 1; j < len(cands); j++ {
			o := cands[j]
			if o == nil {
				continue
			}
			if c.HasAll(o) {
				cands[j] = nil
				continue
			}
			att, err := c.IsAttachedTo(o)
			if err != nil {
				return nil, err
			}
			if att {
				continue
			}
			ok, err := c.MergeWith(o)
			if err != nil {
				return nil, err
			}
			if ok {
				cands[j] = nil
			}
		}
	}
	var out []*VtxCandidate
	for _, c := range cands {
		if c != nil {
			out = append(out, c)
		}
	}
	log.Printf("[vertexing] %d candidates after merging", len(out))
	return out, nil
}
