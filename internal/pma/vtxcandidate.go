package pma

import (
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PetrilloAtWork/pmatrack/internal/geom"
)

// VtxConfig carries the thresholds of the vertex-candidate search.
type VtxConfig struct {
	MaxDistToTrack float64 // max distance from a track to the fitted center to form a vertex
	MinDistToNode  float64 // min distance from an existing node required to split a segment
	SegMinLength   float64 // segments shorter than this are excluded from fits
	MergeDistGate  float64 // raw center-to-center distance gate before a merge is considered
	MergeMseLimit  float64 // max 3D fit residual accepted after a merge
}

// DefaultVtxConfig returns the standard vertexing thresholds.
func DefaultVtxConfig() VtxConfig {
	return VtxConfig{
		MaxDistToTrack: 4.0,
		MinDistToNode:  2.0,
		SegMinLength:   0.5,
		MergeDistGate:  10.0,
		MergeMseLimit:  1.0,
	}
}

// CandState is the lifecycle state of a vertex candidate. Transitions only
// move forward: Building -> Merging -> Committing -> Committed or Discarded.
type CandState int

const (
	CandBuilding CandState = iota
	CandMerging
	CandCommitting
	CandCommitted
	CandDiscarded
)

func (s CandState) String() string {
	switch s {
	case CandBuilding:
		return "building"
	case CandMerging:
		return "merging"
	case CandCommitting:
		return "committing"
	case CandCommitted:
		return "committed"
	case CandDiscarded:
		return "discarded"
	}
	return "unknown"
}

// assignment records that a track takes part in the candidate, intersecting
// the vertex at the segment starting at node index seg.
type assignment struct {
	cand TrkCandidate
	seg  int
}

// VtxCandidate is a candidate 3D vertex: an ordered set of assigned tracks,
// the weighted least-squares crossing point of their selected segments, and
// the machinery to splice that point into the track graph as a shared node.
//
// The fitted center, per-axis error and residuals are derived state: they are
// recomputed from the assigned set after every mutation and never modified
// independently. Once the candidate commits (JoinTracks) it is terminal.
type VtxCandidate struct {
	cfg      VtxConfig
	assigned []assignment
	center   r3.Vec
	errv     r3.Vec
	mse      float64
	mse2D    float64
	state    CandState
}

// NewVtxCandidate returns an empty candidate using the given thresholds.
func NewVtxCandidate(cfg VtxConfig) *VtxCandidate {
	return &VtxCandidate{cfg: cfg}
}

// Center returns the fitted vertex position.
func (v *VtxCandidate) Center() r3.Vec { return v.center }

// Err returns the per-axis weighted fit error, used to compare candidates.
func (v *VtxCandidate) Err() r3.Vec { return v.errv }

// Mse returns the 3D residual of the last fit.
func (v *VtxCandidate) Mse() float64 { return v.mse }

// Mse2D returns the readout-plane residual of the last fit.
func (v *VtxCandidate) Mse2D() float64 { return v.mse2D }

// State returns the candidate's lifecycle state.
func (v *VtxCandidate) State() CandState { return v.state }

// Len returns the number of assigned tracks.
func (v *VtxCandidate) Len() int { return len(v.assigned) }

// Tracks returns the assigned tracks in assignment order.
func (v *VtxCandidate) Tracks() []*Track {
	out := make([]*Track, len(v.assigned))
	for i, a := range v.assigned {
		out[i] = a.cand.Trk
	}
	return out
}

// Has reports whether the track is assigned to this candidate.
func (v *VtxCandidate) Has(trk *Track) bool {
	for _, a := range v.assigned {
		if a.cand.Trk == trk {
			return true
		}
	}
	return false
}

// HasAll reports whether every track of other is assigned to this candidate.
func (v *VtxCandidate) HasAll(other *VtxCandidate) bool {
	for _, a := range other.assigned {
		if !v.Has(a.cand.Trk) {
			return false
		}
	}
	return true
}

// IsAttached reports whether trk is graph-attached, directly or transitively,
// to any assigned track. Returns ErrBrokenTrack when a track has no
// discoverable root.
func (v *VtxCandidate) IsAttached(trk *Track) (bool, error) {
	root, err := trk.Root()
	if err != nil {
		return false, err
	}
	for _, a := range v.assigned {
		ar, err := a.cand.Trk.Root()
		if err != nil {
			return false, err
		}
		if root.IsAttachedTo(ar) {
			return true, nil
		}
	}
	return false, nil
}

// IsAttachedTo reports whether any track of other is attached to any track
// of this candidate.
func (v *VtxCandidate) IsAttachedTo(other *VtxCandidate) (bool, error) {
	for _, a := range other.assigned {
		att, err := v.IsAttached(a.cand.Trk)
		if err != nil {
			return false, err
		}
		if att {
			return true, nil
		}
	}
	return false, nil
}

// HasLoops reports whether any two assigned tracks have mutually attached
// roots, i.e. the candidate is already topologically inconsistent.
func (v *VtxCandidate) HasLoops() (bool, error) {
	for t := range v.assigned {
		rt, err := v.assigned[t].cand.Trk.Root()
		if err != nil {
			return false, err
		}
		for u := range v.assigned {
			if t == u {
				continue
			}
			ru, err := v.assigned[u].cand.Trk.Root()
			if err != nil {
				return false, err
			}
			if rt.IsAttachedTo(ru) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Size counts the assigned tracks longer than minLength.
func (v *VtxCandidate) Size(minLength float64) int {
	n := 0
	for _, a := range v.assigned {
		if a.cand.Trk.Length() > minLength {
			n++
		}
	}
	return n
}

// MaxAngle takes the local direction of the longest assigned track at the
// vertex as reference and returns the largest angle (degrees) between it and
// any other assigned track longer than minLength.
func (v *VtxCandidate) MaxAngle(minLength float64) float64 {
	var dirRef r3.Vec
	maxIdx := 0
	var maxL float64
	for i := 0; i+1 < len(v.assigned); i++ {
		if l := v.assigned[i].cand.Trk.Length(); l > maxL {
			maxL = l
			maxIdx = i
			trk := v.assigned[i].cand.Trk
			p0 := trk.g.NodePoint(trk.nodes[v.assigned[i].seg])
			p1 := trk.g.NodePoint(trk.nodes[v.assigned[i].seg+1])
			d := r3.Sub(p1, p0)
			dirRef = r3.Scale(1/r3.Norm(d), d)
		}
	}

	minCos := 1.0
	for j := range v.assigned {
		if j == maxIdx || v.assigned[j].cand.Trk.Length() <= minLength {
			continue
		}
		trk := v.assigned[j].cand.Trk
		p0 := trk.g.NodePoint(trk.nodes[v.assigned[j].seg])
		p1 := trk.g.NodePoint(trk.nodes[v.assigned[j].seg+1])
		d := r3.Sub(p1, p0)
		dirJ := r3.Scale(1/r3.Norm(d), d)
		if a := math.Abs(r3.Dot(dirRef, dirJ)); a < minCos {
			minCos = a
		}
	}
	return 180.0 * math.Acos(minCos) / math.Pi
}

// segmentWeight grades a fit segment by how steep it is: fy_norm rescales
// the elevation angle to [0, 1] and the 12th-power falloff suppresses the
// shallow (measurement-unstable) end without discarding it, with a hard
// floor of 0.3.
func segmentWeight(dy, segLength float64) float64 {
	r := math.Abs(dy) / segLength
	if r > 1 {
		r = 1
	}
	fy := math.Asin(r) / (0.5 * math.Pi)
	w := 1.0 - math.Pow(fy-1.0, 12)
	if w < 0.3 {
		w = 0.3
	}
	return w
}

// solveFailureMse is reported when the least-squares solver cannot produce a
// crossing point; large enough that every threshold check rejects it.
const solveFailureMse = 1.0e6

// Compute refits the vertex from the assigned set: collects each assigned
// track's selected segment (skipping those below SegMinLength), solves the
// weighted least-squares crossing point, and rebuilds center and per-axis
// error from the per-segment projections of the solution. The X component is
// weight-averaged while Y and Z are plain means; the asymmetry targets the
// steep-segment failure mode and is kept exactly as calibrated.
//
// Returns the 3D fit residual, or solveFailureMse when the solver fails (the
// center is left at the origin in that case).
func (v *VtxCandidate) Compute() float64 {
	var lines []geom.Line
	var weights []float64
	for _, a := range v.assigned {
		trk := a.cand.Trk
		n1 := trk.nodes[a.seg]
		s, ok := trk.NextSegment(n1)
		if !ok {
			continue
		}
		segLength := trk.g.SegLength(s)
		if segLength < v.cfg.SegMinLength {
			continue
		}
		_, n2 := trk.g.SegNodes(s)
		p1 := trk.g.NodePoint(n1)
		p2 := trk.g.NodePoint(n2)
		lines = append(lines, geom.Line{P0: p1, P1: p2})
		weights = append(weights, segmentWeight(p1.Y-p2.Y, segLength))
	}

	v.center = r3.Vec{}
	v.errv = r3.Vec{}

	result, resultMse := geom.SolveLeastSquares3D(lines, weights)
	if resultMse < 0 {
		log.Printf("[vertex] cannot compute crossing point")
		return solveFailureMse
	}

	var wsum float64
	for i := range lines {
		pproj := geom.ProjectOnSegment(result, lines[i].P0, lines[i].P1)
		w := weights[i]

		v.errv.X += w * w
		v.errv.Y += 1.0
		v.errv.Z += 1.0

		v.center.X += w * pproj.X
		v.center.Y += pproj.Y
		v.center.Z += pproj.Z
		wsum += w
	}
	n := float64(len(lines))
	v.center.X /= wsum
	v.center.Y /= n
	v.center.Z /= n

	v.errv = r3.Scale(1/n, v.errv)
	v.errv.X = math.Sqrt(v.errv.X)
	v.errv.Y = math.Sqrt(v.errv.Y)
	v.errv.Z = math.Sqrt(v.errv.Z)

	return resultMse
}

// ComputeMse2D projects the fitted center onto every readout view available
// at each assigned track's vertex node and averages the squared 2D distance
// from the projected segment, first over the views of a node, then over the
// assigned tracks. A secondary quality metric, never a fit input.
func (v *VtxCandidate) ComputeMse2D() float64 {
	if len(v.assigned) == 0 {
		return 0
	}
	var mse float64
	for _, a := range v.assigned {
		trk := a.cand.Trk
		g := trk.g
		n := trk.nodes[a.seg]
		s, ok := trk.NextSegment(n)
		if !ok {
			continue
		}
		tpc, cryo := g.NodeVolume(n)
		det := g.Detector()

		k := 0
		m := 0.0
		for _, view := range det.Views(tpc, cryo) {
			c2, ok := det.ProjectPoint(v.center, view, tpc, cryo)
			if !ok {
				continue
			}
			d2, ok := g.SegDist2To2D(s, c2, view)
			if !ok {
				continue
			}
			m += d2
			k++
		}
		if k > 0 {
			mse += m / float64(k)
		}
	}
	return mse / float64(len(v.assigned))
}

// Add grows the candidate by one track, searching for the segment of the new
// (and, for the second track, also the first) track that best intersects the
// evolving fit. Returns false when the track is already attached to the
// candidate or no segment passes the distance and length thresholds; in that
// case the candidate is left exactly as before the call.
func (v *VtxCandidate) Add(tc TrkCandidate) (bool, error) {
	if v.state != CandBuilding {
		return false, ErrCandidateClosed
	}
	att, err := v.IsAttached(tc.Trk)
	if err != nil {
		return false, err
	}
	if att {
		return false, nil
	}

	v.assigned = append(v.assigned, assignment{cand: tc})
	trk := tc.Trk

	switch {
	case len(v.assigned) > 2:
		// the earlier tracks' segment choices are settled; search only
		// the new track's segments against the evolving fit
		nBest := 0
		dBest := v.cfg.MaxDistToTrack
		minMse := v.cfg.MaxDistToTrack * v.cfg.MaxDistToTrack
		for n := 0; n < trk.NumSegments(); n++ {
			s := trk.segs[n]
			if trk.g.SegLength(s) < v.cfg.SegMinLength {
				continue
			}
			v.assigned[len(v.assigned)-1].seg = n
			mse := v.Compute()
			if mse < minMse {
				if d := math.Sqrt(trk.g.SegDist2To(s, v.center)); d < dBest {
					minMse = mse
					nBest = n
					dBest = d
				}
			}
		}
		if dBest < v.cfg.MaxDistToTrack {
			v.assigned[len(v.assigned)-1].seg = nBest
			v.mse = v.Compute()
			v.mse2D = v.ComputeMse2D()
			return true, nil
		}
		v.assigned = v.assigned[:len(v.assigned)-1]
		v.mse = v.Compute()
		v.mse2D = v.ComputeMse2D()
		return false, nil

	case len(v.assigned) == 2:
		// second track establishes the first real fit: nested search over
		// both tracks' segments, preferring longer segment pairs when the
		// 2D residual improvement is marginal
		first := v.assigned[0].cand.Trk
		prevSeg0 := v.assigned[0].seg

		nBest, mBest := 0, 0
		dBest := v.cfg.MaxDistToTrack
		var lBest float64
		for m := 0; m < first.NumSegments(); m++ {
			lm := first.SegmentLength(m)
			if lm < v.cfg.SegMinLength {
				continue
			}
			v.assigned[0].seg = m
			for n := 0; n < trk.NumSegments(); n++ {
				ln := trk.SegmentLength(n)
				if ln < v.cfg.SegMinLength {
					continue
				}
				v.assigned[1].seg = n
				v.Compute()
				d := math.Sqrt(v.ComputeMse2D())
				if d < dBest {
					rel := (dBest - d) / dBest
					if lm+ln > 0.8*rel*lBest {
						// take the closer pair unless it is much shorter
						mBest, nBest = m, n
						dBest = d
						lBest = lm + ln
					}
				}
			}
		}
		if dBest < v.cfg.MaxDistToTrack {
			v.assigned[0].seg = mBest
			v.assigned[1].seg = nBest
			v.mse = v.Compute()
			v.mse2D = v.ComputeMse2D()
			return true, nil
		}
		v.assigned = v.assigned[:1]
		v.assigned[0].seg = prevSeg0
		v.center = r3.Vec{}
		v.mse, v.mse2D = 0, 0
		return false, nil

	default:
		// first track: provisional, as long as any segment can ever
		// enter a fit
		for n := 0; n < trk.NumSegments(); n++ {
			if trk.SegmentLength(n) >= v.cfg.SegMinLength {
				return true, nil
			}
		}
		v.assigned = v.assigned[:0]
		v.center = r3.Vec{}
		v.mse, v.mse2D = 0, 0
		return false, nil
	}
}

// Test returns the distance between the two candidates' centers scaled
// per-axis by the product of their fit errors; a statistical-distance proxy
// used to rank merge partners.
func (v *VtxCandidate) Test(other *VtxCandidate) float64 {
	dx := v.center.X - other.center.X
	dy := v.center.Y - other.center.Y
	dz := v.center.Z - other.center.Z
	dw := v.errv.X*other.errv.X*dx*dx +
		v.errv.Y*other.errv.Y*dy*dy +
		v.errv.Z*other.errv.Z*dz*dz
	return math.Sqrt(dw)
}

// MergeWith absorbs other's tracks into this candidate. The merge is
// rejected, leaving both candidates untouched, when the raw center distance
// exceeds MergeDistGate, when any of other's tracks is already graph-attached
// here (a loop in the making), when other brings no new track, or when the
// refitted residual exceeds MergeMseLimit. other is never mutated.
func (v *VtxCandidate) MergeWith(other *VtxCandidate) (bool, error) {
	if v.state != CandBuilding && v.state != CandMerging {
		return false, ErrCandidateClosed
	}
	d := math.Sqrt(geom.Dist2(v.center, other.center))
	if d > v.cfg.MergeDistGate {
		log.Printf("[vertex] merge rejected: centers %.1f apart", d)
		return false, nil
	}

	dw := v.Test(other)

	for _, a := range other.assigned {
		att, err := v.IsAttached(a.cand.Trk)
		if err != nil {
			return false, err
		}
		if att {
			log.Printf("[vertex] merge rejected: track already attached")
			return false, nil
		}
	}

	nadd := 0
	for _, a := range other.assigned {
		if !v.Has(a.cand.Trk) {
			v.assigned = append(v.assigned, a)
			nadd++
		}
	}
	if nadd == 0 {
		log.Printf("[vertex] merge rejected: no new tracks")
		return false, nil
	}

	log.Printf("[vertex] merge try: d=%.2f mse0=%.2f mse1=%.2f",
		d, math.Sqrt(v.mse), math.Sqrt(other.mse))
	mse := v.Compute()
	log.Printf("[vertex] merge out: size=%d mse=%.2f dw=%.2f",
		v.Len(), math.Sqrt(mse), dw)

	if mse < v.cfg.MergeMseLimit {
		v.mse = mse
		v.mse2D = v.ComputeMse2D()
		v.state = CandMerging
		return true, nil
	}

	log.Printf("[vertex] merge rejected: high mse")
	v.assigned = v.assigned[:len(v.assigned)-nadd]
	v.mse = v.Compute()
	v.mse2D = v.ComputeMse2D()
	return false, nil
}

// JoinTracks commits the candidate: splices the fitted center into the track
// graph so that exactly one shared vertex node results, moving the assigned
// tracks from src into tracks and adding any split-off pieces there too.
// One-shot: a second call fails with ErrVertexAlreadyJoined and performs no
// graph mutation. Returns true only when the whole tree below the new vertex
// is loop-free, at least two attachments succeeded and the global
// re-optimization converged; on any failure every branch reachable from the
// tree root is removed from tracks and released.
func (v *VtxCandidate) JoinTracks(tracks, src *TrkCandidates) (bool, error) {
	switch v.state {
	case CandCommitting, CandCommitted, CandDiscarded:
		log.Printf("[vertex] tracks already attached to the vertex")
		return false, ErrVertexAlreadyJoined
	}
	v.state = CandCommitting

	log.Printf("[vertex] join %d tracks at vx:%.2f vy:%.2f vz:%.2f",
		len(v.assigned), v.center.X, v.center.Y, v.center.Z)

	if len(v.assigned) == 0 {
		log.Printf("[vertex] cannot create common vertex")
		v.state = CandDiscarded
		return false, nil
	}
	g := v.assigned[0].cand.Trk.g

	for _, a := range v.assigned {
		if tc, ok := src.withdraw(a.cand.Trk); ok {
			*tracks = append(*tracks, tc)
		}
	}

	vtxCenter := NoNode
	hasInnerCenter := false
	nOK := 0
	for i := range v.assigned {
		trk := v.assigned[i].cand.Trk
		key := v.assigned[i].cand.Key
		idx := v.assigned[i].seg

		log.Printf("[vertex] track #%d: %d nodes", i, trk.NumNodes())

		n0, n1 := trk.nodes[idx], trk.nodes[idx+1]
		p0, p1 := g.NodePoint(n0), g.NodePoint(n1)
		tpc0, cryo0 := g.NodeVolume(n0)
		tpc1, cryo1 := g.NodeVolume(n1)

		d0 := math.Sqrt(geom.Dist2(p0, v.center))
		d1 := math.Sqrt(geom.Dist2(p1, v.center))
		ds := math.Sqrt(geom.Dist2(p0, p1))
		f := geom.SegmentProjFraction(v.center, p0, p1)

		switch {
		case idx == 0 && f*ds <= v.cfg.MinDistToNode:
			// center is at (or just off) the track's first node
			if i == 0 {
				log.Printf("[vertex]   new vertex at track front")
				vtxCenter = trk.nodes[0]
				g.SetNodePoint(vtxCenter, v.center)
				nOK++
			} else {
				log.Printf("[vertex]   attach front to vertex")
				if trk.AttachTo(vtxCenter, false) {
					nOK++
				}
			}

		case idx+2 == trk.NumNodes() && (1.0-f)*ds <= v.cfg.MinDistToNode:
			// symmetric case at the track's last node
			if i == 0 {
				if trk.CanFlip() {
					log.Printf("[vertex]   flip track to make new vertex")
					trk.Flip()
					vtxCenter = trk.nodes[0]
				} else {
					log.Printf("[vertex]   new vertex at track endpoint")
					vtxCenter = trk.nodes[len(trk.nodes)-1]
				}
				g.SetNodePoint(vtxCenter, v.center)
				nOK++
			} else {
				if g.NodePrev(vtxCenter) != NoSeg && trk.CanFlip() {
					log.Printf("[vertex]   flip track to attach to inner vertex")
					trk.Flip()
					if trk.AttachTo(vtxCenter, false) {
						nOK++
					}
				} else {
					log.Printf("[vertex]   attach endpoint to vertex")
					if trk.AttachBackTo(vtxCenter) {
						nOK++
					}
				}
			}

		default:
			// center lies inside a segment
			canFlipPrev := true
			if vtxCenter != NoNode {
				if p := g.NodePrev(vtxCenter); p != NoSeg {
					parent := g.SegTrack(p)
					if _, ok := parent.NextSegment(vtxCenter); ok {
						canFlipPrev = false
					} else {
						canFlipPrev = parent.CanFlip()
					}
				}
			}

			if hasInnerCenter || !canFlipPrev {
				log.Printf("[vertex]   split track")

				if f >= 0 && f <= 1 &&
					f*ds > v.cfg.MinDistToNode && (1-f)*ds > v.cfg.MinDistToNode {
					log.Printf("[vertex]   insert vertex inside segment")
					tpc, cryo := tpc0, cryo0
					if f >= 0.5 {
						tpc, cryo = tpc1, cryo1
					}
					idx++
					trk.InsertNode(v.center, idx, tpc, cryo)
				} else if d1 < d0 {
					log.Printf("[vertex]   vertex at segment end")
					idx++
				} else {
					log.Printf("[vertex]   vertex at segment start, no action")
				}

				if t0 := trk.Split(idx); t0 != nil {
					trk.MakeProjection()
					t0.MakeProjection()
					*tracks = append(*tracks, TrkCandidate{Trk: t0, Key: key})
					if i == 0 {
						log.Printf("[vertex]   vertex at split front")
						vtxCenter = trk.nodes[0]
						nOK += 2
					} else {
						log.Printf("[vertex]   attach split track to vertex")
						if trk.AttachTo(vtxCenter, false) {
							nOK += 2
						}
					}
				}

			} else {
				log.Printf("[vertex]   inner vertex")
				hasInnerCenter = true

				if f >= 0 && f <= 1 &&
					f*ds > v.cfg.MinDistToNode && (1-f)*ds > v.cfg.MinDistToNode {
					log.Printf("[vertex]   insert vertex inside segment")
					tpc, cryo := tpc0, cryo0
					if f >= 0.5 {
						tpc, cryo = tpc1, cryo1
					}
					idx++
					trk.InsertNode(v.center, idx, tpc, cryo)
				} else if d1 < d0 {
					log.Printf("[vertex]   vertex at segment end")
					idx++
				} else {
					log.Printf("[vertex]   vertex at segment start, no action")
				}

				innerCenter := trk.nodes[idx]
				if i > 0 {
					// the old vertex node is superseded: its parent is
					// flipped into a child, then every branch hanging off
					// it is re-hung onto the new inner node
					if p := g.NodePrev(vtxCenter); p != NoSeg {
						g.SegTrack(p).Flip()
					}
					for _, branch := range g.nodeBranches(vtxCenter) {
						branch.AttachTo(innerCenter, true)
					}
					vtxCenter = innerCenter
				} else {
					vtxCenter = innerCenter
				}
				nOK++
			}
		}
	}

	if vtxCenter == NoNode {
		log.Printf("[vertex] cannot create common vertex")
		v.state = CandDiscarded
		return false, nil
	}

	var rootSeg SegID
	switch {
	case g.NodeNextCount(vtxCenter) > 0:
		rootSeg = g.NodeNext(vtxCenter, 0)
	case g.NodePrev(vtxCenter) != NoSeg:
		rootSeg = g.NodePrev(vtxCenter)
	default:
		v.state = CandDiscarded
		return false, ErrNoVertexSegments
	}

	parent := g.SegTrack(rootSeg)
	rootTrk, err := parent.Root()
	if err != nil || rootTrk == nil {
		rootTrk = parent
	}

	branches, noLoops := rootTrk.GetBranches()

	result := false
	tuneOK := true
	if noLoops && nOK > 1 {
		v.assigned = nil
		v.center = g.NodePoint(vtxCenter)
		v.mse, v.mse2D = 0, 0

		if tune := rootTrk.TuneFullTree(); tune > -2.0 {
			result = true
		} else {
			tuneOK = false
		}
	}

	if !(noLoops && tuneOK) {
		log.Printf("[vertex] removing %d tracks", len(branches))
		for _, b := range branches {
			if tracks.drop(b) {
				g.ReleaseTrack(b)
			}
		}
	}

	if result {
		v.state = CandCommitted
	} else {
		v.state = CandDiscarded
	}
	return result, nil
}
