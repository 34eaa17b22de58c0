package pma

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Track is an ordered polyline of graph nodes joined by directed segments.
// Tracks form a forest: attaching a track to a node of another track makes
// the two share that node, with the parent/child direction recorded by the
// node's single incoming segment.
type Track struct {
	g     *Graph
	nodes []NodeID
	segs  []SegID
}

// NewTrack builds a track through the given points, all inside volume
// (tpc, cryo), and registers it in the graph. Needs at least two points.
func NewTrack(g *Graph, points []r3.Vec, tpc, cryo int) *Track {
	if len(points) < 2 {
		return nil
	}
	t := &Track{g: g}
	for _, p := range points {
		t.nodes = append(t.nodes, g.AddNode(p, tpc, cryo))
	}
	for i := 0; i+1 < len(t.nodes); i++ {
		t.segs = append(t.segs, g.newSegment(t, t.nodes[i], t.nodes[i+1]))
	}
	g.registerTrack(t)
	return t
}

// Nodes returns the track's node sequence, front to back.
func (t *Track) Nodes() []NodeID { return t.nodes }

// NumNodes returns the number of nodes in the track.
func (t *Track) NumNodes() int { return len(t.nodes) }

// NumSegments returns the number of segments in the track.
func (t *Track) NumSegments() int { return len(t.segs) }

// SegmentLength returns the 3D length of the i-th segment.
func (t *Track) SegmentLength(i int) float64 { return t.g.SegLength(t.segs[i]) }

// Length returns the summed 3D length of all segments.
func (t *Track) Length() float64 {
	var l float64
	for _, s := range t.segs {
		l += t.g.SegLength(s)
	}
	return l
}

// NextSegment returns the segment of this track leaving the given node.
func (t *Track) NextSegment(n NodeID) (SegID, bool) {
	for _, s := range t.g.nodes[n].next {
		if t.g.segs[s].track == t {
			return s, true
		}
	}
	return NoSeg, false
}

// Root walks the parent chain to the topologically top-most track of the
// tree this track belongs to. Returns ErrBrokenTrack when the chain cycles
// or dangles, which indicates graph corruption.
func (t *Track) Root() (*Track, error) {
	visited := make(map[*Track]bool)
	cur := t
	for {
		if cur == nil || len(cur.nodes) == 0 || visited[cur] {
			return nil, ErrBrokenTrack
		}
		visited[cur] = true
		p := cur.g.nodes[cur.nodes[0]].prev
		if p == NoSeg {
			return cur, nil
		}
		cur = cur.g.segs[p].track
	}
}

// IsAttachedTo reports whether o belongs to the same connected tree as t,
// directly or through any chain of shared nodes. The relation is symmetric.
func (t *Track) IsAttachedTo(o *Track) bool {
	if o == nil {
		return false
	}
	if o == t {
		return true
	}
	seen := map[*Track]bool{t: true}
	queue := []*Track{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.nodes {
			adj := cur.g.nodes[n].next
			if p := cur.g.nodes[n].prev; p != NoSeg {
				adj = append(append([]SegID(nil), adj...), p)
			}
			for _, s := range adj {
				owner := cur.g.segs[s].track
				if owner == nil || seen[owner] {
					continue
				}
				if owner == o {
					return true
				}
				seen[owner] = true
				queue = append(queue, owner)
			}
		}
	}
	return false
}

// GetBranches collects this track and every track reachable below it.
// The boolean is false when a track is reachable twice, i.e. the subtree
// contains a loop; the partial list gathered so far is still returned.
func (t *Track) GetBranches() ([]*Track, bool) {
	var out []*Track
	ok := t.getBranches(&out, false)
	return out, ok
}

func (t *Track) getBranches(out *[]*Track, skipFirst bool) bool {
	for _, b := range *out {
		if b == t {
			return false
		}
	}
	*out = append(*out, t)
	i0 := 0
	if skipFirst {
		// the first node is the attachment point; the sibling branches
		// there belong to the parent's enumeration
		i0 = 1
	}
	for i := i0; i < len(t.nodes); i++ {
		for _, s := range t.g.nodes[t.nodes[i]].next {
			o := t.g.segs[s].track
			if o != nil && o != t {
				if !o.getBranches(out, true) {
					return false
				}
			}
		}
	}
	return true
}

// CanFlip reports whether the track direction can be reversed: either it has
// no parent, or the parent chain ends at this track's front node and can
// itself be flipped.
func (t *Track) CanFlip() bool {
	return t.canFlip(make(map[*Track]bool))
}

func (t *Track) canFlip(visited map[*Track]bool) bool {
	if len(t.nodes) < 2 || visited[t] {
		return false
	}
	visited[t] = true
	fn := t.nodes[0]
	p := t.g.nodes[fn].prev
	if p == NoSeg {
		return true
	}
	parent := t.g.segs[p].track
	if parent == nil || parent == t {
		return false
	}
	if _, ok := parent.NextSegment(fn); ok {
		// the parent continues through our front node; reversing would
		// break its interior
		return false
	}
	return parent.canFlip(visited)
}

// Flip reverses the track direction. When the track hangs off a parent whose
// end coincides with our front node, the parent is flipped first so the
// former parent becomes a child. Returns false when the topology does not
// allow the reversal; the graph is unchanged in that case.
func (t *Track) Flip() bool {
	if len(t.nodes) < 2 {
		return false
	}
	fn := t.nodes[0]
	if p := t.g.nodes[fn].prev; p != NoSeg {
		parent := t.g.segs[p].track
		if parent == nil || parent == t {
			return false
		}
		if _, ok := parent.NextSegment(fn); ok {
			return false
		}
		if !parent.Flip() {
			return false
		}
	}
	t.internalFlip()
	return true
}

// internalFlip reverses the node/segment order and segment directions of
// this track alone. The front node must have no incoming segment.
func (t *Track) internalFlip() {
	g := t.g
	for _, s := range t.segs {
		g.removeNext(g.segs[s].prev, s)
		if g.nodes[g.segs[s].next].prev == s {
			g.nodes[g.segs[s].next].prev = NoSeg
		}
	}
	for i, j := 0, len(t.nodes)-1; i < j; i, j = i+1, j-1 {
		t.nodes[i], t.nodes[j] = t.nodes[j], t.nodes[i]
	}
	for i, j := 0, len(t.segs)-1; i < j; i, j = i+1, j-1 {
		t.segs[i], t.segs[j] = t.segs[j], t.segs[i]
	}
	for i, s := range t.segs {
		a, b := t.nodes[i], t.nodes[i+1]
		g.segs[s].prev = a
		g.segs[s].next = b
		g.nodes[a].next = append(g.nodes[a].next, s)
		g.nodes[b].prev = s
	}
}

// AttachTo merges the track's front node into node v, so that this track
// (and everything already hanging off its front node) becomes a branch of
// v's tree. When the front node has a parent and noFlip is false, the parent
// is flipped into a child first. Returns false, leaving the graph unchanged,
// when the attachment would create a loop or the topology forbids it.
func (t *Track) AttachTo(v NodeID, noFlip bool) bool {
	g := t.g
	if len(t.nodes) == 0 {
		return false
	}
	fn := t.nodes[0]
	if fn == v {
		return true
	}
	owner := g.nodeOwner(v)
	if owner == nil {
		return false
	}
	if t.IsAttachedTo(owner) {
		return false
	}
	if p := g.nodes[fn].prev; p != NoSeg {
		if noFlip {
			return false
		}
		parent := g.segs[p].track
		if parent == nil || parent == t {
			return false
		}
		if _, ok := parent.NextSegment(fn); ok {
			return false
		}
		if !parent.Flip() {
			return false
		}
	}
	for len(g.nodes[fn].next) > 0 {
		g.moveSegPrev(g.nodes[fn].next[0], v)
	}
	g.replaceNodeRef(fn, v)
	g.releaseNodeIfOrphan(fn)
	return true
}

// AttachBackTo merges the track's back node into node v, making this track
// the parent of v's subtree. v must not already have a parent of its own.
func (t *Track) AttachBackTo(v NodeID) bool {
	g := t.g
	if len(t.nodes) < 2 {
		return false
	}
	bn := t.nodes[len(t.nodes)-1]
	if bn == v {
		return true
	}
	if g.nodes[v].prev != NoSeg {
		return false
	}
	owner := g.nodeOwner(v)
	if owner == nil {
		return false
	}
	if t.IsAttachedTo(owner) {
		return false
	}
	g.moveSegNext(t.segs[len(t.segs)-1], v)
	for len(g.nodes[bn].next) > 0 {
		g.moveSegPrev(g.nodes[bn].next[0], v)
	}
	g.replaceNodeRef(bn, v)
	g.releaseNodeIfOrphan(bn)
	return true
}

// Split cuts the track at node index idx into two tracks sharing that node:
// the returned track keeps the front part [0..idx], the receiver keeps the
// back part [idx..] and becomes a child of the returned track. Returns nil
// when idx is not an interior node index.
func (t *Track) Split(idx int) *Track {
	if idx <= 0 || idx >= len(t.nodes)-1 {
		return nil
	}
	g := t.g
	t0 := &Track{
		g:     g,
		nodes: append([]NodeID(nil), t.nodes[:idx+1]...),
		segs:  append([]SegID(nil), t.segs[:idx]...),
	}
	for _, s := range t0.segs {
		g.segs[s].track = t0
	}
	t.nodes = append([]NodeID(nil), t.nodes[idx:]...)
	t.segs = append([]SegID(nil), t.segs[idx:]...)
	g.registerTrack(t0)
	return t0
}

// InsertNode splits the segment ending at node index idx by inserting a new
// node at point p, so the new node gets index idx. Returns false when idx is
// not in [1, NumNodes-1].
func (t *Track) InsertNode(p r3.Vec, idx int, tpc, cryo int) bool {
	if idx <= 0 || idx >= len(t.nodes) {
		return false
	}
	g := t.g
	n := g.AddNode(p, tpc, cryo)
	s := t.segs[idx-1]
	b := t.nodes[idx]
	g.moveSegNext(s, n)
	ns := g.newSegment(t, n, b)

	t.nodes = append(t.nodes, NoNode)
	copy(t.nodes[idx+1:], t.nodes[idx:])
	t.nodes[idx] = n
	t.segs = append(t.segs, NoSeg)
	copy(t.segs[idx+1:], t.segs[idx:])
	t.segs[idx] = ns
	return true
}

// MakeProjection refreshes the cached readout-view projections of all nodes.
func (t *Track) MakeProjection() {
	for _, n := range t.nodes {
		t.g.projectNode(n)
	}
}

// tuning parameters for TuneFullTree: a few rounds of positional relaxation
// with junction nodes held fixed.
const (
	tunePasses = 4
	tuneRelax  = 0.5
)

// TuneFullTree re-optimizes the whole tree below this track by relaxing
// interior node positions towards the midpoint of their neighbours, keeping
// junction nodes (shared vertices) fixed. Returns the remaining curvature
// objective, or -2.0 when the optimization diverged to non-finite values or
// the tree contains a loop.
func (t *Track) TuneFullTree() float64 {
	branches, ok := t.GetBranches()
	if !ok {
		return -2.0
	}
	g := t.g
	for pass := 0; pass < tunePasses; pass++ {
		for _, trk := range branches {
			for i := 1; i < len(trk.nodes)-1; i++ {
				n := trk.nodes[i]
				if g.NodeNextCount(n) > 1 {
					continue
				}
				a := g.NodePoint(trk.nodes[i-1])
				b := g.NodePoint(trk.nodes[i+1])
				mid := r3.Scale(0.5, r3.Add(a, b))
				p := g.NodePoint(n)
				g.SetNodePoint(n, r3.Add(p, r3.Scale(tuneRelax, r3.Sub(mid, p))))
			}
		}
	}
	var obj float64
	for _, trk := range branches {
		for i := 1; i < len(trk.nodes)-1; i++ {
			a := g.NodePoint(trk.nodes[i-1])
			b := g.NodePoint(trk.nodes[i+1])
			mid := r3.Scale(0.5, r3.Add(a, b))
			obj += r3.Norm2(r3.Sub(g.NodePoint(trk.nodes[i]), mid))
		}
	}
	if math.IsNaN(obj) || math.IsInf(obj, 0) {
		return -2.0
	}
	return obj
}
