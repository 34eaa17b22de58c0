package pma

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PetrilloAtWork/pmatrack/internal/detgeo"
	"github.com/PetrilloAtWork/pmatrack/internal/geom"
)

// NodeID addresses a node in a Graph arena. IDs are stable for the lifetime
// of the graph; released slots are never reused.
type NodeID int32

// SegID addresses a segment in a Graph arena.
type SegID int32

// NoNode and NoSeg are the null arena references.
const (
	NoNode NodeID = -1
	NoSeg  SegID  = -1
)

// node is a polyline point. It has at most one incoming (parent-side) segment
// and any number of outgoing segments, which keeps the track topology a tree.
type node struct {
	point     r3.Vec
	tpc, cryo int
	prev      SegID
	next      []SegID
	proj      [detgeo.NViews]detgeo.Point2D
	hasProj   [detgeo.NViews]bool
	alive     bool
}

// segment is a directed edge between two nodes, owned by exactly one track.
type segment struct {
	track      *Track
	prev, next NodeID
	alive      bool
}

// Graph is an arena of nodes and segments addressed by stable indices.
// Tracks are ordered index sequences over the arena; attaching, splitting and
// flipping tracks are index-rewiring operations on it. The graph is not safe
// for concurrent use.
type Graph struct {
	det    *detgeo.Detector
	nodes  []node
	segs   []segment
	tracks []*Track
}

// NewGraph returns an empty graph over the given detector description.
func NewGraph(det *detgeo.Detector) *Graph {
	return &Graph{det: det}
}

// Detector returns the detector description the graph projects against.
func (g *Graph) Detector() *detgeo.Detector { return g.det }

// Tracks returns the live tracks registered in the graph.
func (g *Graph) Tracks() []*Track { return g.tracks }

// AddNode appends a node at the given point inside volume (tpc, cryo).
func (g *Graph) AddNode(p r3.Vec, tpc, cryo int) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{
		point: p,
		tpc:   tpc,
		cryo:  cryo,
		prev:  NoSeg,
		alive: true,
	})
	g.projectNode(id)
	return id
}

// NodePoint returns the 3D position of a node.
func (g *Graph) NodePoint(id NodeID) r3.Vec { return g.nodes[id].point }

// SetNodePoint moves a node and refreshes its cached view projections.
func (g *Graph) SetNodePoint(id NodeID, p r3.Vec) {
	g.nodes[id].point = p
	g.projectNode(id)
}

// NodeVolume returns the (tpc, cryo) volume identifiers of a node.
func (g *Graph) NodeVolume(id NodeID) (tpc, cryo int) {
	return g.nodes[id].tpc, g.nodes[id].cryo
}

// NodePrev returns the incoming segment of a node, or NoSeg.
func (g *Graph) NodePrev(id NodeID) SegID { return g.nodes[id].prev }

// NodeNextCount returns the number of outgoing segments of a node.
func (g *Graph) NodeNextCount(id NodeID) int { return len(g.nodes[id].next) }

// NodeNext returns the i-th outgoing segment of a node.
func (g *Graph) NodeNext(id NodeID, i int) SegID { return g.nodes[id].next[i] }

// NodeProj returns the cached projection of a node in the given view.
func (g *Graph) NodeProj(id NodeID, v detgeo.View) (detgeo.Point2D, bool) {
	if !g.nodes[id].hasProj[v] {
		return detgeo.Point2D{}, false
	}
	return g.nodes[id].proj[v], true
}

// SegTrack returns the track owning a segment.
func (g *Graph) SegTrack(id SegID) *Track { return g.segs[id].track }

// SegNodes returns the (prev, next) nodes of a segment.
func (g *Graph) SegNodes(id SegID) (NodeID, NodeID) {
	return g.segs[id].prev, g.segs[id].next
}

// SegLength returns the 3D length of a segment.
func (g *Graph) SegLength(id SegID) float64 {
	s := &g.segs[id]
	return r3.Norm(r3.Sub(g.nodes[s.next].point, g.nodes[s.prev].point))
}

// SegDist2To returns the squared 3D distance from a point to a segment.
func (g *Graph) SegDist2To(id SegID, p r3.Vec) float64 {
	s := &g.segs[id]
	return geom.PointSegDist2(p, g.nodes[s.prev].point, g.nodes[s.next].point)
}

// SegDist2To2D returns the squared 2D distance from a view point to the
// segment projected into that view, using the endpoint projection cache.
// Returns false when either endpoint has no projection in the view.
func (g *Graph) SegDist2To2D(id SegID, p detgeo.Point2D, v detgeo.View) (float64, bool) {
	s := &g.segs[id]
	p0, ok0 := g.NodeProj(s.prev, v)
	p1, ok1 := g.NodeProj(s.next, v)
	if !ok0 || !ok1 {
		return 0, false
	}
	return detgeo.PointSegDist2(p, p0, p1), true
}

// Junctions returns the live nodes with more than one outgoing segment, i.e.
// the shared vertices of the track forest. Interior nodes of a plain track
// (one in, one out) do not count.
func (g *Graph) Junctions() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].alive && len(g.nodes[i].next) >= 2 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// projectNode refreshes the cached per-view projections of a node.
func (g *Graph) projectNode(id NodeID) {
	n := &g.nodes[id]
	for v := detgeo.View(0); v < detgeo.NViews; v++ {
		p2, ok := g.det.ProjectPoint(n.point, v, n.tpc, n.cryo)
		n.proj[v] = p2
		n.hasProj[v] = ok
	}
}

// newSegment creates a directed segment a -> b owned by t and wires it into
// both nodes. b must not already have an incoming segment.
func (g *Graph) newSegment(t *Track, a, b NodeID) SegID {
	id := SegID(len(g.segs))
	g.segs = append(g.segs, segment{track: t, prev: a, next: b, alive: true})
	g.nodes[a].next = append(g.nodes[a].next, id)
	g.nodes[b].prev = id
	return id
}

// moveSegPrev re-hangs the starting end of a segment onto another node.
func (g *Graph) moveSegPrev(s SegID, to NodeID) {
	from := g.segs[s].prev
	g.removeNext(from, s)
	g.segs[s].prev = to
	g.nodes[to].next = append(g.nodes[to].next, s)
}

// moveSegNext re-hangs the ending end of a segment onto another node, which
// must not already have an incoming segment.
func (g *Graph) moveSegNext(s SegID, to NodeID) {
	from := g.segs[s].next
	if g.nodes[from].prev == s {
		g.nodes[from].prev = NoSeg
	}
	g.segs[s].next = to
	g.nodes[to].prev = s
}

func (g *Graph) removeNext(n NodeID, s SegID) {
	next := g.nodes[n].next
	for i, id := range next {
		if id == s {
			g.nodes[n].next = append(next[:i], next[i+1:]...)
			return
		}
	}
}

// releaseSeg detaches a segment from both its nodes and marks it dead.
func (g *Graph) releaseSeg(s SegID) {
	if !g.segs[s].alive {
		return
	}
	g.removeNext(g.segs[s].prev, s)
	if g.nodes[g.segs[s].next].prev == s {
		g.nodes[g.segs[s].next].prev = NoSeg
	}
	g.segs[s].alive = false
	g.segs[s].track = nil
}

// releaseNodeIfOrphan marks a node dead once nothing references it.
func (g *Graph) releaseNodeIfOrphan(n NodeID) {
	if g.nodes[n].prev == NoSeg && len(g.nodes[n].next) == 0 {
		g.nodes[n].alive = false
	}
}

// replaceNodeRef rewrites every track's node sequence to use node to in
// place of node from. Called when a node is merged into a vertex.
func (g *Graph) replaceNodeRef(from, to NodeID) {
	for _, t := range g.tracks {
		for i, id := range t.nodes {
			if id == from {
				t.nodes[i] = to
			}
		}
	}
}

// nodeBranches returns the distinct tracks with a segment leaving the node.
func (g *Graph) nodeBranches(v NodeID) []*Track {
	var out []*Track
	for _, s := range g.nodes[v].next {
		t := g.segs[s].track
		if t == nil {
			continue
		}
		dup := false
		for _, o := range out {
			if o == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// nodeOwner returns a track adjacent to the node: the parent-side track when
// the node has an incoming segment, otherwise the owner of its first
// outgoing segment. Nil for a fully detached node.
func (g *Graph) nodeOwner(v NodeID) *Track {
	if p := g.nodes[v].prev; p != NoSeg {
		return g.segs[p].track
	}
	if len(g.nodes[v].next) > 0 {
		return g.segs[g.nodes[v].next[0]].track
	}
	return nil
}

func (g *Graph) registerTrack(t *Track) {
	g.tracks = append(g.tracks, t)
}

func (g *Graph) unregisterTrack(t *Track) {
	for i, o := range g.tracks {
		if o == t {
			g.tracks = append(g.tracks[:i], g.tracks[i+1:]...)
			return
		}
	}
}

// ReleaseTrack detaches all of a track's segments from the graph and drops
// the track from the registry. Nodes left without any attached segment are
// marked dead; nodes still shared with other tracks survive.
func (g *Graph) ReleaseTrack(t *Track) {
	for _, s := range t.segs {
		g.releaseSeg(s)
	}
	for _, n := range t.nodes {
		g.releaseNodeIfOrphan(n)
	}
	g.unregisterTrack(t)
	t.nodes = nil
	t.segs = nil
}
