package pma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVertexerStar(t *testing.T) {
	t.Parallel()
	g := testGraph()

	a := mkTrack(t, g, r3.Vec{X: -6}, r3.Vec{X: 6})
	b := mkTrack(t, g, r3.Vec{Y: -6}, r3.Vec{Y: 6})
	c := mkTrack(t, g, r3.Vec{X: -4, Y: 4}, r3.Vec{X: 4, Y: -4})

	trks := TrkCandidates{
		{Trk: a, Key: 1}, {Trk: b, Key: 2}, {Trk: c, Key: 3},
	}
	vx := NewVertexer(DefaultVertexerConfig())
	nvtx, err := vx.Run(&trks)
	require.NoError(t, err)
	assert.Equal(t, 1, nvtx)

	// three tracks plus the two pieces split off at the vertex
	assert.Len(t, trks, 5)
	junctions := g.Junctions()
	require.Len(t, junctions, 1)
	p := g.NodePoint(junctions[0])
	assert.InDelta(t, 0.0, p.X, 1e-6)
	assert.InDelta(t, 0.0, p.Y, 1e-6)
	assert.InDelta(t, 0.0, p.Z, 1e-6)

	root, err := a.Root()
	require.NoError(t, err)
	for _, tc := range trks {
		r, err := tc.Trk.Root()
		require.NoError(t, err)
		assert.Same(t, root, r)
	}
}

func TestVertexerNoVertex(t *testing.T) {
	t.Parallel()
	g := testGraph()

	a := mkTrack(t, g, r3.Vec{X: 10, Y: 5}, r3.Vec{X: 20, Y: 5})
	b := mkTrack(t, g, r3.Vec{X: 10, Y: 8}, r3.Vec{X: 20, Y: 8})

	trks := TrkCandidates{{Trk: a, Key: 1}, {Trk: b, Key: 2}}
	vx := NewVertexer(DefaultVertexerConfig())
	nvtx, err := vx.Run(&trks)
	require.NoError(t, err)
	assert.Equal(t, 0, nvtx)
	assert.Len(t, trks, 2)
	assert.Empty(t, g.Junctions())
}

func TestVertexerSkipsShortTracks(t *testing.T) {
	t.Parallel()
	g := testGraph()

	a := mkTrack(t, g, r3.Vec{X: -6}, r3.Vec{X: 6})
	stub := mkTrack(t, g, r3.Vec{Y: -1}, r3.Vec{Y: 1})

	trks := TrkCandidates{{Trk: a, Key: 1}, {Trk: stub, Key: 2}}
	vx := NewVertexer(DefaultVertexerConfig())
	nvtx, err := vx.Run(&trks)
	require.NoError(t, err)
	assert.Equal(t, 0, nvtx)
	assert.Len(t, trks, 2)
}

func TestVertexerTwoSeparatedVertices(t *testing.T) {
	t.Parallel()
	g := testGraph()

	// two independent crossings, far beyond the merge gate
	a1 := mkTrack(t, g, r3.Vec{X: -6}, r3.Vec{X: 6})
	b1 := mkTrack(t, g, r3.Vec{Y: -6}, r3.Vec{Y: 6})
	a2 := mkTrack(t, g, r3.Vec{X: 44, Z: 30}, r3.Vec{X: 56, Z: 30})
	b2 := mkTrack(t, g, r3.Vec{X: 50, Y: -6, Z: 30}, r3.Vec{X: 50, Y: 6, Z: 30})

	trks := TrkCandidates{
		{Trk: a1, Key: 1}, {Trk: b1, Key: 2},
		{Trk: a2, Key: 3}, {Trk: b2, Key: 4},
	}
	vx := NewVertexer(DefaultVertexerConfig())
	nvtx, err := vx.Run(&trks)
	require.NoError(t, err)
	assert.Equal(t, 2, nvtx)
	assert.Len(t, trks, 6)
	assert.Len(t, g.Junctions(), 2)

	// the two trees stay disconnected
	assert.False(t, a1.IsAttachedTo(a2))
}
