package pma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// crossingPair makes two tracks crossing at c: one along X, one along Y.
func crossingPair(t *testing.T, g *Graph, c r3.Vec) (*Track, *Track) {
	t.Helper()
	a := mkTrack(t, g, r3.Add(c, r3.Vec{X: -4}), r3.Add(c, r3.Vec{X: 4}))
	b := mkTrack(t, g, r3.Add(c, r3.Vec{Y: -4}), r3.Add(c, r3.Vec{Y: 4}))
	return a, b
}

// crossingCandidate makes a candidate holding a fitted crossing at c.
func crossingCandidate(t *testing.T, g *Graph, c r3.Vec, key0 int) *VtxCandidate {
	t.Helper()
	a, b := crossingPair(t, g, c)
	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: a, Key: key0})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = v.Add(TrkCandidate{Trk: b, Key: key0 + 1})
	require.NoError(t, err)
	require.True(t, ok)
	return v
}

func TestSegmentWeight(t *testing.T) {
	t.Parallel()

	// horizontal segments hit the floor, vertical ones get full weight
	assert.Equal(t, 0.3, segmentWeight(0, 8))
	assert.Equal(t, 1.0, segmentWeight(8, 8))
	assert.Equal(t, 1.0, segmentWeight(-8, 8))

	// 30 degrees of elevation is already close to full weight
	w := segmentWeight(4, 8)
	assert.Greater(t, w, 0.3)
	assert.Less(t, w, 1.0)
	assert.InDelta(t, 1.0-math.Pow(2.0/3.0, 12), w, 1e-9)

	// dy beyond the segment length clamps instead of blowing up asin
	assert.Equal(t, 1.0, segmentWeight(10, 8))
}

func TestAddCrossingTracks(t *testing.T) {
	t.Parallel()
	g := testGraph()
	a, b := crossingPair(t, g, r3.Vec{})

	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: a, Key: 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v.Len())
	assert.True(t, v.Has(a))

	ok, err = v.Add(TrkCandidate{Trk: b, Key: 2})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.Has(b))

	c := v.Center()
	assert.InDelta(t, 0.0, c.X, 1e-9)
	assert.InDelta(t, 0.0, c.Y, 1e-9)
	assert.InDelta(t, 0.0, c.Z, 1e-9)
	assert.InDelta(t, 0.0, v.Mse(), 1e-9)
	assert.Equal(t, CandBuilding, v.State())
	assert.Equal(t, 2, v.Size(3.0))
	assert.Equal(t, 0, v.Size(10.0))
	assert.InDelta(t, 90.0, v.MaxAngle(3.0), 1e-6)
}

func TestAddCrossingTracksReversedOrder(t *testing.T) {
	t.Parallel()
	g := testGraph()
	a, b := crossingPair(t, g, r3.Vec{})

	// same crossing, tracks offered in the opposite order
	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: b, Key: 2})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = v.Add(TrkCandidate{Trk: a, Key: 1})
	require.NoError(t, err)
	require.True(t, ok)

	c := v.Center()
	assert.InDelta(t, 0.0, c.X, 1e-9)
	assert.InDelta(t, 0.0, c.Y, 1e-9)
	assert.InDelta(t, 0.0, c.Z, 1e-9)
	assert.InDelta(t, 0.0, v.Mse(), 1e-9)
	assert.True(t, v.Has(a))
	assert.True(t, v.Has(b))
}

func TestHasLoops(t *testing.T) {
	t.Parallel()

	t.Run("independent tracks", func(t *testing.T) {
		t.Parallel()
		v := crossingCandidate(t, testGraph(), r3.Vec{}, 1)
		loops, err := v.HasLoops()
		require.NoError(t, err)
		assert.False(t, loops)
	})

	t.Run("mutually attached tracks", func(t *testing.T) {
		t.Parallel()
		g := testGraph()
		v := crossingCandidate(t, g, r3.Vec{}, 1)
		a, b := v.Tracks()[0], v.Tracks()[1]

		// attach after assignment, so the candidate now spans one tree
		require.True(t, b.AttachTo(a.Nodes()[1], false))

		loops, err := v.HasLoops()
		require.NoError(t, err)
		assert.True(t, loops)
	})
}

func TestAddThirdTrack(t *testing.T) {
	t.Parallel()

	t.Run("through the crossing", func(t *testing.T) {
		t.Parallel()
		g := testGraph()
		v := crossingCandidate(t, g, r3.Vec{}, 1)
		c := mkTrack(t, g, r3.Vec{X: -3, Y: 3}, r3.Vec{X: 3, Y: -3})

		ok, err := v.Add(TrkCandidate{Trk: c, Key: 3})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 3, v.Len())
		assert.InDelta(t, 0.0, v.Center().X, 1e-9)
		assert.InDelta(t, 0.0, v.Center().Y, 1e-9)
	})

	t.Run("far away gets rejected and rolled back", func(t *testing.T) {
		t.Parallel()
		g := testGraph()
		v := crossingCandidate(t, g, r3.Vec{}, 1)
		center, mse := v.Center(), v.Mse()

		far := mkTrack(t, g, r3.Vec{X: 10, Y: 5, Z: 3}, r3.Vec{X: 10, Y: -5, Z: 3})
		ok, err := v.Add(TrkCandidate{Trk: far, Key: 3})
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Equal(t, 2, v.Len())
		assert.False(t, v.Has(far))
		assert.Equal(t, center, v.Center())
		assert.Equal(t, mse, v.Mse())
	})
}

func TestAddRejectsAttachedTrack(t *testing.T) {
	t.Parallel()
	g := testGraph()

	a := mkTrack(t, g, r3.Vec{X: -4}, r3.Vec{}, r3.Vec{X: 4})
	b := mkTrack(t, g, r3.Vec{Y: 1}, r3.Vec{Y: 4})
	require.True(t, b.AttachTo(a.Nodes()[1], false))

	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: a, Key: 1})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Add(TrkCandidate{Trk: b, Key: 2})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, v.Len())

	// same track twice counts as attached as well
	ok, err = v.Add(TrkCandidate{Trk: a, Key: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, v.Len())
}

func TestAddFirstTrackTooShort(t *testing.T) {
	t.Parallel()
	g := testGraph()

	stub := mkTrack(t, g, r3.Vec{}, r3.Vec{X: 0.2}, r3.Vec{X: 0.4})
	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: stub, Key: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, v.Len())
}

func TestAddParallelTracks(t *testing.T) {
	t.Parallel()
	g := testGraph()

	a := mkTrack(t, g, r3.Vec{X: 10, Y: 5}, r3.Vec{X: 20, Y: 5})
	b := mkTrack(t, g, r3.Vec{X: 10, Y: 8}, r3.Vec{X: 20, Y: 8})

	v := NewVtxCandidate(DefaultVtxConfig())
	ok, err := v.Add(TrkCandidate{Trk: a, Key: 1})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Add(TrkCandidate{Trk: b, Key: 2})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, r3.Vec{}, v.Center())
}

func TestComputeIdempotent(t *testing.T) {
	t.Parallel()
	g := testGraph()
	v := crossingCandidate(t, g, r3.Vec{X: 1, Y: 2, Z: 3}, 1)

	m1 := v.Compute()
	c1, e1 := v.Center(), v.Err()
	m2 := v.Compute()
	require.Equal(t, m1, m2)
	require.Equal(t, c1, v.Center())
	require.Equal(t, e1, v.Err())
}

func TestHasAll(t *testing.T) {
	t.Parallel()
	g := testGraph()

	v := crossingCandidate(t, g, r3.Vec{}, 1)
	sub := NewVtxCandidate(DefaultVtxConfig())
	ok, err := sub.Add(TrkCandidate{Trk: v.Tracks()[0], Key: 1})
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, v.HasAll(sub))
	assert.False(t, sub.HasAll(v))
}

func TestTestDistance(t *testing.T) {
	t.Parallel()

	v1 := crossingCandidate(t, testGraph(), r3.Vec{}, 1)
	v2 := crossingCandidate(t, testGraph(), r3.Vec{X: 6}, 3)

	assert.Equal(t, 0.0, v1.Test(v1))
	d12 := v1.Test(v2)
	assert.Greater(t, d12, 0.0)
	assert.Equal(t, d12, v2.Test(v1))
}

func TestMergeWith(t *testing.T) {
	t.Parallel()

	t.Run("distance gate", func(t *testing.T) {
		t.Parallel()
		v1 := crossingCandidate(t, testGraph(), r3.Vec{}, 1)
		v2 := crossingCandidate(t, testGraph(), r3.Vec{X: 20}, 3)
		trks := v1.Tracks()

		ok, err := v1.MergeWith(v2)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Equal(t, 2, v1.Len())
		assert.Equal(t, CandBuilding, v1.State())
		for i, trk := range v1.Tracks() {
			assert.Same(t, trks[i], trk)
		}
		assert.Equal(t, 2, v2.Len())
	})

	t.Run("high residual rolls back", func(t *testing.T) {
		t.Parallel()
		v1 := crossingCandidate(t, testGraph(), r3.Vec{}, 1)
		v2 := crossingCandidate(t, testGraph(), r3.Vec{X: 6}, 3)
		center, mse := v1.Center(), v1.Mse()

		ok, err := v1.MergeWith(v2)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Equal(t, 2, v1.Len())
		assert.Equal(t, CandBuilding, v1.State())
		assert.Equal(t, center, v1.Center())
		assert.Equal(t, mse, v1.Mse())
		assert.Equal(t, 2, v2.Len())
		assert.Equal(t, CandBuilding, v2.State())
	})

	t.Run("compatible candidates merge", func(t *testing.T) {
		t.Parallel()
		v1 := crossingCandidate(t, testGraph(), r3.Vec{}, 1)
		v2 := crossingCandidate(t, testGraph(), r3.Vec{X: 0.3}, 3)

		ok, err := v1.MergeWith(v2)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Equal(t, 4, v1.Len())
		assert.Equal(t, CandMerging, v1.State())
		assert.Less(t, v1.Mse(), 1.0)
		// the absorbed candidate itself is untouched
		assert.Equal(t, 2, v2.Len())
		assert.Equal(t, CandBuilding, v2.State())
	})

	t.Run("no new tracks", func(t *testing.T) {
		t.Parallel()
		g := testGraph()
		v1 := crossingCandidate(t, g, r3.Vec{}, 1)
		same := NewVtxCandidate(DefaultVtxConfig())
		ok, err := same.Add(TrkCandidate{Trk: v1.Tracks()[0], Key: 1})
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = same.Add(TrkCandidate{Trk: v1.Tracks()[1], Key: 2})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = v1.MergeWith(same)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 2, v1.Len())
	})
}

func TestJoinTracksTwoTracks(t *testing.T) {
	t.Parallel()
	g := testGraph()
	v := crossingCandidate(t, g, r3.Vec{}, 1)
	a, b := v.Tracks()[0], v.Tracks()[1]

	spectator := mkTrack(t, g, r3.Vec{X: 100}, r3.Vec{X: 108})
	src := TrkCandidates{
		{Trk: a, Key: 1}, {Trk: b, Key: 2}, {Trk: spectator, Key: 9},
	}
	var tracks TrkCandidates

	ok, err := v.JoinTracks(&tracks, &src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, CandCommitted, v.State())
	assert.Equal(t, 0, v.Len())

	// a and b moved out of src, plus the piece split off b
	require.Len(t, src, 1)
	assert.Same(t, spectator, src[0].Trk)
	assert.Len(t, tracks, 3)
	assert.True(t, tracks.Has(a))
	assert.True(t, tracks.Has(b))

	junctions := g.Junctions()
	require.Len(t, junctions, 1)
	vtx := junctions[0]
	p := g.NodePoint(vtx)
	assert.InDelta(t, 0.0, p.X, 1e-9)
	assert.InDelta(t, 0.0, p.Y, 1e-9)
	assert.InDelta(t, 0.0, p.Z, 1e-9)
	assert.Equal(t, p, v.Center())

	for _, tc := range tracks {
		assert.True(t, tc.Trk.IsAttachedTo(a))
	}
	root, err := a.Root()
	require.NoError(t, err)
	for _, tc := range tracks {
		r, err := tc.Trk.Root()
		require.NoError(t, err)
		assert.Same(t, root, r)
	}

	// committing is one-shot
	ok, err = v.JoinTracks(&tracks, &src)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrVertexAlreadyJoined)
	assert.Len(t, g.Junctions(), 1)
}

func TestJoinTracksThreeTrackStar(t *testing.T) {
	t.Parallel()
	g := testGraph()
	v := crossingCandidate(t, g, r3.Vec{}, 1)
	c := mkTrack(t, g, r3.Vec{X: -3, Y: 3}, r3.Vec{X: 3, Y: -3})
	ok, err := v.Add(TrkCandidate{Trk: c, Key: 3})
	require.NoError(t, err)
	require.True(t, ok)

	src := TrkCandidates{
		{Trk: v.Tracks()[0], Key: 1},
		{Trk: v.Tracks()[1], Key: 2},
		{Trk: c, Key: 3},
	}
	var tracks TrkCandidates

	ok, err = v.JoinTracks(&tracks, &src)
	require.NoError(t, err)
	require.True(t, ok)

	// three tracks in, two pieces split off: five tracks share one vertex
	assert.Len(t, tracks, 5)
	assert.Empty(t, src)
	junctions := g.Junctions()
	require.Len(t, junctions, 1)
	assert.Equal(t, 5, g.NodeNextCount(junctions[0]))

	first := tracks[0].Trk
	for _, tc := range tracks[1:] {
		assert.True(t, tc.Trk.IsAttachedTo(first))
	}
}

func TestJoinTracksEmptyCandidate(t *testing.T) {
	t.Parallel()

	v := NewVtxCandidate(DefaultVtxConfig())
	var tracks, src TrkCandidates
	ok, err := v.JoinTracks(&tracks, &src)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, CandDiscarded, v.State())

	// terminal states refuse further building too
	_, err = v.Add(TrkCandidate{})
	assert.ErrorIs(t, err, ErrCandidateClosed)
	_, err = v.MergeWith(NewVtxCandidate(DefaultVtxConfig()))
	assert.ErrorIs(t, err, ErrCandidateClosed)
}

func TestCandStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "building", CandBuilding.String())
	assert.Equal(t, "merging", CandMerging.String())
	assert.Equal(t, "committing", CandCommitting.String())
	assert.Equal(t, "committed", CandCommitted.String())
	assert.Equal(t, "discarded", CandDiscarded.String())
	assert.Equal(t, "unknown", CandState(99).String())
}
