package detgeo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDefaultDetector(t *testing.T) {
	t.Parallel()

	det := Default()
	require.NotNil(t, det)

	for _, tpc := range []int{0, 1} {
		for v := View(0); v < NViews; v++ {
			assert.True(t, det.HasPlane(tpc, 0, v), "tpc %d view %s", tpc, v)
		}
	}
	assert.False(t, det.HasPlane(7, 0, ViewZ))
	assert.False(t, det.HasPlane(0, 3, ViewZ))
	assert.Len(t, det.Views(0, 0), 3)
	assert.Nil(t, det.Views(7, 0))
}

func TestViewString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "U", ViewU.String())
	assert.Equal(t, "V", ViewV.String())
	assert.Equal(t, "Z", ViewZ.String())
}

func TestProjectPoint(t *testing.T) {
	t.Parallel()

	det := Default()
	p := r3.Vec{X: 2, Y: 3, Z: 5}

	t.Run("collection view reads Z directly", func(t *testing.T) {
		t.Parallel()
		p2, ok := det.ProjectPoint(p, ViewZ, 0, 0)
		require.True(t, ok)
		assert.InDelta(t, 5.0, p2.W, 1e-12)
		assert.InDelta(t, 2.0, p2.D, 1e-12)
	})

	t.Run("stereo views mix Y and Z", func(t *testing.T) {
		t.Parallel()
		pu, ok := det.ProjectPoint(p, ViewU, 0, 0)
		require.True(t, ok)
		pv, ok := det.ProjectPoint(p, ViewV, 0, 0)
		require.True(t, ok)

		// opposite stereo angles: the Y contribution flips sign
		assert.InDelta(t, 2*5*math.Cos(stereoAngleRad), pu.W+pv.W, 1e-9)
		assert.Greater(t, math.Abs(pu.W-pv.W), 1e-6)
		assert.InDelta(t, 2.0, pu.D, 1e-12)
		assert.InDelta(t, 2.0, pv.D, 1e-12)
	})

	t.Run("unknown volume", func(t *testing.T) {
		t.Parallel()
		_, ok := det.ProjectPoint(p, ViewZ, 9, 9)
		assert.False(t, ok)
	})
}

func TestPointSegDist2(t *testing.T) {
	t.Parallel()

	a := Point2D{W: 0, D: 0}
	b := Point2D{W: 10, D: 0}

	t.Run("inside", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 4.0, PointSegDist2(Point2D{W: 5, D: 2}, a, b), 1e-12)
	})

	t.Run("clamped", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 8.0, PointSegDist2(Point2D{W: 12, D: 2}, a, b), 1e-12)
	})

	t.Run("degenerate", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 2.0, PointSegDist2(Point2D{W: 1, D: 1}, a, a), 1e-12)
	})
}
