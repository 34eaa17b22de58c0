// Package detgeo describes the readout geometry of a wire-chamber style
// detector: which 2D projection views each drift volume provides, and how a
// 3D point maps onto the wire/drift coordinates of a given view. The track
// reconstruction uses it only for auxiliary 2D residual checks; all fitting
// happens in 3D.
package detgeo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// View identifies one of the readout projection views.
type View int

const (
	ViewU View = iota
	ViewV
	ViewZ

	// NViews is the number of known view identifiers.
	NViews = 3
)

func (v View) String() string {
	switch v {
	case ViewU:
		return "U"
	case ViewV:
		return "V"
	case ViewZ:
		return "Z"
	}
	return "?"
}

// Point2D is a point in a readout view: W is the coordinate across the wires
// and D the drift coordinate.
type Point2D struct {
	W, D float64
}

// PlaneGeo is one readout plane of a drift volume.
type PlaneGeo struct {
	View View
	// WireAngleRad is the inclination of the wires with respect to the
	// vertical axis; 0 means vertical wires measuring Z directly.
	WireAngleRad float64
}

// VolumeGeo is a single drift volume (TPC) within a cryostat.
type VolumeGeo struct {
	TPC    int
	Cryo   int
	Planes []PlaneGeo
}

// Detector is an immutable lookup of drift volumes and their readout planes.
type Detector struct {
	volumes map[[2]int]VolumeGeo
}

// NewDetector builds a Detector from a volume list. Later duplicates of the
// same (TPC, cryostat) pair win.
func NewDetector(volumes []VolumeGeo) *Detector {
	d := &Detector{volumes: make(map[[2]int]VolumeGeo, len(volumes))}
	for _, v := range volumes {
		d.volumes[[2]int{v.TPC, v.Cryo}] = v
	}
	return d
}

// standard wire inclination of the two induction views
const stereoAngleRad = 35.7 * math.Pi / 180

// Default returns a two-volume, single-cryostat detector with the usual
// three-view readout: U and V stereo planes at ±35.7° and a vertical
// collection plane Z.
func Default() *Detector {
	threeViews := []PlaneGeo{
		{View: ViewU, WireAngleRad: +stereoAngleRad},
		{View: ViewV, WireAngleRad: -stereoAngleRad},
		{View: ViewZ, WireAngleRad: 0},
	}
	return NewDetector([]VolumeGeo{
		{TPC: 0, Cryo: 0, Planes: threeViews},
		{TPC: 1, Cryo: 0, Planes: threeViews},
	})
}

// HasPlane reports whether the given volume reads out the given view.
func (d *Detector) HasPlane(tpc, cryo int, v View) bool {
	vol, ok := d.volumes[[2]int{tpc, cryo}]
	if !ok {
		return false
	}
	for _, p := range vol.Planes {
		if p.View == v {
			return true
		}
	}
	return false
}

// Views returns the views available in the given volume, in plane order.
func (d *Detector) Views(tpc, cryo int) []View {
	vol, ok := d.volumes[[2]int{tpc, cryo}]
	if !ok {
		return nil
	}
	views := make([]View, 0, len(vol.Planes))
	for _, p := range vol.Planes {
		views = append(views, p.View)
	}
	return views
}

// ProjectPoint maps a 3D point onto the wire/drift coordinates of a view in
// the given volume. The wire coordinate mixes Y and Z according to the wire
// inclination; the drift coordinate is X. Returns false when the volume does
// not read out the requested view.
func (d *Detector) ProjectPoint(p r3.Vec, v View, tpc, cryo int) (Point2D, bool) {
	vol, ok := d.volumes[[2]int{tpc, cryo}]
	if !ok {
		return Point2D{}, false
	}
	for _, pl := range vol.Planes {
		if pl.View != v {
			continue
		}
		sin, cos := math.Sincos(pl.WireAngleRad)
		return Point2D{
			W: p.Z*cos - p.Y*sin,
			D: p.X,
		}, true
	}
	return Point2D{}, false
}

// Dist2 returns the squared distance between two view points.
func Dist2(a, b Point2D) float64 {
	dw := a.W - b.W
	dd := a.D - b.D
	return dw*dw + dd*dd
}

// PointSegDist2 returns the squared distance from p to the 2D segment
// [s0, s1], clamping the projection to the segment extent. Degenerate
// segments fall back to the point-to-point distance.
func PointSegDist2(p, s0, s1 Point2D) float64 {
	vw := s1.W - s0.W
	vd := s1.D - s0.D
	l2 := vw*vw + vd*vd
	if l2 <= 0 {
		return Dist2(p, s0)
	}
	f := ((p.W-s0.W)*vw + (p.D-s0.D)*vd) / l2
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	q := Point2D{W: s0.W + f*vw, D: s0.D + f*vd}
	return Dist2(p, q)
}
