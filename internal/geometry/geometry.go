// Package geometry resolves a tracked device's position and orientation into
// normalized display coordinates for the two supported wall shapes: a flat
// wall in front of the user and a cylindrical surround.
//
// Tracker space is right-handed with Y up, in meters. All functions are pure.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a normalized display coordinate with (0,0) at the top-left.
type Point struct {
	X, Y float64
}

// OffScreen is returned whenever the device does not point at the display.
var OffScreen = Point{X: -1, Y: -1}

// OnScreen reports whether p is a resolved position rather than OffScreen.
func (p Point) OnScreen() bool {
	return p != OffScreen
}

// Kind selects the resolver.
type Kind int

const (
	Planar Kind = iota
	Cylindrical
)

func (k Kind) String() string {
	if k == Cylindrical {
		return "cylindrical"
	}
	return "planar"
}

// PlanarParams describe a flat wall facing +Z. Origin is the wall center.
type PlanarParams struct {
	Origin r3.Vec
	Width  float64
	Height float64
}

// CylinderParams describe a vertical cylinder centered on the tracker origin.
type CylinderParams struct {
	Radius float64
	// DoorOffset is the angle (radians) where the horizontal coordinate starts.
	DoorOffset float64
	// BandBottom and BandTop bound the usable vertical band (meters).
	BandBottom float64
	BandTop    float64
	// Tolerance is how far outside the band a hit is snapped instead of rejected.
	Tolerance float64
}

// Wall is the static display configuration.
type Wall struct {
	// Width and Height are total pixels: tile resolution times layout.
	Width    float64
	Height   float64
	Kind     Kind
	Planar   PlanarParams
	Cylinder CylinderParams
}

// ToPixels maps a normalized point to absolute display pixels.
func (w Wall) ToPixels(p Point) (float64, float64) {
	return p.X * w.Width, p.Y * w.Height
}

// Resolve maps a device pose to a normalized point on w, or OffScreen.
func Resolve(pos r3.Vec, q quat.Number, w Wall) Point {
	if w.Kind == Cylindrical {
		return ResolveCylinder(pos, q, w.Cylinder)
	}
	return ResolvePlanar(pos, q, w.Planar)
}

func normalize(q quat.Number) (quat.Number, bool) {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return quat.Number{}, false
	}
	return quat.Scale(1/n, q), true
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
