package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// planarForward is the device's pointing direction at identity rotation.
var planarForward = r3.Vec{Z: -1}

// ResolvePlanar projects the device ray onto a flat wall. The horizontal and
// vertical offsets are computed independently as tan(angle) times the
// perpendicular distance to the wall.
func ResolvePlanar(pos r3.Vec, q quat.Number, p PlanarParams) Point {
	if p.Width <= 0 || p.Height <= 0 {
		return OffScreen
	}
	q, ok := normalize(q)
	if !ok {
		return OffScreen
	}

	dist := pos.Z - p.Origin.Z
	if dist <= 0 {
		return OffScreen
	}

	f := r3.Rotation(q).Rotate(planarForward)
	if f.Z >= 0 {
		return OffScreen
	}
	yaw := math.Atan2(f.X, -f.Z)
	pitch := math.Atan2(f.Y, math.Hypot(f.X, f.Z))

	hitX := pos.X + math.Tan(yaw)*dist
	hitY := pos.Y + math.Tan(pitch)*dist

	pt := Point{
		X: 0.5 + (hitX-p.Origin.X)/p.Width,
		Y: 0.5 - (hitY-p.Origin.Y)/p.Height,
	}
	if !inUnit(pt.X) || !inUnit(pt.Y) {
		return OffScreen
	}
	return pt
}
