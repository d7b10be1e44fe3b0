package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// axisEpsilon is the smallest horizontal ray component accepted before the
// ray is considered parallel to the cylinder axis.
const axisEpsilon = 1e-12

// YawPitch decomposes q into heading about +Y and attitude above the
// horizontal plane. The poles, where x·y+z·w is exactly ±0.5, use the
// two-term arctangent form.
func YawPitch(q quat.Number) (yaw, pitch float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	test := x*y + z*w
	switch test {
	case 0.5:
		return 2 * math.Atan2(x, w), math.Pi / 2
	case -0.5:
		return -2 * math.Atan2(x, w), -math.Pi / 2
	}
	yaw = math.Atan2(2*y*w-2*x*z, 1-2*y*y-2*z*z)
	pitch = math.Asin(math.Max(-1, math.Min(1, 2*test)))
	return yaw, pitch
}

// Direction is the unit pointing vector for a heading and attitude. The
// device points along +X at zero heading and attitude.
func Direction(yaw, pitch float64) r3.Vec {
	return r3.Vec{
		X: math.Cos(pitch) * math.Cos(yaw),
		Y: math.Sin(pitch),
		Z: -math.Cos(pitch) * math.Sin(yaw),
	}
}

// IntersectCylinder returns the ray parameter where origin+t·dir meets the
// vertical cylinder of the given radius. The smaller non-negative root is
// preferred.
func IntersectCylinder(origin, dir r3.Vec, radius float64) (float64, bool) {
	a := dir.X*dir.X + dir.Z*dir.Z
	if a < axisEpsilon {
		return 0, false
	}
	b := 2 * (origin.X*dir.X + origin.Z*dir.Z)
	c := origin.X*origin.X + origin.Z*origin.Z - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	switch {
	case t1 >= 0:
		return t1, true
	case t2 >= 0:
		return t2, true
	default:
		return 0, false
	}
}

// ResolveCylinder casts the device ray against the surround. The horizontal
// coordinate is the hit angle past DoorOffset as a fraction of a full turn;
// the vertical coordinate is the hit height within the usable band.
func ResolveCylinder(pos r3.Vec, q quat.Number, c CylinderParams) Point {
	if c.Radius <= 0 || c.BandTop <= c.BandBottom {
		return OffScreen
	}
	q, ok := normalize(q)
	if !ok {
		return OffScreen
	}

	yaw, pitch := YawPitch(q)
	dir := Direction(yaw, pitch)
	t, ok := IntersectCylinder(pos, dir, c.Radius)
	if !ok {
		return OffScreen
	}
	hit := r3.Add(pos, r3.Scale(t, dir))

	h := hit.Y
	switch {
	case h < c.BandBottom:
		if c.BandBottom-h > c.Tolerance {
			return OffScreen
		}
		h = c.BandBottom
	case h > c.BandTop:
		if h-c.BandTop > c.Tolerance {
			return OffScreen
		}
		h = c.BandTop
	}
	v := (h - c.BandBottom) / (c.BandTop - c.BandBottom)

	angle := math.Mod(math.Atan2(-hit.Z, hit.X)-c.DoorOffset, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	if angle >= 2*math.Pi {
		angle = 0
	}
	return Point{X: angle / (2 * math.Pi), Y: 1 - v}
}
