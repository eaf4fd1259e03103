package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a position, direction or Euler rotation as it travels on the wire.
// It is a plain value; all math goes through mgl64.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func (v Vec3) mgl() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func fromMgl(m mgl64.Vec3) Vec3 { return Vec3{X: m[0], Y: m[1], Z: m[2]} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return fromMgl(v.mgl().Sub(o.mgl())) }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.mgl().Dot(o.mgl()) }

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return v.mgl().Len() }

// Finite reports whether every component is a real, finite number.
func (v Vec3) Finite() bool {
	for _, c := range v.mgl() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// DistanceSq returns the squared distance between a and b.
func DistanceSq(a, b Vec3) float64 {
	d := a.mgl().Sub(b.mgl())
	return d.Dot(d)
}

// Normalize returns v scaled to unit length. It reports false for
// zero-length or non-finite input, which has no direction.
func Normalize(v Vec3) (Vec3, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return fromMgl(v.mgl().Mul(1 / l)), true
}

// HitSphere is the bounding volume used to hit-test a ship.
type HitSphere struct {
	Center Vec3
	Radius float64
}
