package main

import "math"

// raySphere returns the entry distance of a unit ray into sphere s.
// A ray starting inside the sphere, or a sphere behind the origin, does not hit.
func raySphere(origin, dir Vec3, s HitSphere) (float64, bool) {
	l := s.Center.mgl().Sub(origin.mgl())
	tca := l.Dot(dir.mgl())
	d2 := l.Dot(l) - tca*tca
	r2 := s.Radius * s.Radius
	if d2 > r2 {
		return 0, false
	}
	thc := math.Sqrt(r2 - d2)
	t0 := tca - thc
	if t0 < 0 {
		return 0, false
	}
	return t0, true
}

// ResolveHit picks the nearest candidate whose hit sphere the shot enters
// within maxDist. dir must be unit length. The shooter, dead or not-ready
// ships and candidates without a sphere are skipped. Equal distances keep the
// earlier candidate.
func ResolveHit(origin, dir Vec3, maxDist float64, shooterID string, candidates []Candidate) (string, bool) {
	best := ""
	bestT := math.Inf(1)
	for _, c := range candidates {
		if c.ID == shooterID || !c.Alive || !c.Ready || c.Sphere == nil {
			continue
		}
		t, ok := raySphere(origin, dir, *c.Sphere)
		if !ok || t > maxDist {
			continue
		}
		if t < bestT {
			best, bestT = c.ID, t
		}
	}
	return best, best != ""
}
