package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sphereAt(x, y, z float64) *HitSphere {
	return &HitSphere{Center: Vec3{x, y, z}, Radius: 2.5}
}

func TestResolveHitNearestWins(t *testing.T) {
	candidates := []Candidate{
		{ID: "A", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 20)},
		{ID: "B", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 10)},
	}
	id, ok := ResolveHit(Vec3{}, Vec3{0, 0, 1}, 50, "S", candidates)
	assert.True(t, ok)
	assert.Equal(t, "B", id)
}

func TestResolveHitSkipsIneligible(t *testing.T) {
	candidates := []Candidate{
		{ID: "S", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 5)},
		{ID: "dead", Alive: false, Ready: true, Sphere: sphereAt(0, 0, 8)},
		{ID: "menu", Alive: true, Ready: false, Sphere: sphereAt(0, 0, 9)},
		{ID: "nosphere", Alive: true, Ready: true},
	}
	_, ok := ResolveHit(Vec3{}, Vec3{0, 0, 1}, 50, "S", candidates)
	assert.False(t, ok)

	candidates = append(candidates, Candidate{ID: "A", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 30)})
	id, ok := ResolveHit(Vec3{}, Vec3{0, 0, 1}, 50, "S", candidates)
	assert.True(t, ok)
	assert.Equal(t, "A", id)
}

func TestResolveHitRange(t *testing.T) {
	c := []Candidate{{ID: "A", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 20)}}

	// entry point at 17.5
	_, ok := ResolveHit(Vec3{}, Vec3{0, 0, 1}, 17, "S", c)
	assert.False(t, ok)
	_, ok = ResolveHit(Vec3{}, Vec3{0, 0, 1}, 17.5, "S", c)
	assert.True(t, ok)
}

func TestResolveHitMisses(t *testing.T) {
	c := []Candidate{{ID: "A", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 20)}}

	// behind the shooter
	_, ok := ResolveHit(Vec3{}, Vec3{0, 0, -1}, 100, "S", c)
	assert.False(t, ok)

	// passes beside
	_, ok = ResolveHit(Vec3{3, 0, 0}, Vec3{0, 0, 1}, 100, "S", c)
	assert.False(t, ok)

	// grazes the edge
	id, ok := ResolveHit(Vec3{2.5, 0, 0}, Vec3{0, 0, 1}, 100, "S", c)
	assert.True(t, ok)
	assert.Equal(t, "A", id)

	// starting inside the sphere does not count
	_, ok = ResolveHit(Vec3{0, 0, 19}, Vec3{0, 0, 1}, 100, "S", c)
	assert.False(t, ok)
}

func TestResolveHitTieKeepsEarlier(t *testing.T) {
	c := []Candidate{
		{ID: "first", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 10)},
		{ID: "second", Alive: true, Ready: true, Sphere: sphereAt(0, 0, 10)},
	}
	id, ok := ResolveHit(Vec3{}, Vec3{0, 0, 1}, 50, "S", c)
	assert.True(t, ok)
	assert.Equal(t, "first", id)
}
