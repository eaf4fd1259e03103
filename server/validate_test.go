package main

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var defaultPolicy = MovePolicy{
	TickDistanceSq: 9,
	BaseInterval:   50 * time.Millisecond,
	Margin:         1.1,
	Exponent:       2,
}

func TestValidVector(t *testing.T) {
	assert.True(t, ValidVector(&Vec3{1, -2, 3}))
	assert.False(t, ValidVector(nil))
	assert.False(t, ValidVector(&Vec3{math.NaN(), 0, 0}))
	assert.False(t, ValidVector(&Vec3{0, math.Inf(1), 0}))
	assert.False(t, ValidVector(&Vec3{0, 0, math.Inf(-1)}))
}

func TestInBoundsInclusive(t *testing.T) {
	assert.True(t, InBounds(Vec3{240, -240, 240}, 240))
	assert.True(t, InBounds(Vec3{0, 0, 0}, 240))
	assert.False(t, InBounds(Vec3{241, 0, 0}, 240))
	assert.False(t, InBounds(Vec3{0, -241, 0}, 240))
	assert.False(t, InBounds(Vec3{0, 0, 240.01}, 240))
}

func TestAllowedDistance(t *testing.T) {
	// one tick: 9 * 1.1
	assert.InDelta(t, 9.9, defaultPolicy.AllowedDistanceSq(50*time.Millisecond), 1e-9)
	// faster than a tick still gets the single-tick allowance
	assert.InDelta(t, 9.9, defaultPolicy.AllowedDistanceSq(10*time.Millisecond), 1e-9)
	// two ticks: 9 * 2^2 * 1.1
	assert.InDelta(t, 39.6, defaultPolicy.AllowedDistanceSq(100*time.Millisecond), 1e-9)
}

func TestDisplacementAllowed(t *testing.T) {
	prev := Vec3{0, 20, 0}
	assert.True(t, defaultPolicy.DisplacementAllowed(prev, Vec3{3, 20, 0}, 50*time.Millisecond))
	assert.False(t, defaultPolicy.DisplacementAllowed(prev, Vec3{4, 20, 0}, 50*time.Millisecond))
	assert.True(t, defaultPolicy.DisplacementAllowed(prev, Vec3{6, 20, 0}, 100*time.Millisecond))
	assert.False(t, defaultPolicy.DisplacementAllowed(prev, Vec3{1000, 20, 0}, 50*time.Millisecond))

	linear := defaultPolicy
	linear.Exponent = 1
	assert.InDelta(t, 19.8, linear.AllowedDistanceSq(100*time.Millisecond), 1e-9)
}

func TestOriginNear(t *testing.T) {
	assert.True(t, OriginNear(Vec3{10, 0, 0}, Vec3{}, 100))
	assert.False(t, OriginNear(Vec3{10.1, 0, 0}, Vec3{}, 100))
}

func TestValidDisplayName(t *testing.T) {
	for _, name := range []string{"a", "Pilot_1", "ace-99", "  Zed  ", "0123456789"} {
		assert.True(t, ValidDisplayName(name), name)
	}
	for _, name := range []string{"", "   ", "01234567890", "has space", "émile", "<script>"} {
		assert.False(t, ValidDisplayName(name), name)
	}
}

func TestValidUnit(t *testing.T) {
	zero, neg := int64(0), int64(-1)
	assert.True(t, ValidUnit("moon", &zero))
	assert.False(t, ValidUnit("", &zero))
	assert.False(t, ValidUnit("moon", &neg))
	assert.False(t, ValidUnit("moon", nil))
}

func TestSanitizeChat(t *testing.T) {
	msg, ok := SanitizeChat("  hello  ")
	assert.True(t, ok)
	assert.Equal(t, "hello", msg)

	_, ok = SanitizeChat("   ")
	assert.False(t, ok)

	msg, ok = SanitizeChat(strings.Repeat("x", 500))
	assert.True(t, ok)
	assert.Len(t, msg, 200)
}
