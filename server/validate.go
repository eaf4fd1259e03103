package main

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minNameLen    = 1
	maxNameLen    = 10
	maxChatLength = 200
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidVector reports whether v is present and finite on every axis.
func ValidVector(v *Vec3) bool {
	return v != nil && v.Finite()
}

// InBounds reports whether every axis of p lies within [-bound, bound].
func InBounds(p Vec3, bound float64) bool {
	return math.Abs(p.X) <= bound && math.Abs(p.Y) <= bound && math.Abs(p.Z) <= bound
}

// AllowedDistanceSq returns the squared distance a ship may cover in elapsed.
// The allowance grows with (elapsed/base)^exponent and never drops below the
// single-tick allowance.
func (p MovePolicy) AllowedDistanceSq(elapsed time.Duration) float64 {
	ratio := float64(elapsed) / float64(p.BaseInterval)
	scaled := p.TickDistanceSq * math.Pow(ratio, p.Exponent)
	return math.Max(p.TickDistanceSq, scaled) * p.Margin
}

// DisplacementAllowed reports whether moving from prev to next within elapsed
// stays inside the policy.
func (p MovePolicy) DisplacementAllowed(prev, next Vec3, elapsed time.Duration) bool {
	return DistanceSq(prev, next) <= p.AllowedDistanceSq(elapsed)
}

// OriginNear reports whether a shot origin is close enough to where the
// server last saw the shooter.
func OriginNear(origin, serverPos Vec3, toleranceSq float64) bool {
	return DistanceSq(origin, serverPos) <= toleranceSq
}

// ValidDisplayName reports whether name, once trimmed, is an acceptable display name.
func ValidDisplayName(name string) bool {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	return n >= minNameLen && n <= maxNameLen && nameRe.MatchString(trimmed)
}

// ValidUnit reports whether (bodyID, unitID) can name a destructible unit.
func ValidUnit(bodyID string, unitID *int64) bool {
	return bodyID != "" && unitID != nil && *unitID >= 0
}

// SanitizeChat trims and truncates a chat message. ok is false when
// nothing is left to send.
func SanitizeChat(msg string) (string, bool) {
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) > maxChatLength {
		msg = strings.TrimSpace(string([]rune(msg)[:maxChatLength]))
	}
	return msg, msg != ""
}
