package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NewConnID returns the opaque identifier for a new connection.
func NewConnID() string {
	return uuid.NewString()
}

// ShortID returns the first n characters of an id.
func ShortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// DefaultName is the display name used when a client sends none or an invalid one.
func DefaultName(connID string) string {
	return "Player_" + ShortID(connID, 5)
}

// round2 trims a coordinate to two decimals for logging
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
