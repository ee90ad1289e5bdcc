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

// GenerateUUID returns a random (v4) UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// round1 rounds to one decimal place to keep state frames small
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// truncate cuts s to at most n bytes
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
