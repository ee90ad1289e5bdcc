package duel

import "math"

// Acceleration sums the inverse-square pull of every body on (x, y).
// Bodies closer than floor contribute nothing.
func Acceleration(x, y float64, bodies []GravityBody, floor float64) (ax, ay float64) {
	for _, b := range bodies {
		dx := b.X - x
		dy := b.Y - y
		distSq := dx*dx + dy*dy
		dist := math.Sqrt(distSq)
		if dist <= floor {
			continue
		}
		f := b.Mass / distSq
		ax += f * dx / dist
		ay += f * dy / dist
	}
	return ax, ay
}
