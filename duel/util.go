package duel

import "math"

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DegToRad converts an aim angle in degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Point is a canvas position
type Point struct {
	X, Y float64
}
