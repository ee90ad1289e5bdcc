package duel

// Collides reports whether (px, py) lies strictly inside the circle of the
// given radius centred on (tx, ty).
func Collides(px, py, tx, ty, radius float64) bool {
	dx := px - tx
	dy := py - ty
	return dx*dx+dy*dy < radius*radius
}
