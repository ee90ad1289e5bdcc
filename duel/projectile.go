package duel

import "math"

// Flight is what happened to a projectile during one step.
type Flight int

const (
	Flying Flight = iota
	Missed        // left the canvas
	Struck        // hit the enemy planet
	Spent         // was already inactive
)

// Projectile is one player's shot for the current round.
type Projectile struct {
	Owner  PlayerID
	X, Y   float64
	VX, VY float64
	Trail  []Point
	Active bool
}

// Launch fires a projectile from the planet's edge along aimDeg.
func Launch(cfg Config, from *Planet, aimDeg float64) *Projectile {
	rad := DegToRad(aimDeg)
	p := from.LaunchPoint(rad)
	return &Projectile{
		Owner:  from.Owner,
		X:      p.X,
		Y:      p.Y,
		VX:     math.Cos(rad) * cfg.LaunchSpeed,
		VY:     math.Sin(rad) * cfg.LaunchSpeed,
		Trail:  make([]Point, 0, cfg.TrailCap),
		Active: true,
	}
}

// Step advances the projectile by dt nominal frames through the field and
// checks it against the canvas bounds and the enemy planet.
func (p *Projectile) Step(cfg Config, dt float64, bodies []GravityBody, enemy *Planet) Flight {
	if !p.Active {
		return Spent
	}

	ax, ay := Acceleration(p.X, p.Y, bodies, cfg.GravityFloor)
	vx := p.VX + ax*cfg.AccelScale*dt
	vy := p.VY + ay*cfg.AccelScale*dt
	nx := p.X + vx*dt
	ny := p.Y + vy*dt

	if nx < 0 || nx > cfg.Width || ny < 0 || ny > cfg.Height {
		p.Active = false
		return Missed
	}
	if enemy.Hit(nx, ny) {
		p.Active = false
		return Struck
	}

	if cfg.TrailCap > 0 {
		if len(p.Trail) >= cfg.TrailCap {
			copy(p.Trail, p.Trail[1:])
			p.Trail = p.Trail[:len(p.Trail)-1]
		}
		p.Trail = append(p.Trail, Point{X: p.X, Y: p.Y})
	}
	p.X, p.Y = nx, ny
	p.VX, p.VY = vx, vy
	return Flying
}

func (p *Projectile) clone() Projectile {
	c := *p
	c.Trail = append([]Point(nil), p.Trail...)
	return c
}
