package duel

import "math"

var explosionColors = [...]string{"#ff4500", "#ff6347", "#ffa500", "#ffff00", "#ff8c00"}

// Particle is one spark of an explosion burst.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Life    float64
	MaxLife float64
	Color   string
	Size    float64
}

// Opacity fades from 1 to 0 over the particle's life.
func (p *Particle) Opacity() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return Clamp(p.Life/p.MaxLife, 0, 1)
}

// Fragment is a shattered piece of a destroyed planet. The source rectangle
// addresses the planet sprite; ClipPath is the piece's outline relative to
// its centre.
type Fragment struct {
	X, Y          float64
	VX, VY        float64
	Rotation      float64
	RotationSpeed float64
	Width         float64
	Height        float64
	SourceX       float64
	SourceY       float64
	SourceWidth   float64
	SourceHeight  float64
	Sprite        string
	ClipPath      []Point
}

// NewExplosion emits a burst of n particles from (x, y), spread evenly
// around the circle with some jitter.
func NewExplosion(x, y float64, n int, rng Rand) []Particle {
	particles := make([]Particle, 0, n)
	for i := 0; i < n; i++ {
		angle := 2*math.Pi*float64(i)/float64(n) + (rng.Float64()-0.5)*0.5
		speed := between(rng, 2, 6)
		life := between(rng, 60, 100)
		particles = append(particles, Particle{
			X:       x,
			Y:       y,
			VX:      math.Cos(angle) * speed,
			VY:      math.Sin(angle) * speed,
			Life:    life,
			MaxLife: life,
			Color:   explosionColors[intn(rng, len(explosionColors))],
			Size:    between(rng, 2, 5),
		})
	}
	return particles
}

// NewFragments shatters a planet into cfg.FragmentMin..cfg.FragmentMax
// irregular pieces flying outward. Planets without a sprite have nothing to
// shatter.
func NewFragments(cfg Config, planet *Planet, rng Rand) []Fragment {
	if planet.Sprite == "" {
		return nil
	}

	n := cfg.FragmentMin + intn(rng, cfg.FragmentMax-cfg.FragmentMin+1)
	if n == 0 {
		return nil
	}
	half := cfg.SpriteSize / 2
	step := 2 * math.Pi / float64(n)
	fragments := make([]Fragment, 0, n)

	for i := 0; i < n; i++ {
		angle := step*float64(i) + (rng.Float64()-0.5)*(math.Pi/6)
		dist := planet.Radius * between(rng, 0.2, 0.6)

		size := between(rng, 0.4, 1.4)
		w := planet.Radius * size
		h := planet.Radius * size * between(rng, 0.8, 1.2)

		srcW := half * between(rng, 0.4, 0.8)
		srcH := half * between(rng, 0.4, 0.8)
		srcCX := half + math.Cos(angle)*half*0.3
		srcCY := half + math.Sin(angle)*half*0.3

		speed := between(rng, 0.6, 1.6)
		fragments = append(fragments, Fragment{
			X:             planet.X + math.Cos(angle)*dist,
			Y:             planet.Y + math.Sin(angle)*dist,
			VX:            math.Cos(angle) * speed,
			VY:            math.Sin(angle) * speed,
			Rotation:      rng.Float64() * 2 * math.Pi,
			RotationSpeed: (rng.Float64() - 0.5) * 0.04,
			Width:         w,
			Height:        h,
			SourceX:       Clamp(srcCX-srcW/2, 0, cfg.SpriteSize-srcW),
			SourceY:       Clamp(srcCY-srcH/2, 0, cfg.SpriteSize-srcH),
			SourceWidth:   srcW,
			SourceHeight:  srcH,
			Sprite:        planet.Sprite,
			ClipPath:      clipPolygon(math.Max(w, h), rng),
		})
	}
	return fragments
}

// clipPolygon returns 5-8 vertices at 60-100% of half the given size.
func clipPolygon(size float64, rng Rand) []Point {
	n := 5 + intn(rng, 4)
	pts := make([]Point, n)
	for i := range pts {
		a := float64(i) / float64(n) * 2 * math.Pi
		r := size * between(rng, 0.6, 1.0) / 2
		pts[i] = Point{X: math.Cos(a) * r, Y: math.Sin(a) * r}
	}
	return pts
}

// Effects holds the live explosion particles and planet fragments. It is
// advanced independently of projectiles so bursts keep animating after a
// round has resolved.
type Effects struct {
	Particles []Particle
	Fragments []Fragment
}

// Update moves every effect by dt nominal frames and prunes dead particles
// and fragments that have drifted well outside the canvas.
func (e *Effects) Update(cfg Config, dt float64) {
	live := e.Particles[:0]
	for _, p := range e.Particles {
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.Life -= dt
		if p.Life > 0 {
			live = append(live, p)
		}
	}
	clear(e.Particles[len(live):])
	e.Particles = live

	m := cfg.FragmentMargin
	kept := e.Fragments[:0]
	for _, f := range e.Fragments {
		f.X += f.VX * dt
		f.Y += f.VY * dt
		f.Rotation += f.RotationSpeed * dt
		if f.X < -m || f.X > cfg.Width+m || f.Y < -m || f.Y > cfg.Height+m {
			continue
		}
		kept = append(kept, f)
	}
	clear(e.Fragments[len(kept):])
	e.Fragments = kept
}

// Empty reports whether nothing is left to animate.
func (e *Effects) Empty() bool {
	return len(e.Particles) == 0 && len(e.Fragments) == 0
}

// Reset drops every effect.
func (e *Effects) Reset() {
	e.Particles = nil
	e.Fragments = nil
}
