package duel

import "log"

// BodyKind selects a gravity body variant.
type BodyKind int

const (
	BlueStar BodyKind = iota
	WhiteStar
	RedStar
	BlackHole
)

// BodyDef holds the fixed stats of a body kind
type BodyDef struct {
	Mass    float64
	Radius  float64
	Color   string
	Visible bool
}

// BodyDefs is indexed by BodyKind. RedStar is the smallest and serves as
// the placement fallback.
var BodyDefs = [4]BodyDef{
	BlueStar:  {Mass: 9000, Radius: 18, Color: "#9bb0ff", Visible: true},
	WhiteStar: {Mass: 6000, Radius: 14, Color: "#f8f7ff", Visible: true},
	RedStar:   {Mass: 4000, Radius: 10, Color: "#ff6b4a", Visible: true},
	BlackHole: {Mass: 12000, Radius: 12, Color: "#000000", Visible: false},
}

var starKinds = [...]BodyKind{BlueStar, WhiteStar, RedStar}

func (k BodyKind) String() string {
	switch k {
	case BlueStar:
		return "blue-star"
	case WhiteStar:
		return "white-star"
	case RedStar:
		return "red-star"
	case BlackHole:
		return "black-hole"
	}
	return "unknown"
}

// GravityBody is a fixed mass bending projectile paths. Black holes are
// invisible but still pull.
type GravityBody struct {
	X, Y    float64
	Mass    float64
	Radius  float64
	Color   string
	Kind    BodyKind
	Visible bool
}

func newBody(kind BodyKind, p Point) GravityBody {
	def := BodyDefs[kind]
	return GravityBody{
		X:       p.X,
		Y:       p.Y,
		Mass:    def.Mass,
		Radius:  def.Radius,
		Color:   def.Color,
		Kind:    kind,
		Visible: def.Visible,
	}
}

// PlacementFailure records a body whose first placement budget ran out.
// Omitted is set when the fallback attempt failed too and the body was
// dropped from the field.
type PlacementFailure struct {
	Index   int
	Kind    BodyKind
	Omitted bool
}

// GenerateField places cfg.BodyCount bodies, keeping them clear of each
// other and of both home planets. Bodies are returned in placement order.
// Generation never fails: bodies that cannot be placed are reported and
// skipped.
func GenerateField(cfg Config, planets [2]Planet, rng Rand) ([]GravityBody, []PlacementFailure) {
	bodies := make([]GravityBody, 0, cfg.BodyCount)
	var failures []PlacementFailure

	for i := 0; i < cfg.BodyCount; i++ {
		kind := pickKind(cfg, rng)
		if p, ok := findPosition(cfg, BodyDefs[kind].Radius, bodies, planets, rng, cfg.PlacementAttempts); ok {
			bodies = append(bodies, newBody(kind, p))
			continue
		}

		log.Printf("field: no position for body %d (%s), retrying as %s", i, kind, RedStar)
		p, ok := findPosition(cfg, BodyDefs[RedStar].Radius, bodies, planets, rng, cfg.FallbackAttempts)
		failures = append(failures, PlacementFailure{Index: i, Kind: kind, Omitted: !ok})
		if !ok {
			log.Printf("field: failed to place body %d", i)
			continue
		}
		bodies = append(bodies, newBody(RedStar, p))
	}
	return bodies, failures
}

func pickKind(cfg Config, rng Rand) BodyKind {
	if rng.Float64() < cfg.BlackHoleChance {
		return BlackHole
	}
	return starKinds[intn(rng, len(starKinds))]
}

func findPosition(cfg Config, radius float64, bodies []GravityBody, planets [2]Planet, rng Rand, attempts int) (Point, bool) {
	for i := 0; i < attempts; i++ {
		p := Point{
			X: between(rng, radius, cfg.Width-radius),
			Y: between(rng, radius, cfg.Height-radius),
		}
		if validPosition(cfg, p, radius, bodies, planets) {
			return p, true
		}
	}
	return Point{}, false
}

func validPosition(cfg Config, p Point, radius float64, bodies []GravityBody, planets [2]Planet) bool {
	for i := range planets {
		if Collides(p.X, p.Y, planets[i].X, planets[i].Y, cfg.MinPlayerDistance+radius) {
			return false
		}
	}
	for _, b := range bodies {
		if Collides(p.X, p.Y, b.X, b.Y, cfg.MinBodyDistance+radius+b.Radius) {
			return false
		}
	}
	return true
}
