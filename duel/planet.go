package duel

import (
	"fmt"
	"math"
)

// PlayerID identifies one of the two duellists.
type PlayerID int

const (
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other player.
func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p PlayerID) valid() bool {
	return p == Player1 || p == Player2
}

func (p PlayerID) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	}
	return fmt.Sprintf("player(%d)", int(p))
}

// Planet is a player's home base. Its position is fixed for the session;
// Lives and Destroyed change during play.
type Planet struct {
	Owner     PlayerID
	X, Y      float64
	Radius    float64
	Color     string
	Sprite    string
	Lives     int
	Destroyed bool
}

// NewPlanets places both home planets on the horizontal centre line,
// inset from the left and right edges.
func NewPlanets(cfg Config) [2]Planet {
	return [2]Planet{
		{
			Owner:  Player1,
			X:      cfg.PlanetInset,
			Y:      cfg.Height / 2,
			Radius: cfg.PlanetRadius,
			Color:  "#4287f5",
			Sprite: "planet-blue",
			Lives:  cfg.StartingLives,
		},
		{
			Owner:  Player2,
			X:      cfg.Width - cfg.PlanetInset,
			Y:      cfg.Height / 2,
			Radius: cfg.PlanetRadius,
			Color:  "#f54242",
			Sprite: "planet-red",
			Lives:  cfg.StartingLives,
		},
	}
}

// LaunchPoint returns the spot on the planet's edge along the aim angle.
func (p *Planet) LaunchPoint(rad float64) Point {
	return Point{
		X: p.X + math.Cos(rad)*p.Radius,
		Y: p.Y + math.Sin(rad)*p.Radius,
	}
}

// Hit reports whether (x, y) strikes a live planet.
func (p *Planet) Hit(x, y float64) bool {
	return !p.Destroyed && Collides(x, y, p.X, p.Y, p.Radius)
}
