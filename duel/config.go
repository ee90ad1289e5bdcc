package duel

import "fmt"

// Config holds every tuning value of a duel. Distances are canvas pixels,
// speeds are pixels per nominal frame and lifetimes are nominal frames.
type Config struct {
	Width        float64
	Height       float64
	PlanetRadius float64
	PlanetInset  float64 // distance of each home planet from its side edge

	LaunchSpeed  float64
	AccelScale   float64 // K_accel
	FrameMillis  float64 // nominal step length
	MaxStepScale float64 // dt is clamped to this many nominal steps
	TrailCap     int

	BodyCount         int
	BlackHoleChance   float64
	MinBodyDistance   float64
	MinPlayerDistance float64
	PlacementAttempts int
	FallbackAttempts  int
	GravityFloor      float64

	StartingLives int
	DefaultAim1   float64 // degrees
	DefaultAim2   float64 // degrees

	ExplosionSize  int
	FragmentMin    int
	FragmentMax    int
	FragmentMargin float64
	SpriteSize     float64
}

// DefaultConfig returns the standard 1000x600 arena.
func DefaultConfig() Config {
	return Config{
		Width:        1000,
		Height:       600,
		PlanetRadius: 25,
		PlanetInset:  50,

		LaunchSpeed:  5,
		AccelScale:   0.1,
		FrameMillis:  1000.0 / 60.0,
		MaxStepScale: 3,
		TrailCap:     50,

		BodyCount:         5,
		BlackHoleChance:   0.12,
		MinBodyDistance:   60,
		MinPlayerDistance: 150,
		PlacementAttempts: 100,
		FallbackAttempts:  200,
		GravityFloor:      1,

		StartingLives: 3,
		DefaultAim1:   0,
		DefaultAim2:   180,

		ExplosionSize:  30,
		FragmentMin:    6,
		FragmentMax:    10,
		FragmentMargin: 100,
		SpriteSize:     1162,
	}
}

// Validate reports the first nonsensical value in c.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("canvas must be positive, got %gx%g", c.Width, c.Height)
	case c.PlanetRadius <= 0:
		return fmt.Errorf("planet radius must be positive, got %g", c.PlanetRadius)
	case c.PlanetInset < c.PlanetRadius || c.PlanetInset > c.Width/2:
		return fmt.Errorf("planet inset %g outside [%g, %g]", c.PlanetInset, c.PlanetRadius, c.Width/2)
	case c.LaunchSpeed <= 0:
		return fmt.Errorf("launch speed must be positive, got %g", c.LaunchSpeed)
	case c.AccelScale < 0:
		return fmt.Errorf("acceleration scale must not be negative, got %g", c.AccelScale)
	case c.FrameMillis <= 0:
		return fmt.Errorf("frame length must be positive, got %g", c.FrameMillis)
	case c.MaxStepScale <= 0:
		return fmt.Errorf("max step scale must be positive, got %g", c.MaxStepScale)
	case c.TrailCap < 0:
		return fmt.Errorf("trail cap must not be negative, got %d", c.TrailCap)
	case c.BodyCount < 0:
		return fmt.Errorf("body count must not be negative, got %d", c.BodyCount)
	case c.BlackHoleChance < 0 || c.BlackHoleChance > 1:
		return fmt.Errorf("black hole chance %g outside [0, 1]", c.BlackHoleChance)
	case c.StartingLives <= 0:
		return fmt.Errorf("starting lives must be positive, got %d", c.StartingLives)
	case c.ExplosionSize < 0:
		return fmt.Errorf("explosion size must not be negative, got %d", c.ExplosionSize)
	case c.FragmentMin < 0 || c.FragmentMax < c.FragmentMin:
		return fmt.Errorf("fragment range [%d, %d] is invalid", c.FragmentMin, c.FragmentMax)
	}
	return nil
}

// stepScale converts an elapsed wall-clock delta into nominal frames.
// Non-positive and NaN deltas do not advance time.
func (c Config) stepScale(deltaMs float64) float64 {
	if !(deltaMs > 0) {
		return 0
	}
	return Clamp(deltaMs/c.FrameMillis, 0, c.MaxStepScale)
}
