package particles

import "math/rand"

// DefaultRadius is the radius every particle is created with.
const DefaultRadius = 4.0

// Particle is a single animated point mass. It carries no behavior of its
// own; the engine moves it and the renderer draws it.
type Particle struct {
	X, Y   float64 // Position in surface coordinates
	VX, VY float64 // Velocity in surface units per frame
	Radius float64 // Fixed at creation
}

// newParticle places a particle uniformly over a width x height surface with
// a velocity in [-1, 1] on each axis.
func newParticle(rng *rand.Rand, width, height float64) Particle {
	return Particle{
		X:      rng.Float64() * width,
		Y:      rng.Float64() * height,
		VX:     -1 + rng.Float64()*2,
		VY:     -1 + rng.Float64()*2,
		Radius: DefaultRadius,
	}
}

// Config holds the engine settings. It is copied into the engine at
// construction and never changes afterwards.
type Config struct {
	// Number of particles in the store
	// Default: 40
	ParticleCount int

	// Distance at or below which two particles attract each other and are
	// joined by a line
	// Default: 50
	MinimumAffectingDistance float64
}

// DefaultConfig returns the stock animation settings
func DefaultConfig() Config {
	return Config{
		ParticleCount:            40,
		MinimumAffectingDistance: 50,
	}
}

// withDefaults fills unset fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ParticleCount <= 0 {
		c.ParticleCount = def.ParticleCount
	}
	if c.MinimumAffectingDistance <= 0 {
		c.MinimumAffectingDistance = def.MinimumAffectingDistance
	}
	return c
}
