package particles

import "math"

// ForceDamping scales the pairwise pull. It is tuned by eye, and is the only
// thing keeping velocities from running away.
const ForceDamping = 2000.0

// Interaction describes how two particles affect each other in one step.
type Interaction struct {
	Distance float64 // Distance between centers
	Linked   bool    // Whether the pair is within the affecting distance
	Opacity  float64 // Alpha of the connecting line, 1 when touching, 0 at the limit
	AX, AY   float64 // Velocity change taken from the first particle and given to the second
}

// interact evaluates the pull between p1 and p2. It does not modify either
// particle.
func interact(p1, p2 Particle, minDist float64) Interaction {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	dist := math.Sqrt(dx*dx + dy*dy)

	in := Interaction{Distance: dist}
	if dist > minDist {
		return in
	}

	in.Linked = true
	in.Opacity = 1 - dist/minDist
	in.AX = dx / ForceDamping
	in.AY = dy / ForceDamping
	return in
}

// apply pulls the pair together by an equal and opposite velocity change
func (in Interaction) apply(p1, p2 *Particle) {
	p1.VX -= in.AX
	p1.VY -= in.AY

	p2.VX += in.AX
	p2.VY += in.AY
}
