package particles

import (
	"image/color"
	"math"
)

var particleColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// drawParticle renders p as a filled white circle
func drawParticle(s Surface, p Particle) {
	s.FillCircle(p.X, p.Y, p.Radius, particleColor)
}

// drawLink joins two interacting particles with a white line whose alpha
// fades with distance
func drawLink(s Surface, p1, p2 Particle, in Interaction) {
	c := particleColor
	c.A = uint8(math.Round(in.Opacity * 255))
	s.StrokeLine(p1.X, p1.Y, p2.X, p2.Y, c)
}
