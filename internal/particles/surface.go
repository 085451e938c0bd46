package particles

import (
	"errors"
	"image/color"
)

// ErrNoSurface is returned by Init when the host has no drawing surface.
// It indicates a wiring mistake, not a condition worth retrying.
var ErrNoSurface = errors.New("particles: no drawing surface")

// Surface is a 2D drawing target with an on-screen layout size and a
// separately sized backing buffer.
type Surface interface {
	// LayoutSize returns the size the surface occupies on screen
	LayoutSize() (width, height int)

	// SetBufferSize resizes the backing pixel buffer
	SetBufferSize(width, height int)

	// Clear erases the whole buffer to transparent
	Clear()

	// FillCircle draws a filled circle centered at (x, y)
	FillCircle(x, y, r float64, c color.Color)

	// StrokeLine draws a line segment from (x1, y1) to (x2, y2)
	StrokeLine(x1, y1, x2, y2 float64, c color.Color)
}

// Host is the display environment the engine runs in.
type Host interface {
	// Surface looks up the drawing surface. Returns nil if there is none.
	Surface() Surface

	// RequestFrame queues fn to run once, when the display is ready to
	// paint its next frame.
	RequestFrame(fn func())

	// OnResize registers fn to run whenever the display changes size.
	OnResize(fn func())
}
