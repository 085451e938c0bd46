package gui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const lineWidth = 1

// imageSurface is the particle surface: an offscreen image drawn under the
// rest of the frame. Its layout size is the window's logical size.
type imageSurface struct {
	game *Game
	img  *ebiten.Image
	w, h int
}

func (s *imageSurface) LayoutSize() (int, int) {
	return s.game.layoutSize()
}

func (s *imageSurface) SetBufferSize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if s.img != nil && s.w == w && s.h == h {
		return
	}
	if s.img != nil {
		s.img.Deallocate()
	}
	s.img = ebiten.NewImage(w, h)
	s.w, s.h = w, h
}

func (s *imageSurface) Clear() {
	if s.img != nil {
		s.img.Clear()
	}
}

func (s *imageSurface) FillCircle(x, y, r float64, c color.Color) {
	if s.img == nil {
		return
	}
	vector.DrawFilledCircle(s.img, float32(x), float32(y), float32(r), c, true)
}

func (s *imageSurface) StrokeLine(x1, y1, x2, y2 float64, c color.Color) {
	if s.img == nil {
		return
	}
	vector.StrokeLine(s.img, float32(x1), float32(y1), float32(x2), float32(y2), lineWidth, c, true)
}
