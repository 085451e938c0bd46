package gui

import (
	"image"
	"image/color"
	"math"
)

const (
	margin     = 24
	lineHeight = 22
	charWidth  = 7 // basicfont.Face7x13 advance
)

// screenLayout places the artwork square on the left and the text column
// on the right
type screenLayout struct {
	Art   image.Rectangle
	TextX int
	TextY int
	TextW int // columns available for text, in characters
}

func computeLayout(w, h int) screenLayout {
	side := h - 2*margin
	if half := w / 2; side > half {
		side = half
	}
	if side < 0 {
		side = 0
	}

	art := image.Rect(margin, (h-side)/2, margin+side, (h-side)/2+side)
	textX := art.Max.X + margin
	textW := (w - textX - margin) / charWidth
	if textW < 0 {
		textW = 0
	}
	return screenLayout{
		Art:   art,
		TextX: textX,
		TextY: art.Min.Y + lineHeight,
		TextW: textW,
	}
}

// fitScale returns the scale and offset that fit a srcW x srcH image
// centered inside dst
func fitScale(srcW, srcH int, dst image.Rectangle) (scale, offX, offY float64) {
	if srcW <= 0 || srcH <= 0 || dst.Empty() {
		return 0, 0, 0
	}
	sx := float64(dst.Dx()) / float64(srcW)
	sy := float64(dst.Dy()) / float64(srcH)
	scale = math.Min(sx, sy)
	offX = float64(dst.Min.X) + (float64(dst.Dx())-float64(srcW)*scale)/2
	offY = float64(dst.Min.Y) + (float64(dst.Dy())-float64(srcH)*scale)/2
	return scale, offX, offY
}

// fade returns c with its alpha scaled by alpha in [0, 1]
func fade(c color.NRGBA, alpha float64) color.NRGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	c.A = uint8(math.Round(float64(c.A) * alpha))
	return c
}

// truncate shortens s to at most n characters
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
