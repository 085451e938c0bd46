package gui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jfmyers9/nowplaying/internal/display"
	"golang.org/x/image/font/basicfont"
)

var (
	background  = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	titleColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	detailColor = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	dimColor    = color.NRGBA{R: 130, G: 130, B: 130, A: 255}
	revealColor = color.NRGBA{R: 255, G: 255, B: 255, A: 160}
)

// textRows lists the fields drawn in the text column, top to bottom
var textRows = []struct {
	field string
	color color.NRGBA
}{
	{display.FieldPlayerState, dimColor},
	{display.FieldTitle, titleColor},
	{display.FieldArtist, detailColor},
	{display.FieldAlbum, detailColor},
	{display.FieldReleaseDate, dimColor},
	{display.FieldPlaylist, dimColor},
}

// Draw implements ebiten.Game
func (g *Game) Draw(screen *ebiten.Image) {
	g.runFrames()

	screen.Fill(background)
	if g.surface.img != nil {
		screen.DrawImage(g.surface.img, nil)
	}

	b := screen.Bounds()
	l := computeLayout(b.Dx(), b.Dy())

	g.drawArtwork(screen, l)
	g.drawText(screen, l)
}

func (g *Game) drawArtwork(screen *ebiten.Image, l screenLayout) {
	art := g.controller.Artwork()
	img := g.images[art.Image]
	if img == nil || art.Alpha <= 0 {
		return
	}

	sb := img.Bounds()
	scale, x, y := fitScale(sb.Dx(), sb.Dy(), l.Art)
	if scale == 0 {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleAlpha(float32(art.Alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}

func (g *Game) drawText(screen *ebiten.Image, l screenLayout) {
	y := l.TextY
	for _, row := range textRows {
		f := g.controller.Field(row.field)
		if f.Value != "" && f.Alpha > 0 {
			text.Draw(screen, truncate(f.Value, l.TextW), basicfont.Face7x13, l.TextX, y, fade(row.color, f.Alpha))
		}
		y += lineHeight
	}

	// Last updated sits at the bottom, underlined while the reveal runs
	bottom := l.Art.Max.Y
	f := g.controller.Field(display.FieldLastUpdated)
	if f.Value != "" && f.Alpha > 0 {
		text.Draw(screen, truncate(f.Value, l.TextW), basicfont.Face7x13, l.TextX, bottom-4, fade(dimColor, f.Alpha))
	}

	now := g.now()
	if g.controller.Revealing(now) {
		width := float32(len([]rune(f.Value))*charWidth) * float32(g.controller.RevealProgress(now))
		vector.DrawFilledRect(screen, float32(l.TextX), float32(bottom), width, 1, revealColor, false)
	}
}
