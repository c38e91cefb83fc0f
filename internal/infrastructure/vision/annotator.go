package vision

import (
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

// Annotator размечает снимок средствами Go без внешних библиотек обработки изображений.
type Annotator struct {
	opts Options
	font *labelFont
}

// NewAnnotator создаёт разметчик. Незаданные параметры берутся из DefaultOptions.
func NewAnnotator(opts Options) *Annotator {
	opts = opts.withDefaults()
	return &Annotator{
		opts: opts,
		font: defaultLabelFont(opts.FontSize),
	}
}

// Annotate усиливает снимок и рисует пронумерованные полупрозрачные рамки находок.
// Рамки за пределами снимка обрезаются, перевёрнутые не заливаются и не обводятся.
func (a *Annotator) Annotate(src image.Image, findings []entity.Finding) (image.Image, []entity.NumberedFinding) {
	img := toRGB(src)
	enhance(img, a.opts.Contrast, a.opts.Brightness)

	bounds := img.Bounds()
	marks, numbered := plan(a.opts, bounds.Dx(), bounds.Dy(), findings)
	if len(marks) == 0 {
		return img, numbered
	}

	face, closeFace := a.font.face()
	defer closeFace()

	for _, m := range marks {
		if !m.box.Empty() {
			a.fill(img, m)
			a.outline(img, m)
		}
		a.label(img, face, m)
	}

	return img, numbered
}

func (a *Annotator) fill(img *image.RGBA, m mark) {
	r := m.box.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	mask := image.NewUniform(color.Alpha{A: a.opts.FillAlpha})
	draw.DrawMask(img, r, image.NewUniform(m.swatch.Color), image.Point{}, mask, image.Point{}, draw.Over)
}

// outline рисует рамку шириной OutlineWidth внутрь от краёв прямоугольника.
func (a *Annotator) outline(img *image.RGBA, m mark) {
	w := a.opts.OutlineWidth
	b := m.box
	src := image.NewUniform(m.swatch.Color)

	bands := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+w), // верх
		image.Rect(b.Min.X, b.Max.Y-w, b.Max.X, b.Max.Y), // низ
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y), // лево
		image.Rect(b.Max.X-w, b.Min.Y, b.Max.X, b.Max.Y), // право
	}
	for _, band := range bands {
		r := band.Intersect(b).Intersect(img.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(img, r, src, image.Point{}, draw.Src)
	}
}

// label рисует номер находки белым на плашке её цвета в левом верхнем углу рамки.
func (a *Annotator) label(img *image.RGBA, face font.Face, m mark) {
	text := strconv.Itoa(m.number)
	textBounds, _ := font.BoundString(face, text)
	w := (textBounds.Max.X - textBounds.Min.X).Ceil()
	h := (textBounds.Max.Y - textBounds.Min.Y).Ceil()

	pad := a.opts.LabelPad
	origin := m.box.Min
	plate := image.Rect(origin.X, origin.Y, origin.X+w+pad+1, origin.Y+h+pad+1)
	visible := plate.Intersect(img.Bounds())
	if visible.Empty() {
		return
	}
	draw.Draw(img, visible, image.NewUniform(m.swatch.Color), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(origin.X+pad/2) - textBounds.Min.X,
			Y: fixed.I(origin.Y+pad/2) - textBounds.Min.Y,
		},
	}
	d.DrawString(text)
}

// Проверка реализации интерфейса
var _ port.Annotator = (*Annotator)(nil)
