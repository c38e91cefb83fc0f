package vision

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// labelFont шрифт номеров находок. Face не потокобезопасен, поэтому создаётся на каждый вызов.
type labelFont struct {
	font *opentype.Font
	size float64
}

func newLabelFont(ttf []byte, size float64) (*labelFont, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	return &labelFont{font: f, size: size}, nil
}

func defaultLabelFont(size float64) *labelFont {
	lf, err := newLabelFont(goregular.TTF, size)
	if err != nil {
		return nil
	}
	return lf
}

// face возвращает начертание нужного размера. Без шрифта используется растровый 7x13.
func (lf *labelFont) face() (font.Face, func()) {
	if lf == nil {
		return basicfont.Face7x13, func() {}
	}
	face, err := opentype.NewFace(lf.font, &opentype.FaceOptions{
		Size:    lf.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13, func() {}
	}
	return face, func() { face.Close() }
}
