package vision

import "math/rand/v2"

// Options параметры разметки, общие для всех реализаций.
type Options struct {
	Palette      []Swatch
	Pick         func(n int) int // индекс цвета в [0,n); по умолчанию равномерно случайный
	Contrast     float64
	Brightness   float64
	FillAlpha    uint8
	OutlineWidth int
	LabelPad     int
	FontSize     float64
}

// DefaultOptions возвращает стандартные параметры разметки.
func DefaultOptions() Options {
	palette, _ := ParsePalette(DefaultPalette)
	return Options{
		Palette:      palette,
		Pick:         rand.IntN,
		Contrast:     1.5,
		Brightness:   1.2,
		FillAlpha:    0x40,
		OutlineWidth: 3,
		LabelPad:     4,
		FontSize:     20,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Palette) == 0 {
		o.Palette = d.Palette
	}
	if o.Pick == nil {
		o.Pick = d.Pick
	}
	if o.Contrast == 0 {
		o.Contrast = d.Contrast
	}
	if o.Brightness == 0 {
		o.Brightness = d.Brightness
	}
	if o.FillAlpha == 0 {
		o.FillAlpha = d.FillAlpha
	}
	if o.OutlineWidth <= 0 {
		o.OutlineWidth = d.OutlineWidth
	}
	if o.LabelPad < 0 {
		o.LabelPad = d.LabelPad
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	return o
}
