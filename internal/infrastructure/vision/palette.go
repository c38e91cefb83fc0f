package vision

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// DefaultPalette цвета рамок находок.
var DefaultPalette = []string{
	"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF",
	"#00FFFF", "#FF8000", "#8000FF", "#0080FF", "#FF0080",
}

// Swatch цвет палитры: исходная запись и разобранное значение.
type Swatch struct {
	Hex   string
	Color color.RGBA
}

// ParsePalette разбирает цвета вида #RRGGBB.
func ParsePalette(hexes []string) ([]Swatch, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}

	swatches := make([]Swatch, 0, len(hexes))
	for _, h := range hexes {
		c, err := parseHexColor(h)
		if err != nil {
			return nil, err
		}
		swatches = append(swatches, Swatch{Hex: strings.ToUpper(h), Color: c})
	}
	return swatches, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
