package vision

import (
	"image"

	"xray-assistant/internal/domain/entity"
)

// mark находка, готовая к отрисовке в пикселях.
type mark struct {
	number int
	swatch Swatch
	box    image.Rectangle // включает правый и нижний край; пустой для перевёрнутой рамки
}

// plan нумерует находки, выбирает цвета и переводит координаты в пиксели.
func plan(o Options, width, height int, findings []entity.Finding) ([]mark, []entity.NumberedFinding) {
	marks := make([]mark, 0, len(findings))
	numbered := make([]entity.NumberedFinding, 0, len(findings))

	for i, f := range findings {
		px := f.Coordinates.Scale(width, height)
		swatch := o.Palette[pickIndex(o.Pick, len(o.Palette))]

		marks = append(marks, mark{
			number: i + 1,
			swatch: swatch,
			// image.Rect нормализует углы, поэтому собираем прямоугольник вручную
			box: image.Rectangle{
				Min: image.Pt(px.X1, px.Y1),
				Max: image.Pt(px.X2+1, px.Y2+1),
			},
		})
		numbered = append(numbered, entity.NumberedFinding{
			Number:      i + 1,
			Description: f.Description,
			Coordinates: f.Coordinates,
			Color:       swatch.Hex,
		})
	}

	return marks, numbered
}

func pickIndex(pick func(int) int, n int) int {
	i := pick(n) % n
	if i < 0 {
		i += n
	}
	return i
}
