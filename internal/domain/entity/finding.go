package entity

import (
	"encoding/json"
	"fmt"
)

// NormalizedScale сторона нормализованного пространства координат, в котором модель описывает находки.
const NormalizedScale = 1000

// Box прямоугольник находки в нормализованных координатах [0,1000]².
// Порядок углов не проверяется: модель может вернуть вырожденную или перевёрнутую рамку.
type Box struct {
	X1 int // левый верхний угол, X
	Y1 int // левый верхний угол, Y
	X2 int // правый нижний угол, X
	Y2 int // правый нижний угол, Y
}

// Empty сообщает, что рамка вырождена или перевёрнута.
func (b Box) Empty() bool {
	return b.X1 > b.X2 || b.Y1 > b.Y2
}

// Scale переводит нормализованные координаты в пиксели изображения заданного размера.
// Дробная часть отбрасывается.
func (b Box) Scale(width, height int) Box {
	return Box{
		X1: scaleAxis(b.X1, width),
		Y1: scaleAxis(b.Y1, height),
		X2: scaleAxis(b.X2, width),
		Y2: scaleAxis(b.Y2, height),
	}
}

// scaleLimit граница пиксельной координаты: за ней рамка всё равно вне холста
const scaleLimit = 1 << 30

func scaleAxis(v, size int) int {
	f := float64(v) * float64(size) / NormalizedScale
	return int(max(-scaleLimit, min(f, scaleLimit)))
}

// MarshalJSON кодирует рамку как [x1,y1,x2,y2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON читает рамку из [x1,y1,x2,y2].
func (b *Box) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("box: expected 4 coordinates, got %d", len(v))
	}
	b.X1, b.Y1, b.X2, b.Y2 = v[0], v[1], v[2], v[3]
	return nil
}

// Finding находка на снимке: описание и область.
type Finding struct {
	Description string `json:"description"`
	Coordinates Box    `json:"coordinates"`
}

// NumberedFinding находка после разметки: порядковый номер и цвет рамки.
type NumberedFinding struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
	Coordinates Box    `json:"coordinates"`
	Color       string `json:"color"`
}
