package port

import (
	"image"

	"xray-assistant/internal/domain/entity"
)

// Annotator интерфейс разметки снимка
type Annotator interface {
	// Annotate усиливает снимок и рисует пронумерованные рамки находок.
	// Возвращает новое изображение и находки с номерами и цветами в исходном порядке.
	Annotate(img image.Image, findings []entity.Finding) (image.Image, []entity.NumberedFinding)
}
