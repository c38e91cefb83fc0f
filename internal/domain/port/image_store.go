package port

import (
	"context"
	"image"
)

// ImageStore интерфейс файлового хранилища снимков
type ImageStore interface {
	// Save сохраняет загруженный файл и возвращает его путь
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Read читает файл целиком
	Read(ctx context.Context, path string) ([]byte, error)

	// Decode читает и декодирует снимок, возвращая имя формата
	Decode(ctx context.Context, path string) (image.Image, string, error)

	// SaveImage кодирует изображение в формат по расширению пути
	SaveImage(ctx context.Context, path string, img image.Image) error

	// AnnotatedPath путь размеченной копии рядом с оригиналом
	AnnotatedPath(path string) string
}
