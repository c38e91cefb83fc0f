package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"xray-assistant/internal/domain/port"
)

// AnnotatedPrefix префикс имени размеченной копии снимка
const AnnotatedPrefix = "annotated_"

const jpegQuality = 95

// FileImageStore хранит загруженные снимки и их размеченные копии в каталоге
type FileImageStore struct {
	fs  afero.Fs
	dir string
}

// NewFileImageStore создаёт хранилище поверх файловой системы fs в каталоге dir
func NewFileImageStore(fs afero.Fs, dir string) *FileImageStore {
	return &FileImageStore{fs: fs, dir: dir}
}

// Dir каталог загрузок
func (s *FileImageStore) Dir() string {
	return s.dir
}

// Save записывает файл в каталог загрузок. Имя должно быть уже очищено.
func (s *FileImageStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("save upload: invalid file name %q", name)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Read читает файл целиком
func (s *FileImageStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Decode читает файл и декодирует png, jpeg или gif
func (s *FileImageStore) Decode(ctx context.Context, path string) (image.Image, string, error) {
	data, err := s.Read(ctx, path)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, format, nil
}

// SaveImage кодирует изображение по расширению пути: jpeg, gif, иначе png
func (s *FileImageStore) SaveImage(ctx context.Context, path string, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create annotated image: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode annotated image: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close annotated image: %w", err)
	}
	return nil
}

// AnnotatedPath путь размеченной копии: тот же каталог, префикс annotated_
func (s *FileImageStore) AnnotatedPath(path string) string {
	return filepath.Join(filepath.Dir(path), AnnotatedPrefix+filepath.Base(path))
}

// Проверка реализации интерфейса
var _ port.ImageStore = (*FileImageStore)(nil)
