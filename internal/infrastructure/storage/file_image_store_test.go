package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestFileImageStore_SaveAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "static/uploads")
	ctx := context.Background()

	path, err := store.Save(ctx, "xray.png", []byte("data"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join("static", "uploads", "xray.png"), path)

	data, err := store.Read(ctx, path)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)

	_, err = store.Save(ctx, "../evil.png", []byte("x"))
	require.Error(t, err)
}

func TestFileImageStore_AnnotatedPath(t *testing.T) {
	store := NewFileImageStore(afero.NewMemMapFs(), "up")
	got := store.AnnotatedPath(filepath.Join("up", "pano.jpg"))
	require.Equal(t, filepath.Join("up", "annotated_pano.jpg"), got)
}

func TestFileImageStore_SaveImageByExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "up")
	ctx := context.Background()
	require.NoError(t, fs.MkdirAll("up", 0o755))

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	require.NoError(t, store.SaveImage(ctx, "up/a.png", img))
	raw, err := afero.ReadFile(fs, "up/a.png")
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())

	require.NoError(t, store.SaveImage(ctx, "up/a.JPG", img))
	raw, err = afero.ReadFile(fs, "up/a.JPG")
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestFileImageStore_Decode(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "up")
	ctx := context.Background()

	img := image.NewRGBA(image.Rect(0, 0, 12, 7))
	img.Set(2, 3, color.RGBA{G: 180, A: 255})

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, img) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, img, nil) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, img, nil) },
	}
	for format, encode := range encoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))
			path, err := store.Save(ctx, "scan."+format, buf.Bytes())
			require.NoError(t, err)

			decoded, gotFormat, err := store.Decode(ctx, path)
			require.NoError(t, err)
			require.Equal(t, format, gotFormat)
			require.Equal(t, img.Bounds(), decoded.Bounds())
		})
	}

	path, err := store.Save(ctx, "broken.png", []byte("not an image"))
	require.NoError(t, err)
	_, _, err = store.Decode(ctx, path)
	require.ErrorContains(t, err, "decode image broken.png")

	_, _, err = store.Decode(ctx, "up/missing.png")
	require.Error(t, err)
}

func TestSecureFilename(t *testing.T) {
	cases := map[string]string{
		"My cool movie.mov":          "My_cool_movie.mov",
		"../../../etc/passwd":        "etc_passwd",
		"i contain cool ümläuts.txt": "i_contain_cool_umlauts.txt",
		`C:\\xrays\\pano 01.JPG`:     "C_xrays_pano_01.JPG",
		"снимок.png":                 "png",
		"...":                        "",
	}
	for in, want := range cases {
		require.Equal(t, want, SecureFilename(in), in)
	}
}
