package vision

import (
	"image"
	"image/color"
)

// toRGB копирует изображение в непрозрачный RGBA с началом в (0,0).
// Альфа-канал отбрасывается без смешивания с фоном.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if gray, ok := src.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < b.Dx(); x++ {
				i := dst.PixOffset(x, y)
				v := row[x]
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = v, v, v, 0xff
			}
		}
		return dst
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := dst.PixOffset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, 0xff
		}
	}
	return dst
}

// meanLuma средняя яркость по ITU-R 601-2 с округлением до целого.
func meanLuma(img *image.RGBA) int {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			r, g, bl := uint32(img.Pix[i]), uint32(img.Pix[i+1]), uint32(img.Pix[i+2])
			sum += uint64((r*19595 + g*38470 + bl*7471 + 0x8000) >> 16)
		}
	}
	return int(float64(sum)/float64(n) + 0.5)
}

// blend возвращает base + factor*(v-base), обрезанное до [0,255] с отбрасыванием дробной части.
func blend(base, v uint8, factor float32) uint8 {
	t := float32(base) + factor*(float32(v)-float32(base))
	switch {
	case t <= 0:
		return 0
	case t >= 255:
		return 0xff
	default:
		return uint8(t)
	}
}

// enhance поднимает контраст относительно средней яркости, затем яркость относительно чёрного.
func enhance(img *image.RGBA, contrast, brightness float64) {
	mean := meanLuma(img)
	base := uint8(mean)
	c, br := float32(contrast), float32(brightness)

	var lut [256]uint8
	for v := range lut {
		lut[v] = blend(0, blend(base, uint8(v), c), br)
	}

	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}
