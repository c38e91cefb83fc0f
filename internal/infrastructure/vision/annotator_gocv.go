//go:build gocv
// +build gocv

package vision

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"strconv"

	"gocv.io/x/gocv"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

// hersheyPixelHeight высота цифр FontHersheySimplex при масштабе 1.
const hersheyPixelHeight = 22.0

// CVAnnotator размечает снимок средствами OpenCV.
type CVAnnotator struct {
	opts     Options
	fallback *Annotator
}

// NewCVAnnotator создаёт разметчик на OpenCV. Незаданные параметры берутся из DefaultOptions.
func NewCVAnnotator(opts Options) *CVAnnotator {
	opts = opts.withDefaults()
	return &CVAnnotator{opts: opts, fallback: NewAnnotator(opts)}
}

// Annotate повторяет контракт Annotator. При сбое OpenCV разметка выполняется средствами Go.
func (a *CVAnnotator) Annotate(src image.Image, findings []entity.Finding) (image.Image, []entity.NumberedFinding) {
	mat, err := gocv.ImageToMatRGB(toRGB(src))
	if err != nil {
		slog.Warn("opencv: не удалось преобразовать снимок", "error", err)
		return a.fallback.Annotate(src, findings)
	}
	defer mat.Close()

	a.enhance(&mat)

	marks, numbered := plan(a.opts, mat.Cols(), mat.Rows(), findings)
	for _, m := range marks {
		if !m.box.Empty() {
			a.drawBox(&mat, m)
		}
		a.drawLabel(&mat, m)
	}

	out, err := mat.ToImage()
	if err != nil {
		slog.Warn("opencv: не удалось получить изображение", "error", err)
		return a.fallback.Annotate(src, findings)
	}
	return out, numbered
}

// enhance поднимает контраст относительно средней яркости, затем яркость.
func (a *CVAnnotator) enhance(mat *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*mat, &gray, gocv.ColorBGRToGray)

	mean := math.Floor(gray.Mean().Val1 + 0.5)
	c := a.opts.Contrast
	mat.ConvertToWithParams(mat, gocv.MatTypeCV8UC3, float32(c), float32(mean*(1-c)))
	mat.ConvertToWithParams(mat, gocv.MatTypeCV8UC3, float32(a.opts.Brightness), 0)
}

// canvas область, за которую рисование не выходит: OpenCV принимает только int32.
func (a *CVAnnotator) canvas(mat *gocv.Mat) image.Rectangle {
	w := a.opts.OutlineWidth
	return image.Rect(-w, -w, mat.Cols()+w, mat.Rows()+w)
}

func (a *CVAnnotator) drawBox(mat *gocv.Mat, m mark) {
	r := m.box.Intersect(a.canvas(mat))
	if r.Empty() {
		return
	}
	// OpenCV считает правый нижний угол включительно
	inclusive := image.Rect(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1)

	overlay := mat.Clone()
	defer overlay.Close()
	gocv.Rectangle(&overlay, inclusive, m.swatch.Color, -1)

	alpha := float64(a.opts.FillAlpha) / 255
	gocv.AddWeighted(overlay, alpha, *mat, 1-alpha, 0, mat)
	gocv.Rectangle(mat, inclusive, m.swatch.Color, a.opts.OutlineWidth)
}

func (a *CVAnnotator) drawLabel(mat *gocv.Mat, m mark) {
	if !m.box.Min.In(a.canvas(mat)) {
		return
	}

	text := strconv.Itoa(m.number)
	scale := a.opts.FontSize / hersheyPixelHeight
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, scale, 2)

	pad := a.opts.LabelPad
	origin := m.box.Min
	plate := image.Rect(origin.X, origin.Y, origin.X+size.X+pad, origin.Y+size.Y+pad)
	gocv.Rectangle(mat, plate, m.swatch.Color, -1)

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	baseline := image.Pt(origin.X+pad/2, origin.Y+pad/2+size.Y)
	gocv.PutText(mat, text, baseline, gocv.FontHersheySimplex, scale, white, 2)
}

// Проверка реализации интерфейса
var _ port.Annotator = (*CVAnnotator)(nil)
