//go:build gocv
// +build gocv

package vision

import "xray-assistant/internal/domain/port"

// Backend имя реализации разметки в этой сборке.
const Backend = "opencv"

// New возвращает разметчик, выбранный тегами сборки.
func New(opts Options) port.Annotator {
	return NewCVAnnotator(opts)
}
