package entity

import "time"

// AnalysisResult хранит итог анализа снимка.
type AnalysisResult struct {
	ID                 string            `json:"id"`
	SOAP               SOAPRecord        `json:"soap"`
	Findings           []NumberedFinding `json:"findings"`
	AnnotatedImagePath string            `json:"annotated_image_path"`
	CreatedAt          time.Time         `json:"created_at"`
}
