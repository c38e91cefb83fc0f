package entity

import "strings"

// SectionName раздел SOAP-заключения.
type SectionName string

const (
	SectionSubjective SectionName = "subjective"
	SectionObjective  SectionName = "objective"
	SectionAssessment SectionName = "assessment"
	SectionPlan       SectionName = "plan"
)

// Sections перечисляет разделы в каноническом порядке.
var Sections = []SectionName{SectionSubjective, SectionObjective, SectionAssessment, SectionPlan}

// SOAPRecord строки каждого раздела. Раздела нет, если модель не выдала его заголовок.
type SOAPRecord map[SectionName][]string

// Lines возвращает строки раздела и признак его наличия.
func (r SOAPRecord) Lines(name SectionName) ([]string, bool) {
	lines, ok := r[name]
	return lines, ok
}

// Text склеивает строки раздела через перевод строки.
func (r SOAPRecord) Text(name SectionName) string {
	return strings.Join(r[name], "\n")
}

// ParsedResponse разобранный ответ модели.
type ParsedResponse struct {
	SOAP     SOAPRecord
	Findings []Finding
}
