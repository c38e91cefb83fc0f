package telegram

import (
	"fmt"
	"strings"

	"xray-assistant/internal/domain/entity"
)

var sectionTitles = map[entity.SectionName]string{
	entity.SectionSubjective: "Subjective",
	entity.SectionObjective:  "Objective",
	entity.SectionAssessment: "Assessment",
	entity.SectionPlan:       "Plan",
}

// FormatSOAP собирает заключение в текст в каноническом порядке разделов
func FormatSOAP(soap entity.SOAPRecord) string {
	var b strings.Builder
	for _, name := range entity.Sections {
		lines, ok := soap.Lines(name)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sectionTitles[name])
		b.WriteString(":")
		for _, line := range lines {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}

	if b.Len() == 0 {
		return "Модель не вернула разделов SOAP."
	}
	return b.String()
}

// FormatFindings нумерованный список находок под заголовком
func FormatFindings(findings []entity.NumberedFinding, title string) string {
	if len(findings) == 0 {
		return "✅ Находок с координатами нет"
	}

	var b strings.Builder
	b.WriteString(title)
	for _, f := range findings {
		fmt.Fprintf(&b, "\n%d. %s", f.Number, f.Description)
	}
	return b.String()
}
