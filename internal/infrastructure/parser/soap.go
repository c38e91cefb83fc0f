package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"xray-assistant/internal/domain/entity"
)

var sectionHeaders = map[string]entity.SectionName{
	"subjective:": entity.SectionSubjective,
	"objective:":  entity.SectionObjective,
	"assessment:": entity.SectionAssessment,
	"plan:":       entity.SectionPlan,
}

// ParseSOAP разбирает свободный ответ модели на разделы SOAP и находки из раздела Objective.
// Никогда не возвращает ошибку: нераспознанный текст даёт пустой результат.
func ParseSOAP(raw string) entity.ParsedResponse {
	soap := entity.SOAPRecord{}

	var current entity.SectionName
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := sectionHeaders[strings.ToLower(trimmed)]; ok {
			// Повторный заголовок начинает раздел заново
			current = name
			soap[name] = []string{}
			continue
		}
		if current == "" {
			continue
		}
		soap[current] = append(soap[current], trimmed)
	}

	findings := []entity.Finding{}
	if _, ok := soap.Lines(entity.SectionObjective); ok {
		findings = ParseFindings(soap.Text(entity.SectionObjective))
	}

	return entity.ParsedResponse{
		SOAP:     soap,
		Findings: findings,
	}
}

// ParseFindings извлекает все пары FINDING/LOCATION в порядке появления.
func ParseFindings(text string) []entity.Finding {
	matches := FindingRegex.FindAllStringSubmatch(text, -1)
	findings := make([]entity.Finding, 0, len(matches))

	for _, m := range matches {
		var coords [4]int
		valid := true
		for i := range coords {
			v, err := strconv.Atoi(m[i+2])
			if err != nil {
				slog.Warn("координата находки не помещается в int", "value", m[i+2], "error", err)
				valid = false
				break
			}
			coords[i] = v
		}
		if !valid {
			continue
		}

		findings = append(findings, entity.Finding{
			Description: strings.TrimSpace(m[1]),
			Coordinates: entity.Box{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]},
		})
	}

	return findings
}
