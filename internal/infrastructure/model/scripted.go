package model

import (
	"context"
	"sync"
	"time"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

// OfflineAnswer пример ответа для работы без модели
const OfflineAnswer = `Subjective:
Routine panoramic radiograph; no complaint can be inferred from the image.

Objective:
FINDING: Radiolucency suggesting caries on a lower left molar
LOCATION: [620,560,700,660]
FINDING: Horizontal bone loss in the upper anterior region
LOCATION: [420,300,580,420]

Assessment:
Offline mode: this is a canned answer, not a clinical analysis.

Plan:
Configure GEMINI_API_KEY to analyze real images.`

// ScriptedModel возвращает заранее заданные ответы по кругу
type ScriptedModel struct {
	Delay time.Duration

	mu      sync.Mutex
	answers []string
	next    int
}

// NewScriptedModel создаёт модель с заданными ответами
func NewScriptedModel(answers ...string) *ScriptedModel {
	if len(answers) == 0 {
		answers = []string{OfflineAnswer}
	}
	return &ScriptedModel{answers: answers}
}

// Complete ждёт Delay и возвращает следующий ответ
func (m *ScriptedModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	answer := m.answers[m.next%len(m.answers)]
	m.next++
	return answer, nil
}

// Проверка реализации интерфейса
var _ port.ChatModel = (*ScriptedModel)(nil)
