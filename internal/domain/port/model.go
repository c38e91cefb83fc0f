package port

import (
	"context"

	"xray-assistant/internal/domain/entity"
)

// ChatModel интерфейс мультимодальной модели
type ChatModel interface {
	// Complete отправляет историю диалога и возвращает текст ответа
	Complete(ctx context.Context, history []entity.Turn) (string, error)
}
