package port

import (
	"context"

	"xray-assistant/internal/domain/entity"
)

// ConversationRepository интерфейс хранилища диалогов
type ConversationRepository interface {
	// Acquire захватывает диалог (создаёт при первом обращении).
	// Пока не вызван release, другие вызовы Acquire с тем же id ждут.
	Acquire(ctx context.Context, id string) (conv *entity.Conversation, release func(), err error)

	// History возвращает копию истории диалога
	History(ctx context.Context, id string) ([]entity.Turn, error)
}
