package storage

import (
	"context"
	"fmt"
	"sync"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

// conversationSlot диалог и его очередь: семафор на один слот.
type conversationSlot struct {
	conv *entity.Conversation
	sem  chan struct{}
}

// MemoryConversationRepository in-memory хранилище диалогов с последовательным доступом по ключу
type MemoryConversationRepository struct {
	mu    sync.Mutex
	slots map[string]*conversationSlot
}

// NewMemoryConversationRepository создаёт пустое хранилище
func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		slots: make(map[string]*conversationSlot),
	}
}

func (r *MemoryConversationRepository) slot(id string) *conversationSlot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		s = &conversationSlot{
			conv: entity.NewConversation(id),
			sem:  make(chan struct{}, 1),
		}
		r.slots[id] = s
	}
	return s
}

// Acquire захватывает диалог. Ожидание прерывается отменой контекста.
func (r *MemoryConversationRepository) Acquire(ctx context.Context, id string) (*entity.Conversation, func(), error) {
	s := r.slot(id)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w: %s: %v", entity.ErrConversationBusy, id, ctx.Err())
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-s.sem })
	}
	return s.conv, release, nil
}

// History возвращает копию истории, дожидаясь завершения текущей операции над диалогом
func (r *MemoryConversationRepository) History(ctx context.Context, id string) ([]entity.Turn, error) {
	conv, release, err := r.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	return conv.History(), nil
}

// Проверка реализации интерфейса
var _ port.ConversationRepository = (*MemoryConversationRepository)(nil)
