package entity

import "time"

// Role автор реплики.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment изображение, приложенное к реплике.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Turn одна реплика диалога.
type Turn struct {
	Role  Role
	Text  string
	Image *Attachment
}

// Conversation упорядоченная история диалога. Реплики только добавляются.
// Синхронизацию обеспечивает хранилище: одновременно с диалогом работает один владелец.
type Conversation struct {
	ID        string
	CreatedAt time.Time
	turns     []Turn
}

// NewConversation создаёт пустой диалог.
func NewConversation(id string) *Conversation {
	return &Conversation{ID: id, CreatedAt: time.Now()}
}

// RecordUserTurn добавляет реплику пользователя.
func (c *Conversation) RecordUserTurn(turn Turn) {
	turn.Role = RoleUser
	c.turns = append(c.turns, turn)
}

// RecordAssistantTurn добавляет ответ модели.
func (c *Conversation) RecordAssistantTurn(text string) {
	c.turns = append(c.turns, Turn{Role: RoleAssistant, Text: text})
}

// History возвращает копию истории.
func (c *Conversation) History() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len количество реплик.
func (c *Conversation) Len() int {
	return len(c.turns)
}
