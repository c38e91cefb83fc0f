package entity

import "strconv"

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu     UserState = "main_menu"     // В главном меню
	StateAwaitingXray UserState = "awaiting_xray" // Ожидание снимка
	StateProcessing   UserState = "processing"    // Анализ снимка
	StateDiscussing   UserState = "discussing"    // Обсуждение результата с моделью
)

// User представляет пользователя бота
type User struct {
	ID             int64     // Telegram User ID
	ChatID         int64     // Telegram Chat ID
	State          UserState // Текущее состояние пользователя
	ConversationID string    // Ключ диалога с моделью
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:             userID,
		ChatID:         chatID,
		State:          StateMainMenu,
		ConversationID: "tg-" + strconv.FormatInt(chatID, 10),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// StartConversation переключает пользователя на новый диалог
func (u *User) StartConversation(id string) {
	u.ConversationID = id
	u.State = StateAwaitingXray
}
