package entity

import "errors"

var (
	// ErrTimeout модель не уложилась в отведённое время.
	ErrTimeout = errors.New("model call timed out")
	// ErrUpstream любой другой сбой обращения к модели (сеть, авторизация, квота).
	ErrUpstream = errors.New("model call failed")
	// ErrConversationBusy не дождались своей очереди к диалогу.
	ErrConversationBusy = errors.New("conversation is busy")
)
