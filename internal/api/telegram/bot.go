package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "xray-assistant/internal/application"
	"xray-assistant/internal/container"
	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
	"xray-assistant/internal/infrastructure/storage"
)

const (
	msgStart = `👋 Привет! Я ассистент по стоматологическим рентгеновским снимкам.

📸 Отправьте мне снимок, и я составлю SOAP-заключение и отмечу находки на изображении.

📋 Команды:
/check — проанализировать снимок
/new — начать новый диалог
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте рентгеновский снимок фото или файлом (png, jpg, gif)
2️⃣ Бот проанализирует снимок
3️⃣ Вы получите SOAP-заключение и снимок с пронумерованными находками
4️⃣ Задавайте уточняющие вопросы текстом

💡 Рекомендации:
• Снимок должен быть целиком в кадре
• Избегайте бликов при съёмке с экрана

⚠️ Заключение не заменяет осмотр врача.

📋 Команды:
/check — проанализировать снимок
/new — начать новый диалог
/cancel — отменить операцию`

	msgAwaitingXray     = "📸 Отправьте рентгеновский снимок для анализа."
	msgNewConversation  = "🆕 Начат новый диалог. Отправьте снимок для анализа."
	msgCancelled        = "❌ Операция отменена. Отправьте /check для нового анализа."
	msgSendXray         = "📸 Пожалуйста, отправьте рентгеновский снимок для анализа."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Анализирую снимок..."
	msgUnsupportedFile  = "⚠️ Поддерживаются только изображения png, jpg и gif."
	msgTimeout          = "⌛ Анализ занял слишком много времени. Попробуйте ещё раз."
	msgChatTimeout      = "⌛ Ответ занял слишком много времени. Повторите вопрос."
	msgProcessingError  = "⚠️ Не удалось обработать снимок. Попробуйте другое изображение."
	msgChatError        = "⚠️ Не удалось получить ответ. Попробуйте ещё раз."
	msgAnnotatedCaption = "🦷 Находки отмечены на снимке"
)

// Лимиты Telegram на длину текста
const (
	maxMessageLen = 4096
	maxCaptionLen = 1024
)

// Analyzer операции сервиса анализа, нужные боту
type Analyzer interface {
	Analyze(ctx context.Context, conversationID, imagePath string) (*entity.AnalysisResult, error)
	Chat(ctx context.Context, conversationID, text string) (string, error)
}

// botAPI часть клиента Telegram, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api      botAPI
	users    *app.UserService
	analyzer Analyzer
	images   port.ImageStore
	client   *http.Client
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	slog.Info("бот авторизован", "account", api.Self.UserName)

	return newBot(api, c.UserService, c.AnalysisService, c.Images), nil
}

func newBot(api botAPI, users *app.UserService, analyzer Analyzer, images port.ImageStore) *Bot {
	return &Bot{
		api:      api,
		users:    users,
		analyzer: analyzer,
		images:   images,
		client:   http.DefaultClient,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Каждое сообщение обрабатывается в своей горутине: диалоги разных чатов не ждут друг друга.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		slog.ErrorContext(ctx, "не удалось получить пользователя", "chat_id", msg.Chat.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка снимка
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleXray(ctx, msg, user, photo.FileID, fmt.Sprintf("tg_%d_%d.jpg", msg.Chat.ID, msg.MessageID))
		return
	}

	if msg.Document != nil {
		name, ok := documentName(msg)
		if !ok {
			b.sendMessage(msg.Chat.ID, msgUnsupportedFile)
			return
		}
		b.handleXray(ctx, msg, user, msg.Document.FileID, name)
		return
	}

	// Текст после анализа уходит в диалог с моделью
	if msg.Text != "" && user.State == entity.StateDiscussing {
		b.handleChat(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendXray)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	var err error

	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		_, err = b.users.BeginCheck(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgAwaitingXray)

	case "new":
		_, err = b.users.NewConversation(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgNewConversation)

	case "cancel":
		_, err = b.users.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}

	if err != nil {
		slog.ErrorContext(ctx, "не удалось сохранить состояние", "chat_id", msg.Chat.ID, "error", err)
	}
}

// handleXray скачивает снимок, анализирует и отправляет результат
func (b *Bot) handleXray(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID, name string) {
	b.setState(ctx, user, entity.StateProcessing)
	b.sendMessage(msg.Chat.ID, msgProcessing)

	result, err := b.analyze(ctx, user, fileID, name)
	if err != nil {
		slog.ErrorContext(ctx, "анализ снимка из чата не удался", "chat_id", msg.Chat.ID, "error", err)
		if errors.Is(err, entity.ErrTimeout) {
			b.sendMessage(msg.Chat.ID, msgTimeout)
		} else {
			b.sendMessage(msg.Chat.ID, msgProcessingError)
		}
		b.setState(ctx, user, entity.StateAwaitingXray)
		return
	}

	annotated, err := b.images.Read(ctx, result.AnnotatedImagePath)
	if err != nil {
		slog.ErrorContext(ctx, "не удалось прочитать размеченный снимок", "path", result.AnnotatedImagePath, "error", err)
	} else {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{
			Name:  filepath.Base(result.AnnotatedImagePath),
			Bytes: annotated,
		})
		photo.Caption = truncate(FormatFindings(result.Findings, msgAnnotatedCaption), maxCaptionLen)
		if _, err := b.api.Send(photo); err != nil {
			slog.ErrorContext(ctx, "не удалось отправить снимок", "chat_id", msg.Chat.ID, "error", err)
		}
	}

	b.sendMessage(msg.Chat.ID, truncate(FormatSOAP(result.SOAP), maxMessageLen))
	b.setState(ctx, user, entity.StateDiscussing)
}

func (b *Bot) analyze(ctx context.Context, user *entity.User, fileID, name string) (*entity.AnalysisResult, error) {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	path, err := b.images.Save(ctx, name, data)
	if err != nil {
		return nil, err
	}

	return b.analyzer.Analyze(ctx, user.ConversationID, path)
}

// handleChat отправляет вопрос модели в текущем диалоге
func (b *Bot) handleChat(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	answer, err := b.analyzer.Chat(ctx, user.ConversationID, msg.Text)
	if err != nil {
		slog.ErrorContext(ctx, "ответ в чате не получен", "chat_id", msg.Chat.ID, "error", err)
		if errors.Is(err, entity.ErrTimeout) {
			b.sendMessage(msg.Chat.ID, msgChatTimeout)
		} else {
			b.sendMessage(msg.Chat.ID, msgChatError)
		}
		return
	}

	b.sendMessage(msg.Chat.ID, truncate(answer, maxMessageLen))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.users.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		slog.ErrorContext(ctx, "не удалось сохранить состояние", "chat_id", user.ChatID, "error", err)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("не удалось отправить сообщение", "chat_id", chatID, "error", err)
	}
}

// documentName имя для снимка, присланного файлом. Не изображения отклоняются.
func documentName(msg *tgbotapi.Message) (string, bool) {
	doc := msg.Document
	if doc.MimeType != "" && !strings.HasPrefix(doc.MimeType, "image/") {
		return "", false
	}

	name := storage.SecureFilename(doc.FileName)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return "", false
	}
	return fmt.Sprintf("tg_%d_%d_%s", msg.Chat.ID, msg.MessageID, name), true
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
