package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
	"xray-assistant/internal/infrastructure/parser"
)

const (
	DefaultAnalysisTimeout = 30 * time.Second
	DefaultChatTimeout     = 15 * time.Second
)

// ErrEmptyMessage пустое сообщение в чате
var ErrEmptyMessage = errors.New("message is empty")

// Timeouts ограничения по времени на один запрос
type Timeouts struct {
	Analysis time.Duration
	Chat     time.Duration
}

// AnalysisService анализирует снимки и ведёт диалог с моделью по их результатам
type AnalysisService struct {
	conversations port.ConversationRepository
	model         port.ChatModel
	annotator     port.Annotator
	images        port.ImageStore
	timeouts      Timeouts
	newID         func() string
	now           func() time.Time
}

// NewAnalysisService создаёт сервис анализа. Нулевые таймауты заменяются значениями по умолчанию.
func NewAnalysisService(
	conversations port.ConversationRepository,
	model port.ChatModel,
	annotator port.Annotator,
	images port.ImageStore,
	timeouts Timeouts,
) *AnalysisService {
	if timeouts.Analysis <= 0 {
		timeouts.Analysis = DefaultAnalysisTimeout
	}
	if timeouts.Chat <= 0 {
		timeouts.Chat = DefaultChatTimeout
	}

	return &AnalysisService{
		conversations: conversations,
		model:         model,
		annotator:     annotator,
		images:        images,
		timeouts:      timeouts,
		newID:         func() string { return ulid.Make().String() },
		now:           time.Now,
	}
}

// analysisOutput результат работы под таймаутом
type analysisOutput struct {
	answer string
	result *entity.AnalysisResult
}

// Analyze отправляет снимок модели, разбирает SOAP-ответ, размечает находки
// и сохраняет размеченную копию рядом с оригиналом.
// Реплики попадают в диалог только при успехе.
func (s *AnalysisService) Analyze(ctx context.Context, conversationID, imagePath string) (*entity.AnalysisResult, error) {
	// Битый файл отсекаем до обращения к модели
	img, format, err := s.images.Decode(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("decode x-ray: %w", err)
	}

	data, err := s.images.Read(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("read x-ray: %w", err)
	}

	conv, release, err := s.conversations.Acquire(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer release()

	prompt := entity.Turn{
		Role:  entity.RoleUser,
		Text:  parser.AnalysisPrompt,
		Image: &entity.Attachment{MIMEType: http.DetectContentType(data), Data: data},
	}
	history := append(conv.History(), prompt)
	id := s.newID()
	started := s.now()

	slog.InfoContext(ctx, "анализ снимка",
		"analysis_id", id,
		"conversation", conversationID,
		"path", imagePath,
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	out, err := withDeadline(ctx, s.timeouts.Analysis, func(ctx context.Context) (analysisOutput, error) {
		answer, err := s.model.Complete(ctx, history)
		if err != nil {
			return analysisOutput{}, fmt.Errorf("%w: %w", entity.ErrUpstream, err)
		}

		parsed := parser.ParseSOAP(answer)
		annotated, numbered := s.annotator.Annotate(img, parsed.Findings)

		annotatedPath := s.images.AnnotatedPath(imagePath)
		if err := s.images.SaveImage(ctx, annotatedPath, annotated); err != nil {
			return analysisOutput{}, fmt.Errorf("save annotated x-ray: %w", err)
		}

		return analysisOutput{
			answer: answer,
			result: &entity.AnalysisResult{
				ID:                 id,
				SOAP:               parsed.SOAP,
				Findings:           numbered,
				AnnotatedImagePath: annotatedPath,
				CreatedAt:          started,
			},
		}, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "анализ снимка не удался",
			"analysis_id", id,
			"conversation", conversationID,
			"elapsed", time.Since(started),
			"error", err)
		return nil, err
	}

	conv.RecordUserTurn(prompt)
	conv.RecordAssistantTurn(out.answer)

	slog.InfoContext(ctx, "анализ снимка завершён",
		"analysis_id", id,
		"conversation", conversationID,
		"findings", len(out.result.Findings),
		"sections", len(out.result.SOAP),
		"elapsed", time.Since(started))

	return out.result, nil
}

// Chat продолжает диалог текстовым сообщением и возвращает ответ модели.
func (s *AnalysisService) Chat(ctx context.Context, conversationID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	conv, release, err := s.conversations.Acquire(ctx, conversationID)
	if err != nil {
		return "", err
	}
	defer release()

	turn := entity.Turn{Role: entity.RoleUser, Text: text}
	history := append(conv.History(), turn)
	started := s.now()

	answer, err := withDeadline(ctx, s.timeouts.Chat, func(ctx context.Context) (string, error) {
		answer, err := s.model.Complete(ctx, history)
		if err != nil {
			return "", fmt.Errorf("%w: %w", entity.ErrUpstream, err)
		}
		return answer, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "ответ в чате не получен",
			"conversation", conversationID,
			"elapsed", time.Since(started),
			"error", err)
		return "", err
	}

	conv.RecordUserTurn(turn)
	conv.RecordAssistantTurn(answer)

	slog.InfoContext(ctx, "ответ в чате",
		"conversation", conversationID,
		"turns", conv.Len(),
		"elapsed", time.Since(started))

	return answer, nil
}

// History возвращает историю диалога
func (s *AnalysisService) History(ctx context.Context, conversationID string) ([]entity.Turn, error) {
	return s.conversations.History(ctx, conversationID)
}
