package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
)

const (
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultMaxOutputTokens = 1000
	defaultTemperature     = float32(0.2)
)

// contentGenerator часть *genai.Models, которой пользуется адаптер
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig параметры подключения к Gemini
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	RateInterval    time.Duration // минимальный интервал между запросами, 0 без ограничения
}

// GeminiModel мультимодальная модель Gemini
type GeminiModel struct {
	models    contentGenerator
	model     string
	maxTokens int32
	limiter   *rate.Limiter
}

// NewGeminiModel создаёт клиента Gemini API
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return newGeminiModel(client.Models, cfg), nil
}

func newGeminiModel(models contentGenerator, cfg GeminiConfig) *GeminiModel {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	return &GeminiModel{
		models:    models,
		model:     cfg.Model,
		maxTokens: int32(cfg.MaxOutputTokens),
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Complete отправляет историю диалога и возвращает текст ответа
func (m *GeminiModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	if len(history) == 0 {
		return "", errors.New("gemini: empty history")
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini: rate limit: %w", err)
	}

	contents := toContents(history)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: m.maxTokens,
		Temperature:     genai.Ptr(defaultTemperature),
	}

	started := time.Now()
	resp, err := m.models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}

	slog.DebugContext(ctx, "gemini: ответ получен",
		"model", m.model,
		"turns", len(history),
		"chars", len(text),
		"elapsed", time.Since(started))

	return text, nil
}

func toContents(history []entity.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == entity.RoleAssistant {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, 2)
		if turn.Image != nil {
			parts = append(parts, genai.NewPartFromBytes(turn.Image.Data, turn.Image.MIMEType))
		}
		if turn.Text != "" {
			parts = append(parts, genai.NewPartFromText(turn.Text))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

// Проверка реализации интерфейса
var _ port.ChatModel = (*GeminiModel)(nil)
