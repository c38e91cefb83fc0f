package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"xray-assistant/config"
	app "xray-assistant/internal/application"
	"xray-assistant/internal/container"
	"xray-assistant/internal/domain/port"
	"xray-assistant/internal/infrastructure/model"
	"xray-assistant/internal/infrastructure/storage"
	"xray-assistant/internal/infrastructure/vision"
)

// buildModel выбирает модель: заготовленные ответы офлайн, иначе Gemini с кэшем
func buildModel(ctx context.Context, cfg *config.Config, offline bool) (port.ChatModel, error) {
	if offline {
		slog.Warn("офлайн-режим: ответы модели заготовлены")
		return model.NewScriptedModel(), nil
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required (or pass --offline)")
	}

	gemini, err := model.NewGeminiModel(ctx, model.GeminiConfig{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		MaxOutputTokens: cfg.MaxOutputTokens,
		RateInterval:    cfg.RateInterval,
	})
	if err != nil {
		return nil, err
	}
	return model.NewCachingModel(gemini, cfg.CacheTTL), nil
}

func buildAnnotator(cfg *config.Config) (port.Annotator, error) {
	opts := vision.Options{}
	if len(cfg.Palette) > 0 {
		palette, err := vision.ParsePalette(cfg.Palette)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		opts.Palette = palette
	}
	return vision.New(opts), nil
}

// buildContainer собирает сервисы поверх файловой системы fs
func buildContainer(ctx context.Context, cfg *config.Config, offline bool, fs afero.Fs) (*container.Container, error) {
	chatModel, err := buildModel(ctx, cfg, offline)
	if err != nil {
		return nil, err
	}

	annotator, err := buildAnnotator(cfg)
	if err != nil {
		return nil, err
	}

	return container.New(container.Deps{
		Users:         storage.NewMemoryUserRepository(),
		Conversations: storage.NewMemoryConversationRepository(),
		Images:        storage.NewFileImageStore(fs, cfg.UploadDir),
		Model:         chatModel,
		Annotator:     annotator,
		Timeouts: app.Timeouts{
			Analysis: cfg.AnalysisTimeout,
			Chat:     cfg.ChatTimeout,
		},
	}), nil
}
