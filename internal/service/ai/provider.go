package ai

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"

	"github.com/zhouzirui/talent-coach/backend/internal/config"
)

// NewChatModel builds the chat model selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	temperature := toFloat32(cfg.Temperature)
	topP := toFloat32(cfg.TopP)

	switch cfg.Provider {
	case "", "gemini":
		m, err := NewGeminiChatModel(ctx, GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "openai":
		m, err := NewOpenAIChatModel(OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "ark":
		if !cfg.Ark.Enabled() {
			return nil, errors.New("ark credentials missing: set ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY")
		}
		m, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.Ark.BaseURL,
			Region:      cfg.Ark.Region,
			APIKey:      cfg.Ark.APIKey,
			AccessKey:   cfg.Ark.AccessKey,
			SecretKey:   cfg.Ark.SecretKey,
			Model:       cfg.Ark.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create ark chat model")
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
