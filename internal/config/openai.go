package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/modelbridge/pkg/log"
)

// OpenAIConfig covers every OpenAI-compatible endpoint, including custom
// and self-hosted ones reached through BaseURL. An empty APIKey is not an
// error: the provider kind is simply reported unavailable.
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// AllowedModels is a comma-separated allow-list. Empty means every
	// model in the catalog is permitted.
	AllowedModels string `env:"OPENAI_ALLOWED_MODELS"`
}

func NewOpenAIConfig(ctx context.Context) *OpenAIConfig {
	c := &OpenAIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenAI config")
	}
	return c
}
