package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/modelbridge/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"BRIDGE_RUNTIME_PATH" envDefault:".modelbridge"`

	// DefaultModel is the model used when a tool call does not name one.
	// The special value "auto" defers the choice to the registry's
	// category-based fallback selection.
	DefaultModel string `env:"DEFAULT_MODEL" envDefault:"auto"`

	// Conversation Threads
	ConversationTTL      time.Duration `env:"CONVERSATION_TTL" envDefault:"3h"`
	MaxConversationTurns int           `env:"MAX_CONVERSATION_TURNS" envDefault:"50"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "modelbridge.db")
}

func (c AppConfig) IsAutoMode() bool {
	return c.DefaultModel == "auto"
}
