package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/modelbridge/internal/config"
	"github.com/sandevgo/modelbridge/internal/memory"
	"github.com/sandevgo/modelbridge/internal/providers/llm"
	"github.com/sandevgo/modelbridge/internal/storage/sqlite"
	"github.com/sandevgo/modelbridge/internal/transport/mcpserver"
	"github.com/sandevgo/modelbridge/pkg/log"
	"github.com/sandevgo/modelbridge/pkg/srv"
)

// NewServices is the composition root: it builds the registry, storage and
// transport explicitly and wires them together. Nothing here is a process
// global; tests assemble their own smaller graphs the same way.
func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	initEnv(ctx)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	openAICfg := config.NewOpenAIConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	threadsRepo := sqlite.NewThreadsRepo(db)
	if purged, err := threadsRepo.PurgeExpired(ctx); err == nil && purged > 0 {
		logger.Info().Int64("count", purged).Msg("purged expired conversation threads")
	}

	conversations := memory.New(threadsRepo, memory.Config{
		TTL:      appCfg.ConversationTTL,
		MaxTurns: appCfg.MaxConversationTurns,
	})

	// 3. Provider registry
	policy := llm.NewAllowList(map[llm.Kind]string{
		llm.KindOpenAI: openAICfg.AllowedModels,
	})

	registry := llm.NewRegistry(func(kind llm.Kind) string {
		if kind == llm.KindOpenAI {
			return openAICfg.APIKey
		}
		return ""
	})
	registry.Register(llm.KindOpenAI, func(apiKey string) llm.Provider {
		return llm.NewOpenAICompatible(llm.OpenAICompatibleConfig{
			APIKey:  apiKey,
			BaseURL: openAICfg.BaseURL,
			Policy:  policy,
		})
	})

	if provider := registry.GetProvider(llm.KindOpenAI, false); provider != nil {
		policy.ValidateKnownModels(map[llm.Kind]llm.Provider{llm.KindOpenAI: provider}, logger)
	} else {
		logger.Warn().Msg("no OPENAI_API_KEY configured, openai provider unavailable")
	}

	// 4. MCP transport
	services = append(services, mcpserver.New(mcpserver.Config{
		Name:         appName,
		Version:      appVersion,
		DefaultModel: appCfg.DefaultModel,
	}, registry, conversations))

	return services
}

func initEnv(ctx context.Context) {
	// Optional .env next to the binary and inside the runtime dir; absence
	// is fine, real environments configure through the process env. The
	// runtime path itself cannot come from AppConfig here, it is parsed
	// after the env files are loaded.
	runtimePath := os.Getenv("BRIDGE_RUNTIME_PATH")
	if runtimePath == "" {
		runtimePath = ".modelbridge"
	}
	for _, path := range []string{".env", filepath.Join(runtimePath, ".env")} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				log.FromCtx(ctx).Warn().Err(err).Str("path", path).Msg("failed to load env file")
			}
		}
	}
}
