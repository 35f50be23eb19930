package mcpserver

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/modelbridge/internal/memory"
	"github.com/sandevgo/modelbridge/internal/providers/llm"
	"github.com/sandevgo/modelbridge/pkg/log"
	"github.com/sandevgo/modelbridge/pkg/retry"
	"github.com/sandevgo/modelbridge/pkg/srv"
)

// Router is the slice of the provider registry the tool layer needs.
type Router interface {
	ProviderForModel(model string) llm.Provider
	AvailableModels(respectRestrictions bool) map[string]llm.Kind
	PreferredFallbackModel(category llm.ToolCategory) string
}

// Conversations is the slice of the conversation memory the tool layer
// needs.
type Conversations interface {
	CreateThread(ctx context.Context, toolName string, initialContext map[string]any, parentID string) (string, error)
	AddTurn(ctx context.Context, threadID, role, content string, opts memory.TurnOptions) bool
	GetThread(ctx context.Context, threadID string) *memory.ThreadContext
	RemainingTurns(tc *memory.ThreadContext) int
}

type Config struct {
	Name    string
	Version string

	// DefaultModel is used when a tool call names none. "auto" defers to
	// the registry's category fallback.
	DefaultModel string
}

// Service exposes the chat/listmodels/version tools over MCP stdio. It
// owns the caller-side retry policy: only transient-classified backend
// errors are retried, everything else surfaces on the first attempt.
type Service struct {
	cfg     Config
	router  Router
	threads Conversations
	retrier *retry.Retrier
}

var _ srv.Service = (*Service)(nil)

func New(cfg Config, router Router, threads Conversations) *Service {
	retryCfg := retry.NewDefaultConfig()
	retryCfg.RetryIf = llm.IsTransientBackendError

	return &Service{
		cfg:     cfg,
		router:  router,
		threads: threads,
		retrier: retry.NewRetrier(retryCfg),
	}
}

func (s *Service) Start(ctx context.Context) error {
	mcpSrv := server.NewMCPServer(s.cfg.Name, s.cfg.Version, server.WithToolCapabilities(false))

	mcpSrv.AddTool(chatToolDefinition(), s.handleChat)
	mcpSrv.AddTool(listModelsToolDefinition(), s.handleListModels)
	mcpSrv.AddTool(versionToolDefinition(), s.handleVersion)

	log.FromCtx(ctx).Info().
		Str("name", s.cfg.Name).
		Str("version", s.cfg.Version).
		Msg("serving mcp tools on stdio")

	err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Service) Shutdown(ctx context.Context) error {
	// Listen unwinds on context cancellation; nothing else to release.
	return nil
}

func versionToolDefinition() mcp.Tool {
	return mcp.NewTool("version",
		mcp.WithDescription("Report the server name and version."),
	)
}

func (s *Service) handleVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(toolResponse{
		Status:  statusSuccess,
		Content: s.cfg.Name + " " + s.cfg.Version,
	})
}
