package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/modelbridge/internal/memory"
	"github.com/sandevgo/modelbridge/internal/providers/llm"
	"github.com/sandevgo/modelbridge/pkg/log"
)

const defaultChatTemperature = 0.5

type chatArgs struct {
	Prompt         string   `json:"prompt"`
	Model          string   `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Files          []string `json:"files,omitempty"`
	Images         []string `json:"images,omitempty"`
	ContinuationID string   `json:"continuation_id,omitempty"`
}

func chatToolDefinition() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription("Send a prompt to an AI model and receive its reply. Supports model aliases, image attachments and multi-turn continuation."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The prompt to send to the model.")),
		mcp.WithString("model", mcp.Description("Model name or alias. Omit to use the server default.")),
		mcp.WithNumber("temperature", mcp.Description("Sampling temperature. Models with a mandated value ignore this.")),
		mcp.WithArray("files", mcp.Description("File paths to associate with this turn."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("images", mcp.Description("Image file paths or data URIs."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("continuation_id", mcp.Description("Thread id from a previous continuation offer.")),
	)
}

func (s *Service) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args chatArgs
	if err := req.BindArguments(&args); err != nil {
		return errorResult("invalid arguments: "+err.Error(), nil)
	}
	if strings.TrimSpace(args.Prompt) == "" {
		return errorResult("prompt is required", nil)
	}

	model := args.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	if model == "" || model == "auto" {
		model = s.router.PreferredFallbackModel(llm.CategoryBalanced)
	}

	provider := s.router.ProviderForModel(model)
	if provider == nil {
		return errorResult(
			fmt.Sprintf("model %q is not available with current configuration", model),
			map[string]any{"available_models": availableNames(s.router)},
		)
	}

	temperature := defaultChatTemperature
	if args.Temperature != nil {
		temperature = *args.Temperature
	}

	threadID, errResult := s.resolveThread(ctx, args)
	if errResult != nil {
		return errResult, nil
	}

	if ok := s.threads.AddTurn(ctx, threadID, "user", args.Prompt, memory.TurnOptions{
		Files:    args.Files,
		Images:   args.Images,
		ToolName: "chat",
	}); !ok {
		log.FromCtx(ctx).Warn().Str("thread", threadID).Msg("user turn dropped")
	}

	var resp *llm.ModelResponse
	err := s.retrier.Do(ctx, func() error {
		var genErr error
		resp, genErr = provider.GenerateContent(ctx, llm.GenerateRequest{
			Prompt:      args.Prompt,
			Model:       model,
			Temperature: temperature,
			Images:      args.Images,
		})
		return genErr
	})
	if err != nil {
		return chatErrorResult(err)
	}

	if ok := s.threads.AddTurn(ctx, threadID, "assistant", resp.Content, memory.TurnOptions{
		ToolName: "chat",
	}); !ok {
		log.FromCtx(ctx).Warn().Str("thread", threadID).Msg("assistant turn dropped")
	}

	var offer *continuationOffer
	if tc := s.threads.GetThread(ctx, threadID); tc != nil {
		offer = &continuationOffer{
			ContinuationID: threadID,
			RemainingTurns: s.threads.RemainingTurns(tc),
		}
	}

	metadata := map[string]any{
		"model":    resp.ModelName,
		"provider": string(resp.Provider),
		"usage":    resp.Usage,
	}
	for k, v := range resp.Metadata {
		metadata[k] = v
	}

	return successResult(toolResponse{
		Status:            statusSuccess,
		Content:           resp.Content,
		ContentType:       "text/plain",
		Metadata:          metadata,
		ContinuationOffer: offer,
	})
}

// resolveThread returns the thread to append to: the continuation target
// when one is named, a fresh thread otherwise. An unknown continuation id
// is a structured error, not a silent new conversation.
func (s *Service) resolveThread(ctx context.Context, args chatArgs) (string, *mcp.CallToolResult) {
	if args.ContinuationID != "" {
		if tc := s.threads.GetThread(ctx, args.ContinuationID); tc == nil {
			result, _ := errorResult(
				fmt.Sprintf("conversation %s was not found or has expired", args.ContinuationID),
				nil,
			)
			return "", result
		}
		return args.ContinuationID, nil
	}

	threadID, err := s.threads.CreateThread(ctx, "chat", map[string]any{
		"prompt": args.Prompt,
		"model":  args.Model,
	}, "")
	if err != nil {
		result, _ := errorResult("failed to create conversation: "+err.Error(), nil)
		return "", result
	}
	return threadID, nil
}

func chatErrorResult(err error) (*mcp.CallToolResult, error) {
	var invalid *llm.InvalidParameterError
	if errors.As(err, &invalid) {
		return errorResult(invalid.Error(), map[string]any{"parameter": invalid.Param})
	}

	var notFound *llm.ModelNotFoundError
	if errors.As(err, &notFound) {
		return errorResult(notFound.Error(), nil)
	}

	var backend *llm.BackendError
	if errors.As(err, &backend) {
		return errorResult(backend.Error(), map[string]any{
			"error_class": string(backend.Class),
			"status_code": backend.StatusCode,
		})
	}

	return errorResult(err.Error(), nil)
}

func availableNames(router Router) []string {
	models := router.AvailableModels(true)
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
