package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/modelbridge/internal/memory"
	"github.com/sandevgo/modelbridge/internal/providers/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers GenerateContent from a canned function.
type fakeProvider struct {
	models   map[string]llm.ModelCapabilities
	generate func(llm.GenerateRequest) (*llm.ModelResponse, error)
}

func (f *fakeProvider) Kind() llm.Kind { return llm.KindOpenAI }

func (f *fakeProvider) ValidateModelName(name string) bool {
	_, ok := f.models[name]
	return ok
}

func (f *fakeProvider) Capabilities(name string) (llm.ModelCapabilities, error) {
	caps, ok := f.models[name]
	if !ok {
		return llm.ModelCapabilities{}, &llm.ModelNotFoundError{Model: name}
	}
	return caps, nil
}

func (f *fakeProvider) GenerateContent(_ context.Context, req llm.GenerateRequest) (*llm.ModelResponse, error) {
	return f.generate(req)
}

func (f *fakeProvider) CountTokens(text, _ string) int   { return len(text) / 4 }
func (f *fakeProvider) SupportsThinkingMode(string) bool { return false }

func (f *fakeProvider) ListModels(bool) []string {
	names := make([]string, 0, len(f.models))
	for name := range f.models {
		names = append(names, name)
	}
	return names
}

func (f *fakeProvider) ModelConfigurations() map[string]llm.ModelCapabilities { return f.models }

type fakeRouter struct {
	provider *fakeProvider
	fallback string
}

func (r *fakeRouter) ProviderForModel(model string) llm.Provider {
	if r.provider != nil && r.provider.ValidateModelName(model) {
		return r.provider
	}
	return nil
}

func (r *fakeRouter) AvailableModels(bool) map[string]llm.Kind {
	models := make(map[string]llm.Kind)
	if r.provider != nil {
		for name := range r.provider.models {
			models[name] = llm.KindOpenAI
		}
	}
	return models
}

func (r *fakeRouter) PreferredFallbackModel(llm.ToolCategory) string { return r.fallback }

// fakeThreads is an in-memory Conversations with the same degradation
// behavior as the real thing.
type fakeThreads struct {
	threads  map[string]*memory.ThreadContext
	maxTurns int
	nextID   string
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{
		threads:  make(map[string]*memory.ThreadContext),
		maxTurns: 50,
		nextID:   "11111111-1111-1111-1111-111111111111",
	}
}

func (f *fakeThreads) CreateThread(_ context.Context, toolName string, initialContext map[string]any, parentID string) (string, error) {
	id := f.nextID
	f.threads[id] = &memory.ThreadContext{
		ThreadID:       id,
		ParentThreadID: parentID,
		ToolName:       toolName,
		InitialContext: initialContext,
	}
	return id, nil
}

func (f *fakeThreads) AddTurn(_ context.Context, threadID, role, content string, opts memory.TurnOptions) bool {
	tc, ok := f.threads[threadID]
	if !ok || len(tc.Turns) >= f.maxTurns {
		return false
	}
	tc.Turns = append(tc.Turns, memory.Turn{
		Role: role, Content: content,
		Files: opts.Files, Images: opts.Images, ToolName: opts.ToolName,
	})
	return true
}

func (f *fakeThreads) GetThread(_ context.Context, threadID string) *memory.ThreadContext {
	return f.threads[threadID]
}

func (f *fakeThreads) RemainingTurns(tc *memory.ThreadContext) int {
	if tc == nil {
		return 0
	}
	return f.maxTurns - len(tc.Turns)
}

func newTestService(router Router, threads Conversations) *Service {
	return New(Config{Name: "modelbridge", Version: "test", DefaultModel: "auto"}, router, threads)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) toolResponse {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var resp toolResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	return resp
}

func TestHandleChat_Success(t *testing.T) {
	var seen llm.GenerateRequest
	provider := &fakeProvider{
		models: map[string]llm.ModelCapabilities{
			"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
		},
		generate: func(req llm.GenerateRequest) (*llm.ModelResponse, error) {
			seen = req
			return &llm.ModelResponse{
				Content:   "the answer",
				ModelName: "o4-mini",
				Provider:  llm.KindOpenAI,
				Usage:     llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
				Metadata:  map[string]any{"endpoint": "chat_completions"},
			}, nil
		},
	}
	threads := newFakeThreads()
	service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, threads)

	resp := callTool(t, service.handleChat, map[string]any{
		"prompt": "what is the answer",
		"model":  "o4-mini",
	})

	assert.Equal(t, statusSuccess, resp.Status)
	assert.Equal(t, "the answer", resp.Content)
	assert.Equal(t, "what is the answer", seen.Prompt)
	assert.Equal(t, defaultChatTemperature, seen.Temperature)
	assert.Equal(t, "o4-mini", resp.Metadata["model"])
	assert.Equal(t, "chat_completions", resp.Metadata["endpoint"])

	// Both turns recorded, continuation offered
	require.NotNil(t, resp.ContinuationOffer)
	tc := threads.threads[resp.ContinuationOffer.ContinuationID]
	require.NotNil(t, tc)
	require.Len(t, tc.Turns, 2)
	assert.Equal(t, "user", tc.Turns[0].Role)
	assert.Equal(t, "assistant", tc.Turns[1].Role)
	assert.Equal(t, 48, resp.ContinuationOffer.RemainingTurns)
}

func TestHandleChat_AutoModelUsesFallback(t *testing.T) {
	provider := &fakeProvider{
		models: map[string]llm.ModelCapabilities{
			"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
		},
		generate: func(req llm.GenerateRequest) (*llm.ModelResponse, error) {
			return &llm.ModelResponse{Content: "ok", ModelName: req.Model, Provider: llm.KindOpenAI}, nil
		},
	}
	service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, newFakeThreads())

	resp := callTool(t, service.handleChat, map[string]any{"prompt": "hi"})

	assert.Equal(t, statusSuccess, resp.Status)
	assert.Equal(t, "o4-mini", resp.Metadata["model"])
}

func TestHandleChat_EmptyPrompt(t *testing.T) {
	service := newTestService(&fakeRouter{}, newFakeThreads())

	resp := callTool(t, service.handleChat, map[string]any{"prompt": "   "})

	assert.Equal(t, statusError, resp.Status)
	assert.Contains(t, resp.Error, "prompt is required")
}

func TestHandleChat_UnavailableModel(t *testing.T) {
	provider := &fakeProvider{
		models: map[string]llm.ModelCapabilities{
			"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
		},
	}
	service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, newFakeThreads())

	resp := callTool(t, service.handleChat, map[string]any{
		"prompt": "hi",
		"model":  "invalid-model-xyz",
	})

	assert.Equal(t, statusError, resp.Status)
	assert.Contains(t, resp.Error, "invalid-model-xyz")

	names, ok := resp.Metadata["available_models"].([]any)
	require.True(t, ok)
	assert.Contains(t, names, "o4-mini")
}

func TestHandleChat_UnknownContinuation(t *testing.T) {
	provider := &fakeProvider{
		models: map[string]llm.ModelCapabilities{
			"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
		},
	}
	service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, newFakeThreads())

	resp := callTool(t, service.handleChat, map[string]any{
		"prompt":          "hi",
		"model":           "o4-mini",
		"continuation_id": "22222222-2222-2222-2222-222222222222",
	})

	assert.Equal(t, statusError, resp.Status)
	assert.Contains(t, resp.Error, "not found or has expired")
}

func TestHandleChat_ContinuationReusesThread(t *testing.T) {
	provider := &fakeProvider{
		models: map[string]llm.ModelCapabilities{
			"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
		},
		generate: func(llm.GenerateRequest) (*llm.ModelResponse, error) {
			return &llm.ModelResponse{Content: "ok", ModelName: "o4-mini", Provider: llm.KindOpenAI}, nil
		},
	}
	threads := newFakeThreads()
	service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, threads)

	first := callTool(t, service.handleChat, map[string]any{"prompt": "one", "model": "o4-mini"})
	require.NotNil(t, first.ContinuationOffer)

	second := callTool(t, service.handleChat, map[string]any{
		"prompt":          "two",
		"model":           "o4-mini",
		"continuation_id": first.ContinuationOffer.ContinuationID,
	})
	require.NotNil(t, second.ContinuationOffer)

	assert.Equal(t, first.ContinuationOffer.ContinuationID, second.ContinuationOffer.ContinuationID)
	assert.Len(t, threads.threads[first.ContinuationOffer.ContinuationID].Turns, 4)
	assert.Equal(t, first.ContinuationOffer.RemainingTurns-2, second.ContinuationOffer.RemainingTurns)
}

func TestHandleChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantContains string
		wantMetaKey  string
	}{
		{
			name:         "invalid_parameter",
			err:          &llm.InvalidParameterError{Param: "temperature", Reason: "out of range"},
			wantContains: "temperature",
			wantMetaKey:  "parameter",
		},
		{
			name:         "model_not_found",
			err:          &llm.ModelNotFoundError{Model: "ghost"},
			wantContains: "ghost",
		},
		{
			name:         "backend_auth",
			err:          &llm.BackendError{Class: llm.BackendAuth, StatusCode: 401, Message: "bad key"},
			wantContains: "bad key",
			wantMetaKey:  "error_class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{
				models: map[string]llm.ModelCapabilities{
					"o4-mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
				},
				generate: func(llm.GenerateRequest) (*llm.ModelResponse, error) {
					return nil, tt.err
				},
			}
			service := newTestService(&fakeRouter{provider: provider, fallback: "o4-mini"}, newFakeThreads())

			resp := callTool(t, service.handleChat, map[string]any{"prompt": "hi", "model": "o4-mini"})

			assert.Equal(t, statusError, resp.Status)
			assert.Contains(t, resp.Error, tt.wantContains)
			if tt.wantMetaKey != "" {
				assert.Contains(t, resp.Metadata, tt.wantMetaKey)
			}
		})
	}
}

func TestHandleListModels(t *testing.T) {
	t.Run("groups_and_links_aliases", func(t *testing.T) {
		provider := &fakeProvider{
			models: map[string]llm.ModelCapabilities{
				"o4-mini": {
					Provider: llm.KindOpenAI, ModelName: "o4-mini",
					ContextWindow: 200_000, Description: "fast reasoning",
				},
				"mini": {Provider: llm.KindOpenAI, ModelName: "o4-mini"},
			},
		}
		service := newTestService(&fakeRouter{provider: provider}, newFakeThreads())

		resp := callTool(t, service.handleListModels, nil)

		assert.Equal(t, statusSuccess, resp.Status)
		assert.Equal(t, "text/markdown", resp.ContentType)
		assert.Contains(t, resp.Content, "# Available Models")
		assert.Contains(t, resp.Content, "## openai")
		assert.Contains(t, resp.Content, "`o4-mini` (200K context)")
		assert.Contains(t, resp.Content, "`mini` → `o4-mini`")
		assert.Equal(t, float64(2), resp.Metadata["model_count"])
	})

	t.Run("no_providers_hint", func(t *testing.T) {
		service := newTestService(&fakeRouter{}, newFakeThreads())

		resp := callTool(t, service.handleListModels, nil)

		assert.Equal(t, statusSuccess, resp.Status)
		assert.Contains(t, resp.Content, "No providers are configured")
	})
}

func TestHandleVersion(t *testing.T) {
	service := newTestService(&fakeRouter{}, newFakeThreads())

	resp := callTool(t, service.handleVersion, nil)

	assert.Equal(t, statusSuccess, resp.Status)
	assert.Equal(t, "modelbridge test", resp.Content)
}
