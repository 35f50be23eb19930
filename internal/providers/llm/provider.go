package llm

import "context"

// Provider is one backend family. Implementations are stateless across
// calls apart from their credential and capability catalog, so a single
// instance is safe to share between concurrent tool calls.
type Provider interface {
	Kind() Kind

	// ValidateModelName reports whether the resolved canonical name exists
	// in the catalog after restriction filtering.
	ValidateModelName(name string) bool

	// Capabilities resolves an alias first and returns the record keyed by
	// the canonical name. The returned ModelName is never the alias.
	Capabilities(name string) (ModelCapabilities, error)

	// GenerateContent issues one backend call. The wire request always
	// carries the canonical model name. No internal retries and no default
	// timeout: the caller's context governs the call.
	GenerateContent(ctx context.Context, req GenerateRequest) (*ModelResponse, error)

	// CountTokens estimates the token count of text under the model's
	// tokenizer.
	CountTokens(text, model string) int

	// SupportsThinkingMode reports extended thinking support. Family-level
	// extension point; the OpenAI-compatible family answers false for every
	// model.
	SupportsThinkingMode(name string) bool

	// ListModels returns the models this provider serves, including
	// aliases. With respectRestrictions the restriction policy is applied
	// here and must not be applied again by callers.
	ListModels(respectRestrictions bool) []string

	// ModelConfigurations exposes the full catalog.
	ModelConfigurations() map[string]ModelCapabilities
}

// GenerateRequest carries everything needed for one model call. Model may
// be an alias; providers resolve it before building the wire request.
type GenerateRequest struct {
	Prompt       string
	Model        string
	SystemPrompt string
	Temperature  float64

	MaxOutputTokens int

	// Images are file paths or data:image/... URIs.
	Images []string
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ModelResponse wraps a backend reply. ModelName is the canonical name the
// call was issued with. Metadata always records which endpoint shape served
// the request.
type ModelResponse struct {
	Content      string
	Usage        Usage
	ModelName    string
	FriendlyName string
	Provider     Kind
	Metadata     map[string]any
}

// RestrictionPolicy is the external allow/deny decision per
// (provider kind, model name) pair. Implementations must treat an unknown
// kind as allowed.
type RestrictionPolicy interface {
	IsAllowed(kind Kind, model string) bool
}
