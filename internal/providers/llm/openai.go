package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// responsesModels routes to the /responses call shape instead of
// /chat/completions. Same provider, different endpoint contract.
var responsesModels = map[string]bool{
	"o3-pro": true,
}

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type OpenAICompatible struct {
	client  *http.Client
	apiKey  string
	baseURL string
	catalog Catalog
	policy  RestrictionPolicy

	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	APIKey  string
	BaseURL string

	// Catalog defaults to DefaultOpenAICatalog when nil.
	Catalog Catalog

	// Policy may be nil, meaning no restrictions.
	Policy RestrictionPolicy

	ExtraHeaders map[string]string
}

const openAIFriendlyName = "OpenAI Compatible"

// NewOpenAICompatible builds a provider for any OpenAI-compatible endpoint:
// the official API, OpenRouter, or a self-hosted server. The HTTP client
// carries no timeout; callers bound requests through their context.
func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultOpenAICatalog()
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAICompatible{
		client:       &http.Client{},
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		catalog:      catalog,
		policy:       cfg.Policy,
		extraHeaders: cfg.ExtraHeaders,
	}
}

func (o *OpenAICompatible) Kind() Kind {
	return KindOpenAI
}

func (o *OpenAICompatible) ModelConfigurations() map[string]ModelCapabilities {
	return o.catalog
}

func (o *OpenAICompatible) SupportsThinkingMode(string) bool {
	// No model in the OpenAI-compatible family exposes a thinking mode
	// through this API surface.
	return false
}

func (o *OpenAICompatible) allowed(resolved, original string) bool {
	if o.policy == nil {
		return true
	}
	// Either spelling passing the policy is enough: restriction lists may
	// name the alias or the canonical model.
	return o.policy.IsAllowed(KindOpenAI, resolved) || o.policy.IsAllowed(KindOpenAI, original)
}

func (o *OpenAICompatible) ValidateModelName(name string) bool {
	resolved := o.catalog.ResolveAlias(name)
	if _, ok := o.catalog[resolved]; !ok {
		return false
	}
	return o.allowed(resolved, name)
}

func (o *OpenAICompatible) Capabilities(name string) (ModelCapabilities, error) {
	resolved := o.catalog.ResolveAlias(name)
	caps, ok := o.catalog[resolved]
	if !ok || !o.allowed(resolved, name) {
		return ModelCapabilities{}, &ModelNotFoundError{Model: name}
	}
	return caps, nil
}

func (o *OpenAICompatible) ListModels(respectRestrictions bool) []string {
	if respectRestrictions {
		return o.catalog.ListModels(o.policy)
	}
	return o.catalog.ListModels(nil)
}

func (o *OpenAICompatible) CountTokens(text, model string) int {
	resolved := o.catalog.ResolveAlias(model)

	enc, err := tiktoken.EncodingForModel(resolved)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		// ~4 chars per token estimation
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// effectiveTemperature applies the model's constraint: fixed-temperature
// models always use their mandated value regardless of the request, other
// models use the requested value when in range and fail otherwise.
func effectiveTemperature(caps ModelCapabilities, requested float64) (float64, error) {
	if fixed, ok := caps.Temperature.(FixedTemperature); ok {
		return float64(fixed), nil
	}
	if caps.Temperature == nil {
		return requested, nil
	}
	if !caps.Temperature.Validate(requested) {
		return 0, &InvalidParameterError{
			Param:  "temperature",
			Reason: fmt.Sprintf("%g not accepted by %s (%s)", requested, caps.ModelName, caps.Temperature.Describe()),
		}
	}
	return requested, nil
}

func (o *OpenAICompatible) GenerateContent(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	resolved := o.catalog.ResolveAlias(req.Model)
	caps, ok := o.catalog[resolved]
	if !ok || !o.allowed(resolved, req.Model) {
		return nil, &ModelNotFoundError{Model: req.Model}
	}

	temperature, err := effectiveTemperature(caps, req.Temperature)
	if err != nil {
		return nil, err
	}

	userContent, err := o.buildUserContent(req.Prompt, req.Images, caps)
	if err != nil {
		return nil, err
	}

	var messages []map[string]any
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]any{"role": "user", "content": userContent})

	if responsesModels[resolved] {
		return o.generateResponses(ctx, resolved, messages, req.MaxOutputTokens)
	}
	return o.generateChatCompletion(ctx, resolved, messages, temperature, req.MaxOutputTokens, caps)
}

// buildUserContent returns either a plain string (text only) or a content
// part array (text + images). Image requests against a text-only model, or
// exceeding the model's total size budget, are invalid parameters rather
// than backend errors.
func (o *OpenAICompatible) buildUserContent(prompt string, images []string, caps ModelCapabilities) (any, error) {
	if len(images) == 0 {
		return prompt, nil
	}

	if !caps.SupportsImages {
		return nil, &InvalidParameterError{
			Param:  "images",
			Reason: fmt.Sprintf("model %s does not support images", caps.ModelName),
		}
	}

	parts := []map[string]any{{"type": "text", "text": prompt}}
	var totalBytes int64

	for _, image := range images {
		url, size, err := encodeImage(image)
		if err != nil {
			return nil, &InvalidParameterError{Param: "images", Reason: err.Error()}
		}
		totalBytes += size
		parts = append(parts, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": url},
		})
	}

	if caps.MaxImageSizeMB > 0 {
		totalMB := float64(totalBytes) / (1024 * 1024)
		if totalMB > caps.MaxImageSizeMB {
			return nil, &InvalidParameterError{
				Param:  "images",
				Reason: fmt.Sprintf("total image size %.1fMB exceeds %s limit of %.1fMB", totalMB, caps.ModelName, caps.MaxImageSizeMB),
			}
		}
	}

	return parts, nil
}

// encodeImage turns a file path or data URI into a data URL plus its
// decoded byte size.
func encodeImage(image string) (url string, size int64, err error) {
	if strings.HasPrefix(image, "data:image/") {
		_, payload, found := strings.Cut(image, ",")
		if !found {
			return "", 0, fmt.Errorf("malformed image data URI")
		}
		decoded := base64.StdEncoding.DecodedLen(len(payload))
		return image, int64(decoded), nil
	}

	data, err := os.ReadFile(image)
	if err != nil {
		return "", 0, fmt.Errorf("read image %s: %w", image, err)
	}

	mimeType, ok := imageMimeTypes[strings.ToLower(filepath.Ext(image))]
	if !ok {
		mimeType = "image/png"
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), int64(len(data)), nil
}

func (o *OpenAICompatible) generateChatCompletion(
	ctx context.Context,
	model string,
	messages []map[string]any,
	temperature float64,
	maxOutputTokens int,
	caps ModelCapabilities,
) (*ModelResponse, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
	}

	// Reasoning models with a mandated temperature reject max_tokens too.
	if _, fixed := caps.Temperature.(FixedTemperature); maxOutputTokens > 0 && !fixed {
		payload["max_tokens"] = maxOutputTokens
	}

	body, err := o.doRequest(ctx, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Created int64  `json:"created"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &BackendError{Class: BackendTransient, Message: "malformed completion response", Err: err}
	}
	if len(result.Choices) == 0 {
		return nil, &BackendError{Class: BackendTransient, Message: "no choices in completion response"}
	}

	return &ModelResponse{
		Content: result.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
			TotalTokens:  result.Usage.TotalTokens,
		},
		ModelName:    model,
		FriendlyName: openAIFriendlyName,
		Provider:     KindOpenAI,
		Metadata: map[string]any{
			"endpoint":      "chat_completions",
			"finish_reason": result.Choices[0].FinishReason,
			"model":         result.Model,
			"id":            result.ID,
			"created":       result.Created,
		},
	}, nil
}

// generateResponses is the extended-compute call shape: a single input
// block list with typed text parts instead of role-tagged chat messages.
func (o *OpenAICompatible) generateResponses(
	ctx context.Context,
	model string,
	messages []map[string]any,
	maxOutputTokens int,
) (*ModelResponse, error) {
	var input []map[string]any
	for _, message := range messages {
		role, _ := message["role"].(string)
		text := flattenContent(message["content"])

		// System prompts are folded into user input blocks: the responses
		// endpoint has no system role.
		partType := "input_text"
		if role == "assistant" {
			partType = "output_text"
		} else {
			role = "user"
		}
		input = append(input, map[string]any{
			"role":    role,
			"content": []map[string]any{{"type": partType, "text": text}},
		})
	}

	payload := map[string]any{
		"model":     model,
		"input":     input,
		"reasoning": map[string]any{"effort": "medium"},
		"store":     true,
	}
	if maxOutputTokens > 0 {
		payload["max_completion_tokens"] = maxOutputTokens
	}

	body, err := o.doRequest(ctx, "/responses", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID        string `json:"id"`
		Model     string `json:"model"`
		CreatedAt int64  `json:"created_at"`
		Output    []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &BackendError{Class: BackendTransient, Message: "malformed responses payload", Err: err}
	}

	var content string
	for _, item := range result.Output {
		for _, part := range item.Content {
			if part.Type == "output_text" {
				content = part.Text
				break
			}
		}
		if content != "" {
			break
		}
	}

	total := result.Usage.TotalTokens
	if total == 0 {
		total = result.Usage.InputTokens + result.Usage.OutputTokens
	}

	return &ModelResponse{
		Content: content,
		Usage: Usage{
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
			TotalTokens:  total,
		},
		ModelName:    model,
		FriendlyName: openAIFriendlyName,
		Provider:     KindOpenAI,
		Metadata: map[string]any{
			"endpoint": "responses",
			"model":    result.Model,
			"id":       result.ID,
			"created":  result.CreatedAt,
		},
	}, nil
}

func flattenContent(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []map[string]any:
		var sb strings.Builder
		for _, part := range c {
			if text, ok := part["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		return sb.String()
	default:
		return ""
	}
}

// doRequest posts a JSON payload and returns the response body. Non-2xx
// statuses and transport failures come back as *BackendError with a
// classification hint; they are never retried here.
func (o *OpenAICompatible) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	for k, v := range o.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &BackendError{Class: BackendTransient, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Class: BackendTransient, Message: "read body: " + err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
