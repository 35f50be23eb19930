package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/modelbridge/internal/providers/llm"
)

func listModelsToolDefinition() mcp.Tool {
	return mcp.NewTool("listmodels",
		mcp.WithDescription("List the models available from configured providers, with their aliases and capabilities."),
	)
}

func (s *Service) handleListModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	available := s.router.AvailableModels(true)

	byKind := make(map[llm.Kind][]string)
	for name, kind := range available {
		byKind[kind] = append(byKind[kind], name)
	}

	var sb strings.Builder
	sb.WriteString("# Available Models\n")

	if len(available) == 0 {
		sb.WriteString("\nNo providers are configured. Set an API key (e.g. OPENAI_API_KEY) to enable models.\n")
	}

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kindName := range kinds {
		kind := llm.Kind(kindName)
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", kindName))

		provider := s.router.ProviderForModel(firstOf(byKind[kind]))
		names := byKind[kind]
		sort.Strings(names)

		for _, name := range names {
			if provider == nil {
				sb.WriteString(fmt.Sprintf("- `%s`\n", name))
				continue
			}
			caps, err := provider.Capabilities(name)
			if err != nil {
				continue
			}
			if caps.ModelName != name {
				// Alias entry: point at its canonical model.
				sb.WriteString(fmt.Sprintf("- `%s` → `%s`\n", name, caps.ModelName))
				continue
			}
			sb.WriteString(fmt.Sprintf("- `%s` (%s context): %s\n", name, humanTokens(caps.ContextWindow), caps.Description))
		}
	}

	return successResult(toolResponse{
		Status:      statusSuccess,
		Content:     sb.String(),
		ContentType: "text/markdown",
		Metadata:    map[string]any{"model_count": len(available)},
	})
}

func humanTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.0fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func firstOf(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
