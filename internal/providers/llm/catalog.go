package llm

import (
	"sort"
	"strings"
)

// Catalog maps canonical model names to their capability records. A catalog
// is built once at provider construction and treated as read-only after.
type Catalog map[string]ModelCapabilities

// ResolveAlias maps a model name, possibly a shorthand, to its canonical
// name. Resolution order: case-sensitive exact match, case-insensitive
// canonical match, case-insensitive alias match. A name matching none of
// these is returned unchanged so that validation fails downstream with the
// original input intact.
func (c Catalog) ResolveAlias(name string) string {
	if _, ok := c[name]; ok {
		return name
	}

	lower := strings.ToLower(name)
	for canonical := range c {
		if strings.ToLower(canonical) == lower {
			return canonical
		}
	}

	for canonical, caps := range c {
		for _, alias := range caps.Aliases {
			if strings.ToLower(alias) == lower {
				return canonical
			}
		}
	}

	return name
}

// ListModels returns every canonical name, plus the aliases of models that
// made the cut. A non-nil policy filters canonical names before aliases are
// attached, so an excluded model drops its aliases too.
func (c Catalog) ListModels(policy RestrictionPolicy) []string {
	var models []string
	for _, name := range sortedModelNames(c) {
		if policy != nil && !policy.IsAllowed(c[name].Provider, name) {
			continue
		}
		models = append(models, name)
		models = append(models, c[name].Aliases...)
	}
	return models
}

// ListAllKnown returns every canonical name and alias, lowercased, for
// validating restriction policies against the full namespace.
func (c Catalog) ListAllKnown() []string {
	seen := make(map[string]struct{})
	for name, caps := range c {
		seen[strings.ToLower(name)] = struct{}{}
		for _, alias := range caps.Aliases {
			seen[strings.ToLower(alias)] = struct{}{}
		}
	}
	known := make([]string, 0, len(seen))
	for name := range seen {
		known = append(known, name)
	}
	sort.Strings(known)
	return known
}

// DefaultOpenAICatalog returns the built-in model table for the
// OpenAI-compatible family. Proxy endpoints (OpenRouter and friends) expose
// models from several upstream vendors, which is why Gemini and Grok entries
// live here too.
func DefaultOpenAICatalog() Catalog {
	return Catalog{
		"o3": {
			Provider:                KindOpenAI,
			ModelName:               "o3",
			FriendlyName:            "OpenAI (O3)",
			ContextWindow:           200_000,
			MaxOutputTokens:         65_536,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsJSONMode:        true,
			SupportsImages:          true,
			MaxImageSizeMB:          20.0,
			Temperature:             FixedTemperature(1.0),
			Description:             "Strong reasoning (200K context) - logical problems, code generation, systematic analysis",
		},
		"o3-mini": {
			Provider:                KindOpenAI,
			ModelName:               "o3-mini",
			FriendlyName:            "OpenAI (O3-mini)",
			ContextWindow:           200_000,
			MaxOutputTokens:         65_536,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsJSONMode:        true,
			SupportsImages:          true,
			MaxImageSizeMB:          20.0,
			Temperature:             FixedTemperature(1.0),
			Description:             "Fast O3 variant (200K context) - balanced performance and speed",
			Aliases:                 []string{"o3mini"},
		},
		"o3-pro": {
			Provider:                KindOpenAI,
			ModelName:               "o3-pro",
			FriendlyName:            "OpenAI (O3-Pro)",
			ContextWindow:           200_000,
			MaxOutputTokens:         65_536,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsJSONMode:        true,
			SupportsImages:          true,
			MaxImageSizeMB:          20.0,
			Temperature:             FixedTemperature(1.0),
			Description:             "Professional-grade reasoning (200K context) - very expensive, reserve for the hardest problems",
			Aliases:                 []string{"o3pro"},
		},
		"o4-mini": {
			Provider:                KindOpenAI,
			ModelName:               "o4-mini",
			FriendlyName:            "OpenAI (O4-mini)",
			ContextWindow:           200_000,
			MaxOutputTokens:         65_536,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsJSONMode:        true,
			SupportsImages:          true,
			MaxImageSizeMB:          20.0,
			Temperature:             FixedTemperature(1.0),
			Description:             "Latest reasoning model (200K context) - optimized for shorter contexts, rapid reasoning",
			Aliases:                 []string{"mini", "o4mini"},
		},
		"gpt-4.1": {
			Provider:                KindOpenAI,
			ModelName:               "gpt-4.1",
			FriendlyName:            "OpenAI (GPT 4.1)",
			ContextWindow:           1_000_000,
			MaxOutputTokens:         32_768,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			SupportsJSONMode:        true,
			SupportsImages:          true,
			MaxImageSizeMB:          20.0,
			Temperature:             defaultRangeTemperature(),
			Description:             "GPT-4.1 (1M context) - advanced reasoning with a large context window",
			Aliases:                 []string{"gpt4.1"},
		},
		"gemini-2.5-pro": {
			Provider:                 KindOpenAI,
			ModelName:                "gemini-2.5-pro",
			FriendlyName:             "Gemini (Pro 2.5)",
			ContextWindow:            1_048_576,
			MaxOutputTokens:          65_536,
			SupportsExtendedThinking: true,
			SupportsSystemPrompts:    true,
			SupportsStreaming:        true,
			SupportsFunctionCalling:  true,
			SupportsJSONMode:         true,
			SupportsImages:           true,
			MaxImageSizeMB:           32.0,
			MaxThinkingTokens:        32_768,
			Temperature:              defaultRangeTemperature(),
			Description:              "Deep reasoning + thinking mode (1M context) - complex problems, architecture, deep analysis",
			Aliases:                  []string{"pro", "gemini pro", "gemini-pro"},
		},
		"gemini-2.5-flash": {
			Provider:                 KindOpenAI,
			ModelName:                "gemini-2.5-flash",
			FriendlyName:             "Gemini (Flash 2.5)",
			ContextWindow:            1_048_576,
			MaxOutputTokens:          65_536,
			SupportsExtendedThinking: true,
			SupportsSystemPrompts:    true,
			SupportsStreaming:        true,
			SupportsFunctionCalling:  true,
			SupportsJSONMode:         true,
			SupportsImages:           true,
			MaxImageSizeMB:           20.0,
			MaxThinkingTokens:        24_576,
			Temperature:              defaultRangeTemperature(),
			Description:              "Ultra-fast (1M context) - quick analysis, simple queries, rapid iterations",
			Aliases:                  []string{"flash", "flash2.5"},
		},
		"grok-3": {
			Provider:                KindOpenAI,
			ModelName:               "grok-3",
			FriendlyName:            "X.AI (Grok 3)",
			ContextWindow:           131_072,
			MaxOutputTokens:         131_072,
			SupportsSystemPrompts:   true,
			SupportsStreaming:       true,
			SupportsFunctionCalling: true,
			Temperature:             defaultRangeTemperature(),
			Description:             "Grok-3 (131K context) - advanced reasoning model from X.AI",
			Aliases:                 []string{"grok", "grok3"},
		},
		"grok-3-deepsearch": {
			Provider:                 KindOpenAI,
			ModelName:                "grok-3-deepsearch",
			FriendlyName:             "X.AI (Grok 3 deepsearch)",
			ContextWindow:            1_048_576,
			MaxOutputTokens:          1_048_576,
			SupportsExtendedThinking: true,
			SupportsSystemPrompts:    true,
			SupportsStreaming:        true,
			SupportsFunctionCalling:  true,
			Temperature:              defaultRangeTemperature(),
			Description:              "Grok-3 deepsearch (1M context) - higher performance variant, faster but more expensive",
			Aliases:                  []string{"grok3r"},
		},
	}
}
