package llm

import (
	"sort"
	"sync"
)

// ToolCategory biases fallback model selection toward what a tool needs
// most: reasoning depth, speed, or a balance.
type ToolCategory string

const (
	CategoryExtendedReasoning ToolCategory = "extended_reasoning"
	CategoryFastResponse      ToolCategory = "fast_response"
	CategoryBalanced          ToolCategory = "balanced"
)

// providerPriority is the fixed routing order for ProviderForModel. Ties
// are broken by position, not by any quality metric.
var providerPriority = []Kind{
	KindOpenAI,
}

// fallbackPreferences are the ordered per-category preference lists for
// PreferredFallbackModel; fallbackDefaults apply when nothing is available.
var fallbackPreferences = map[ToolCategory][]string{
	CategoryExtendedReasoning: {"o3", "o3-pro", "deepseek-r1"},
	CategoryFastResponse:      {"o4-mini", "o3-mini", "flash", "gpt-4o-mini"},
	CategoryBalanced:          {"o4-mini", "o3-mini", "pro", "gpt-4o"},
}

var fallbackDefaults = map[ToolCategory]string{
	CategoryExtendedReasoning: "gpt-4",
	CategoryFastResponse:      "gpt-4o-mini",
	CategoryBalanced:          "gpt-4o",
}

// Factory builds a provider from its credential. Registered once per kind
// at startup.
type Factory func(apiKey string) Provider

// CredentialFunc resolves the kind-specific secret. An empty string marks
// the kind unavailable, which is not an error.
type CredentialFunc func(kind Kind) string

// Registry owns the kind-to-provider mapping for one process. It is built
// explicitly at the composition root and passed by reference; tests build
// their own instances. Instance creation is idempotent-safe to race:
// providers are stateless besides credential and catalog, so a duplicate
// built under contention is simply discarded.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
	instances map[Kind]Provider
	creds     CredentialFunc
}

func NewRegistry(creds CredentialFunc) *Registry {
	if creds == nil {
		creds = func(Kind) string { return "" }
	}
	return &Registry{
		factories: make(map[Kind]Factory),
		instances: make(map[Kind]Provider),
		creds:     creds,
	}
}

// Register installs a provider factory for a kind. Last write wins.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// GetProvider returns the initialized provider for a kind, building and
// caching it on first use. It returns nil, not an error, when the kind was
// never registered or has no credential configured. forceNew bypasses and
// replaces the cached instance.
func (r *Registry) GetProvider(kind Kind, forceNew bool) Provider {
	if !forceNew {
		r.mu.RLock()
		provider, ok := r.instances[kind]
		r.mu.RUnlock()
		if ok {
			return provider
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !forceNew {
		if provider, ok := r.instances[kind]; ok {
			return provider
		}
	}

	factory, ok := r.factories[kind]
	if !ok {
		return nil
	}

	apiKey := r.creds(kind)
	if apiKey == "" {
		return nil
	}

	provider := factory(apiKey)
	r.instances[kind] = provider
	return provider
}

// ProviderForModel walks the fixed priority order and returns the first
// provider that validates the model name, or nil when none does.
func (r *Registry) ProviderForModel(model string) Provider {
	for _, kind := range providerPriority {
		provider := r.GetProvider(kind, false)
		if provider != nil && provider.ValidateModelName(model) {
			return provider
		}
	}
	return nil
}

// AvailableModels unions every initializable provider's model list into a
// name-to-kind mapping. The registry itself never applies the restriction
// policy: with respectRestrictions the per-provider listing has already
// filtered, and filtering again here once produced spurious "no models"
// results; without it the caller asked for the raw list.
func (r *Registry) AvailableModels(respectRestrictions bool) map[string]Kind {
	models := make(map[string]Kind)

	r.mu.RLock()
	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	r.mu.RUnlock()

	for _, kind := range kinds {
		provider := r.GetProvider(kind, false)
		if provider == nil {
			continue
		}
		for _, name := range provider.ListModels(respectRestrictions) {
			models[name] = kind
		}
	}
	return models
}

// PreferredFallbackModel picks a usable model name for a tool category. It
// never fails: with zero configured providers it returns the category's
// hardcoded default.
func (r *Registry) PreferredFallbackModel(category ToolCategory) string {
	available := r.AvailableModels(true)

	var openAIModels []string
	for name, kind := range available {
		if kind == KindOpenAI {
			openAIModels = append(openAIModels, name)
		}
	}
	sort.Strings(openAIModels)

	if category == "" {
		category = CategoryBalanced
	}
	prefs, ok := fallbackPreferences[category]
	if !ok {
		prefs = fallbackPreferences[CategoryBalanced]
	}

	for _, preferred := range prefs {
		for _, name := range openAIModels {
			if name == preferred {
				return name
			}
		}
	}
	if len(openAIModels) > 0 {
		return openAIModels[0]
	}

	if def, ok := fallbackDefaults[category]; ok {
		return def
	}
	return fallbackDefaults[CategoryBalanced]
}

// ClearCache drops initialized provider instances. Registrations persist;
// the next GetProvider rebuilds lazily.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[Kind]Provider)
}

// Unregister drops both the registration and any cached instance.
func (r *Registry) Unregister(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, kind)
	delete(r.instances, kind)
}

// RegisteredKinds returns the kinds with a factory installed, in priority
// order first, then any others sorted by name.
func (r *Registry) RegisteredKinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Kind]bool, len(r.factories))
	var kinds []Kind
	for _, kind := range providerPriority {
		if _, ok := r.factories[kind]; ok {
			kinds = append(kinds, kind)
			seen[kind] = true
		}
	}

	var rest []string
	for kind := range r.factories {
		if !seen[kind] {
			rest = append(rest, string(kind))
		}
	}
	sort.Strings(rest)
	for _, kind := range rest {
		kinds = append(kinds, Kind(kind))
	}
	return kinds
}
