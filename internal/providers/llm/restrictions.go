package llm

import (
	"strings"

	"github.com/rs/zerolog"
)

// AllowList is an env-driven RestrictionPolicy: one comma-separated list of
// permitted model names per provider kind. A kind with no configured list
// allows everything.
type AllowList struct {
	allowed map[Kind]map[string]struct{}
}

// NewAllowList parses raw comma-separated allow-lists, keyed by kind.
// Names are matched case-insensitively. Empty or whitespace-only values
// mean no restrictions for that kind.
func NewAllowList(raw map[Kind]string) *AllowList {
	a := &AllowList{allowed: make(map[Kind]map[string]struct{})}
	for kind, value := range raw {
		models := make(map[string]struct{})
		for _, name := range strings.Split(value, ",") {
			cleaned := strings.ToLower(strings.TrimSpace(name))
			if cleaned != "" {
				models[cleaned] = struct{}{}
			}
		}
		if len(models) > 0 {
			a.allowed[kind] = models
		}
	}
	return a
}

func (a *AllowList) IsAllowed(kind Kind, model string) bool {
	allowed, ok := a.allowed[kind]
	if !ok {
		return true
	}
	_, ok = allowed[strings.ToLower(model)]
	return ok
}

// HasRestrictions reports whether any list is configured for the kind.
func (a *AllowList) HasRestrictions(kind Kind) bool {
	_, ok := a.allowed[kind]
	return ok
}

// ValidateKnownModels warns about allow-list entries that match neither a
// canonical name nor an alias of the given providers. Catches typos at
// startup; an unknown entry is not an error, it just never matches.
func (a *AllowList) ValidateKnownModels(providers map[Kind]Provider, logger *zerolog.Logger) {
	for kind, allowed := range a.allowed {
		provider, ok := providers[kind]
		if !ok {
			continue
		}

		known := make(map[string]struct{})
		for name := range provider.ModelConfigurations() {
			known[strings.ToLower(name)] = struct{}{}
			for _, alias := range provider.ModelConfigurations()[name].Aliases {
				known[strings.ToLower(alias)] = struct{}{}
			}
		}

		for name := range allowed {
			if _, ok := known[name]; !ok {
				logger.Warn().
					Str("provider", string(kind)).
					Str("model", name).
					Msg("allow-list entry does not match any known model, check for typos")
			}
		}
	}
}
