package llm

import (
	"fmt"
	"math"
	"sort"
)

// Kind enumerates provider families. Individual models belong to exactly
// one family; routing happens per family, not per model.
type Kind string

const KindOpenAI Kind = "openai"

// TemperatureConstraint describes which sampling temperatures a model
// accepts and how to correct an out-of-range request.
type TemperatureConstraint interface {
	Validate(temperature float64) bool
	Corrected(temperature float64) float64
	Default() float64
	Describe() string
}

// FixedTemperature is for models that mandate a single temperature value
// (the O-series reasoning models).
type FixedTemperature float64

func (f FixedTemperature) Validate(t float64) bool {
	return math.Abs(t-float64(f)) < 1e-6
}

func (f FixedTemperature) Corrected(float64) float64 { return float64(f) }
func (f FixedTemperature) Default() float64          { return float64(f) }

func (f FixedTemperature) Describe() string {
	return fmt.Sprintf("only supports temperature=%g", float64(f))
}

// RangeTemperature is for models accepting a continuous range.
type RangeTemperature struct {
	Min, Max float64
	Def      float64
}

func (r RangeTemperature) Validate(t float64) bool {
	return t >= r.Min && t <= r.Max
}

func (r RangeTemperature) Corrected(t float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, t))
}

func (r RangeTemperature) Default() float64 { return r.Def }

func (r RangeTemperature) Describe() string {
	return fmt.Sprintf("supports temperature range [%g, %g]", r.Min, r.Max)
}

// DiscreteTemperature is for models that accept only specific values.
type DiscreteTemperature struct {
	Allowed []float64
	Def     float64
}

func (d DiscreteTemperature) Validate(t float64) bool {
	for _, v := range d.Allowed {
		if math.Abs(t-v) < 1e-6 {
			return true
		}
	}
	return false
}

func (d DiscreteTemperature) Corrected(t float64) float64 {
	if len(d.Allowed) == 0 {
		return t
	}
	best := d.Allowed[0]
	for _, v := range d.Allowed[1:] {
		if math.Abs(t-v) < math.Abs(t-best) {
			best = v
		}
	}
	return best
}

func (d DiscreteTemperature) Default() float64 { return d.Def }

func (d DiscreteTemperature) Describe() string {
	return fmt.Sprintf("supports temperatures %v", d.Allowed)
}

func defaultRangeTemperature() RangeTemperature {
	return RangeTemperature{Min: 0.0, Max: 2.0, Def: 0.7}
}

// ModelCapabilities is an immutable record describing one model. Instances
// are built once into the static catalog and never mutated.
type ModelCapabilities struct {
	Provider     Kind
	ModelName    string
	FriendlyName string

	ContextWindow   int
	MaxOutputTokens int

	SupportsExtendedThinking bool
	SupportsSystemPrompts    bool
	SupportsStreaming        bool
	SupportsFunctionCalling  bool
	SupportsJSONMode         bool

	SupportsImages bool
	MaxImageSizeMB float64

	MaxThinkingTokens int

	Temperature TemperatureConstraint

	Description string
	Aliases     []string
}

// TemperatureRange returns the inclusive bounds the model accepts.
func (c ModelCapabilities) TemperatureRange() (min, max float64) {
	switch tc := c.Temperature.(type) {
	case FixedTemperature:
		return float64(tc), float64(tc)
	case RangeTemperature:
		return tc.Min, tc.Max
	case DiscreteTemperature:
		if len(tc.Allowed) == 0 {
			return 0.0, 2.0
		}
		min, max = tc.Allowed[0], tc.Allowed[0]
		for _, v := range tc.Allowed[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		return min, max
	default:
		return 0.0, 2.0
	}
}

// sortedModelNames returns canonical names in a stable order.
func sortedModelNames(models map[string]ModelCapabilities) []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
