package llm

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAllowList_IsAllowed(t *testing.T) {
	policy := NewAllowList(map[Kind]string{
		KindOpenAI: " o3-mini, Flash ,,",
	})

	tests := []struct {
		name  string
		kind  Kind
		model string
		want  bool
	}{
		{name: "listed_model", kind: KindOpenAI, model: "o3-mini", want: true},
		{name: "case_insensitive", kind: KindOpenAI, model: "FLASH", want: true},
		{name: "unlisted_model", kind: KindOpenAI, model: "o3", want: false},
		{name: "unrestricted_kind", kind: Kind("other"), model: "anything", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsAllowed(tt.kind, tt.model))
		})
	}
}

func TestAllowList_EmptyValueMeansUnrestricted(t *testing.T) {
	policy := NewAllowList(map[Kind]string{KindOpenAI: "  ,  "})

	assert.False(t, policy.HasRestrictions(KindOpenAI))
	assert.True(t, policy.IsAllowed(KindOpenAI, "o3"))
}

func TestAllowList_HasRestrictions(t *testing.T) {
	policy := NewAllowList(map[Kind]string{KindOpenAI: "o3"})

	assert.True(t, policy.HasRestrictions(KindOpenAI))
	assert.False(t, policy.HasRestrictions(Kind("other")))
}

func TestAllowList_ValidateKnownModels(t *testing.T) {
	policy := NewAllowList(map[Kind]string{KindOpenAI: "o3,flash,definitely-a-typo"})
	provider := NewOpenAICompatible(OpenAICompatibleConfig{APIKey: "key"})

	logger := zerolog.Nop()
	// Unknown entries only warn; the policy stays usable.
	policy.ValidateKnownModels(map[Kind]Provider{KindOpenAI: provider}, &logger)

	assert.True(t, policy.IsAllowed(KindOpenAI, "o3"))
	assert.False(t, policy.IsAllowed(KindOpenAI, "o3-mini"))
}
