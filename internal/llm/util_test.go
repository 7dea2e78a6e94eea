package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"is_match": true}`, `{"is_match": true}`},
		{"json fence", "```json\n{\"is_match\": true}\n```", `{"is_match": true}`},
		{"bare fence", "```\n{\"is_match\": false}\n```", `{"is_match": false}`},
		{"fence with language id", "```javascript\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestConfigModelFallback(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini-2.5-pro", cfg.Model(TierAdvanced))

	trimmed := &Config{Models: map[ModelTier]string{TierLite: "gemini-2.5-flash-lite"}}
	assert.Equal(t, "gemini-2.5-flash-lite", trimmed.Model(TierAdvanced))

	override := cfg.WithModel(TierLite, "gemini-2.5-flash")
	assert.Equal(t, "gemini-2.5-flash", override.Model(TierLite))
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model(TierLite))
}
