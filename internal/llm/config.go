package llm

// ModelTier represents the capability level of a model. The enricher
// uses the lite tier for query synthesis and per-candidate verification
// (high volume, short outputs) and the advanced tier for the expertise
// summaries extracted from verified Wikipedia pages.
type ModelTier string

const (
	// TierLite is for high-volume classification and short generation.
	TierLite ModelTier = "lite"
	// TierAdvanced is for long-form summarization and extraction.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model selection per tier.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// Model returns the model name for a tier, falling back to lite.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierLite]
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{Models: make(map[ModelTier]string, len(c.Models))}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
