package llm

import (
	"fmt"
	"strings"
)

// newProvider selects the transport implementation for the configured
// provider.
func newProvider(cfg Config) (completionProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIProvider(cfg)
	case "anthropic":
		return newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
