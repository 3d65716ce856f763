// Package factory selects a chat provider for a model identifier. It
// imports the provider sub-packages and maps identifier prefixes to their
// constructors, keeping the selection out of the llm package itself.
package factory

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/llm"
	"github.com/BaSui01/voiceloop/llm/providers/openai"
	"github.com/BaSui01/voiceloop/llm/providers/openaicompat"
)

// LocalPrefix routes a model identifier to the local OpenAI-compatible
// runtime. The prefix is stripped from the identifier before it is sent
// upstream; every other identifier goes to OpenAI unchanged.
const LocalPrefix = "ollama/"

type builder func(logger *zap.Logger) llm.Provider

// prefixes maps identifier prefixes to provider constructors. Adding a new
// backend is one entry here plus its provider package.
var prefixes = map[string]builder{
	LocalPrefix: newLocal,
}

// ProviderForModel selects a provider purely from the identifier's prefix
// and returns it together with the model name to send upstream. Credentials
// are not validated here; a bad key fails on the provider's first request.
func ProviderForModel(model string, logger *zap.Logger) (llm.Provider, string) {
	for prefix, build := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return build(logger), strings.TrimPrefix(model, prefix)
		}
	}
	return newDefault(logger), model
}

func newDefault(logger *zap.Logger) llm.Provider {
	return openai.New(openai.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}, logger)
}

func newLocal(logger *zap.Logger) llm.Provider {
	return openaicompat.New(openaicompat.Config{
		ProviderName: "ollama",
		BaseURL:      envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
	}, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
