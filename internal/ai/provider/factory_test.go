package provider_test

import (
	"testing"
	"time"

	"github.com/kiranshivaraju/visionpulse/internal/ai/ollama"
	"github.com/kiranshivaraju/visionpulse/internal/ai/openai"
	"github.com/kiranshivaraju/visionpulse/internal/ai/provider"
	"github.com/kiranshivaraju/visionpulse/internal/ai/vllm"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(name string) config.AIConfig {
	return config.AIConfig{
		Provider:         name,
		InferenceTimeout: 10 * time.Second,
		OpenAI:           config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o", Temperature: 0.7},
		Ollama:           config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
		VLLM:             config.VLLMConfig{BaseURL: "http://localhost:8000", Model: "mistral-7b"},
	}
}

func TestNew_OpenAI(t *testing.T) {
	caps, err := provider.New(baseConfig("openai"), media.NewHTTPDownloader(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "openai", caps.Provider)
	assert.IsType(t, &openai.Provider{}, caps.Text)
	assert.IsType(t, &openai.Provider{}, caps.Image)
	assert.IsType(t, &openai.Provider{}, caps.Speech)
	assert.IsType(t, &openai.Provider{}, caps.Video)
}

func TestNew_Ollama(t *testing.T) {
	caps, err := provider.New(baseConfig("ollama"), media.NewHTTPDownloader(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "ollama", caps.Provider)
	assert.IsType(t, &ollama.Provider{}, caps.Text)
	assert.IsType(t, &openai.Provider{}, caps.Video)
}

func TestNew_VLLM(t *testing.T) {
	caps, err := provider.New(baseConfig("vllm"), media.NewHTTPDownloader(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "vllm", caps.Provider)
	assert.IsType(t, &vllm.Provider{}, caps.Text)
	assert.IsType(t, &openai.Provider{}, caps.Image)
}

func TestNew_Unknown(t *testing.T) {
	_, err := provider.New(baseConfig("unknown-provider"), media.NewHTTPDownloader(time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestBaseURLs(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/v1/", ollama.BaseURL("http://localhost:11434"))
	assert.Equal(t, "http://localhost:11434/v1/", ollama.BaseURL("http://localhost:11434/"))
	assert.Equal(t, "http://gpu:8000/v1/", vllm.BaseURL("http://gpu:8000"))
}
