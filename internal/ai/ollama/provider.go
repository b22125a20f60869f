package ollama

import (
	"strings"
	"time"

	"github.com/kiranshivaraju/visionpulse/internal/ai/openai"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

// Provider implements models.TextCompleter using Ollama's OpenAI-compatible endpoint.
type Provider struct {
	*openai.TextCompleter
	cfg config.OllamaConfig
}

func NewProvider(cfg config.OllamaConfig, temperature float64, timeout time.Duration) *Provider {
	// Ollama ignores the key but the client requires one.
	return &Provider{
		TextCompleter: openai.NewTextCompleter("ollama", BaseURL(cfg.BaseURL), cfg.Model, temperature, timeout),
		cfg:           cfg,
	}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Model() string { return p.cfg.Model }

// BaseURL returns the OpenAI-compatible API root for an Ollama server.
func BaseURL(server string) string {
	return strings.TrimSuffix(server, "/") + "/v1/"
}

var _ models.TextCompleter = (*Provider)(nil)
