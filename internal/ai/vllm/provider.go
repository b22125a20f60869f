package vllm

import (
	"strings"
	"time"

	"github.com/kiranshivaraju/visionpulse/internal/ai/openai"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

// Provider implements models.TextCompleter using a vLLM OpenAI-compatible server.
type Provider struct {
	*openai.TextCompleter
	cfg config.VLLMConfig
}

func NewProvider(cfg config.VLLMConfig, temperature float64, timeout time.Duration) *Provider {
	return &Provider{
		TextCompleter: openai.NewTextCompleter("EMPTY", BaseURL(cfg.BaseURL), cfg.Model, temperature, timeout),
		cfg:           cfg,
	}
}

func (p *Provider) Name() string { return "vllm" }

func (p *Provider) Model() string { return p.cfg.Model }

// BaseURL returns the OpenAI-compatible API root for a vLLM server.
func BaseURL(server string) string {
	return strings.TrimSuffix(server, "/") + "/v1/"
}

var _ models.TextCompleter = (*Provider)(nil)
