// Package provider assembles the generation capabilities selected by configuration.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/visionpulse/internal/ai/ollama"
	"github.com/kiranshivaraju/visionpulse/internal/ai/openai"
	"github.com/kiranshivaraju/visionpulse/internal/ai/vllm"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

// New constructs the capability bundle based on config.
// Called once at server startup. Images, speech and video always use OpenAI;
// cfg.Provider chooses where text completion runs.
func New(cfg config.AIConfig, downloader media.Downloader) (models.Capabilities, error) {
	oa := openai.NewProvider(cfg.OpenAI, cfg.InferenceTimeout, downloader)
	caps := oa.Capabilities()

	switch cfg.Provider {
	case "openai", "":
	case "ollama":
		p := ollama.NewProvider(cfg.Ollama, cfg.OpenAI.Temperature, cfg.InferenceTimeout)
		caps.Text = p
		caps.Provider = p.Name()
		slog.Info("text completion via ollama", "model", p.Model())
	case "vllm":
		p := vllm.NewProvider(cfg.VLLM, cfg.OpenAI.Temperature, cfg.InferenceTimeout)
		caps.Text = p
		caps.Provider = p.Name()
		slog.Info("text completion via vllm", "model", p.Model())
	default:
		return models.Capabilities{}, fmt.Errorf("unknown AI provider %q: must be one of openai, ollama, vllm", cfg.Provider)
	}

	return caps, nil
}
