package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
)

// AudioGenerator synthesizes the narration track. There is no retry.
type AudioGenerator struct {
	speech  models.SpeechSynthesizer
	store   ArtifactStore
	catalog *presets.Catalog
}

// NewAudioGenerator creates an AudioGenerator.
func NewAudioGenerator(speech models.SpeechSynthesizer, store ArtifactStore, catalog *presets.Catalog) *AudioGenerator {
	return &AudioGenerator{speech: speech, store: store, catalog: catalog}
}

// Generate speaks text with the voice preset (the default voice when unknown)
// and returns the stored reference.
func (g *AudioGenerator) Generate(ctx context.Context, text, voice string, jobID uuid.UUID) (string, error) {
	v := g.catalog.VoiceOrDefault(voice)

	data, err := g.speech.Synthesize(ctx, text, v.VoiceID)
	if err != nil {
		return "", fmt.Errorf("synthesizing narration: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty audio", ai.ErrInvalidResponse)
	}

	ref, err := g.store.Save(ctx, media.AudioPath(jobID), data)
	if err != nil {
		return "", fmt.Errorf("saving narration: %w", err)
	}
	return ref, nil
}
