package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

const (
	// MaxImageRetries is the number of sanitized retries after a content-policy rejection.
	MaxImageRetries = 2
	// SafetyPrefix frames a sanitized prompt.
	SafetyPrefix = "A safe, family-friendly, artistic visualization: "
	// PlaceholderLabel is drawn on the stand-in image for a scene that stayed rejected.
	PlaceholderLabel = "Content Filtered"
)

var sensitiveTerms = regexp.MustCompile(`(?i)\b(?:war|weapon|gun|violence|blood|death|kill|attack|fight)s?\b`)

// SanitizePrompt drops sensitive words from prompt and prepends SafetyPrefix.
func SanitizePrompt(prompt string) string {
	cleaned := sensitiveTerms.ReplaceAllString(prompt, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.ReplaceAll(cleaned, " ,", ",")
	return SafetyPrefix + cleaned
}

// ImageGenerator renders one reference image per scene prompt.
type ImageGenerator struct {
	images      models.ImageSynthesizer
	store       ArtifactStore
	size        string
	maxRetries  int
	placeholder func(n int, label string) ([]byte, error)
}

// NewImageGenerator creates an ImageGenerator producing images of the given size.
func NewImageGenerator(images models.ImageSynthesizer, store ArtifactStore, size string) *ImageGenerator {
	return &ImageGenerator{
		images:      images,
		store:       store,
		size:        size,
		maxRetries:  MaxImageRetries,
		placeholder: media.Placeholder,
	}
}

// Generate returns one reference per prompt, in prompt order. Content-policy
// rejections are retried with a sanitized prompt and end in a placeholder once
// retries run out. Any other fault aborts the whole batch.
func (g *ImageGenerator) Generate(ctx context.Context, prompts []string, jobID uuid.UUID) ([]string, error) {
	if len(prompts) == 0 {
		return nil, ErrNothingToRender
	}

	refs := make([]string, 0, len(prompts))
	for i, prompt := range prompts {
		data, err := g.render(ctx, i, prompt, jobID)
		if err != nil {
			return nil, fmt.Errorf("image %d of %d: %w", i+1, len(prompts), err)
		}
		ref, err := g.store.Save(ctx, media.ImagePath(jobID, i), data)
		if err != nil {
			return nil, fmt.Errorf("saving image %d: %w", i+1, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (g *ImageGenerator) render(ctx context.Context, index int, prompt string, jobID uuid.UUID) ([]byte, error) {
	current := prompt
	for attempt := 0; ; attempt++ {
		data, err := g.images.GenerateImage(ctx, current, g.size)
		if err == nil {
			return data, nil
		}
		if !ai.IsContentPolicy(err) {
			return nil, err
		}
		if attempt >= g.maxRetries {
			slog.Warn("image still rejected after retries, using placeholder",
				"job_id", jobID, "image", index+1, "retries", g.maxRetries)
			return g.placeholder(index+1, PlaceholderLabel)
		}
		slog.Warn("image rejected by content policy, retrying with sanitized prompt",
			"job_id", jobID, "image", index+1, "attempt", attempt+1)
		current = SanitizePrompt(prompt)
	}
}
