package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
	"github.com/kiranshivaraju/visionpulse/pkg/prompts"
)

// Bounds on the number of scene prompts a plan may contain.
const (
	MinScenes = 5
	MaxScenes = 7
)

var firstInteger = regexp.MustCompile(`\d+`)

// Planner breaks a script into styled scene prompts and ranks them.
type Planner struct {
	text    models.TextCompleter
	catalog *presets.Catalog
	builder prompts.Builder
}

// NewPlanner creates a Planner.
func NewPlanner(text models.TextCompleter, catalog *presets.Catalog) *Planner {
	return &Planner{text: text, catalog: catalog}
}

// GeneratePrompts asks the text model for 5-7 scene prompts and appends the
// style's suffix to each. A reply that is not a JSON array of strings, or that
// holds fewer than MinScenes prompts, is an error. Extra prompts are dropped.
func (p *Planner) GeneratePrompts(ctx context.Context, script, style string, keywords, negativeKeywords []string) ([]string, error) {
	preset := p.catalog.StyleOrDefault(style)

	instruction := p.builder.BuildScenePlan(prompts.ScenePlanParams{
		Script:           script,
		StyleName:        preset.Name,
		StyleDescription: preset.Description,
		Keywords:         keywords,
		NegativeKeywords: negativeKeywords,
		MinScenes:        MinScenes,
		MaxScenes:        MaxScenes,
	})

	raw, err := p.text.Complete(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("requesting scene prompts: %w", err)
	}

	var scenes []string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &scenes); err != nil {
		return nil, fmt.Errorf("%w: scene prompts are not a JSON array of strings: %v", ai.ErrInvalidResponse, err)
	}

	kept := make([]string, 0, len(scenes))
	for _, s := range scenes {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) < MinScenes {
		return nil, fmt.Errorf("%w: expected %d-%d scene prompts, got %d", ai.ErrInvalidResponse, MinScenes, MaxScenes, len(kept))
	}
	if len(kept) > MaxScenes {
		kept = kept[:MaxScenes]
	}

	out := make([]string, len(kept))
	for i, s := range kept {
		out[i] = fmt.Sprintf("%s, %s", s, preset.PromptSuffix)
	}
	return out, nil
}

// SelectBestPrompt asks the text model which prompt best opens the video.
// It never fails: any fault or unusable answer yields the first prompt.
func (p *Planner) SelectBestPrompt(ctx context.Context, candidates []string, script string) (best string) {
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("prompt ranking panicked, using first prompt", "error", r)
			best = candidates[0]
		}
	}()

	raw, err := p.text.Complete(ctx, p.builder.BuildPromptRanking(script, candidates))
	if err != nil {
		slog.Warn("prompt ranking failed, using first prompt", "error", err)
		return candidates[0]
	}

	idx, ok := parseChoice(raw, len(candidates))
	if !ok {
		slog.Warn("prompt ranking answer unusable, using first prompt", "answer", truncateString(raw, 80))
		return candidates[0]
	}
	return candidates[idx-1]
}

// parseChoice extracts the first integer from answer and checks it is in 1..n.
func parseChoice(answer string, n int) (int, bool) {
	m := firstInteger.FindString(answer)
	if m == "" {
		return 0, false
	}
	i, err := strconv.Atoi(m)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i, true
}

// StripCodeFence removes a surrounding markdown code fence ("```json" or "```")
// from a model reply.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
