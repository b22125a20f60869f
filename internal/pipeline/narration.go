package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/kiranshivaraju/visionpulse/pkg/prompts"
)

var narrationMarkers = []string{"narrator", ":", "\u2014"}

// NarrationExtractor isolates the spoken lines of a script.
type NarrationExtractor struct {
	text    models.TextCompleter
	builder prompts.Builder
}

// NewNarrationExtractor creates a NarrationExtractor.
func NewNarrationExtractor(text models.TextCompleter) *NarrationExtractor {
	return &NarrationExtractor{text: text}
}

// NeedsExtraction reports whether script looks like it mixes narration with
// speaker labels or directions.
func NeedsExtraction(script string) bool {
	lower := strings.ToLower(script)
	for _, m := range narrationMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Extract returns the text to speak. Scripts without markers are returned as is;
// on any fault or an empty answer the raw script is returned.
func (n *NarrationExtractor) Extract(ctx context.Context, script string) string {
	if !NeedsExtraction(script) {
		return script
	}

	raw, err := n.text.Complete(ctx, n.builder.BuildNarration(script))
	if err != nil {
		slog.Warn("narration extraction failed, speaking full script", "error", err)
		return script
	}

	text := StripCodeFence(raw)
	if text == "" {
		return script
	}
	return text
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
