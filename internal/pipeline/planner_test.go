package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/ai/mock"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replying(reply string, err error) *mock.TextCompleter {
	return &mock.TextCompleter{
		CompleteFunc: func(_ context.Context, _ string) (string, error) { return reply, err },
	}
}

// --- GeneratePrompts ---

func TestGeneratePrompts_AppendsStyleSuffix(t *testing.T) {
	text := replying(`["a","b","c","d","e","f"]`, nil)
	p := NewPlanner(text, presets.Default())

	got, err := p.GeneratePrompts(context.Background(), "A lighthouse at dawn", "anime", nil, nil)

	require.NoError(t, err)
	anime, _ := presets.Default().Style("anime")
	require.Len(t, got, 6)
	assert.Equal(t, "a, "+anime.PromptSuffix, got[0])
	assert.Equal(t, "f, "+anime.PromptSuffix, got[5])
}

func TestGeneratePrompts_InstructionCarriesInputs(t *testing.T) {
	text := replying(`["a","b","c","d","e"]`, nil)
	p := NewPlanner(text, presets.Default())

	_, err := p.GeneratePrompts(context.Background(), "The sea at night", "watercolor",
		[]string{"moonlight", "calm"}, []string{"people"})
	require.NoError(t, err)

	calls := text.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "The sea at night")
	assert.Contains(t, calls[0], "Visual Style: Watercolor")
	assert.Contains(t, calls[0], "Additional Keywords: moonlight, calm")
	assert.Contains(t, calls[0], "Avoid: people")
	assert.Contains(t, calls[0], "5-7")
}

func TestGeneratePrompts_StripsCodeFence(t *testing.T) {
	text := replying("```json\n[\"a\",\"b\",\"c\",\"d\",\"e\"]\n```", nil)
	p := NewPlanner(text, presets.Default())

	got, err := p.GeneratePrompts(context.Background(), "s", "realistic", nil, nil)

	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestGeneratePrompts_UnknownStyleUsesDefault(t *testing.T) {
	text := replying(`["a","b","c","d","e"]`, nil)
	p := NewPlanner(text, presets.Default())

	got, err := p.GeneratePrompts(context.Background(), "s", "baroque", nil, nil)

	require.NoError(t, err)
	def, _ := presets.Default().Style(presets.Default().DefaultStyle())
	assert.True(t, strings.HasSuffix(got[0], def.PromptSuffix))
}

func TestGeneratePrompts_TruncatesToMaximum(t *testing.T) {
	text := replying(`["1","2","3","4","5","6","7","8","9"]`, nil)
	p := NewPlanner(text, presets.Default())

	got, err := p.GeneratePrompts(context.Background(), "s", "realistic", nil, nil)

	require.NoError(t, err)
	require.Len(t, got, MaxScenes)
	assert.True(t, strings.HasPrefix(got[6], "7, "))
}

func TestGeneratePrompts_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Here are some prompts: a lighthouse, a boat."},
		{"object", `{"prompts": ["a","b","c","d","e"]}`},
		{"too few", `["a","b","c"]`},
		{"blank entries", `["a","b","  ","","c"]`},
		{"numbers", `[1,2,3,4,5]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(replying(tt.reply, nil), presets.Default())

			got, err := p.GeneratePrompts(context.Background(), "s", "realistic", nil, nil)

			assert.Nil(t, got)
			assert.ErrorIs(t, err, ai.ErrInvalidResponse)
		})
	}
}

func TestGeneratePrompts_PropagatesProviderError(t *testing.T) {
	p := NewPlanner(replying("", ai.ErrProviderUnavailable), presets.Default())

	_, err := p.GeneratePrompts(context.Background(), "s", "realistic", nil, nil)

	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

// --- SelectBestPrompt ---

func TestSelectBestPrompt(t *testing.T) {
	candidates := []string{"first", "second", "third"}
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"plain number", "2", nil, "second"},
		{"number in prose", "I would choose 3 because it sets the mood.", nil, "third"},
		{"first integer wins", "1 or maybe 2", nil, "first"},
		{"out of range", "9", nil, "first"},
		{"zero", "0", nil, "first"},
		{"no number", "the second one", nil, "first"},
		{"provider fault", "", errors.New("boom"), "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(replying(tt.reply, tt.err), presets.Default())
			assert.Equal(t, tt.want, p.SelectBestPrompt(context.Background(), candidates, "script"))
		})
	}
}

func TestSelectBestPrompt_ModelPanicFallsBackToFirst(t *testing.T) {
	text := &mock.TextCompleter{
		CompleteFunc: func(_ context.Context, _ string) (string, error) {
			panic("ranking client crashed")
		},
	}
	p := NewPlanner(text, presets.Default())

	var got string
	require.NotPanics(t, func() {
		got = p.SelectBestPrompt(context.Background(), []string{"first", "second"}, "script")
	})
	assert.Equal(t, "first", got)
	assert.Len(t, text.Calls(), 1)
}

func TestSelectBestPrompt_TrivialCandidatesSkipModel(t *testing.T) {
	text := replying("1", nil)
	p := NewPlanner(text, presets.Default())

	assert.Equal(t, "", p.SelectBestPrompt(context.Background(), nil, "script"))
	assert.Equal(t, "only", p.SelectBestPrompt(context.Background(), []string{"only"}, "script"))
	assert.Empty(t, text.Calls())
}

// --- StripCodeFence ---

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\nhello\n```", "hello"},
		{"  plain  ", "plain"},
		{"```json[]```", "[]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFence(tt.in), tt.in)
	}
}
