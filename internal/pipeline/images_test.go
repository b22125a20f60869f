package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/ai/mock"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrompt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A quiet harbour at dusk", SafetyPrefix + "A quiet harbour at dusk"},
		{"Soldiers at war with weapons drawn", SafetyPrefix + "Soldiers at with drawn"},
		{"A FIGHT in the rain, cinematic lighting", SafetyPrefix + "A in the rain, cinematic lighting"},
		{"Warm light over the gunwale", SafetyPrefix + "Warm light over the gunwale"},
		{"blood", SafetyPrefix},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizePrompt(tt.in), tt.in)
	}
}

func TestGenerateImages_StoresOnePerPromptInOrder(t *testing.T) {
	images := &mock.ImageSynthesizer{}
	store := newMemStore()
	g := NewImageGenerator(images, store, "1024x1024")
	jobID := uuid.New()

	refs, err := g.Generate(context.Background(), []string{"one", "two", "three"}, jobID)

	require.NoError(t, err)
	require.Len(t, refs, 3)
	for i, ref := range refs {
		assert.Equal(t, "mem://"+media.ImagePath(jobID, i), ref)
		assert.Equal(t, mock.PNG, store.get(ref))
	}
	assert.Equal(t, []string{"one", "two", "three"}, images.Prompts())
}

func TestGenerateImages_RetriesWithSanitizedPrompt(t *testing.T) {
	images := &mock.ImageSynthesizer{GenerateFunc: mock.PolicyRejection("weapon")}
	store := newMemStore()
	g := NewImageGenerator(images, store, "1024x1024")

	refs, err := g.Generate(context.Background(), []string{"A knight raising a weapon"}, uuid.New())

	require.NoError(t, err)
	calls := images.Prompts()
	require.Len(t, calls, 2)
	assert.Equal(t, SafetyPrefix+"A knight raising a", calls[1])
	assert.Equal(t, mock.PNG, store.get(refs[0]))
}

func TestGenerateImages_PlaceholderAfterRetriesExhausted(t *testing.T) {
	images := &mock.ImageSynthesizer{GenerateFunc: mock.PolicyRejection("")}
	store := newMemStore()
	g := NewImageGenerator(images, store, "1024x1024")

	refs, err := g.Generate(context.Background(), []string{"A battle scene with fighting"}, uuid.New())

	require.NoError(t, err)
	require.Len(t, refs, 1)

	calls := images.Prompts()
	require.Len(t, calls, 1+MaxImageRetries)
	assert.Equal(t, "A battle scene with fighting", calls[0])
	for _, c := range calls[1:] {
		assert.True(t, strings.HasPrefix(c, SafetyPrefix), c)
		assert.Equal(t, calls[1], c)
	}

	img, err := png.Decode(bytes.NewReader(store.get(refs[0])))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
}

func TestGenerateImages_PolicyDetectedFromMessage(t *testing.T) {
	images := &mock.ImageSynthesizer{
		GenerateFunc: func(_ context.Context, _, _ string) ([]byte, error) {
			return nil, errors.New("400: Your request was rejected as a result of our safety system")
		},
	}
	g := NewImageGenerator(images, newMemStore(), "1024x1024")
	g.placeholder = func(n int, label string) ([]byte, error) {
		return []byte(label), nil
	}

	refs, err := g.Generate(context.Background(), []string{"p"}, uuid.New())

	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Len(t, images.Prompts(), 3)
}

func TestGenerateImages_OtherFaultAbortsWithoutRetry(t *testing.T) {
	images := &mock.ImageSynthesizer{
		GenerateFunc: func(_ context.Context, prompt, _ string) ([]byte, error) {
			if prompt == "two" {
				return nil, ai.ErrProviderUnavailable
			}
			return mock.PNG, nil
		},
	}
	g := NewImageGenerator(images, newMemStore(), "1024x1024")

	refs, err := g.Generate(context.Background(), []string{"one", "two", "three"}, uuid.New())

	assert.Nil(t, refs)
	require.ErrorIs(t, err, ai.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "image 2 of 3")
	assert.Equal(t, []string{"one", "two"}, images.Prompts())
}

func TestGenerateImages_NoPrompts(t *testing.T) {
	g := NewImageGenerator(&mock.ImageSynthesizer{}, newMemStore(), "1024x1024")

	_, err := g.Generate(context.Background(), nil, uuid.New())

	assert.ErrorIs(t, err, ErrNothingToRender)
}

func TestGenerateImages_SaveFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	g := NewImageGenerator(&mock.ImageSynthesizer{}, store, "1024x1024")

	_, err := g.Generate(context.Background(), []string{"one"}, uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving image 1")
	assert.Contains(t, err.Error(), "disk full")
}
