// Package mock provides in-memory generative capabilities for tests and local runs.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

// ScenePrompts is the plan the default text fake returns for scene-prompt instructions.
var ScenePrompts = []string{
	"A lone lighthouse on a rocky cliff before sunrise",
	"The first light of dawn touching the lighthouse lamp",
	"Waves rolling against the rocks below the tower",
	"Seabirds circling the lighthouse in pink morning sky",
	"The keeper's window glowing as the sun rises",
	"Wide view of the coast bathed in golden light",
}

// PNG is the payload the default image fake returns. It is a valid 1x1 PNG.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49,
	0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06,
	0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44,
	0x41, 0x54, 0x78, 0xda, 0x63, 0xfc, 0xcf, 0xc0, 0x50, 0x0f, 0x00, 0x04, 0x85,
	0x01, 0x80, 0x84, 0xa9, 0x8c, 0x21, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e,
	0x44, 0xae, 0x42, 0x60, 0x82,
}

// TextCompleter satisfies models.TextCompleter and records every prompt.
type TextCompleter struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *TextCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

// Calls returns the prompts received so far.
func (m *TextCompleter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ImageSynthesizer satisfies models.ImageSynthesizer and records every prompt.
type ImageSynthesizer struct {
	GenerateFunc func(ctx context.Context, prompt, size string) ([]byte, error)

	mu      sync.Mutex
	prompts []string
}

func (m *ImageSynthesizer) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, size)
	}
	return PNG, nil
}

// Prompts returns the prompts received so far, retries included.
func (m *ImageSynthesizer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// SpeechSynthesizer satisfies models.SpeechSynthesizer.
type SpeechSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, text, voiceID string) ([]byte, error)

	mu     sync.Mutex
	voices []string
}

func (m *SpeechSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	m.mu.Lock()
	m.voices = append(m.voices, voiceID)
	m.mu.Unlock()
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voiceID)
	}
	return []byte("ID3-mock-audio"), nil
}

// Voices returns the voice identifiers received so far.
func (m *SpeechSynthesizer) Voices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.voices...)
}

// VideoSynthesizer satisfies models.VideoSynthesizer. Without overrides every job
// completes on the first status check.
type VideoSynthesizer struct {
	SubmitFunc   func(ctx context.Context, req models.VideoJobRequest) (string, error)
	StatusFunc   func(ctx context.Context, remoteID string) (models.VideoJobStatus, error)
	DownloadFunc func(ctx context.Context, remoteID string) ([]byte, error)
	RemixFunc    func(ctx context.Context, remoteID, prompt string) (string, error)

	mu        sync.Mutex
	submitted []models.VideoJobRequest
	polls     int
	seq       int
}

func (m *VideoSynthesizer) SubmitVideo(ctx context.Context, req models.VideoJobRequest) (string, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, req)
	m.seq++
	id := fmt.Sprintf("video_mock_%d", m.seq)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return id, nil
}

func (m *VideoSynthesizer) VideoStatus(ctx context.Context, remoteID string) (models.VideoJobStatus, error) {
	m.mu.Lock()
	m.polls++
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, remoteID)
	}
	return models.VideoJobStatus{Status: models.VideoStatusCompleted, Progress: 100}, nil
}

func (m *VideoSynthesizer) DownloadVideo(ctx context.Context, remoteID string) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, remoteID)
	}
	return []byte("mock-mp4:" + remoteID), nil
}

func (m *VideoSynthesizer) RemixVideo(ctx context.Context, remoteID, prompt string) (string, error) {
	if m.RemixFunc != nil {
		return m.RemixFunc(ctx, remoteID, prompt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("video_mock_%d", m.seq), nil
}

// Submitted returns the submitted video requests.
func (m *VideoSynthesizer) Submitted() []models.VideoJobRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VideoJobRequest(nil), m.submitted...)
}

// Polls returns how many status checks were made.
func (m *VideoSynthesizer) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Provider groups one fake per capability so tests can reach the recorders.
type Provider struct {
	Text   *TextCompleter
	Image  *ImageSynthesizer
	Speech *SpeechSynthesizer
	Video  *VideoSynthesizer
}

// Capabilities returns the bundle to inject into the pipeline.
func (p *Provider) Capabilities() models.Capabilities {
	return models.Capabilities{
		Text:     p.Text,
		Image:    p.Image,
		Speech:   p.Speech,
		Video:    p.Video,
		Provider: "mock",
	}
}

// NewMockProvider returns fakes with sensible default responses: scene plans
// come back as ScenePrompts in a code fence, rankings pick the second
// candidate, and anything else gets a fixed narration line.
func NewMockProvider() *Provider {
	return &Provider{
		Text: &TextCompleter{
			CompleteFunc: func(_ context.Context, prompt string) (string, error) {
				switch {
				case strings.Contains(prompt, "JSON array"):
					b, _ := json.Marshal(ScenePrompts)
					return "```json\n" + string(b) + "\n```", nil
				case strings.Contains(prompt, "Answer with the number"):
					return "2", nil
				default:
					return "Mock narration for testing.", nil
				}
			},
		},
		Image:  &ImageSynthesizer{},
		Speech: &SpeechSynthesizer{},
		Video:  &VideoSynthesizer{},
	}
}

// NewFailingProvider returns fakes whose every call fails with err.
func NewFailingProvider(err error) *Provider {
	return &Provider{
		Text: &TextCompleter{
			CompleteFunc: func(_ context.Context, _ string) (string, error) { return "", err },
		},
		Image: &ImageSynthesizer{
			GenerateFunc: func(_ context.Context, _, _ string) ([]byte, error) { return nil, err },
		},
		Speech: &SpeechSynthesizer{
			SynthesizeFunc: func(_ context.Context, _, _ string) ([]byte, error) { return nil, err },
		},
		Video: &VideoSynthesizer{
			SubmitFunc: func(_ context.Context, _ models.VideoJobRequest) (string, error) { return "", err },
		},
	}
}

// NewTimeoutProvider returns fakes that block until the context is cancelled.
func NewTimeoutProvider() *Provider {
	block := func(ctx context.Context) error {
		<-ctx.Done()
		return ai.ErrInferenceTimeout
	}
	return &Provider{
		Text: &TextCompleter{
			CompleteFunc: func(ctx context.Context, _ string) (string, error) { return "", block(ctx) },
		},
		Image: &ImageSynthesizer{
			GenerateFunc: func(ctx context.Context, _, _ string) ([]byte, error) { return nil, block(ctx) },
		},
		Speech: &SpeechSynthesizer{
			SynthesizeFunc: func(ctx context.Context, _, _ string) ([]byte, error) { return nil, block(ctx) },
		},
		Video: &VideoSynthesizer{
			SubmitFunc: func(ctx context.Context, _ models.VideoJobRequest) (string, error) { return "", block(ctx) },
		},
	}
}

// PolicyRejection returns an image generator func that rejects every prompt
// containing needle under the content policy and renders the rest.
func PolicyRejection(needle string) func(ctx context.Context, prompt, size string) ([]byte, error) {
	return func(_ context.Context, prompt, _ string) ([]byte, error) {
		if strings.Contains(prompt, needle) {
			return nil, fmt.Errorf("%w: your request was rejected by the safety system", ai.ErrContentPolicy)
		}
		return PNG, nil
	}
}

// Compile-time checks that the fakes implement the capability interfaces.
var (
	_ models.TextCompleter     = (*TextCompleter)(nil)
	_ models.ImageSynthesizer  = (*ImageSynthesizer)(nil)
	_ models.SpeechSynthesizer = (*SpeechSynthesizer)(nil)
	_ models.VideoSynthesizer  = (*VideoSynthesizer)(nil)
)
