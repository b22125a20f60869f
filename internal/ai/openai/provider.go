// Package openai adapts the OpenAI API to the generation capabilities used by the
// pipeline: chat completion, image generation, speech and video.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// MaxRetries is the SDK-level retry budget for rate limits and transient faults.
const MaxRetries = 2

// TextCompleter implements models.TextCompleter over any OpenAI-compatible chat
// completions endpoint.
type TextCompleter struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewTextCompleter creates a TextCompleter. An empty baseURL targets api.openai.com.
func NewTextCompleter(apiKey, baseURL, model string, temperature float64, timeout time.Duration) *TextCompleter {
	return &TextCompleter{
		client:      openai.NewClient(clientOptions(apiKey, baseURL)...),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}
}

func (c *TextCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", classifyError("chat completion", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", ai.ErrInvalidResponse)
	}
	return completion.Choices[0].Message.Content, nil
}

// Provider implements every generation capability against OpenAI. It shares the
// embedded TextCompleter's client.
type Provider struct {
	*TextCompleter
	cfg        config.OpenAIConfig
	timeout    time.Duration
	downloader media.Downloader
}

// NewProvider creates a Provider. Generated image URLs are fetched with downloader.
func NewProvider(cfg config.OpenAIConfig, timeout time.Duration, downloader media.Downloader) *Provider {
	return &Provider{
		TextCompleter: NewTextCompleter(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, timeout),
		cfg:           cfg,
		timeout:       timeout,
		downloader:    downloader,
	}
}

func (p *Provider) Name() string { return "openai" }

// Capabilities bundles the provider for injection into the pipeline.
func (p *Provider) Capabilities() models.Capabilities {
	return models.Capabilities{Text: p, Image: p, Speech: p, Video: p, Provider: p.Name()}
}

func (p *Provider) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(p.cfg.ImageModel),
		Size:           openai.ImageGenerateParamsSize(size),
		Quality:        openai.ImageGenerateParamsQualityStandard,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, classifyError("image generation", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no image returned", ai.ErrInvalidResponse)
	}

	img := resp.Data[0]
	switch {
	case img.URL != "":
		data, err := p.downloader.Fetch(ctx, img.URL)
		if err != nil {
			return nil, fmt.Errorf("downloading generated image: %w", err)
		}
		return data, nil
	case img.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding image payload: %v", ai.ErrInvalidResponse, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: image carries neither url nor data", ai.ErrInvalidResponse)
	}
}

func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(p.cfg.TTSModel),
		Voice:          openai.AudioSpeechNewParamsVoice(voiceID),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, classifyError("speech synthesis", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}
	return data, nil
}

// SubmitVideo starts a remote render. The service conditions on a single input
// reference, so the first reference image is fitted to the frame size and sent.
func (p *Provider) SubmitVideo(ctx context.Context, req models.VideoJobRequest) (string, error) {
	params := openai.VideoNewParams{
		Prompt:  req.Prompt,
		Model:   openai.VideoModel(p.cfg.VideoModel),
		Seconds: openai.VideoSeconds(strconv.Itoa(req.Seconds)),
		Size:    openai.VideoSize(req.Size),
	}

	// The videos endpoint takes one input_reference; later images are dropped.
	if len(req.ReferenceImages) > 0 {
		ref, err := p.fitReference(req.ReferenceImages[0], req.Size)
		if err != nil {
			slog.Warn("reference image unusable, submitting text-only video", "error", err)
		} else {
			params.InputReference = openai.File(bytes.NewReader(ref), "reference.png", "image/png")
		}
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	video, err := p.client.Videos.New(ctx, params)
	if err != nil {
		return "", classifyError("video submission", err)
	}
	if video.ID == "" {
		return "", fmt.Errorf("%w: video job has no id", ai.ErrInvalidResponse)
	}
	return video.ID, nil
}

func (p *Provider) VideoStatus(ctx context.Context, remoteID string) (models.VideoJobStatus, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	video, err := p.client.Videos.Get(ctx, remoteID)
	if err != nil {
		return models.VideoJobStatus{}, classifyError("video status", err)
	}

	status := models.VideoJobStatus{Progress: int(video.Progress), Error: video.Error.Message}
	switch video.Status {
	case openai.VideoStatusQueued:
		status.Status = models.VideoStatusQueued
	case openai.VideoStatusInProgress:
		status.Status = models.VideoStatusProcessing
	case openai.VideoStatusCompleted:
		status.Status = models.VideoStatusCompleted
	case openai.VideoStatusFailed:
		status.Status = models.VideoStatusFailed
		if status.Error == "" {
			status.Error = video.Error.Code
		}
	default:
		return models.VideoJobStatus{}, fmt.Errorf("%w: unknown video status %q", ai.ErrInvalidResponse, video.Status)
	}
	return status, nil
}

func (p *Provider) DownloadVideo(ctx context.Context, remoteID string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Videos.DownloadContent(ctx, remoteID, openai.VideoDownloadContentParams{
		Variant: openai.VideoDownloadContentParamsVariantVideo,
	})
	if err != nil {
		return nil, classifyError("video download", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading video content: %w", err)
	}
	return data, nil
}

func (p *Provider) RemixVideo(ctx context.Context, remoteID, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	video, err := p.client.Videos.Remix(ctx, remoteID, openai.VideoRemixParams{Prompt: prompt})
	if err != nil {
		return "", classifyError("video remix", err)
	}
	return video.ID, nil
}

func (p *Provider) fitReference(data []byte, size string) ([]byte, error) {
	w, h, err := media.ParseSize(size)
	if err != nil {
		return nil, err
	}
	return media.FitImage(data, w, h)
}

func clientOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(MaxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// classifyError maps SDK failures onto the ai sentinel errors.
func classifyError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ai.ErrInferenceTimeout, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == "content_policy_violation" || ai.IsContentPolicy(err) ||
			(apiErr.StatusCode == 400 && strings.Contains(apiErr.Message, "safety system")) {
			return fmt.Errorf("%w: %s", ai.ErrContentPolicy, apiErr.Message)
		}
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return fmt.Errorf("%w: %s: %v", ai.ErrProviderUnavailable, op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%w: %s: %v", ai.ErrProviderUnavailable, op, err)
}

var (
	_ models.TextCompleter     = (*TextCompleter)(nil)
	_ models.ImageSynthesizer  = (*Provider)(nil)
	_ models.SpeechSynthesizer = (*Provider)(nil)
	_ models.VideoSynthesizer  = (*Provider)(nil)
)
