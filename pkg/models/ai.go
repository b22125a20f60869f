// Package models contains shared data models used across the VisionPulse codebase.
package models

import "context"

// TextCompleter turns a single prompt into a text answer.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageSynthesizer renders one image for a prompt and returns its encoded bytes.
// A content-policy rejection must be distinguishable with errors.Is(err, ai.ErrContentPolicy).
type ImageSynthesizer interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
}

// SpeechSynthesizer turns narration text into encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// VideoSynthesizer drives an asynchronous remote video job.
type VideoSynthesizer interface {
	SubmitVideo(ctx context.Context, req VideoJobRequest) (string, error)
	VideoStatus(ctx context.Context, remoteID string) (VideoJobStatus, error)
	DownloadVideo(ctx context.Context, remoteID string) ([]byte, error)
	RemixVideo(ctx context.Context, remoteID, prompt string) (string, error)
}

// Capabilities bundles the generative services a pipeline run needs.
// Never call a specific provider directly; inject this bundle.
type Capabilities struct {
	Text   TextCompleter
	Image  ImageSynthesizer
	Speech SpeechSynthesizer
	Video  VideoSynthesizer
	// Provider names the backend for logging (e.g., "openai", "mock").
	Provider string
}

// VideoJobRequest is the input to VideoSynthesizer.SubmitVideo.
type VideoJobRequest struct {
	Prompt  string
	Size    string
	Seconds int
	// ReferenceImages holds encoded images used as conditioning input.
	ReferenceImages [][]byte
}

const (
	VideoStatusQueued     = "queued"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// VideoJobStatus is one observation of a remote video job.
type VideoJobStatus struct {
	Status   string
	Progress int
	Error    string
}
