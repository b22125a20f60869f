package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/ai"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 600 * time.Second
	// MaxReferenceImages is how many scene images condition the video.
	MaxReferenceImages = 2
)

// ClampDuration maps a requested length onto the supported 4, 8 or 12 seconds.
func ClampDuration(seconds int) int {
	switch {
	case seconds <= 4:
		return 4
	case seconds <= 8:
		return 8
	default:
		return 12
	}
}

// VideoRequest is the input to VideoGenerator.Generate.
type VideoRequest struct {
	Prompt          string
	Duration        int
	JobID           uuid.UUID
	Size            string
	ReferenceImages []string
}

// VideoResult describes a stored video.
type VideoResult struct {
	Ref      string
	RemoteID string
	Duration int
}

// VideoGenerator submits remote video jobs and polls them to completion.
type VideoGenerator struct {
	video    models.VideoSynthesizer
	store    ArtifactStore
	interval time.Duration
	timeout  time.Duration
}

// NewVideoGenerator creates a VideoGenerator. Non-positive interval or timeout
// fall back to DefaultPollInterval and DefaultPollTimeout.
func NewVideoGenerator(video models.VideoSynthesizer, store ArtifactStore, interval, timeout time.Duration) *VideoGenerator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &VideoGenerator{video: video, store: store, interval: interval, timeout: timeout}
}

// Generate renders the video remotely and stores it. At most MaxReferenceImages
// references are passed along; the rest are ignored.
func (g *VideoGenerator) Generate(ctx context.Context, req VideoRequest) (VideoResult, error) {
	seconds := ClampDuration(req.Duration)

	refs := req.ReferenceImages
	if len(refs) > MaxReferenceImages {
		refs = refs[:MaxReferenceImages]
	}
	images := make([][]byte, 0, len(refs))
	for _, ref := range refs {
		data, err := g.store.Load(ctx, ref)
		if err != nil {
			return VideoResult{}, fmt.Errorf("loading reference image: %w", err)
		}
		images = append(images, data)
	}

	remoteID, err := g.video.SubmitVideo(ctx, models.VideoJobRequest{
		Prompt:          req.Prompt,
		Size:            req.Size,
		Seconds:         seconds,
		ReferenceImages: images,
	})
	if err != nil {
		return VideoResult{}, fmt.Errorf("submitting video job: %w", err)
	}
	slog.Info("video job submitted", "job_id", req.JobID, "remote_id", remoteID, "seconds", seconds)

	return g.finish(ctx, remoteID, req.JobID, seconds)
}

// Remix asks the remote service to rework a finished video with a new prompt and
// stores the result under jobID.
func (g *VideoGenerator) Remix(ctx context.Context, sourceRemoteID, prompt string, jobID uuid.UUID, seconds int) (VideoResult, error) {
	remoteID, err := g.video.RemixVideo(ctx, sourceRemoteID, prompt)
	if err != nil {
		return VideoResult{}, fmt.Errorf("submitting remix of %s: %w", sourceRemoteID, err)
	}
	slog.Info("video remix submitted", "job_id", jobID, "remote_id", remoteID, "source", sourceRemoteID)

	return g.finish(ctx, remoteID, jobID, seconds)
}

func (g *VideoGenerator) finish(ctx context.Context, remoteID string, jobID uuid.UUID, seconds int) (VideoResult, error) {
	if err := g.await(ctx, remoteID); err != nil {
		return VideoResult{}, err
	}

	data, err := g.video.DownloadVideo(ctx, remoteID)
	if err != nil {
		return VideoResult{}, fmt.Errorf("downloading video %s: %w", remoteID, err)
	}
	if len(data) == 0 {
		return VideoResult{}, fmt.Errorf("%w: empty video content", ai.ErrInvalidResponse)
	}

	ref, err := g.store.Save(ctx, media.VideoPath(jobID), data)
	if err != nil {
		return VideoResult{}, fmt.Errorf("saving video: %w", err)
	}
	return VideoResult{Ref: ref, RemoteID: remoteID, Duration: seconds}, nil
}

// await polls the remote job every interval until it completes, fails, or the
// ceiling elapses.
func (g *VideoGenerator) await(ctx context.Context, remoteID string) error {
	deadline := time.NewTimer(g.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		status, err := g.video.VideoStatus(ctx, remoteID)
		if err != nil {
			return fmt.Errorf("polling video job %s: %w", remoteID, err)
		}

		switch status.Status {
		case models.VideoStatusCompleted:
			return nil
		case models.VideoStatusFailed:
			return &RemoteVideoError{RemoteID: remoteID, Message: status.Error}
		}
		slog.Debug("video job pending", "remote_id", remoteID, "status", status.Status, "progress", status.Progress)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s still %s after %s", ErrVideoTimeout, remoteID, status.Status, g.timeout)
		case <-ticker.C:
		}
	}
}
