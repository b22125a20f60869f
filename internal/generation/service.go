// Package generation turns video requests into persisted jobs and runs the
// generation pipeline for them in the background.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/cache"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/internal/pipeline"
	"github.com/kiranshivaraju/visionpulse/internal/store"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultSize     = "1280x720"
	DefaultDuration = 8
	MinDuration     = 1
	MaxDuration     = 60

	statusTTL = 30 * time.Minute
	recordTTL = time.Hour
	// LockTTL bounds how long a crashed worker can keep a job claimed.
	LockTTL = 15 * time.Minute

	maxErrorMessageBytes = 2000
	maxTitleBytes        = 200
)

// SupportedSizes are the output resolutions a request may ask for.
var SupportedSizes = []string{"1280x720", "720x1280", "1024x1792", "1792x1024"}

// CreateParams is an unvalidated video request.
type CreateParams struct {
	Title            string
	Script           string
	Style            string
	Voice            string
	Size             string
	Duration         int
	Keywords         []string
	NegativeKeywords []string
}

// RemixParams asks for a reworked version of a completed video.
type RemixParams struct {
	Prompt string
}

// ListParams pages through jobs, newest first.
type ListParams struct {
	Status string
	Page   int
	Limit  int
}

// ArtifactStore persists run outputs and removes them when a job is deleted.
type ArtifactStore interface {
	pipeline.ArtifactStore
	DeleteJob(ctx context.Context, jobID uuid.UUID) error
}

// Options tunes the background runner.
type Options struct {
	MaxConcurrent int
	LockTTL       time.Duration
}

// Service validates requests, records jobs and dispatches pipeline runs.
type Service struct {
	store     store.Store
	cache     cache.Cache
	artifacts ArtifactStore
	catalog   *presets.Catalog
	pipeline  *pipeline.Orchestrator
	video     *pipeline.VideoGenerator

	sem     *semaphore.Weighted
	lockTTL time.Duration
	owner   string

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a Service. Runs dispatched by it stop when Shutdown is called.
func NewService(st store.Store, ca cache.Cache, artifacts ArtifactStore, catalog *presets.Catalog,
	gens pipeline.Generators, opts Options) *Service {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = LockTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		store:     st,
		cache:     ca,
		artifacts: artifacts,
		catalog:   catalog,
		video:     gens.Video,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		lockTTL:   opts.LockTTL,
		owner:     uuid.NewString(),
		runCtx:    ctx,
		cancel:    cancel,
	}
	s.pipeline = pipeline.NewOrchestrator(gens, pipeline.WithObserver(s.recordStep))
	return s
}

// CreateVideo validates params, stores a pending job and starts its run.
// The returned job is still pending.
func (s *Service) CreateVideo(ctx context.Context, params CreateParams) (*models.Job, error) {
	job, err := s.newJob(params)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, statusTTL)

	slog.Info("video job created", "job_id", job.ID, "style", job.Style, "voice", job.Voice, "duration", job.Duration)
	s.dispatch(job, s.runPipeline)
	return job, nil
}

// RemixVideo starts a new job that reworks the remote video of a completed one.
func (s *Service) RemixVideo(ctx context.Context, sourceID uuid.UUID, params RemixParams) (*models.Job, error) {
	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}

	src, err := s.store.GetJob(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.Status != models.JobStatusCompleted || src.RemoteVideoID == nil || src.AudioRef == nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotRemixable, src.ID, src.Status)
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:               uuid.New(),
		Title:            truncateString(src.Title+" (remix)", maxTitleBytes),
		Script:           src.Script,
		Style:            src.Style,
		Voice:            src.Voice,
		Size:             src.Size,
		Duration:         src.Duration,
		Keywords:         src.Keywords,
		NegativeKeywords: src.NegativeKeywords,
		RemixOf:          &src.ID,
		Status:           models.JobStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating remix job: %w", err)
	}
	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, statusTTL)

	slog.Info("video remix created", "job_id", job.ID, "source_id", src.ID)
	s.dispatch(job, func(ctx context.Context, job *models.Job) (models.Artifacts, error) {
		return s.runRemix(ctx, job, src, prompt)
	})
	return job, nil
}

// GetVideo returns a job. Terminal jobs are served from the cache when present;
// for running jobs a cached status that is further along than the stored one wins.
func (s *Service) GetVideo(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if data, found, err := s.cache.Get(ctx, cache.JobRecordKey(id)); err == nil && found {
		var job models.Job
		if err := json.Unmarshal(data, &job); err == nil {
			return &job, nil
		}
	}

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.IsTerminal() {
		if data, err := json.Marshal(job); err == nil {
			_ = s.cache.Set(ctx, cache.JobRecordKey(id), data, recordTTL)
		}
		return job, nil
	}

	status, found, err := s.cache.GetJobStatus(ctx, id)
	if err != nil || !found || statusRank(status) <= statusRank(job.Status) {
		return job, nil
	}
	if statusRank(status) == statusRank(models.JobStatusCompleted) {
		// The row was read before the terminal write landed; re-read it so the
		// error message or artifacts come with the status.
		if fresh, err := s.store.GetJob(ctx, id); err == nil {
			return fresh, nil
		}
		return job, nil
	}
	job.Status = status
	return job, nil
}

// ListVideos returns one page of jobs and the total count.
func (s *Service) ListVideos(ctx context.Context, params ListParams) ([]*models.Job, int, error) {
	if params.Status != "" && statusRank(params.Status) == 0 {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, params.Status)
	}
	return s.store.ListJobs(ctx, store.JobFilter{Status: params.Status, Page: params.Page, Limit: params.Limit})
}

// DeleteVideo removes a job and its artifacts. Processing jobs cannot be deleted.
func (s *Service) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	if err := s.artifacts.DeleteJob(ctx, id); err != nil {
		slog.Warn("failed to delete artifacts", "job_id", id, "error", err)
	}
	_ = s.cache.Delete(ctx, cache.JobRecordKey(id))
	_ = s.cache.Delete(ctx, cache.JobStatusKey(id))
	slog.Info("video job deleted", "job_id", id)
	return nil
}

func (s *Service) Styles() []presets.Style { return s.catalog.Styles() }
func (s *Service) Voices() []presets.Voice { return s.catalog.Voices() }

// Shutdown cancels running pipelines and waits for them to record a terminal
// status, or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) newJob(p CreateParams) (*models.Job, error) {
	title := strings.TrimSpace(p.Title)
	script := strings.TrimSpace(p.Script)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if len(title) > maxTitleBytes {
		return nil, fmt.Errorf("%w: title must be at most %d bytes", ErrInvalidRequest, maxTitleBytes)
	}
	if script == "" {
		return nil, fmt.Errorf("%w: script is required", ErrInvalidRequest)
	}

	style := p.Style
	if style == "" {
		style = s.catalog.DefaultStyle()
	}
	if _, ok := s.catalog.Style(style); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStyle, style)
	}

	voice := p.Voice
	if voice == "" {
		voice = s.catalog.DefaultVoice()
	}
	if _, ok := s.catalog.Voice(voice); !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVoice, voice)
	}

	size := p.Size
	if size == "" {
		size = DefaultSize
	}
	if !isSupportedSize(size) {
		return nil, fmt.Errorf("%w: size must be one of %s", ErrInvalidRequest, strings.Join(SupportedSizes, ", "))
	}

	duration := p.Duration
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < MinDuration || duration > MaxDuration {
		return nil, fmt.Errorf("%w: duration must be between %d and %d seconds", ErrInvalidRequest, MinDuration, MaxDuration)
	}

	now := time.Now().UTC()
	return &models.Job{
		ID:               uuid.New(),
		Title:            title,
		Script:           script,
		Style:            style,
		Voice:            voice,
		Size:             size,
		Duration:         duration,
		Keywords:         cleanList(p.Keywords),
		NegativeKeywords: cleanList(p.NegativeKeywords),
		Status:           models.JobStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type runFunc func(ctx context.Context, job *models.Job) (models.Artifacts, error)

func (s *Service) dispatch(job *models.Job, run runFunc) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(job, run)
	}()
}

// execute drives one job to a terminal status. It recovers from panics and
// always marks the job as completed or failed unless another worker owns it.
func (s *Service) execute(job *models.Job, run runFunc) {
	ctx := s.runCtx
	jobID := job.ID

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in job run", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("waiting for a pipeline slot: %v", err))
		return
	}
	defer s.sem.Release(1)

	locked, err := s.cache.AcquireJobLock(ctx, jobID, s.owner, s.lockTTL)
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("acquiring run lock: %v", err))
		return
	}
	if !locked {
		slog.Warn("job already running elsewhere", "job_id", jobID)
		return
	}
	defer func() {
		if err := s.cache.ReleaseJobLock(context.WithoutCancel(ctx), jobID, s.owner); err != nil {
			slog.Warn("failed to release run lock", "job_id", jobID, "error", err)
		}
	}()

	if err := s.store.UpdateJobStatus(ctx, jobID, models.JobStatusProcessing,
		store.WithCurrentStep(pipeline.StepStarted)); err != nil {
		slog.Warn("job could not start", "job_id", jobID, "error", err)
		if !isSettled(err) {
			s.fail(ctx, jobID, fmt.Sprintf("starting job: %v", err))
		}
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusProcessing, statusTTL)

	start := time.Now()
	artifacts, err := run(ctx, job)
	if err != nil {
		s.fail(ctx, jobID, err.Error())
		return
	}
	if !artifacts.Complete() {
		s.fail(ctx, jobID, "pipeline finished without producing every artifact")
		return
	}

	wctx := context.WithoutCancel(ctx)
	if err := s.store.UpdateJobStatus(wctx, jobID, models.JobStatusCompleted,
		store.WithArtifacts(artifacts), store.WithCurrentStep(pipeline.StepCompleted)); err != nil {
		slog.Error("failed to record completed job", "job_id", jobID, "error", err)
		if !isSettled(err) {
			s.fail(wctx, jobID, fmt.Sprintf("recording completed job: %v", err))
		}
		return
	}
	_ = s.cache.SetJobStatus(wctx, jobID, models.JobStatusCompleted, statusTTL)
	slog.Info("video job completed", "job_id", jobID, "duration_ms", time.Since(start).Milliseconds())
}

func (s *Service) runPipeline(ctx context.Context, job *models.Job) (models.Artifacts, error) {
	st := s.pipeline.Run(ctx, pipeline.NewState(job))
	if st.Failed() {
		return models.Artifacts{}, st.Err
	}
	return st.Artifacts(), nil
}

// runRemix reworks the source's remote video and copies the source's images and
// narration under the new job so each job owns its artifacts.
func (s *Service) runRemix(ctx context.Context, job, src *models.Job, prompt string) (models.Artifacts, error) {
	seconds := pipeline.ClampDuration(src.Duration)
	if src.OutputDuration != nil {
		seconds = *src.OutputDuration
	}

	images := make([]string, 0, len(src.ImageRefs))
	for i, ref := range src.ImageRefs {
		copied, err := s.copyArtifact(ctx, ref, media.ImagePath(job.ID, i))
		if err != nil {
			return models.Artifacts{}, &pipeline.StageError{Stage: "Artifact copy", Err: err}
		}
		images = append(images, copied)
	}
	audio, err := s.copyArtifact(ctx, *src.AudioRef, media.AudioPath(job.ID))
	if err != nil {
		return models.Artifacts{}, &pipeline.StageError{Stage: "Artifact copy", Err: err}
	}

	res, err := s.video.Remix(ctx, *src.RemoteVideoID, prompt, job.ID, seconds)
	if err != nil {
		return models.Artifacts{}, &pipeline.StageError{Stage: "Video remix", Err: err}
	}

	return models.Artifacts{
		Prompts:        []string{prompt},
		BestPrompt:     prompt,
		ImageRefs:      images,
		AudioRef:       audio,
		VideoRef:       res.Ref,
		RemoteVideoID:  res.RemoteID,
		OutputDuration: res.Duration,
	}, nil
}

func (s *Service) copyArtifact(ctx context.Context, ref, rel string) (string, error) {
	data, err := s.artifacts.Load(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", ref, err)
	}
	return s.artifacts.Save(ctx, rel, data)
}

func (s *Service) recordStep(ctx context.Context, st *pipeline.State) {
	if err := s.store.UpdateJobStep(ctx, st.JobID, st.CurrentStep); err != nil {
		slog.Warn("failed to record job step", "job_id", st.JobID, "step", st.CurrentStep, "error", err)
	}
}

// fail records a terminal failure. It runs detached from ctx so a cancelled run
// still reaches the failed status.
func (s *Service) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	ctx = context.WithoutCancel(ctx)
	msg = truncateString(msg, maxErrorMessageBytes)
	if err := s.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
		store.WithErrorMessage(msg), store.WithCurrentStep(pipeline.StepFailed)); err != nil {
		slog.Error("failed to record failed job", "job_id", jobID, "error", err)
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusTTL)
	slog.Warn("video job failed", "job_id", jobID, "error", msg)
}

// isSettled reports whether a status write failed because the job is gone or
// already past the requested transition. Any other error leaves the job open.
func isSettled(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidTransition)
}

func statusRank(status string) int {
	switch status {
	case models.JobStatusPending:
		return 1
	case models.JobStatusProcessing:
		return 2
	case models.JobStatusCompleted, models.JobStatusFailed:
		return 3
	}
	return 0
}

func isSupportedSize(size string) bool {
	for _, s := range SupportedSizes {
		if s == size {
			return true
		}
	}
	return false
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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
