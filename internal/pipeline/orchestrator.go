package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StageFunc reads and extends the shared State. A returned error fails the run.
type StageFunc func(ctx context.Context, st *State) error

// Stage is one step of the pipeline.
type Stage struct {
	// Name prefixes the recorded fault, e.g. "Image generation".
	Name string
	// Step is the current-step marker set when the stage succeeds.
	Step string
	// BestEffort stages never fail the run: errors and panics are logged and dropped.
	BestEffort bool
	Run        StageFunc
}

// Observer is called after every stage that leaves the run healthy.
type Observer func(ctx context.Context, st *State)

// Orchestrator runs a fixed, ordered list of stages.
type Orchestrator struct {
	stages   []Stage
	observer Observer
}

// Generators are the collaborators the standard stage list calls into.
type Generators struct {
	Planner   *Planner
	Narration *NarrationExtractor
	Images    *ImageGenerator
	Audio     *AudioGenerator
	Video     *VideoGenerator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers a progress callback.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// NewOrchestrator builds the standard pipeline:
// scene prompts, primary prompt, images, narration text, narration audio, video.
func NewOrchestrator(g Generators, opts ...Option) *Orchestrator {
	stages := []Stage{
		{
			Name: "Prompt generation",
			Step: StepPromptsGenerated,
			Run: func(ctx context.Context, st *State) error {
				prompts, err := g.Planner.GeneratePrompts(ctx, st.Script, st.Style, st.Keywords, st.NegativeKeywords)
				if err != nil {
					return err
				}
				st.Prompts = prompts
				return nil
			},
		},
		{
			Name:       "Prompt selection",
			Step:       StepPromptSelected,
			BestEffort: true,
			Run: func(ctx context.Context, st *State) error {
				st.BestPrompt = g.Planner.SelectBestPrompt(ctx, st.Prompts, st.Script)
				return nil
			},
		},
		{
			Name: "Image generation",
			Step: StepImagesGenerated,
			Run: func(ctx context.Context, st *State) error {
				refs, err := g.Images.Generate(ctx, st.Prompts, st.JobID)
				if err != nil {
					return err
				}
				st.ImageRefs = refs
				return nil
			},
		},
		{
			Name:       "Narration extraction",
			Step:       StepNarrationExtracted,
			BestEffort: true,
			Run: func(ctx context.Context, st *State) error {
				st.NarrationText = g.Narration.Extract(ctx, st.Script)
				return nil
			},
		},
		{
			Name: "Audio generation",
			Step: StepAudioGenerated,
			Run: func(ctx context.Context, st *State) error {
				text := st.NarrationText
				if text == "" {
					text = st.Script
				}
				ref, err := g.Audio.Generate(ctx, text, st.Voice, st.JobID)
				if err != nil {
					return err
				}
				st.AudioRef = ref
				return nil
			},
		},
		{
			Name: "Video generation",
			Step: StepCompleted,
			Run: func(ctx context.Context, st *State) error {
				res, err := g.Video.Generate(ctx, VideoRequest{
					Prompt:          videoPrompt(st),
					Duration:        st.Duration,
					JobID:           st.JobID,
					Size:            st.Size,
					ReferenceImages: referenceImages(st.ImageRefs),
				})
				if err != nil {
					return err
				}
				st.VideoRef = res.Ref
				st.RemoteVideoID = res.RemoteID
				st.OutputDuration = res.Duration
				return nil
			},
		},
	}
	return newOrchestrator(stages, opts...)
}

func newOrchestrator(stages []Stage, opts ...Option) *Orchestrator {
	o := &Orchestrator{stages: stages}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the stages in order and returns st. It never panics and never
// returns a fault directly: the first failure is recorded in st.Err and every
// later stage is skipped. Cancellation of ctx is observed between stages.
func (o *Orchestrator) Run(ctx context.Context, st *State) *State {
	for i, stage := range o.stages {
		if i > 0 && st.Err != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			st.Err = &StageError{Stage: "Pipeline", Cancelled: true, Err: fmt.Errorf("before %s: %w", stage.Name, err)}
			st.CurrentStep = StepFailed
			break
		}

		o.runStage(ctx, stage, st)

		if st.Err != nil {
			st.CurrentStep = StepFailed
			continue
		}
		st.CurrentStep = stage.Step
		if o.observer != nil {
			o.observer(ctx, st)
		}
	}
	return st
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, st *State) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in pipeline stage", "stage", stage.Name, "job_id", st.JobID, "error", r)
			if !stage.BestEffort {
				st.Err = &StageError{Stage: stage.Name, Err: fmt.Errorf("panic: %v", r)}
			}
		}
	}()

	if err := stage.Run(ctx, st); err != nil {
		if stage.BestEffort {
			slog.Warn("best-effort stage failed", "stage", stage.Name, "job_id", st.JobID, "error", err)
			return
		}
		st.Err = &StageError{Stage: stage.Name, Err: err}
		slog.Warn("pipeline stage failed", "stage", stage.Name, "job_id", st.JobID,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}

	slog.Info("pipeline stage completed", "stage", stage.Name, "job_id", st.JobID,
		"duration_ms", time.Since(start).Milliseconds())
}

// videoPrompt prefers the selected prompt, then the first scene, then the script.
func videoPrompt(st *State) string {
	if st.BestPrompt != "" {
		return st.BestPrompt
	}
	if len(st.Prompts) > 0 {
		return st.Prompts[0]
	}
	return st.Script
}

func referenceImages(refs []string) []string {
	if len(refs) > MaxReferenceImages {
		return refs[:MaxReferenceImages]
	}
	return refs
}
