// Package pipeline turns a script into a narrated video by running a fixed sequence
// of generation stages over a shared per-job State.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

// Current-step markers recorded on State after each stage.
const (
	StepStarted            = "started"
	StepPromptsGenerated   = "prompts_generated"
	StepPromptSelected     = "prompt_selected"
	StepImagesGenerated    = "images_generated"
	StepNarrationExtracted = "narration_extracted"
	StepAudioGenerated     = "audio_generated"
	StepCompleted          = "completed"
	StepFailed             = "failed"
)

// State is the working record of one pipeline run. Stages only add to it; no
// stage clears a field written by an earlier one. A State is owned by a single
// run and must not be shared.
type State struct {
	JobID            uuid.UUID
	Script           string
	Style            string
	Voice            string
	Size             string
	Duration         int
	Keywords         []string
	NegativeKeywords []string

	Prompts        []string
	BestPrompt     string
	ImageRefs      []string
	NarrationText  string
	AudioRef       string
	VideoRef       string
	RemoteVideoID  string
	OutputDuration int

	// Err is the first fault recorded by a stage. Once set, remaining stages are skipped.
	Err         error
	CurrentStep string
}

// NewState seeds a State from a job's inputs.
func NewState(job *models.Job) *State {
	return &State{
		JobID:            job.ID,
		Script:           job.Script,
		Style:            job.Style,
		Voice:            job.Voice,
		Size:             job.Size,
		Duration:         job.Duration,
		Keywords:         append([]string(nil), job.Keywords...),
		NegativeKeywords: append([]string(nil), job.NegativeKeywords...),
		CurrentStep:      StepStarted,
	}
}

// Failed reports whether a stage recorded a fault.
func (s *State) Failed() bool { return s.Err != nil }

// ErrorMessage returns the recorded fault as text, or "" when the run has not failed.
func (s *State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Artifacts collects the outputs of the run.
func (s *State) Artifacts() models.Artifacts {
	return models.Artifacts{
		Prompts:        s.Prompts,
		BestPrompt:     s.BestPrompt,
		ImageRefs:      s.ImageRefs,
		AudioRef:       s.AudioRef,
		VideoRef:       s.VideoRef,
		RemoteVideoID:  s.RemoteVideoID,
		OutputDuration: s.OutputDuration,
	}
}

// ArtifactStore persists generated media and resolves the references it hands out.
type ArtifactStore interface {
	Save(ctx context.Context, rel string, data []byte) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
}
