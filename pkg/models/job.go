package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job is one requested video. The API returns it on POST /api/v1/videos with
// status pending; the client polls GET /api/v1/videos/{id} until the status is
// completed or failed.
type Job struct {
	ID               uuid.UUID `db:"id"                json:"id"`
	Title            string    `db:"title"             json:"title"`
	Script           string    `db:"script"            json:"script"`
	Style            string    `db:"style"             json:"style"`
	Voice            string    `db:"voice"             json:"voice"`
	Size             string    `db:"size"              json:"size"`
	Duration         int       `db:"duration"          json:"duration"`
	Keywords         []string  `db:"keywords"          json:"keywords"`
	NegativeKeywords []string  `db:"negative_keywords" json:"negative_keywords"`
	// RemixOf is the completed job this one reworks, if any.
	RemixOf *uuid.UUID `db:"remix_of" json:"remix_of,omitempty"`

	Prompts        []string `db:"prompts"         json:"prompts,omitempty"`
	BestPrompt     *string  `db:"best_prompt"     json:"best_prompt,omitempty"`
	ImageRefs      []string `db:"image_refs"      json:"image_refs,omitempty"`
	AudioRef       *string  `db:"audio_ref"       json:"audio_ref,omitempty"`
	VideoRef       *string  `db:"video_ref"       json:"video_ref,omitempty"`
	RemoteVideoID  *string  `db:"remote_video_id" json:"remote_video_id,omitempty"`
	OutputDuration *int     `db:"output_duration" json:"output_duration,omitempty"`

	Status       string     `db:"status"        json:"status"`
	CurrentStep  *string    `db:"current_step"  json:"current_step,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// IsTerminal reports whether the job has reached completed or failed.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Artifacts is the output of a successful pipeline run, written back onto a Job
// when it completes.
type Artifacts struct {
	Prompts        []string
	BestPrompt     string
	ImageRefs      []string
	AudioRef       string
	VideoRef       string
	RemoteVideoID  string
	OutputDuration int
}

// Complete reports whether every artifact a completed job must carry is present.
func (a Artifacts) Complete() bool {
	return len(a.Prompts) > 0 &&
		len(a.ImageRefs) > 0 &&
		a.AudioRef != "" &&
		a.VideoRef != "" &&
		a.OutputDuration > 0
}
