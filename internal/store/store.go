package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrJobInProgress     = errors.New("job is processing")
)

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
	UpdateJobStep(ctx context.Context, id uuid.UUID, step string) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
}

// JobFilter narrows ListJobs. Jobs come back newest first.
type JobFilter struct {
	Status string
	Page   int
	Limit  int
}

var validTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// JobUpdate is the set of optional column writes carried by UpdateJobStatus.
type JobUpdate struct {
	ErrorMessage *string
	CurrentStep  *string
	Artifacts    *models.Artifacts
}

type JobUpdateOption func(*JobUpdate)

// ApplyJobUpdateOptions folds opts into a JobUpdate.
func ApplyJobUpdateOptions(opts ...JobUpdateOption) JobUpdate {
	var u JobUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ErrorMessage = &msg
	}
}

func WithCurrentStep(step string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.CurrentStep = &step
	}
}

// WithArtifacts records the outputs of a pipeline run.
func WithArtifacts(a models.Artifacts) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Artifacts = &a
	}
}
