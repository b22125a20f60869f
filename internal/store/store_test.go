package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/visionpulse/internal/store"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("visionpulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	// A second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newJob(createdAt time.Time) *models.Job {
	return &models.Job{
		ID:               uuid.New(),
		Title:            "Dawn",
		Script:           "A lighthouse at dawn",
		Style:            "cinematic",
		Voice:            "alloy",
		Size:             "1280x720",
		Duration:         8,
		Keywords:         []string{"sea", "light"},
		NegativeKeywords: nil,
		Status:           models.JobStatusPending,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

// --- CanTransition ---

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{"pending", "processing", true},
		{"pending", "failed", true},
		{"pending", "completed", false},
		{"processing", "completed", true},
		{"processing", "failed", true},
		{"processing", "pending", false},
		{"completed", "failed", false},
		{"failed", "processing", false},
		{"completed", "processing", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

// --- Jobs ---

func TestJob_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := newJob(now)
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, "Dawn", got.Title)
	assert.Equal(t, "A lighthouse at dawn", got.Script)
	assert.Equal(t, []string{"sea", "light"}, got.Keywords)
	assert.Empty(t, got.NegativeKeywords)
	assert.Empty(t, got.Prompts)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.VideoRef)
	assert.Nil(t, got.RemixOf)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestJob_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_CreateRemix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	src := newJob(now)
	require.NoError(t, s.CreateJob(ctx, src))

	remix := newJob(now.Add(time.Second))
	remix.RemixOf = &src.ID
	require.NoError(t, s.CreateJob(ctx, remix))

	got, err := s.GetJob(ctx, remix.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RemixOf)
	assert.Equal(t, src.ID, *got.RemixOf)
}

func TestJob_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.CreateJob(ctx, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestJob_UpdateStatusPendingToProcessing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing, store.WithCurrentStep("started"))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	assert.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, "started", *got.CurrentStep)
}

func TestJob_CompleteWithArtifacts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing))

	artifacts := models.Artifacts{
		Prompts:        []string{"p1", "p2", "p3", "p4", "p5"},
		BestPrompt:     "p2",
		ImageRefs:      []string{"/artifacts/a.png", "/artifacts/b.png"},
		AudioRef:       "/artifacts/narration.mp3",
		VideoRef:       "/artifacts/video.mp4",
		RemoteVideoID:  "video_abc",
		OutputDuration: 8,
	}
	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted,
		store.WithArtifacts(artifacts), store.WithCurrentStep("completed"))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, artifacts.Prompts, got.Prompts)
	assert.Equal(t, artifacts.ImageRefs, got.ImageRefs)
	require.NotNil(t, got.BestPrompt)
	assert.Equal(t, "p2", *got.BestPrompt)
	require.NotNil(t, got.VideoRef)
	assert.Equal(t, "/artifacts/video.mp4", *got.VideoRef)
	require.NotNil(t, got.RemoteVideoID)
	assert.Equal(t, "video_abc", *got.RemoteVideoID)
	require.NotNil(t, got.OutputDuration)
	assert.Equal(t, 8, *got.OutputDuration)
	assert.Nil(t, got.ErrorMessage)
}

func TestJob_UpdateStatusProcessingToFailed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
		store.WithErrorMessage("Image generation failed: quota exceeded"))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "Image generation failed: quota exceeded", *got.ErrorMessage)
	assert.Nil(t, got.VideoRef)
}

func TestJob_UpdateStatusPendingToFailed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed, store.WithErrorMessage("shutdown")))
}

func TestJob_UpdateStatusInvalidTransition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted) // pending -> completed is invalid
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted))

	// Terminal states are final.
	err = s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestJob_UpdateStatusNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.UpdateJobStatus(context.Background(), uuid.New(), models.JobStatusProcessing)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_UpdateStep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))

	// Only processing jobs record steps.
	assert.ErrorIs(t, s.UpdateJobStep(ctx, job.ID, "prompts_generated"), store.ErrNotFound)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing))
	require.NoError(t, s.UpdateJobStep(ctx, job.ID, "images_generated"))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, "images_generated", *got.CurrentStep)
}

func TestJob_ListNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		job := newJob(base.Add(time.Duration(i) * time.Minute))
		require.NoError(t, s.CreateJob(ctx, job))
		ids = append(ids, job.ID)
	}

	jobs, total, err := s.ListJobs(ctx, store.JobFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, jobs, 2)
	assert.Equal(t, ids[4], jobs[0].ID)
	assert.Equal(t, ids[3], jobs[1].ID)

	jobs, _, err = s.ListJobs(ctx, store.JobFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, ids[0], jobs[0].ID)
}

func TestJob_ListFilterByStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	a := newJob(time.Now().UTC())
	b := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, a))
	require.NoError(t, s.CreateJob(ctx, b))
	require.NoError(t, s.UpdateJobStatus(ctx, b.ID, models.JobStatusProcessing))

	jobs, total, err := s.ListJobs(ctx, store.JobFilter{Status: models.JobStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, b.ID, jobs[0].ID)
}

func TestJob_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := newJob(time.Now().UTC())
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing))

	assert.ErrorIs(t, s.DeleteJob(ctx, job.ID), store.ErrJobInProgress)

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed))
	require.NoError(t, s.DeleteJob(ctx, job.ID))

	_, err := s.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteJob(ctx, job.ID), store.ErrNotFound)
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	assert.NoError(t, s.Ping(context.Background()))
}
