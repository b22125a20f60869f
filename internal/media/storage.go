// Package media persists generated artifacts and renders local stand-ins for them.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// ImagePath is the storage path of the index-th (0-based) scene image of a job.
func ImagePath(jobID uuid.UUID, index int) string {
	return fmt.Sprintf("images/%s/image_%03d.png", jobID, index)
}

// AudioPath is the storage path of a job's narration track.
func AudioPath(jobID uuid.UUID) string {
	return fmt.Sprintf("audio/%s/narration.mp3", jobID)
}

// VideoPath is the storage path of a job's rendered video.
func VideoPath(jobID uuid.UUID) string {
	return fmt.Sprintf("videos/%s.mp4", jobID)
}

// LocalStore keeps artifacts under a root directory and hands out references of the
// form <baseURL>/<relative path>. References are opaque to everything but the store.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory artifacts are written under.
func (s *LocalStore) Root() string { return s.root }

// Save writes data at rel and returns its reference. The file is written to a
// temporary name first so readers never observe a partial artifact.
func (s *LocalStore) Save(ctx context.Context, rel string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("commit artifact: %w", err)
	}

	return s.baseURL + path.Clean("/"+rel), nil
}

// Load reads the artifact behind a reference returned by Save.
func (s *LocalStore) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok {
		return nil, fmt.Errorf("%w: foreign reference %q", ErrArtifactNotFound, ref)
	}
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// DeleteJob removes every artifact written for a job. Missing files are not an error.
func (s *LocalStore) DeleteJob(_ context.Context, jobID uuid.UUID) error {
	targets := []string{
		filepath.Join(s.root, "images", jobID.String()),
		filepath.Join(s.root, "audio", jobID.String()),
		filepath.Join(s.root, filepath.FromSlash(VideoPath(jobID))),
	}
	var errs []error
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete artifacts for %s: %w", jobID, errors.Join(errs...))
	}
	return nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("empty artifact path")
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path %q escapes the store", rel)
	}
	return full, nil
}
