package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kiranshivaraju/visionpulse/internal/ai/mock"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
)

// --- in-memory artifact store ---

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Save(_ context.Context, rel string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "mem://" + rel
	m.objects[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *memStore) Load(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[ref]
	if !ok {
		return nil, fmt.Errorf("no object %s", ref)
	}
	return data, nil
}

func (m *memStore) get(ref string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[ref]
}

// newTestPipeline wires the standard stages to fakes with a fast poll loop.
func newTestPipeline(p *mock.Provider, store *memStore, opts ...Option) *Orchestrator {
	catalog := presets.Default()
	return NewOrchestrator(Generators{
		Planner:   NewPlanner(p.Text, catalog),
		Narration: NewNarrationExtractor(p.Text),
		Images:    NewImageGenerator(p.Image, store, "1024x1024"),
		Audio:     NewAudioGenerator(p.Speech, store, catalog),
		Video:     NewVideoGenerator(p.Video, store, time.Millisecond, 200*time.Millisecond),
	}, opts...)
}
