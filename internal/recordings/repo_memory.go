package recordings

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used for tests and local runs without a
// database.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Recording
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Recording)}
}

func (m *MemoryRepo) Create(_ context.Context, rec Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}
	rec.UpdatedAt = rec.UploadedAt
	m.items[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *MemoryRepo) GetByID(_ context.Context, id string) (Recording, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.items[id]
	if !ok {
		return Recording{}, ErrNotFound
	}
	return rec, nil
}

// List returns recordings newest-first.
func (m *MemoryRepo) List(_ context.Context, limit, offset int) ([]Recording, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Recording, 0, limit)
	for i := len(m.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[m.order[i]])
	}
	return out, nil
}

func (m *MemoryRepo) MarkProcessing(_ context.Context, id string) error {
	return m.update(id, func(rec *Recording) {
		rec.Status = StatusProcessing
		rec.ErrorMessage = nil
	})
}

func (m *MemoryRepo) SetTranscription(_ context.Context, id string, doc map[string]any) error {
	return m.update(id, func(rec *Recording) { rec.Transcription = doc })
}

func (m *MemoryRepo) SetProsody(_ context.Context, id string, doc map[string]any) error {
	return m.update(id, func(rec *Recording) { rec.Prosody = doc })
}

func (m *MemoryRepo) SetFeedback(_ context.Context, id string, doc map[string]any) error {
	return m.update(id, func(rec *Recording) { rec.Feedback = doc })
}

func (m *MemoryRepo) MarkCompleted(_ context.Context, id string, analyzedAt time.Time) error {
	return m.update(id, func(rec *Recording) {
		rec.Status = StatusCompleted
		at := analyzedAt
		rec.AnalyzedAt = &at
	})
}

func (m *MemoryRepo) MarkError(_ context.Context, id string, message string) error {
	return m.update(id, func(rec *Recording) {
		rec.Status = StatusError
		msg := message
		rec.ErrorMessage = &msg
	})
}

func (m *MemoryRepo) update(id string, fn func(*Recording)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	fn(&rec)
	rec.UpdatedAt = time.Now().UTC()
	m.items[id] = rec
	return nil
}
