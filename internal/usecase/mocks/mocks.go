package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/iho/zensubmit/internal/domain"
)

// MemoryReviewStore is an in-memory usecase.ReviewStore. It stores encoded
// bytes so tests observe the same round trip as the real backends.
type MemoryReviewStore struct {
	mu   sync.RWMutex
	data []byte

	SaveCount int
	SaveFunc  func(ctx context.Context, artifact *domain.ReviewArtifact) error
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{}
}

func (m *MemoryReviewStore) Save(ctx context.Context, artifact *domain.ReviewArtifact) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, artifact)
	}
	data, err := domain.MarshalReview(artifact)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.SaveCount++
	return nil
}

func (m *MemoryReviewStore) Load(ctx context.Context) (*domain.ReviewArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, domain.ErrReviewNotFound
	}
	return domain.UnmarshalReview(m.data)
}

func (m *MemoryReviewStore) Exists(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data != nil, nil
}

func (m *MemoryReviewStore) Location() string {
	return "memory"
}

// Raw returns the stored bytes, nil when nothing was saved.
func (m *MemoryReviewStore) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// SequenceIDGenerator returns "id-1", "id-2", ... in order.
type SequenceIDGenerator struct {
	mu sync.Mutex
	n  int
}

func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "id-" + strconv.Itoa(g.n)
}
