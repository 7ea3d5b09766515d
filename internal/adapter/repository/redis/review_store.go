package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/zensubmit/internal/domain"
)

// DefaultReviewKey is the key holding the review artifact.
const DefaultReviewKey = "zensubmit:review"

// ReviewStore implements usecase.ReviewStore using a single Redis key.
// SET replaces the value atomically, so readers never see a partial artifact.
type ReviewStore struct {
	client *redis.Client
	key    string
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(client *redis.Client, key string) *ReviewStore {
	if key == "" {
		key = DefaultReviewKey
	}
	return &ReviewStore{
		client: client,
		key:    key,
	}
}

// Save replaces the stored artifact. It never expires.
func (s *ReviewStore) Save(ctx context.Context, artifact *domain.ReviewArtifact) error {
	data, err := domain.MarshalReview(artifact)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store review artifact: %w", err)
	}
	return nil
}

// Load returns domain.ErrReviewNotFound when the key is absent.
func (s *ReviewStore) Load(ctx context.Context) (*domain.ReviewArtifact, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w at %s", domain.ErrReviewNotFound, s.Location())
	}
	if err != nil {
		return nil, fmt.Errorf("load review artifact: %w", err)
	}
	return domain.UnmarshalReview(data)
}

// Exists reports whether the key is set.
func (s *ReviewStore) Exists(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("check review artifact: %w", err)
	}
	return n > 0, nil
}

// Location names the key, for operator messages.
func (s *ReviewStore) Location() string {
	return "redis key " + s.key
}
