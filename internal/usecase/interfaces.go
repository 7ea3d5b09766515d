package usecase

import (
	"context"
	"encoding/json"

	"github.com/iho/zensubmit/internal/domain"
)

// LedgerGateway is the remote ledger. Every call authenticates with the
// operator's session credential.
type LedgerGateway interface {
	FetchAccounts(ctx context.Context, credential string) (map[string]domain.Account, error)
	FetchCategories(ctx context.Context, credential string) (map[string]domain.Category, error)
	// FetchCategoryGroups returns the taxonomy sorted by label.
	FetchCategoryGroups(ctx context.Context, credential string) ([]domain.CategoryGroup, error)
	// SubmitTransactions sends the whole batch in one request and returns the
	// ledger's response body untouched.
	SubmitTransactions(ctx context.Context, credential string, txs []domain.WireTransaction) (json.RawMessage, error)
}

// ReviewStore holds the single pending review artifact.
type ReviewStore interface {
	// Save replaces the stored artifact. A concurrent Load sees either the old
	// or the new artifact, never a partial one.
	Save(ctx context.Context, artifact *domain.ReviewArtifact) error
	// Load returns domain.ErrReviewNotFound when nothing has been saved.
	Load(ctx context.Context) (*domain.ReviewArtifact, error)
	Exists(ctx context.Context) (bool, error)
	// Location describes where the artifact lives, for operator messages.
	Location() string
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
