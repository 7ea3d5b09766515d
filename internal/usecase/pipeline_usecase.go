package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/zensubmit/internal/domain"
)

// PipelineUseCase runs the prepare / submit-review / direct submit flows.
//
// prepare freezes the ledger's category taxonomy and the parsed transactions
// into a review artifact the operator can edit. submit-review sends that
// artifact. Nothing reaches the ledger's write endpoint without either the
// artifact or an explicit direct submit.
type PipelineUseCase struct {
	gateway    LedgerGateway
	store      ReviewStore
	normalizer *Normalizer
	idGen      IDGenerator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPipelineUseCase creates a new PipelineUseCase.
func NewPipelineUseCase(
	gateway LedgerGateway,
	store ReviewStore,
	normalizer *Normalizer,
	idGen IDGenerator,
	logger zerolog.Logger,
) *PipelineUseCase {
	return &PipelineUseCase{
		gateway:    gateway,
		store:      store,
		normalizer: normalizer,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

// ListAccounts returns the ledger's accounts sorted by title.
func (uc *PipelineUseCase) ListAccounts(ctx context.Context, credential string) ([]domain.Account, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}

	byID, err := uc.gateway.FetchAccounts(ctx, credential)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(byID))
	for _, acc := range byID {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Title != accounts[j].Title {
			return accounts[i].Title < accounts[j].Title
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

// ListCategories returns the ledger's flat categories sorted by title.
func (uc *PipelineUseCase) ListCategories(ctx context.Context, credential string) ([]domain.Category, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}

	byID, err := uc.gateway.FetchCategories(ctx, credential)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(byID))
	for _, cat := range byID {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Title != categories[j].Title {
			return categories[i].Title < categories[j].Title
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

// ListCategoryGroups returns the taxonomy snapshot prepare would store.
func (uc *PipelineUseCase) ListCategoryGroups(ctx context.Context, credential string) ([]domain.CategoryGroup, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}
	return uc.gateway.FetchCategoryGroups(ctx, credential)
}

// PrepareInput represents input for preparing a review artifact.
type PrepareInput struct {
	Credential string
	AccountID  string
	Input      io.Reader
}

// PrepareResult describes the artifact written by Prepare.
type PrepareResult struct {
	Artifact *domain.ReviewArtifact
	Location string
}

// Prepare validates the input, snapshots the category taxonomy and replaces
// the stored review artifact. Input errors are reported before any ledger call.
func (uc *PipelineUseCase) Prepare(ctx context.Context, input PrepareInput) (*PrepareResult, error) {
	if err := requireCredential(input.Credential); err != nil {
		return nil, err
	}
	if input.AccountID == "" {
		return nil, fmt.Errorf("%w: --account is required for --prepare", domain.ErrUsage)
	}

	txs, err := readTransactions(input.Input)
	if err != nil {
		return nil, err
	}

	groups, err := uc.gateway.FetchCategoryGroups(ctx, input.Credential)
	if err != nil {
		return nil, err
	}

	artifact := &domain.ReviewArtifact{
		ID:           uc.idGen.Generate(),
		PreparedAt:   uc.now().UTC().Truncate(time.Second),
		Account:      input.AccountID,
		Categories:   groups,
		Transactions: txs,
	}

	if err := uc.store.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("save review artifact: %w", err)
	}

	uc.logger.Info().
		Str("run_id", artifact.ID).
		Str("account", artifact.Account).
		Int("transactions", len(artifact.Transactions)).
		Int("categories", len(artifact.Categories)).
		Str("location", uc.store.Location()).
		Msg("review artifact prepared")

	return &PrepareResult{Artifact: artifact, Location: uc.store.Location()}, nil
}

// SubmitResult describes a submitted (or, for a dry run, would-be) batch.
type SubmitResult struct {
	RunID        string
	Transactions []domain.WireTransaction
	Response     json.RawMessage
	DryRun       bool
}

// SubmitReview sends the stored review artifact as one batch. The artifact is
// left in place afterwards; the next Prepare overwrites it.
//
// The ledger is not known to deduplicate, so re-running after a failed
// submission may post transactions the ledger already accepted.
func (uc *PipelineUseCase) SubmitReview(ctx context.Context, credential string) (*SubmitResult, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}

	exists, err := uc.store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check review artifact: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w at %s: run --prepare first to generate it", domain.ErrReviewNotFound, uc.store.Location())
	}

	artifact, err := uc.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return nil, fmt.Errorf("%w: run --prepare first to generate it", err)
		}
		return nil, err
	}

	if artifact.Account == "" {
		return nil, fmt.Errorf("%w: review artifact at %s has no account", domain.ErrInput, uc.store.Location())
	}
	if err := domain.ValidateTransactions(artifact.Transactions); err != nil {
		return nil, fmt.Errorf("review artifact at %s: %w", uc.store.Location(), err)
	}

	uc.logOverrides(artifact.ID, artifact.Transactions)
	wire := uc.normalizer.NormalizeAll(artifact.Transactions, artifact.Account)
	return uc.send(ctx, credential, artifact.ID, wire)
}

// SubmitInput represents input for a direct submit without review.
type SubmitInput struct {
	Credential string
	AccountID  string
	Input      io.Reader
	DryRun     bool
}

// Submit normalizes transactions straight from the input and sends them.
// With DryRun set it does everything except the ledger call and returns the
// payload it would have sent.
func (uc *PipelineUseCase) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if !input.DryRun {
		if err := requireCredential(input.Credential); err != nil {
			return nil, err
		}
	}
	if input.AccountID == "" {
		return nil, fmt.Errorf("%w: --account is required for submitting transactions", domain.ErrUsage)
	}

	txs, err := readTransactions(input.Input)
	if err != nil {
		return nil, err
	}

	runID := uc.idGen.Generate()
	uc.logOverrides(runID, txs)
	wire := uc.normalizer.NormalizeAll(txs, input.AccountID)

	if input.DryRun {
		uc.logger.Info().
			Str("run_id", runID).
			Int("transactions", len(wire)).
			Msg("dry run, skipping submission")
		return &SubmitResult{RunID: runID, Transactions: wire, DryRun: true}, nil
	}

	return uc.send(ctx, input.Credential, runID, wire)
}

func (uc *PipelineUseCase) send(ctx context.Context, credential, runID string, wire []domain.WireTransaction) (*SubmitResult, error) {
	log := uc.logger.With().Str("run_id", runID).Int("transactions", len(wire)).Logger()

	if len(wire) == 0 {
		log.Warn().Msg("nothing to submit")
		return &SubmitResult{RunID: runID, Transactions: wire}, nil
	}

	log.Info().Msg("submitting transactions")
	resp, err := uc.gateway.SubmitTransactions(ctx, credential, wire)
	if err != nil {
		log.Error().Err(err).Msg("submission failed")
		return nil, err
	}
	log.Info().Msg("transactions submitted")

	return &SubmitResult{RunID: runID, Transactions: wire, Response: resp}, nil
}

// logOverrides records every category a hint replaces, so a hand edit that a
// hint wins over is visible in the run's log.
func (uc *PipelineUseCase) logOverrides(runID string, txs []domain.ParsedTransaction) {
	for _, o := range uc.normalizer.Overrides(txs) {
		uc.logger.Warn().
			Str("run_id", runID).
			Int("index", o.Index).
			Str("payee", o.Payee).
			Str("hint", o.Hint).
			Ints64("from", o.From).
			Int64("to", o.To).
			Msg("category hint overrides transaction category")
	}
}

func requireCredential(credential string) error {
	if credential == "" {
		return fmt.Errorf("%w: --cookie is required", domain.ErrUsage)
	}
	return nil
}

func readTransactions(r io.Reader) ([]domain.ParsedTransaction, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no JSON input on stdin", domain.ErrInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read stdin: %v", domain.ErrInput, err)
	}
	return domain.ParseTransactions(data)
}
