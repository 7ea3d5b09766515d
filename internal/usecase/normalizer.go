package usecase

import (
	"slices"
	"strings"

	"github.com/iho/zensubmit/internal/domain"
)

// Normalizer turns parsed transactions into the ledger's wire schema.
// It does no I/O and the same input always yields the same output.
type Normalizer struct {
	hints domain.CategoryHints
	keys  []string
}

// NewNormalizer creates a Normalizer that applies the given category hints.
// A nil hint set disables overrides.
func NewNormalizer(hints domain.CategoryHints) *Normalizer {
	return &Normalizer{
		hints: hints,
		keys:  hints.Keys(),
	}
}

// Normalize maps one transaction onto accountID. Both account legs get the
// same id because every posting here is single-account.
func (n *Normalizer) Normalize(tx domain.ParsedTransaction, accountID string) domain.WireTransaction {
	wire := domain.WireTransaction{
		TagGroups:      n.tagGroups(tx),
		Date:           tx.Date,
		Comment:        tx.Comment,
		Payee:          tx.Payee,
		AccountIncome:  accountID,
		AccountOutcome: accountID,
	}

	if tx.IsIncome {
		wire.Income = tx.Amount
	} else {
		wire.Outcome = tx.Amount
	}

	return wire
}

// NormalizeAll maps a batch, preserving order. The result is never nil.
func (n *Normalizer) NormalizeAll(txs []domain.ParsedTransaction, accountID string) []domain.WireTransaction {
	out := make([]domain.WireTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, n.Normalize(tx, accountID))
	}
	return out
}

// HintOverride is a transaction whose own categories a hint replaces.
type HintOverride struct {
	Index int
	Payee string
	Hint  string
	From  []int64
	To    int64
}

// Overrides reports the transactions of a batch that carry categories of
// their own which Normalize replaces with a different hinted group.
func (n *Normalizer) Overrides(txs []domain.ParsedTransaction) []HintOverride {
	var out []HintOverride
	for i, tx := range txs {
		key, ok := n.match(tx.Payee)
		if !ok {
			continue
		}
		to := n.hints[key]
		from := tx.CategoryGroupIDs()
		if len(from) == 0 || slices.Equal(from, []int64{to}) {
			continue
		}
		out = append(out, HintOverride{Index: i, Payee: tx.Payee, Hint: key, From: from, To: to})
	}
	return out
}

// tagGroups applies the first matching hint, in CategoryHints.Keys order,
// before falling back to the producer's categories.
func (n *Normalizer) tagGroups(tx domain.ParsedTransaction) []int64 {
	if key, ok := n.match(tx.Payee); ok {
		return []int64{n.hints[key]}
	}
	return tx.CategoryGroupIDs()
}

func (n *Normalizer) match(payee string) (string, bool) {
	for _, k := range n.keys {
		if strings.Contains(payee, k) {
			return k, true
		}
	}
	return "", false
}
