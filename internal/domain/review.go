package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ReviewArtifact is the checkpoint between prepare and submit-review: the
// pending transactions together with the taxonomy snapshot used to categorize
// them. Only one exists at a time.
type ReviewArtifact struct {
	ID           string              `json:"id"`
	PreparedAt   time.Time           `json:"preparedAt"`
	Account      string              `json:"account"`
	Categories   []CategoryGroup     `json:"categories"`
	Transactions []ParsedTransaction `json:"transactions"`
}

// Equal reports whether two artifacts hold the same data. Amounts compare
// numerically, PreparedAt compares by instant and nil slices equal empty ones.
func (a *ReviewArtifact) Equal(other *ReviewArtifact) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.ID != other.ID || a.Account != other.Account || !a.PreparedAt.Equal(other.PreparedAt) {
		return false
	}
	if !slices.Equal(a.Categories, other.Categories) {
		return false
	}
	return slices.EqualFunc(a.Transactions, other.Transactions, ParsedTransaction.Equal)
}

// MarshalReview encodes an artifact in the on-disk format: two-space indented
// JSON with a trailing newline. HTML characters are left unescaped so payees
// like "H&M" stay readable when the operator edits the file.
func MarshalReview(a *ReviewArtifact) ([]byte, error) {
	out := *a
	if out.Categories == nil {
		out.Categories = []CategoryGroup{}
	}
	if out.Transactions == nil {
		out.Transactions = []ParsedTransaction{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode review artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalReview decodes an artifact written by MarshalReview or edited by hand.
func UnmarshalReview(data []byte) (*ReviewArtifact, error) {
	var a ReviewArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: review artifact is not valid JSON: %v", ErrInput, err)
	}
	return &a, nil
}
