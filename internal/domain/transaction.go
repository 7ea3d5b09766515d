package domain

import "slices"

// ParsedTransaction is one financial event as extracted from a bank screenshot.
// Direction is carried by IsIncome only; Amount is always a magnitude.
type ParsedTransaction struct {
	Date        string  `json:"date"` // DD.MM.YYYY
	Amount      Amount  `json:"amount"`
	Payee       string  `json:"payee"`
	Comment     string  `json:"comment"`
	IsIncome    bool    `json:"isIncome"`
	CategoryID  int64   `json:"categoryId"` // 0 = uncategorized
	CategoryIDs []int64 `json:"categoryIds,omitempty"`

	// CategoryName is for the operator reading the review file. It never reaches the ledger.
	CategoryName string `json:"categoryName,omitempty"`
}

// CategoryGroupIDs returns the category groups the producer assigned.
// CategoryIDs wins over CategoryID when it holds any nonzero id. The result is never nil.
func (t ParsedTransaction) CategoryGroupIDs() []int64 {
	ids := make([]int64, 0, len(t.CategoryIDs))
	for _, id := range t.CategoryIDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	if t.CategoryID != 0 {
		return append(ids, t.CategoryID)
	}
	return ids
}

// Equal reports whether two transactions carry the same data.
// A nil and an empty CategoryIDs are equal.
func (t ParsedTransaction) Equal(other ParsedTransaction) bool {
	return t.Date == other.Date &&
		t.Amount.Equal(other.Amount) &&
		t.Payee == other.Payee &&
		t.Comment == other.Comment &&
		t.IsIncome == other.IsIncome &&
		t.CategoryID == other.CategoryID &&
		slices.Equal(t.CategoryIDs, other.CategoryIDs) &&
		t.CategoryName == other.CategoryName
}

// WireTransaction is the payload shape of the ledger's transaction endpoint.
// Income and Outcome are never both nonzero, and both account legs are the same
// account: every posting is single-account, never a transfer.
type WireTransaction struct {
	TagGroups      []int64 `json:"tag_groups"`
	Income         Amount  `json:"income"`
	Outcome        Amount  `json:"outcome"`
	Date           string  `json:"date"`
	Comment        string  `json:"comment"`
	Payee          string  `json:"payee"`
	AccountIncome  string  `json:"account_income"`
	AccountOutcome string  `json:"account_outcome"`
}
