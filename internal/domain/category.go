package domain

// CategoryGroupType says on which side of the ledger a category group is offered.
type CategoryGroupType string

const (
	CategoryGroupExpense CategoryGroupType = "expense"
	CategoryGroupIncome  CategoryGroupType = "income"
	CategoryGroupHidden  CategoryGroupType = "hidden"
)

// CategoryGroup is one entry of the ledger's category taxonomy.
// Label is the hierarchical path, e.g. "Groceries / Supermarket".
type CategoryGroup struct {
	ID    int64             `json:"id"`
	Label string            `json:"label"`
	Type  CategoryGroupType `json:"type"`
}

// Account is a ledger account as reported by the ledger.
type Account struct {
	ID         string
	Title      string
	Type       string
	Balance    Amount
	CurrencyID int64
}

// Category is a flat ledger category. ParentID is nil for top-level categories.
type Category struct {
	ID       string
	Title    string
	ParentID *int64
	Type     string
}
