package usecase_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/zensubmit/internal/domain"
	"github.com/iho/zensubmit/internal/usecase"
)

func lidlTransaction() domain.ParsedTransaction {
	return domain.ParsedTransaction{
		Date:     "01.01.2024",
		Amount:   domain.MustAmount("12.5"),
		Payee:    "Lidl",
		Comment:  "",
		IsIncome: false,
	}
}

func TestNormalizer_Direction(t *testing.T) {
	n := usecase.NewNormalizer(nil)

	amounts := []string{"0", "0.01", "12.5", "1000000"}
	for _, amount := range amounts {
		for _, isIncome := range []bool{true, false} {
			tx := domain.ParsedTransaction{Amount: domain.MustAmount(amount), IsIncome: isIncome}
			wire := n.Normalize(tx, "acc")

			if isIncome {
				assert.True(t, wire.Income.Equal(tx.Amount), "income for %s", amount)
				assert.True(t, wire.Outcome.IsZero(), "outcome for %s", amount)
			} else {
				assert.True(t, wire.Outcome.Equal(tx.Amount), "outcome for %s", amount)
				assert.True(t, wire.Income.IsZero(), "income for %s", amount)
			}
			assert.False(t, !wire.Income.IsZero() && !wire.Outcome.IsZero(), "income and outcome both nonzero")
		}
	}
}

func TestNormalizer_AccountLegsAndFields(t *testing.T) {
	tx := domain.ParsedTransaction{
		Date:         "15.03.2024",
		Amount:       domain.MustAmount("3.99"),
		Payee:        "Café Ü",
		Comment:      "coffee",
		CategoryIDs:  []int64{10, 20},
		CategoryName: "Eating out",
	}

	wire := usecase.NewNormalizer(nil).Normalize(tx, "11025256")

	assert.Equal(t, "11025256", wire.AccountIncome)
	assert.Equal(t, "11025256", wire.AccountOutcome)
	assert.Equal(t, "15.03.2024", wire.Date)
	assert.Equal(t, "Café Ü", wire.Payee)
	assert.Equal(t, "coffee", wire.Comment)
	assert.Equal(t, []int64{10, 20}, wire.TagGroups)

	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Eating out")
	assert.NotContains(t, string(data), "categoryName")
}

func TestNormalizer_UncategorizedWireShape(t *testing.T) {
	wire := usecase.NewNormalizer(nil).Normalize(lidlTransaction(), "42")

	data, err := json.Marshal(wire)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"tag_groups": [],
		"income": 0,
		"outcome": 12.5,
		"date": "01.01.2024",
		"comment": "",
		"payee": "Lidl",
		"account_income": "42",
		"account_outcome": "42"
	}`, string(data))
}

func TestNormalizer_CategoryHintOverridesEmptyCategory(t *testing.T) {
	plain := usecase.NewNormalizer(nil).Normalize(lidlTransaction(), "42")
	hinted := usecase.NewNormalizer(domain.CategoryHints{"Lidl": 650871}).Normalize(lidlTransaction(), "42")

	assert.Equal(t, []int64{650871}, hinted.TagGroups)

	plain.TagGroups = hinted.TagGroups
	plainJSON, err := json.Marshal(plain)
	require.NoError(t, err)
	hintedJSON, err := json.Marshal(hinted)
	require.NoError(t, err)
	assert.JSONEq(t, string(plainJSON), string(hintedJSON), "hint must not alter other fields")
}

func TestNormalizer_CategoryHintOverridesAssignedCategory(t *testing.T) {
	tx := lidlTransaction()
	tx.CategoryID = 99

	wire := usecase.NewNormalizer(domain.CategoryHints{"Lid": 650871}).Normalize(tx, "42")
	assert.Equal(t, []int64{650871}, wire.TagGroups)
}

func TestNormalizer_CategoryHintIsCaseSensitive(t *testing.T) {
	tx := lidlTransaction()
	tx.CategoryID = 99

	wire := usecase.NewNormalizer(domain.CategoryHints{"LIDL": 650871}).Normalize(tx, "42")
	assert.Equal(t, []int64{99}, wire.TagGroups)
}

func TestNormalizer_CategoryHintFirstMatchIsDeterministic(t *testing.T) {
	hints := domain.CategoryHints{
		"Lidl":      1,
		"Lidl Shop": 2,
		"Shop":      3,
	}
	tx := lidlTransaction()
	tx.Payee = "Lidl Shop 123"

	for i := 0; i < 50; i++ {
		wire := usecase.NewNormalizer(hints).Normalize(tx, "42")
		require.Equal(t, []int64{2}, wire.TagGroups, "longest matching key wins")
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := usecase.NewNormalizer(domain.CategoryHints{"Lidl": 650871})
	txs := []domain.ParsedTransaction{lidlTransaction(), {Date: "02.01.2024", Amount: domain.MustAmount("5"), IsIncome: true}}

	first, err := json.Marshal(n.NormalizeAll(txs, "42"))
	require.NoError(t, err)
	second, err := json.Marshal(n.NormalizeAll(txs, "42"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestNormalizer_NormalizeAllEmpty(t *testing.T) {
	wire := usecase.NewNormalizer(nil).NormalizeAll(nil, "42")
	require.NotNil(t, wire)

	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestNormalizer_Overrides(t *testing.T) {
	n := usecase.NewNormalizer(domain.CategoryHints{"Lidl": 650871})

	txs := []domain.ParsedTransaction{
		{Payee: "Lidl Berlin", CategoryID: 5},       // replaced
		{Payee: "Lidl", CategoryID: 650871},         // same group
		{Payee: "Lidl"},                             // uncategorized
		{Payee: "Rewe", CategoryIDs: []int64{7, 8}}, // no hint
	}

	overrides := n.Overrides(txs)
	require.Len(t, overrides, 1)
	assert.Equal(t, usecase.HintOverride{Index: 0, Payee: "Lidl Berlin", Hint: "Lidl", From: []int64{5}, To: 650871}, overrides[0])

	assert.Empty(t, usecase.NewNormalizer(nil).Overrides(txs))
}
