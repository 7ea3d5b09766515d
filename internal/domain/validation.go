package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseTransactions decodes the producer's JSON array of transactions.
// Any problem is reported as ErrInput and nothing is returned partially.
func ParseTransactions(data []byte) ([]ParsedTransaction, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no JSON input on stdin", ErrInput)
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of transactions", ErrInput)
	}

	var txs []ParsedTransaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON input: %v", ErrInput, err)
	}

	if err := ValidateTransactions(txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ValidateTransactions checks the invariants the normalizer relies on.
// Dates are not checked: their format is the producer's responsibility.
func ValidateTransactions(txs []ParsedTransaction) error {
	for i, tx := range txs {
		if tx.Amount.IsNegative() {
			return fmt.Errorf("%w: transaction %d (%s): amount %s is negative, direction is set by isIncome",
				ErrInput, i, tx.Payee, tx.Amount)
		}
		for _, id := range tx.CategoryIDs {
			if id < 0 {
				return fmt.Errorf("%w: transaction %d (%s): invalid category id %d", ErrInput, i, tx.Payee, id)
			}
		}
		if tx.CategoryID < 0 {
			return fmt.Errorf("%w: transaction %d (%s): invalid category id %d", ErrInput, i, tx.Payee, tx.CategoryID)
		}
	}
	return nil
}
