// Package idgen issues the run ids stamped on review artifacts and logs.
package idgen

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based run ids. They sort by creation time,
// so the id of a review artifact also tells when it was prepared.
type ULIDGenerator struct {
	now func() time.Time
}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{now: time.Now}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.MustNew(ulid.Timestamp(g.now()), ulid.DefaultEntropy()).String()
}
