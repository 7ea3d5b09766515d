package domain_test

import (
	"reflect"
	"testing"

	"github.com/iho/zensubmit/internal/domain"
)

func TestCategoryHintsKeysOrder(t *testing.T) {
	hints := domain.CategoryHints{
		"Lidl":        1,
		"Lidl Berlin": 2,
		"Aldi":        3,
		"":            4,
		"REWE":        5,
	}

	want := []string{"Lidl Berlin", "Aldi", "Lidl", "REWE"}
	if got := hints.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
}

func TestCategoryHintsMatch(t *testing.T) {
	hints := domain.CategoryHints{
		"Lidl":        650871,
		"Lidl Berlin": 650872,
		"Shop":        1,
		"Coffee":      2,
	}

	tests := []struct {
		payee  string
		wantID int64
		wantOK bool
	}{
		{"Lidl Dienstleistung", 650871, true},
		{"Lidl Berlin Mitte", 650872, true},
		{"lidl", 0, false},
		{"Coffee Shop", 2, true}, // longer key wins
		{"Tea Shop", 1, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		id, ok := hints.Match(tt.payee)
		if id != tt.wantID || ok != tt.wantOK {
			t.Fatalf("Match(%q) = (%d, %v), want (%d, %v)", tt.payee, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestCategoryHintsMatchTieBreak(t *testing.T) {
	hints := domain.CategoryHints{"Bbbb": 2, "Aaaa": 1}
	if id, _ := hints.Match("Bbbb Aaaa"); id != 1 {
		t.Fatalf("expected equal-length tie to resolve by byte order, got %d", id)
	}
}

func TestCategoryHintsMerge(t *testing.T) {
	base := domain.CategoryHints{"Lidl": 1, "Aldi": 2}
	merged := base.Merge(domain.CategoryHints{"Lidl": 3})

	if merged["Lidl"] != 3 || merged["Aldi"] != 2 {
		t.Fatalf("unexpected merge result: %v", merged)
	}
	if base["Lidl"] != 1 {
		t.Fatalf("merge must not modify the receiver")
	}
}
