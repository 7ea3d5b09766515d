package zenmoney

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iho/zensubmit/internal/domain"
)

// accountDTO is an entry of GET /v1/account/.
type accountDTO struct {
	Title      string        `json:"title"`
	Type       string        `json:"type"`
	Balance    domain.Amount `json:"balance"`
	CurrencyID int64         `json:"currency_id"`
}

// categoryDTO is an entry of GET /v1/category/.
type categoryDTO struct {
	Title    string `json:"title"`
	ParentID *int64 `json:"parent_id"`
	Type     string `json:"type"`
}

// profileDTO is the part of GET /s1/profile/ that describes the taxonomy.
type profileDTO struct {
	Tags      json.RawMessage `json:"tags"`
	TagGroups json.RawMessage `json:"tag_groups"`
}

type tagDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type tagGroupDTO struct {
	ID          int64 `json:"id"`
	Tag0        int64 `json:"tag0"`
	Tag1        int64 `json:"tag1"`
	Tag2        int64 `json:"tag2"`
	ShowIncome  flag  `json:"show_income"`
	ShowOutcome flag  `json:"show_outcome"`
}

// flag accepts the ledger's mix of booleans, 0/1 numbers and null.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch s := string(bytes.TrimSpace(data)); s {
	case "true":
		*f = true
	case "false", "null", "0", `""`:
		*f = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid flag value %s", s)
		}
		*f = n != 0
	}
	return nil
}

// decodeCollection decodes a JSON object keyed by id, or a plain array, into
// its values. The ledger uses both shapes for the same collections.
func decodeCollection[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '{':
		var byID map[string]T
		if err := json.Unmarshal(raw, &byID); err != nil {
			return nil, err
		}
		out := make([]T, 0, len(byID))
		for _, v := range byID {
			out = append(out, v)
		}
		return out, nil
	case '[':
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %.20s", raw)
	}
}

// entryID is the id of a collection entry, sent as a number or a string.
type entryID string

func (id *entryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = entryID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = entryID(n.String())
	return nil
}

// decodeKeyed decodes an id-keyed collection. The ledger sends an object
// keyed by id, or an array of entries carrying "id" ([] when empty).
func decodeKeyed[T any](body []byte) (map[string]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || string(body) == "null" {
		return nil, fmt.Errorf("expected an object keyed by id or an array")
	}

	if body[0] != '[' {
		var byID map[string]T
		if err := json.Unmarshal(body, &byID); err != nil {
			return nil, err
		}
		for id := range byID {
			if id == "" {
				return nil, fmt.Errorf("entry without id")
			}
		}
		return byID, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	byID := make(map[string]T, len(entries))
	for i, raw := range entries {
		var head struct {
			ID entryID `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("entry %d: %v", i, err)
		}
		if head.ID == "" {
			return nil, fmt.Errorf("entry %d without id", i)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("entry %s: %v", head.ID, err)
		}
		byID[string(head.ID)] = v
	}
	return byID, nil
}

func decodeAccounts(body []byte) (map[string]domain.Account, error) {
	raw, err := decodeKeyed[accountDTO](body)
	if err != nil {
		return nil, fmt.Errorf("%w: accounts: %v", domain.ErrGatewayResponse, err)
	}

	accounts := make(map[string]domain.Account, len(raw))
	for id, dto := range raw {
		accounts[id] = domain.Account{
			ID:         id,
			Title:      dto.Title,
			Type:       dto.Type,
			Balance:    dto.Balance,
			CurrencyID: dto.CurrencyID,
		}
	}
	return accounts, nil
}

func decodeCategories(body []byte) (map[string]domain.Category, error) {
	raw, err := decodeKeyed[categoryDTO](body)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %v", domain.ErrGatewayResponse, err)
	}

	categories := make(map[string]domain.Category, len(raw))
	for id, dto := range raw {
		categories[id] = domain.Category{
			ID:       id,
			Title:    dto.Title,
			ParentID: dto.ParentID,
			Type:     dto.Type,
		}
	}
	return categories, nil
}

// decodeCategoryGroups builds the taxonomy from the profile's tags and tag
// groups. The result is unsorted.
func decodeCategoryGroups(body []byte) ([]domain.CategoryGroup, error) {
	var profile profileDTO
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: profile: %v", domain.ErrGatewayResponse, err)
	}
	if len(bytes.TrimSpace(profile.TagGroups)) == 0 {
		return nil, fmt.Errorf("%w: profile: missing tag_groups", domain.ErrGatewayResponse)
	}

	tags, err := decodeCollection[tagDTO](profile.Tags)
	if err != nil {
		return nil, fmt.Errorf("%w: profile tags: %v", domain.ErrGatewayResponse, err)
	}
	rawGroups, err := decodeCollection[tagGroupDTO](profile.TagGroups)
	if err != nil {
		return nil, fmt.Errorf("%w: profile tag_groups: %v", domain.ErrGatewayResponse, err)
	}

	titles := make(map[int64]string, len(tags))
	for _, tag := range tags {
		titles[tag.ID] = tag.Title
	}

	groups := make([]domain.CategoryGroup, 0, len(rawGroups))
	for _, g := range rawGroups {
		if g.ID == 0 {
			return nil, fmt.Errorf("%w: profile tag_groups: entry without id", domain.ErrGatewayResponse)
		}
		groups = append(groups, domain.CategoryGroup{
			ID:    g.ID,
			Label: groupLabel(g, titles),
			Type:  groupType(g),
		})
	}
	return groups, nil
}

func groupLabel(g tagGroupDTO, titles map[int64]string) string {
	var label []byte
	for _, tagID := range []int64{g.Tag0, g.Tag1, g.Tag2} {
		if tagID == 0 {
			continue
		}
		if len(label) > 0 {
			label = append(label, " / "...)
		}
		if title, ok := titles[tagID]; ok {
			label = append(label, title...)
		} else {
			label = strconv.AppendInt(label, tagID, 10)
		}
	}
	return string(label)
}

func groupType(g tagGroupDTO) domain.CategoryGroupType {
	switch {
	case bool(g.ShowOutcome):
		return domain.CategoryGroupExpense
	case bool(g.ShowIncome):
		return domain.CategoryGroupIncome
	default:
		return domain.CategoryGroupHidden
	}
}
