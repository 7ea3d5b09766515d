// Package zenmoney implements usecase.LedgerGateway against the ZenMoney web API.
package zenmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iho/zensubmit/internal/domain"
)

// DefaultBaseURL is the public ZenMoney API root.
const DefaultBaseURL = "https://zenmoney.ru/api"

// maxErrorBody bounds how much of an error response is kept for the operator.
const maxErrorBody = 64 << 10

// Client talks to the ledger with the operator's session cookie.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Client. The http.Client carries the request timeout.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchAccounts returns the ledger's accounts keyed by id.
func (c *Client) FetchAccounts(ctx context.Context, credential string) (map[string]domain.Account, error) {
	body, err := c.get(ctx, "fetch accounts", "/v1/account/", credential)
	if err != nil {
		return nil, err
	}
	return decodeAccounts(body)
}

// FetchCategories returns the ledger's flat categories keyed by id.
func (c *Client) FetchCategories(ctx context.Context, credential string) (map[string]domain.Category, error) {
	body, err := c.get(ctx, "fetch categories", "/v1/category/", credential)
	if err != nil {
		return nil, err
	}
	return decodeCategories(body)
}

// FetchCategoryGroups returns the tag group hierarchy from the profile,
// sorted by label with Russian collation, ties broken by id.
func (c *Client) FetchCategoryGroups(ctx context.Context, credential string) ([]domain.CategoryGroup, error) {
	body, err := c.get(ctx, "fetch category groups", "/s1/profile/", credential)
	if err != nil {
		return nil, err
	}

	groups, err := decodeCategoryGroups(body)
	if err != nil {
		return nil, err
	}

	collator := collate.New(language.Russian)
	sort.SliceStable(groups, func(i, j int) bool {
		if cmp := collator.CompareString(groups[i].Label, groups[j].Label); cmp != 0 {
			return cmp < 0
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

// SubmitTransactions posts the whole batch in one request. The ledger expects
// a JSON body under a form content type.
func (c *Client) SubmitTransactions(ctx context.Context, credential string, txs []domain.WireTransaction) (json.RawMessage, error) {
	const op = "submit transactions"

	payload, err := json.Marshal(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: encode batch: %v", domain.ErrSubmission, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v2/transaction/", credential, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The batch may or may not have reached the ledger.
		return nil, fmt.Errorf("%w: %s: outcome unknown: %v", domain.ErrSubmission, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", domain.ErrSubmission, op, err)
	}

	if err := checkStatus(op, resp.StatusCode, body, domain.ErrSubmission); err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		// Accepted but not JSON: keep the text rather than fail a batch the ledger took.
		quoted, _ := json.Marshal(string(body))
		return json.RawMessage(quoted), nil
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, op, path, credential string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, credential, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrGateway, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", domain.ErrGateway, op, err)
	}

	if err := checkStatus(op, resp.StatusCode, body, domain.ErrGateway); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, credential string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrGateway, err)
	}
	req.Header.Set("Cookie", credential)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// checkStatus maps a non-2xx response to a StatusError. Rejected credentials
// are ErrAuth regardless of the operation; everything else gets failKind.
func checkStatus(op string, status int, body []byte, failKind error) error {
	if status >= 200 && status < 300 {
		return nil
	}

	kind := failKind
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = domain.ErrAuth
	}

	truncated := len(body) > maxErrorBody
	if truncated {
		body = body[:maxErrorBody]
	}
	return &domain.StatusError{
		Kind:       kind,
		Op:         op,
		StatusCode: status,
		Body:       string(body),
		Truncated:  truncated,
	}
}
